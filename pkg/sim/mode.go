// Package sim selects between validation only and the two simulation demos.
package sim

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrEngineUnavailable is returned when no engine is available for a mode.
var ErrEngineUnavailable = errors.New("simulation engine not available")

// Mode selects what the tool does after validating the URDF.
type Mode int

const (
	// ModeRigidBody animates the robot in the rigid-body engine.
	ModeRigidBody Mode = iota
	// ModeViewer opens the robot in the interactive viewer engine.
	ModeViewer
	// ModeValidate only validates the URDF.
	ModeValidate
)

var modeNames = map[Mode]string{
	ModeRigidBody: "rigidbody",
	ModeViewer:    "viewer",
	ModeValidate:  "validate",
}

// aliases accepted on the command line
var modeAliases = map[string]Mode{
	"pybullet":  ModeRigidBody,
	"maniskill": ModeViewer,
}

// Modes returns the canonical mode names.
func Modes() []string {
	return []string{"validate", "rigidbody", "viewer"}
}

// ParseMode parses a canonical mode name or alias, case-insensitively.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	if m, ok := modeAliases[s]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("unknown mode %q (choose one of %s)", s, strings.Join(Modes(), ", "))
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Simulates reports whether the mode runs an engine after validation.
func (m Mode) Simulates() bool {
	return m != ModeValidate
}

// UnmarshalFlag implements flags.Unmarshaler.
func (m *Mode) UnmarshalFlag(value string) error {
	parsed, err := ParseMode(value)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalFlag implements flags.Marshaler.
func (m Mode) MarshalFlag() (string, error) {
	return m.String(), nil
}
