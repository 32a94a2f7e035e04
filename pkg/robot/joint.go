// Package robot provides joint records and tool configuration for URDF robot models.
package robot

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// JointType is the kinematic type of a joint.
type JointType int

// Joint types as declared by the URDF type attribute.
const (
	JointUnknown JointType = iota
	JointRevolute
	JointPrismatic
	JointFixed
	JointContinuous
	JointFloating
	JointPlanar
)

var jointTypeNames = map[JointType]string{
	JointRevolute:   "revolute",
	JointPrismatic:  "prismatic",
	JointFixed:      "fixed",
	JointContinuous: "continuous",
	JointFloating:   "floating",
	JointPlanar:     "planar",
}

// ParseJointType maps a URDF type attribute to a JointType.
// Unrecognised values map to JointUnknown.
func ParseJointType(s string) JointType {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range jointTypeNames {
		if name == s {
			return t
		}
	}
	return JointUnknown
}

// String returns the upper-case name used in joint tables.
func (t JointType) String() string {
	if name, ok := jointTypeNames[t]; ok {
		return strings.ToUpper(name)
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(t))
}

// Movable reports whether the joint type has a degree of freedom the engines drive.
func (t JointType) Movable() bool {
	return t == JointRevolute || t == JointPrismatic
}

// HasDOF reports whether the joint type has exactly one degree of freedom, including
// continuous joints, which have no limits.
func (t JointType) HasDOF() bool {
	return t.Movable() || t == JointContinuous
}

// Joint is a read-only snapshot of a joint of a loaded model.
type Joint struct {
	Index       int
	Name        string
	Type        JointType
	Lower       float64 // radians for revolute joints, meters for prismatic joints
	Upper       float64
	MaxForce    float64
	MaxVelocity float64
	Damping     float64
	Parent      string
	Child       string
}

// Controllable is true for revolute or prismatic joints with a non-degenerate range.
func (j Joint) Controllable() bool {
	return j.Type.Movable() && j.Lower < j.Upper
}

// Controllable returns the controllable joints, preserving order.
func Controllable(joints []Joint) []Joint {
	return lo.Filter(joints, func(j Joint, _ int) bool {
		return j.Controllable()
	})
}

// Names returns the joint names in order.
func Names(joints []Joint) []string {
	return lo.Map(joints, func(j Joint, _ int) string {
		return j.Name
	})
}
