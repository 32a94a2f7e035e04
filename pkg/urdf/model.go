// Package urdf decodes and validates Unified Robot Description Format files.
package urdf

import (
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/gwillem/urdfcheck/pkg/robot"
)

// Model represents the URDF fields the engines consume.
type Model struct {
	XMLName xml.Name `xml:"robot"`
	Name    string   `xml:"name,attr"`
	Links   []Link   `xml:"link"`
	Joints  []Joint  `xml:"joint"`
}

// Link is a URDF link element.
type Link struct {
	Name     string    `xml:"name,attr"`
	Inertial *Inertial `xml:"inertial,omitempty"`
}

// Inertial holds the mass properties of a link.
type Inertial struct {
	Origin  *Origin `xml:"origin,omitempty"`
	Mass    Mass    `xml:"mass"`
	Inertia Inertia `xml:"inertia"`
}

type Mass struct {
	Value float64 `xml:"value,attr"`
}

type Inertia struct {
	Ixx float64 `xml:"ixx,attr"`
	Ixy float64 `xml:"ixy,attr"`
	Ixz float64 `xml:"ixz,attr"`
	Iyy float64 `xml:"iyy,attr"`
	Iyz float64 `xml:"iyz,attr"`
	Izz float64 `xml:"izz,attr"`
}

// Joint is a URDF joint element.
type Joint struct {
	Name     string    `xml:"name,attr"`
	Type     string    `xml:"type,attr"`
	Parent   Frame     `xml:"parent"`
	Child    Frame     `xml:"child"`
	Origin   *Origin   `xml:"origin,omitempty"`
	Axis     *Axis     `xml:"axis,omitempty"`
	Limit    *Limit    `xml:"limit,omitempty"`
	Dynamics *Dynamics `xml:"dynamics,omitempty"`
}

type Frame struct {
	Link string `xml:"link,attr"`
}

type Limit struct {
	Lower    float64 `xml:"lower,attr"` // translation limits are in meters, revolute limits are in radians
	Upper    float64 `xml:"upper,attr"`
	Effort   float64 `xml:"effort,attr"`
	Velocity float64 `xml:"velocity,attr"`
}

type Dynamics struct {
	Damping  float64 `xml:"damping,attr"`
	Friction float64 `xml:"friction,attr"`
}

type Axis struct {
	XYZ string `xml:"xyz,attr"`
}

// Origin is a pose relative to the parent frame.
type Origin struct {
	XYZ string `xml:"xyz,attr"` // "x y z" in meters
	RPY string `xml:"rpy,attr"` // fixed-axis roll pitch yaw in radians
}

// Parse decodes URDF XML data.
func Parse(data []byte) (*Model, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	m := &Model{}
	if err := xml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return m, nil
}

// ParseFile reads and decodes a URDF file.
func ParseFile(path string) (*Model, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotFound, path)
		}
		return nil, errors.Wrap(err, "failed to read URDF file")
	}
	return Parse(data)
}

// Link returns the link with the given name.
func (m *Model) Link(name string) (Link, bool) {
	for _, l := range m.Links {
		if l.Name == name {
			return l, true
		}
	}
	return Link{}, false
}

// Root returns the single link that is never a joint child.
func (m *Model) Root() (string, error) {
	children := make(map[string]bool, len(m.Joints))
	for _, j := range m.Joints {
		children[j.Child.Link] = true
	}
	var roots []string
	for _, l := range m.Links {
		if !children[l.Name] {
			roots = append(roots, l.Name)
		}
	}
	if len(roots) != 1 {
		return "", errors.Wrapf(ErrNoRoot, "found %d candidates %v", len(roots), roots)
	}
	return roots[0], nil
}

// JointRecords returns a joint record per URDF joint in document order.
// Joints without a usable range report lower=0, upper=-1.
func (m *Model) JointRecords() []robot.Joint {
	joints := make([]robot.Joint, 0, len(m.Joints))
	for i, j := range m.Joints {
		rec := robot.Joint{
			Index:  i,
			Name:   j.Name,
			Type:   robot.ParseJointType(j.Type),
			Lower:  0,
			Upper:  -1,
			Parent: j.Parent.Link,
			Child:  j.Child.Link,
		}
		if j.Limit != nil {
			rec.MaxForce = j.Limit.Effort
			rec.MaxVelocity = j.Limit.Velocity
			if rec.Type.Movable() {
				rec.Lower, rec.Upper = j.Limit.Lower, j.Limit.Upper
			}
		} else if rec.Type.Movable() {
			rec.Upper = 0
		}
		if j.Dynamics != nil {
			rec.Damping = j.Dynamics.Damping
		}
		joints = append(joints, rec)
	}
	return joints
}

// Floats splits a space-delimited attribute into exactly n values.
// Missing or unparsable values are zero.
func Floats(s string, n int) []float64 {
	out := make([]float64, n)
	for i, field := range strings.Fields(s) {
		if i >= n {
			break
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil || math.IsNaN(v) {
			continue
		}
		out[i] = v
	}
	return out
}
