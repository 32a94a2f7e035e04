// Package kinematics computes link poses of a URDF joint tree.
package kinematics

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gwillem/urdfcheck/pkg/urdf"
)

// Pose is a rigid transform: rotate by Rot, then translate by Point.
type Pose struct {
	Point r3.Vec
	Rot   r3.Rotation
}

// Identity returns the identity pose.
func Identity() Pose {
	return Pose{Rot: r3.Rotation{Real: 1}}
}

// Translation returns a pose with no rotation.
func Translation(p r3.Vec) Pose {
	return Pose{Point: p, Rot: r3.Rotation{Real: 1}}
}

// Compose returns a followed by b, expressed in a's parent frame.
func Compose(a, b Pose) Pose {
	return Pose{
		Point: a.Transform(b.Point),
		Rot:   r3.Rotation(quat.Mul(quat.Number(a.Rot), quat.Number(b.Rot))),
	}
}

// Transform maps p from the pose's frame into its parent frame.
func (p Pose) Transform(v r3.Vec) r3.Vec {
	return r3.Add(p.Point, p.Rot.Rotate(v))
}

// FromRPY builds a rotation from URDF fixed-axis roll, pitch and yaw.
func FromRPY(roll, pitch, yaw float64) r3.Rotation {
	rx := quat.Number(r3.NewRotation(roll, r3.Vec{X: 1}))
	ry := quat.Number(r3.NewRotation(pitch, r3.Vec{Y: 1}))
	rz := quat.Number(r3.NewRotation(yaw, r3.Vec{Z: 1}))
	return r3.Rotation(quat.Mul(rz, quat.Mul(ry, rx)))
}

// FromOrigin converts a URDF origin element. A nil origin is the identity.
func FromOrigin(o *urdf.Origin) Pose {
	if o == nil {
		return Identity()
	}
	xyz := urdf.Floats(o.XYZ, 3)
	rpy := urdf.Floats(o.RPY, 3)
	return Pose{
		Point: r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]},
		Rot:   FromRPY(rpy[0], rpy[1], rpy[2]),
	}
}

// ParseAxis returns the unit joint axis. URDF defaults to (1, 0, 0).
func ParseAxis(a *urdf.Axis) r3.Vec {
	if a == nil {
		return r3.Vec{X: 1}
	}
	xyz := urdf.Floats(a.XYZ, 3)
	v := r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}
	if r3.Norm(v) == 0 {
		return r3.Vec{X: 1}
	}
	return r3.Unit(v)
}
