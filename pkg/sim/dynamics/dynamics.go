// Package dynamics integrates single-degree-of-freedom joints and free-floating bases.
package dynamics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gwillem/urdfcheck/pkg/kinematics"
	"github.com/gwillem/urdfcheck/pkg/robot"
	"github.com/gwillem/urdfcheck/pkg/urdf"
)

const (
	minInertia = 1e-4
	minMass    = 1e-3
)

// DOF is the state of one joint degree of freedom.
type DOF struct {
	Pos     float64
	Vel     float64
	Effort  float64 // commanded effort of the last step, before joint damping
	Inertia float64
	Damping float64
	MaxVel  float64 // zero means unlimited
	Lower   float64
	Upper   float64
}

// NewDOF creates a joint state at rest at the midpoint of a limited joint, or zero.
func NewDOF(j robot.Joint, inertia float64) DOF {
	d := DOF{
		Inertia: math.Max(inertia, minInertia),
		Damping: j.Damping,
		MaxVel:  j.MaxVelocity,
		Lower:   j.Lower,
		Upper:   j.Upper,
	}
	if d.limited() && (d.Lower > 0 || d.Upper < 0) {
		d.Pos = (d.Lower + d.Upper) / 2
	}
	return d
}

func (d *DOF) limited() bool {
	return d.Lower < d.Upper
}

// Step applies effort for dt seconds using semi-implicit Euler.
func (d *DOF) Step(effort, dt float64) {
	d.Effort = effort
	net := effort - d.Damping*d.Vel
	d.Vel += net / d.Inertia * dt
	if d.MaxVel > 0 {
		d.Vel = math.Max(-d.MaxVel, math.Min(d.MaxVel, d.Vel))
	}
	d.Pos += d.Vel * dt
	if !d.limited() {
		return
	}
	if d.Pos < d.Lower {
		d.Pos = d.Lower
		d.Vel = math.Max(d.Vel, 0)
	} else if d.Pos > d.Upper {
		d.Pos = d.Upper
		d.Vel = math.Min(d.Vel, 0)
	}
}

// Drive is a PD position drive with an effort cap.
type Drive struct {
	Stiffness float64
	Damping   float64
	MaxForce  float64
}

// DefaultBandwidth is the natural frequency, in rad/s, of drives built by CriticalDrive.
const DefaultBandwidth = 20.0

// CriticalDrive returns a critically damped drive for a joint of the given inertia.
func CriticalDrive(inertia, bandwidth, maxForce float64) Drive {
	inertia = math.Max(inertia, minInertia)
	return Drive{
		Stiffness: inertia * bandwidth * bandwidth,
		Damping:   2 * inertia * bandwidth,
		MaxForce:  maxForce,
	}
}

// PositionEffort returns the capped effort driving d towards target.
func (dr Drive) PositionEffort(d *DOF, target float64) float64 {
	return dr.clamp(dr.Stiffness*(target-d.Pos) - dr.Damping*d.Vel)
}

// VelocityEffort returns the capped effort driving d towards the target velocity.
func (dr Drive) VelocityEffort(d *DOF, target float64) float64 {
	return dr.clamp(dr.Damping * (target - d.Vel))
}

func (dr Drive) clamp(effort float64) float64 {
	if dr.MaxForce <= 0 {
		return effort
	}
	return math.Max(-dr.MaxForce, math.Min(dr.MaxForce, effort))
}

// EffectiveInertia estimates the inertia a joint moves from its child link.
// Revolute joints use the axis moment of the inertia tensor plus the point-mass term of
// the center of mass; prismatic joints use the mass.
func EffectiveInertia(link urdf.Link, typ robot.JointType, axis r3.Vec) float64 {
	if link.Inertial == nil {
		if typ == robot.JointPrismatic {
			return minMass
		}
		return minInertia
	}
	in := link.Inertial
	mass := math.Max(in.Mass.Value, 0)
	if typ == robot.JointPrismatic {
		return math.Max(mass, minMass)
	}

	i := in.Inertia
	tensor := r3.NewMat([]float64{
		i.Ixx, i.Ixy, i.Ixz,
		i.Ixy, i.Iyy, i.Iyz,
		i.Ixz, i.Iyz, i.Izz,
	})
	moment := r3.Dot(axis, tensor.MulVec(axis))

	com := kinematics.FromOrigin(in.Origin).Point
	perp := r3.Sub(com, r3.Scale(r3.Dot(com, axis), axis))
	return math.Max(moment+mass*r3.Norm2(perp), minInertia)
}

// FreeBase is a root link that is not attached to the world.
type FreeBase struct {
	Pose kinematics.Pose
	Vel  r3.Vec
}

// Step integrates gravity for dt seconds.
func (b *FreeBase) Step(gravity r3.Vec, dt float64) {
	b.Vel = r3.Add(b.Vel, r3.Scale(dt, gravity))
	b.Pose.Point = r3.Add(b.Pose.Point, r3.Scale(dt, b.Vel))
}

// Rest lifts the base so the lowest link sits on the ground and stops vertical motion.
// It returns true when contact occurred.
func (b *FreeBase) Rest(lowest, altitude float64) bool {
	if lowest >= altitude {
		return false
	}
	b.Pose.Point.Z += altitude - lowest
	b.Vel = r3.Vec{X: b.Vel.X, Y: b.Vel.Y}
	return true
}
