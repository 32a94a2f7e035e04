package dynamics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gwillem/urdfcheck/pkg/kinematics"
	"github.com/gwillem/urdfcheck/pkg/robot"
	"github.com/gwillem/urdfcheck/pkg/urdf"
)

func TestDrive_ConvergesToTarget(t *testing.T) {
	j := robot.Joint{Type: robot.JointRevolute, Lower: -1, Upper: 1}
	d := NewDOF(j, 0.01)
	drive := CriticalDrive(d.Inertia, DefaultBandwidth, 100)

	for i := 0; i < 480; i++ {
		d.Step(drive.PositionEffort(&d, 0.4), 1.0/240)
	}
	assert.InDelta(t, 0.4, d.Pos, 1e-3)
	assert.InDelta(t, 0, d.Vel, 1e-2)
}

func TestDrive_EffortCapped(t *testing.T) {
	j := robot.Joint{Type: robot.JointRevolute, Lower: -3, Upper: 3}
	d := NewDOF(j, 1)
	drive := CriticalDrive(d.Inertia, DefaultBandwidth, 2)

	for i := 0; i < 240; i++ {
		d.Step(drive.PositionEffort(&d, 2.5), 1.0/240)
		if math.Abs(d.Effort) > 2+1e-12 {
			t.Fatalf("step %d: effort %f exceeds cap", i, d.Effort)
		}
	}
	assert.Less(t, d.Pos, 2.5)
}

func TestDOF_StaysWithinLimits(t *testing.T) {
	j := robot.Joint{Type: robot.JointPrismatic, Lower: 0, Upper: 0.02}
	d := NewDOF(j, 0.01)

	for i := 0; i < 100; i++ {
		d.Step(50, 1.0/240)
		assert.LessOrEqual(t, d.Pos, 0.02)
		assert.GreaterOrEqual(t, d.Pos, 0.0)
	}
	assert.Equal(t, 0.02, d.Pos)
}

func TestDOF_VelocityLimit(t *testing.T) {
	j := robot.Joint{Type: robot.JointRevolute, Lower: -10, Upper: 10, MaxVelocity: 0.5}
	d := NewDOF(j, 0.01)
	for i := 0; i < 100; i++ {
		d.Step(100, 1.0/240)
		assert.LessOrEqual(t, d.Vel, 0.5)
	}
}

func TestNewDOF_StartsInsideRange(t *testing.T) {
	d := NewDOF(robot.Joint{Lower: 0.2, Upper: 0.6}, 1)
	assert.InDelta(t, 0.4, d.Pos, 1e-12)

	d = NewDOF(robot.Joint{Lower: -1, Upper: 1}, 1)
	assert.Equal(t, 0.0, d.Pos)

	d = NewDOF(robot.Joint{Lower: 0, Upper: -1}, 0)
	assert.Equal(t, 0.0, d.Pos)
	assert.Equal(t, minInertia, d.Inertia)
}

func TestVelocityEffort(t *testing.T) {
	d := DOF{Inertia: 1}
	drive := Drive{Damping: 10, MaxForce: 3}
	assert.Equal(t, 3.0, drive.VelocityEffort(&d, 1))
	assert.Equal(t, -3.0, drive.VelocityEffort(&d, -1))
	assert.InDelta(t, 1.0, drive.VelocityEffort(&d, 0.1), 1e-12)
}

func TestEffectiveInertia(t *testing.T) {
	link := urdf.Link{Inertial: &urdf.Inertial{
		Origin:  &urdf.Origin{XYZ: "0.1 0 0.2"},
		Mass:    urdf.Mass{Value: 2},
		Inertia: urdf.Inertia{Ixx: 0.01, Iyy: 0.02, Izz: 0.03},
	}}

	// about Z: izz + m * (0.1^2)
	assert.InDelta(t, 0.03+2*0.01, EffectiveInertia(link, robot.JointRevolute, r3.Vec{Z: 1}), 1e-9)
	// about X: ixx + m * (0.2^2)
	assert.InDelta(t, 0.01+2*0.04, EffectiveInertia(link, robot.JointRevolute, r3.Vec{X: 1}), 1e-9)
	assert.InDelta(t, 2, EffectiveInertia(link, robot.JointPrismatic, r3.Vec{X: 1}), 1e-9)

	assert.Equal(t, minInertia, EffectiveInertia(urdf.Link{}, robot.JointRevolute, r3.Vec{Z: 1}))
	assert.Equal(t, minMass, EffectiveInertia(urdf.Link{}, robot.JointPrismatic, r3.Vec{Z: 1}))
}

func TestFreeBase_FallsAndRests(t *testing.T) {
	b := FreeBase{Pose: kinematics.Translation(r3.Vec{Z: 0.5})}
	g := r3.Vec{Z: -9.8}

	landed := false
	for i := 0; i < 240; i++ {
		b.Step(g, 1.0/240)
		if b.Rest(b.Pose.Point.Z, 0) {
			landed = true
		}
	}
	assert.True(t, landed)
	assert.InDelta(t, 0, b.Pose.Point.Z, 1e-9)
	assert.Equal(t, 0.0, b.Vel.Z)
}
