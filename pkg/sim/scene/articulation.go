package scene

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gwillem/urdfcheck/pkg/kinematics"
	"github.com/gwillem/urdfcheck/pkg/robot"
	"github.com/gwillem/urdfcheck/pkg/sim/dynamics"
	"github.com/gwillem/urdfcheck/pkg/urdf"
)

// ErrJointIndex is returned for an active joint index out of range.
var ErrJointIndex = errors.New("active joint index out of range")

// URDFLoader loads URDF files into a scene.
type URDFLoader struct {
	// FixRootLink welds the root link to the world at its root pose.
	FixRootLink bool

	scene *Scene
}

// Load parses the URDF at path and adds it to the scene as an articulation.
func (l *URDFLoader) Load(path string) (*Articulation, error) {
	model, err := urdf.ParseFile(path)
	if err != nil {
		return nil, err
	}
	chain, err := kinematics.NewChain(model)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}

	a := &Articulation{
		name:   model.Name,
		chain:  chain,
		joints: model.JointRecords(),
		fixed:  l.FixRootLink,
		base:   dynamics.FreeBase{Pose: kinematics.Identity()},
	}
	for i, j := range a.joints {
		if !j.Type.HasDOF() {
			continue
		}
		child, _ := model.Link(j.Child)
		inertia := dynamics.EffectiveInertia(child, j.Type, kinematics.ParseAxis(model.Joints[i].Axis))
		d := dynamics.NewDOF(j, inertia)
		a.active = append(a.active, activeJoint{
			index:  i,
			dof:    d,
			target: d.Pos,
			drive:  dynamics.CriticalDrive(d.Inertia, dynamics.DefaultBandwidth, j.MaxForce),
		})
	}
	a.q = make([]float64, len(a.joints))
	a.syncQ()

	l.scene.arts = append(l.scene.arts, a)
	l.scene.logger.Debug().
		Str("robot", a.name).
		Int("joints", len(a.joints)).
		Int("active", len(a.active)).
		Bool("fixRoot", a.fixed).
		Msg("loaded articulation")
	return a, nil
}

// ActiveJoint describes one degree of freedom of an articulation.
// Continuous joints report infinite limits.
type ActiveJoint struct {
	Index int // index among all joints
	Name  string
	Type  robot.JointType
	Lower float64
	Upper float64
}

type activeJoint struct {
	index  int
	dof    dynamics.DOF
	target float64
	drive  dynamics.Drive
}

// Articulation is a tree of links connected by joints, driven toward per-joint targets.
type Articulation struct {
	name   string
	chain  *kinematics.Chain
	joints []robot.Joint
	active []activeJoint
	q      []float64
	fixed  bool
	base   dynamics.FreeBase
}

// Name returns the robot name.
func (a *Articulation) Name() string {
	return a.name
}

// Joints returns every joint, fixed ones included, in URDF order.
func (a *Articulation) Joints() []robot.Joint {
	return a.joints
}

// Links returns the link names, root first.
func (a *Articulation) Links() []string {
	return a.chain.Links()
}

// ActiveJoints returns the joints with a degree of freedom.
func (a *Articulation) ActiveJoints() []ActiveJoint {
	out := make([]ActiveJoint, len(a.active))
	for i, aj := range a.active {
		j := a.joints[aj.index]
		lower, upper := j.Lower, j.Upper
		if j.Type == robot.JointContinuous {
			lower, upper = math.Inf(-1), math.Inf(1)
		}
		out[i] = ActiveJoint{Index: aj.index, Name: j.Name, Type: j.Type, Lower: lower, Upper: upper}
	}
	return out
}

// Dof returns the number of active joints.
func (a *Articulation) Dof() int {
	return len(a.active)
}

// SetRootPose places the root link.
func (a *Articulation) SetRootPose(p kinematics.Pose) {
	a.base = dynamics.FreeBase{Pose: p}
}

// RootPose returns the pose of the root link.
func (a *Articulation) RootPose() kinematics.Pose {
	return a.base.Pose
}

// Qpos returns the positions of the active joints.
func (a *Articulation) Qpos() []float64 {
	out := make([]float64, len(a.active))
	for i, aj := range a.active {
		out[i] = aj.dof.Pos
	}
	return out
}

// DriveTarget returns the drive target of active joint i.
func (a *Articulation) DriveTarget(i int) (float64, error) {
	if i < 0 || i >= len(a.active) {
		return 0, errors.Wrapf(ErrJointIndex, "%d", i)
	}
	return a.active[i].target, nil
}

// SetDriveTarget sets the drive target of active joint i, clamped to its limits.
func (a *Articulation) SetDriveTarget(i int, target float64) error {
	if i < 0 || i >= len(a.active) {
		return errors.Wrapf(ErrJointIndex, "%d", i)
	}
	a.active[i].target = a.joints[a.active[i].index].Clamp(target)
	return nil
}

// LinkPoses returns the world pose of every link.
func (a *Articulation) LinkPoses() map[string]kinematics.Pose {
	return a.chain.LinkPoses(a.base.Pose, a.q)
}

func (a *Articulation) syncQ() {
	for _, aj := range a.active {
		a.q[aj.index] = aj.dof.Pos
	}
}

func (a *Articulation) step(s *Scene, dt float64) {
	for i := range a.active {
		aj := &a.active[i]
		aj.dof.Step(aj.drive.PositionEffort(&aj.dof, aj.target), dt)
	}
	a.syncQ()

	if a.fixed {
		return
	}
	a.base.Step(r3.Vec{Z: -9.81}, dt)
	if altitude, ok := s.Ground(); ok {
		a.base.Rest(kinematics.LowestZ(a.LinkPoses()), altitude)
	}
}
