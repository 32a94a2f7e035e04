// Package rigid is a rigid-body simulator for fixed- or free-base URDF robots.
//
// The API follows the connect / load / query / step / disconnect call sequence of
// classic robotics simulators. Bodies are addressed by integer IDs and joints by their
// index in URDF document order. An Engine is not safe for concurrent use.
package rigid

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gwillem/urdfcheck/pkg/kinematics"
	"github.com/gwillem/urdfcheck/pkg/robot"
	"github.com/gwillem/urdfcheck/pkg/sim/dynamics"
	"github.com/gwillem/urdfcheck/pkg/urdf"
)

var (
	ErrNotConnected = errors.New("physics engine not connected")
	ErrUnknownBody  = errors.New("unknown body")
	ErrJointIndex   = errors.New("joint index out of range")
)

// ControlMode selects how a joint motor interprets its target.
type ControlMode int

const (
	PositionControl ControlMode = iota
	VelocityControl
)

// Config configures an Engine.
type Config struct {
	Timestep float64 // seconds per StepSimulation
}

// LoadOptions place a URDF body in the world.
type LoadOptions struct {
	BasePosition r3.Vec
	FixedBase    bool
}

// JointState is the dynamic state of one joint.
type JointState struct {
	Position      float64
	Velocity      float64
	AppliedEffort float64
}

type motor struct {
	enabled bool
	mode    ControlMode
	target  float64
	drive   dynamics.Drive
}

type body struct {
	name   string
	plane  bool
	fixed  bool
	chain  *kinematics.Chain
	joints []robot.Joint
	dofs   []dynamics.DOF
	motors []motor
	base   dynamics.FreeBase
	q      []float64
	landed bool
}

// Engine is a connected physics server.
type Engine struct {
	connected bool
	gravity   r3.Vec
	timestep  float64
	bodies    []*body
	plane     bool
	steps     uint64
	logger    zerolog.Logger
}

// Connect starts a physics server.
func Connect(cfg Config, logger zerolog.Logger) *Engine {
	if cfg.Timestep <= 0 {
		cfg.Timestep = 1.0 / 240.0
	}
	logger.Debug().Float64("timestep", cfg.Timestep).Msg("physics engine connected")
	return &Engine{
		connected: true,
		timestep:  cfg.Timestep,
		logger:    logger,
	}
}

// Disconnect releases all bodies. Calling it twice is a no-op.
func (e *Engine) Disconnect() error {
	if !e.connected {
		return nil
	}
	e.connected = false
	e.bodies = nil
	e.logger.Debug().Uint64("steps", e.steps).Msg("physics engine disconnected")
	return nil
}

// Timestep returns the seconds advanced per StepSimulation.
func (e *Engine) Timestep() float64 {
	return e.timestep
}

// Time returns the simulated time.
func (e *Engine) Time() float64 {
	return float64(e.steps) * e.timestep
}

// SetGravity sets the world gravity vector.
func (e *Engine) SetGravity(x, y, z float64) error {
	if !e.connected {
		return ErrNotConnected
	}
	e.gravity = r3.Vec{X: x, Y: y, Z: z}
	return nil
}

// Gravity returns the world gravity vector.
func (e *Engine) Gravity() r3.Vec {
	return e.gravity
}

// LoadPlane adds a static ground plane at z=0.
func (e *Engine) LoadPlane() (int, error) {
	if !e.connected {
		return 0, ErrNotConnected
	}
	e.plane = true
	e.bodies = append(e.bodies, &body{name: "plane", plane: true, fixed: true})
	return len(e.bodies) - 1, nil
}

// LoadURDF loads a robot and returns its body ID.
func (e *Engine) LoadURDF(path string, opts LoadOptions) (int, error) {
	if !e.connected {
		return 0, ErrNotConnected
	}
	model, err := urdf.ParseFile(path)
	if err != nil {
		return 0, err
	}
	chain, err := kinematics.NewChain(model)
	if err != nil {
		return 0, errors.Wrapf(err, "load %s", path)
	}

	joints := model.JointRecords()
	b := &body{
		name:   model.Name,
		fixed:  opts.FixedBase,
		chain:  chain,
		joints: joints,
		dofs:   make([]dynamics.DOF, len(joints)),
		motors: make([]motor, len(joints)),
		base:   dynamics.FreeBase{Pose: kinematics.Translation(opts.BasePosition)},
		q:      make([]float64, len(joints)),
	}
	for i, j := range joints {
		var inertia float64
		if j.Type.HasDOF() {
			child, _ := model.Link(j.Child)
			inertia = dynamics.EffectiveInertia(child, j.Type, kinematics.ParseAxis(model.Joints[i].Axis))
		}
		b.dofs[i] = dynamics.NewDOF(j, inertia)
		b.q[i] = b.dofs[i].Pos
	}
	e.bodies = append(e.bodies, b)

	id := len(e.bodies) - 1
	e.logger.Debug().
		Str("robot", model.Name).
		Int("body", id).
		Int("joints", len(joints)).
		Bool("fixedBase", opts.FixedBase).
		Msg("loaded URDF")
	return id, nil
}

func (e *Engine) body(id int) (*body, error) {
	if !e.connected {
		return nil, ErrNotConnected
	}
	if id < 0 || id >= len(e.bodies) {
		return nil, errors.Wrapf(ErrUnknownBody, "id %d", id)
	}
	return e.bodies[id], nil
}

func (e *Engine) joint(bodyID, joint int) (*body, error) {
	b, err := e.body(bodyID)
	if err != nil {
		return nil, err
	}
	if joint < 0 || joint >= len(b.joints) {
		return nil, errors.Wrapf(ErrJointIndex, "body %d joint %d", bodyID, joint)
	}
	return b, nil
}

// BodyName returns the robot name of a URDF body, or "plane".
func (e *Engine) BodyName(bodyID int) (string, error) {
	b, err := e.body(bodyID)
	if err != nil {
		return "", err
	}
	return b.name, nil
}

// NumJoints returns the number of joints of a body.
func (e *Engine) NumJoints(bodyID int) (int, error) {
	b, err := e.body(bodyID)
	if err != nil {
		return 0, err
	}
	return len(b.joints), nil
}

// JointInfo returns the static description of a joint.
func (e *Engine) JointInfo(bodyID, joint int) (robot.Joint, error) {
	b, err := e.joint(bodyID, joint)
	if err != nil {
		return robot.Joint{}, err
	}
	return b.joints[joint], nil
}

// JointState returns the position, velocity and last applied effort of a joint.
func (e *Engine) JointState(bodyID, joint int) (JointState, error) {
	b, err := e.joint(bodyID, joint)
	if err != nil {
		return JointState{}, err
	}
	d := b.dofs[joint]
	return JointState{Position: d.Pos, Velocity: d.Vel, AppliedEffort: d.Effort}, nil
}

// SetJointMotorControl commands a joint motor. force caps the effort the motor applies.
// Commands to joints that cannot move are accepted and ignored.
func (e *Engine) SetJointMotorControl(bodyID, joint int, mode ControlMode, target, force float64) error {
	b, err := e.joint(bodyID, joint)
	if err != nil {
		return err
	}
	if !b.joints[joint].Type.HasDOF() {
		return nil
	}
	b.motors[joint] = motor{
		enabled: true,
		mode:    mode,
		target:  target,
		drive:   dynamics.CriticalDrive(b.dofs[joint].Inertia, dynamics.DefaultBandwidth, force),
	}
	return nil
}

// BasePose returns the world pose of a body's root link.
func (e *Engine) BasePose(bodyID int) (kinematics.Pose, error) {
	b, err := e.body(bodyID)
	if err != nil {
		return kinematics.Pose{}, err
	}
	if b.plane {
		return kinematics.Identity(), nil
	}
	return b.base.Pose, nil
}

// LinkPoses returns the world pose of every link of a body.
func (e *Engine) LinkPoses(bodyID int) (map[string]kinematics.Pose, error) {
	b, err := e.body(bodyID)
	if err != nil {
		return nil, err
	}
	if b.plane {
		return map[string]kinematics.Pose{}, nil
	}
	return b.chain.LinkPoses(b.base.Pose, b.q), nil
}

// StepSimulation advances the world by one timestep.
func (e *Engine) StepSimulation() error {
	if !e.connected {
		return ErrNotConnected
	}
	dt := e.timestep
	for id, b := range e.bodies {
		if b.plane {
			continue
		}
		for i := range b.dofs {
			if !b.joints[i].Type.HasDOF() {
				continue
			}
			d := &b.dofs[i]
			var effort float64
			if m := b.motors[i]; m.enabled {
				switch m.mode {
				case PositionControl:
					effort = m.drive.PositionEffort(d, m.target)
				case VelocityControl:
					effort = m.drive.VelocityEffort(d, m.target)
				}
			}
			d.Step(effort, dt)
			b.q[i] = d.Pos
		}
		if !b.fixed {
			b.base.Step(e.gravity, dt)
			if e.plane {
				lowest := kinematics.LowestZ(b.chain.LinkPoses(b.base.Pose, b.q))
				if b.base.Rest(lowest, 0) && !b.landed {
					b.landed = true
					e.logger.Debug().Int("body", id).Float64("t", e.Time()).Msg("body resting on plane")
				}
			}
		}
	}
	e.steps++
	return nil
}
