// Package animate drives a simulated robot through a periodic joint trajectory.
package animate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/gwillem/urdfcheck/pkg/robot"
	"github.com/gwillem/urdfcheck/pkg/sim/rigid"
)

// Simulator is the subset of the rigid-body engine the controller needs.
type Simulator interface {
	SetJointMotorControl(body, joint int, mode rigid.ControlMode, target, force float64) error
	JointState(body, joint int) (rigid.JointState, error)
	StepSimulation() error
}

// State is a snapshot published after every control step.
type State struct {
	Step      uint64
	Time      float64 // simulated seconds
	Joints    []robot.Joint
	Targets   []float64
	Positions []float64
	Timestamp time.Time
	Err       error
}

// Normalized returns the joint positions scaled to [-100, 100].
func (s State) Normalized() []float64 {
	out := make([]float64, len(s.Positions))
	for i, pos := range s.Positions {
		out[i] = s.Joints[i].Normalize(pos)
	}
	return out
}

// Config holds configuration for the controller.
type Config struct {
	Body     int
	Joints   []robot.Joint // controllable joints, in display order
	Wave     Sine
	Force    float64
	Timestep float64 // simulated seconds per step
	Hz       int     // steps per wall-clock second
	Clock    clock.Clock
	Logger   zerolog.Logger
}

// Controller runs the animation loop.
type Controller struct {
	sim      Simulator
	body     int
	joints   []robot.Joint
	wave     Sine
	force    float64
	timestep float64
	hz       int
	clock    clock.Clock
	logger   zerolog.Logger

	mu      sync.Mutex
	running bool
	t       float64
	steps   uint64
	stateCh chan State
	logCh   chan string
}

// NewController creates a controller for sim.
func NewController(sim Simulator, cfg Config) *Controller {
	if cfg.Hz <= 0 {
		cfg.Hz = 240
	}
	if cfg.Timestep <= 0 {
		cfg.Timestep = 1.0 / float64(cfg.Hz)
	}
	if cfg.Wave == (Sine{}) {
		cfg.Wave = DefaultSine
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return &Controller{
		sim:      sim,
		body:     cfg.Body,
		joints:   cfg.Joints,
		wave:     cfg.Wave,
		force:    cfg.Force,
		timestep: cfg.Timestep,
		hz:       cfg.Hz,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		stateCh:  make(chan State, 1),
		logCh:    make(chan string, 10),
	}
}

// States returns a channel that receives the latest state.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// Joints returns the animated joints.
func (c *Controller) Joints() []robot.Joint {
	return c.joints
}

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.logger.Debug().Msg(msg)
	msg = fmt.Sprintf("[%s] %s", c.clock.Now().Format("15:04:05"), msg)
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start runs the control loop until ctx is done and returns ctx.Err(). It returns
// early with the step error once the simulator is disconnected.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	c.log("Animating %d joints at %d Hz", len(c.joints), c.hz)

	ticker := c.clock.Ticker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	var failing bool

	for {
		select {
		case <-ctx.Done():
			c.log("Animation stopped after %d steps (t=%.2fs)", c.steps, c.t)
			return ctx.Err()
		case <-ticker.C:
			s := c.Step()
			c.sendState(s)
			if s.Err == nil {
				failing = false
				continue
			}
			if errors.Is(s.Err, rigid.ErrNotConnected) {
				c.log("Animation aborted: %v", s.Err)
				return s.Err
			}
			// log a recurring error once until a step succeeds again
			if !failing {
				c.log("Step error: %v", s.Err)
			}
			failing = true
		}
	}
}

// Step commands every joint toward its trajectory target, advances the simulation
// by one timestep and returns the resulting state.
func (c *Controller) Step() State {
	s := State{
		Step:      c.steps,
		Time:      c.t,
		Joints:    c.joints,
		Targets:   make([]float64, len(c.joints)),
		Positions: make([]float64, len(c.joints)),
	}

	for i, j := range c.joints {
		target := c.wave.Target(j, c.t, i)
		s.Targets[i] = target
		if err := c.sim.SetJointMotorControl(c.body, j.Index, rigid.PositionControl, target, c.force); err != nil {
			s.Err = fmt.Errorf("set %s: %w", j.Name, err)
			s.Timestamp = c.clock.Now()
			return s
		}
	}

	if err := c.sim.StepSimulation(); err != nil {
		s.Err = fmt.Errorf("step: %w", err)
		s.Timestamp = c.clock.Now()
		return s
	}
	c.steps++
	c.t += c.timestep

	for i, j := range c.joints {
		js, err := c.sim.JointState(c.body, j.Index)
		if err != nil {
			s.Err = fmt.Errorf("read %s: %w", j.Name, err)
			break
		}
		s.Positions[i] = js.Position
	}
	s.Step = c.steps
	s.Time = c.t
	s.Timestamp = c.clock.Now()
	return s
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}
