// Package scene is an interactive articulation viewer engine.
//
// An Engine owns scenes and a renderer. A Scene holds lights, an optional ground plane
// and the articulations loaded through its URDF loader; Step advances their drives and
// UpdateRender publishes a Frame the renderer draws from a Camera.
package scene

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoTerminal is returned when the viewer cannot open because stdout is not a terminal.
var ErrNoTerminal = errors.New("viewer requires an interactive terminal")

// Color is a linear RGB triple.
type Color [3]float64

// White is full-intensity white light.
var White = Color{1, 1, 1}

// LightKind distinguishes light sources.
type LightKind int

const (
	DirectionalLight LightKind = iota
	PointLight
)

func (k LightKind) String() string {
	if k == PointLight {
		return "point"
	}
	return "directional"
}

// Light is a light source. Vec is the direction of a directional light or the
// position of a point light.
type Light struct {
	Kind  LightKind
	Vec   r3.Vec
	Color Color
}

// Engine creates scenes and shares one renderer between them.
type Engine struct {
	renderer *Renderer
	scenes   []*Scene
	logger   zerolog.Logger
}

// NewEngine creates an engine without a renderer.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger}
}

// SetRenderer attaches r to the engine and all scenes created afterwards.
func (e *Engine) SetRenderer(r *Renderer) {
	e.renderer = r
}

// Renderer returns the attached renderer, or nil.
func (e *Engine) Renderer() *Renderer {
	return e.renderer
}

// CreateScene creates an empty scene with a 1/100 s timestep.
func (e *Engine) CreateScene() *Scene {
	s := &Scene{
		timestep: 0.01,
		renderer: e.renderer,
		logger:   e.logger,
	}
	e.scenes = append(e.scenes, s)
	return s
}

// Scene is a simulated world.
type Scene struct {
	timestep float64
	time     float64
	lights   []Light
	ground   bool
	altitude float64
	arts     []*Articulation
	renderer *Renderer
	logger   zerolog.Logger
	renders  uint64
}

// SetTimestep sets the seconds advanced per Step. Non-positive values are ignored.
func (s *Scene) SetTimestep(dt float64) {
	if dt > 0 {
		s.timestep = dt
	}
}

// Timestep returns the seconds advanced per Step.
func (s *Scene) Timestep() float64 {
	return s.timestep
}

// Time returns the simulated time.
func (s *Scene) Time() float64 {
	return s.time
}

// AddDirectionalLight adds a light shining along dir.
func (s *Scene) AddDirectionalLight(dir r3.Vec, c Color) {
	if r3.Norm(dir) > 0 {
		dir = r3.Unit(dir)
	}
	s.lights = append(s.lights, Light{Kind: DirectionalLight, Vec: dir, Color: c})
}

// AddPointLight adds a light at pos.
func (s *Scene) AddPointLight(pos r3.Vec, c Color) {
	s.lights = append(s.lights, Light{Kind: PointLight, Vec: pos, Color: c})
}

// Lights returns the scene lights in the order they were added.
func (s *Scene) Lights() []Light {
	return s.lights
}

// AddGround adds an infinite ground plane at the given altitude.
func (s *Scene) AddGround(altitude float64) {
	s.ground = true
	s.altitude = altitude
}

// Ground returns the ground altitude and whether the scene has one.
func (s *Scene) Ground() (float64, bool) {
	return s.altitude, s.ground
}

// CreateURDFLoader returns a loader that adds articulations to s.
func (s *Scene) CreateURDFLoader() *URDFLoader {
	return &URDFLoader{scene: s}
}

// Step advances every articulation by one timestep.
func (s *Scene) Step() {
	for _, a := range s.arts {
		a.step(s, s.timestep)
	}
	s.time += s.timestep
}

// UpdateRender publishes the current scene state to the renderer.
func (s *Scene) UpdateRender() {
	if s.renderer == nil {
		return
	}
	s.renderer.submit(s.snapshot())
	s.renders++
}

func (s *Scene) snapshot() Frame {
	f := Frame{
		Time:     s.time,
		Lights:   append([]Light(nil), s.lights...),
		Ground:   s.ground,
		Altitude: s.altitude,
	}
	for _, a := range s.arts {
		poses := a.LinkPoses()
		for _, name := range a.chain.Links() {
			f.Links = append(f.Links, LinkPoint{Name: name, Pos: poses[name].Point})
		}
		for _, seg := range a.chain.Segments() {
			f.Bones = append(f.Bones, Bone{
				From: poses[seg.Parent].Point,
				To:   poses[seg.Child].Point,
			})
		}
	}
	return f
}
