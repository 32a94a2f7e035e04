package scene

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gwillem/urdfcheck/pkg/kinematics"
	"github.com/gwillem/urdfcheck/pkg/robot"
	"github.com/gwillem/urdfcheck/pkg/urdf"
	"github.com/gwillem/urdfcheck/pkg/urdf/urdftest"
)

func newTestScene(t *testing.T) (*Engine, *Scene) {
	t.Helper()
	e := NewEngine(zerolog.Nop())
	e.SetRenderer(NewRenderer())
	s := e.CreateScene()
	s.SetTimestep(1.0 / 100)
	s.AddDirectionalLight(r3.Vec{Y: 1, Z: -1}, Color{0.5, 0.5, 0.5})
	s.AddPointLight(r3.Vec{X: 1, Y: 2, Z: 2}, White)
	s.AddPointLight(r3.Vec{X: 1, Y: -2, Z: 2}, White)
	s.AddPointLight(r3.Vec{X: -1, Z: 1}, White)
	s.AddGround(0)
	return e, s
}

func loadTestArticulation(t *testing.T, s *Scene, fix bool) *Articulation {
	t.Helper()
	loader := s.CreateURDFLoader()
	loader.FixRootLink = fix
	a, err := loader.Load(urdftest.WriteModel(t, t.TempDir(), false))
	require.NoError(t, err)
	return a
}

func TestScene_Setup(t *testing.T) {
	e, s := newTestScene(t)
	assert.NotNil(t, e.Renderer())
	assert.InDelta(t, 0.01, s.Timestep(), 1e-12)

	s.SetTimestep(-1)
	assert.InDelta(t, 0.01, s.Timestep(), 1e-12, "non-positive timestep ignored")

	lights := s.Lights()
	require.Len(t, lights, 4)
	assert.Equal(t, DirectionalLight, lights[0].Kind)
	assert.InDelta(t, 1.0, r3.Norm(lights[0].Vec), 1e-12, "direction is normalized")
	assert.Equal(t, "point", lights[1].Kind.String())
	assert.Equal(t, White, lights[3].Color)

	alt, ok := s.Ground()
	assert.True(t, ok)
	assert.Zero(t, alt)
}

func TestLoader_Load(t *testing.T) {
	_, s := newTestScene(t)
	a := loadTestArticulation(t, s, true)
	a.SetRootPose(kinematics.Identity())

	assert.Equal(t, "rm75_mini", a.Name())
	assert.Len(t, a.Joints(), urdftest.Joints)
	assert.Len(t, a.Links(), urdftest.Links)
	assert.Equal(t, "base_link", a.Links()[0])
	require.Len(t, s.arts, 1)

	active := a.ActiveJoints()
	names := make([]string, len(active))
	for i, j := range active {
		names[i] = j.Name
	}
	assert.Equal(t, []string{"joint1", "joint2", "joint3", "index_joint", "thumb_slide", "camera_spin", "palm_joint"}, names)
	assert.Equal(t, a.Dof(), len(active))

	spin := active[5]
	assert.Equal(t, robot.JointContinuous, spin.Type)
	assert.True(t, math.IsInf(spin.Lower, -1))
	assert.True(t, math.IsInf(spin.Upper, 1))
	assert.Equal(t, -3.106, active[0].Lower)
	assert.Equal(t, 3.106, active[0].Upper)
}

func TestLoader_Errors(t *testing.T) {
	_, s := newTestScene(t)
	_, err := s.CreateURDFLoader().Load(filepath.Join(t.TempDir(), "none.urdf"))
	assert.True(t, errors.Is(err, urdf.ErrNotFound))

	path := filepath.Join(t.TempDir(), "bad.urdf")
	require.NoError(t, os.WriteFile(path, []byte("<robot><link"), 0o644))
	_, err = s.CreateURDFLoader().Load(path)
	assert.True(t, errors.Is(err, urdf.ErrMalformed))
	assert.Empty(t, s.arts)
}

func TestArticulation_DriveTarget(t *testing.T) {
	_, s := newTestScene(t)
	a := loadTestArticulation(t, s, true)

	require.NoError(t, a.SetDriveTarget(0, 0.8))
	require.NoError(t, a.SetDriveTarget(2, 5), "clamped to the upper limit")
	got, err := a.DriveTarget(2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	for i := 0; i < 200; i++ {
		s.Step()
	}
	assert.InDelta(t, 2.0, s.Time(), 1e-9)

	q := a.Qpos()
	assert.InDelta(t, 0.8, q[0], 1e-3)
	assert.InDelta(t, 1.0, q[2], 1e-3)
	assert.Equal(t, kinematics.Identity(), a.RootPose(), "fixed root does not move")

	assert.ErrorIs(t, a.SetDriveTarget(-1, 0), ErrJointIndex)
	_, err = a.DriveTarget(a.Dof())
	assert.ErrorIs(t, err, ErrJointIndex)
}

func TestArticulation_FreeRootFallsToGround(t *testing.T) {
	_, s := newTestScene(t)
	a := loadTestArticulation(t, s, false)
	a.SetRootPose(kinematics.Translation(r3.Vec{Z: 1}))

	for i := 0; i < 300; i++ {
		s.Step()
	}
	lowest := kinematics.LowestZ(a.LinkPoses())
	assert.InDelta(t, 0, lowest, 1e-9)
}

func TestScene_UpdateRender(t *testing.T) {
	e, s := newTestScene(t)
	loadTestArticulation(t, s, true)

	_, ok := e.Renderer().Frame()
	assert.False(t, ok)

	s.Step()
	s.UpdateRender()
	f, ok := e.Renderer().Frame()
	require.True(t, ok)
	assert.Equal(t, uint64(1), e.Renderer().Frames())
	assert.InDelta(t, 0.01, f.Time, 1e-12)
	assert.Len(t, f.Links, urdftest.Links)
	assert.Len(t, f.Bones, urdftest.Joints)
	assert.Len(t, f.Lights, 4)
	assert.True(t, f.Ground)

	out := e.Renderer().Render(DefaultCamera(), 60, 20)
	assert.Contains(t, out, "●")
	assert.Empty(t, e.Renderer().Render(DefaultCamera(), 0, 10))
}

func TestScene_UpdateRenderWithoutRenderer(t *testing.T) {
	s := NewEngine(zerolog.Nop()).CreateScene()
	assert.NotPanics(t, s.UpdateRender)
}

func TestCheckTerminal(t *testing.T) {
	assert.ErrorIs(t, CheckTerminal(nil), ErrNoTerminal)

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.ErrorIs(t, CheckTerminal(f), ErrNoTerminal)
}
