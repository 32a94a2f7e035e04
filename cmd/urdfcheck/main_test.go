package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/urdfcheck/pkg/robot"
	"github.com/gwillem/urdfcheck/pkg/sim"
	"github.com/gwillem/urdfcheck/pkg/sim/scene"
	"github.com/gwillem/urdfcheck/pkg/urdf"
	"github.com/gwillem/urdfcheck/pkg/urdf/urdftest"
)

func runArgs(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func modelArgs(dir string, mode string) []string {
	return []string{
		"--mode", mode,
		"--root", dir,
		"--urdf", filepath.Join("urdf", "model.urdf"),
		"--package", urdftest.Package,
	}
}

func TestRun_ValidateSuccess(t *testing.T) {
	dir := t.TempDir()
	urdftest.WriteModel(t, dir, true)

	code, out, _ := runArgs(t, modelArgs(dir, "validate")...)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, banner)
	assert.Contains(t, out, "Mode: validate")
	assert.Contains(t, out, "Links:     10")
	assert.Contains(t, out, "Joints:    9")
	assert.Contains(t, out, "Materials: 5")
	assert.Contains(t, out, "7 checked, 1 skipped")
	assert.Contains(t, out, "All mesh files found")
	assert.Contains(t, out, "Model test passed")
	assert.NotContains(t, out, "Rigid-body", "validate mode runs no demo")
}

func TestRun_ValidateMissingMeshes(t *testing.T) {
	dir := t.TempDir()
	urdftest.WriteModel(t, dir, false)

	code, out, _ := runArgs(t, modelArgs(dir, "validate")...)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Missing 7 mesh file(s)")
	assert.Contains(t, out, "... and 2 more")
	assert.Contains(t, out, "Model test failed")
	assert.Equal(t, 5, strings.Count(out, "package://"+urdftest.Package))
}

func TestRun_FileNotFoundInEveryMode(t *testing.T) {
	dir := t.TempDir()
	for _, mode := range []string{"validate", "rigidbody", "viewer", "pybullet", "maniskill"} {
		t.Run(mode, func(t *testing.T) {
			code, out, _ := runArgs(t, modelArgs(dir, mode)...)
			assert.Equal(t, 1, code)
			assert.Contains(t, out, "file not found")
			assert.NotContains(t, out, "Controllable joints")
			assert.NotContains(t, out, "Active joints")
		})
	}
}

func TestRun_Malformed(t *testing.T) {
	dir := t.TempDir()
	urdftest.WriteFile(t, filepath.Join(dir, "urdf", "model.urdf"), "<robot><link name=")

	code, out, _ := runArgs(t, modelArgs(dir, "validate")...)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "URDF parse error")
}

func TestRun_FlagErrors(t *testing.T) {
	code, _, errOut := runArgs(t, "--mode", "gazebo")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown mode")

	code, out, _ := runArgs(t, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "--mode")

	dir := t.TempDir()
	urdftest.WriteModel(t, dir, true)
	code, _, errOut = runArgs(t, append(modelArgs(dir, "validate"), "--log-level", "loud")...)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid log level")
}

func TestRun_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	urdftest.WriteModel(t, dir, true)
	cfgPath := filepath.Join(dir, "urdfcheck.json")
	urdftest.WriteFile(t, cfgPath, `{"root": "`+filepath.ToSlash(dir)+`", "urdf": "urdf/model.urdf", "package": "`+urdftest.Package+`"}`)

	code, out, _ := runArgs(t, "--mode", "validate", "--config", cfgPath)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, filepath.Join(dir, "urdf", "model.urdf"))

	code, _, errOut := runArgs(t, "--mode", "validate", "--config", filepath.Join(dir, "none.json"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "error reading config file")
}

func testApp(t *testing.T, mode sim.Mode, withMeshes bool) (*app, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	urdftest.WriteModel(t, dir, withMeshes)

	cfg := robot.DefaultConfig()
	cfg.Root = dir
	cfg.URDF = filepath.Join("urdf", "model.urdf")
	cfg.Package = urdftest.Package

	var out bytes.Buffer
	return &app{
		cfg:      cfg,
		mode:     mode,
		headless: true,
		stdout:   &out,
		logger:   zerolog.Nop(),
		terminal: func() error { return scene.ErrNoTerminal },
	}, &out
}

func TestApp_RigidHeadlessInterruptIsSuccess(t *testing.T) {
	a, out := testApp(t, sim.ModeRigidBody, true)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, a.run(ctx))

	s := out.String()
	assert.Contains(t, s, "Rigid-body simulation")
	assert.Contains(t, s, "Body 1: rm75_mini at (0.00, 0.00, 0.50)")
	assert.Contains(t, s, "Gravity: (0.00, 0.00, -9.80) m/s^2")
	assert.Contains(t, s, "Joints: 9")
	assert.Contains(t, s, "Controllable joints: 5")
	assert.Contains(t, s, "camera_spin")
	assert.Contains(t, s, "CONTINUOUS")
	assert.Contains(t, s, "Animating 5 joints at 240 Hz")
	assert.Contains(t, s, "Animation stopped")
}

func TestApp_RigidStopsOnMissingMeshes(t *testing.T) {
	a, out := testApp(t, sim.ModeRigidBody, false)

	err := a.run(context.Background())
	require.ErrorIs(t, err, urdf.ErrMissingMeshes)
	assert.NotContains(t, out.String(), "Rigid-body simulation")
}

func TestApp_ViewerWithoutTerminal(t *testing.T) {
	a, out := testApp(t, sim.ModeViewer, true)

	err := a.run(context.Background())
	require.ErrorIs(t, err, scene.ErrNoTerminal)
	assert.Contains(t, out.String(), "Articulation viewer")
	assert.NotContains(t, out.String(), "Active joints")
}

func TestApp_UnavailableEngine(t *testing.T) {
	a, _ := testApp(t, sim.Mode(7), true)

	err := a.run(context.Background())
	require.ErrorIs(t, err, sim.ErrEngineUnavailable)
}

func TestPrintReport_Preview(t *testing.T) {
	r := &urdf.Report{Links: 3, Joints: 2, Materials: 1, Checked: 8}
	for i := 0; i < 8; i++ {
		r.Missing = append(r.Missing, urdf.MeshRef{
			Filename: "package://p/m" + string(rune('a'+i)) + ".STL",
			Path:     filepath.Join(os.TempDir(), "m"+string(rune('a'+i))+".STL"),
		})
	}

	var buf bytes.Buffer
	printReport(&buf, r)
	s := buf.String()
	assert.Contains(t, s, "Missing 8 mesh file(s)")
	assert.Contains(t, s, "package://p/me.STL")
	assert.NotContains(t, s, "package://p/mf.STL")
	assert.Contains(t, s, "... and 3 more")
}

func TestViewerModel(t *testing.T) {
	a, out := testApp(t, sim.ModeViewer, true)
	engine := scene.NewEngine(zerolog.Nop())
	engine.SetRenderer(scene.NewRenderer())
	renderer := engine.Renderer()
	sc := buildScene(engine, a.cfg.Viewer.Timestep)
	assert.Len(t, sc.Lights(), 4)

	loader := sc.CreateURDFLoader()
	loader.FixRootLink = true
	art, err := loader.Load(a.cfg.URDFPath())
	require.NoError(t, err)

	printArticulation(a, art)
	assert.Contains(t, out.String(), "Joints: 9")
	assert.Contains(t, out.String(), "Active joints: 7")
	assert.Contains(t, out.String(), "camera_spin: [-inf, inf]")

	m := newViewerModel(sc, art, renderer, 25)
	assert.Equal(t, 4, m.substeps)

	m.nudge(1)
	target, err := art.DriveTarget(0)
	require.NoError(t, err)
	assert.InDelta(t, 6.212*nudgeFraction, target, 1e-9)

	m.selected = 5 // camera_spin, unlimited
	m.nudge(-1)
	target, err = art.DriveTarget(5)
	require.NoError(t, err)
	assert.InDelta(t, -unlimitedNudge, target, 1e-9)

	m.camera.Orbit(1, 0)
	m.reset()
	assert.Equal(t, scene.DefaultCamera(), m.camera)
	target, _ = art.DriveTarget(0)
	assert.Zero(t, target)

	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(viewerModel)
	assert.InDelta(t, 0.04, sc.Time(), 1e-9)
	assert.Equal(t, uint64(1), renderer.Frames())
	assert.Contains(t, m.View(), "URDF Viewer")
}
