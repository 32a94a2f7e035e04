package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gwillem/urdfcheck/pkg/kinematics"
	"github.com/gwillem/urdfcheck/pkg/sim/scene"
)

type viewerDemo struct{}

func (viewerDemo) Title() string {
	return "Articulation viewer"
}

func (viewerDemo) Run(ctx context.Context, a *app) error {
	if err := a.terminal(); err != nil {
		return err
	}

	engine := scene.NewEngine(a.logger)
	engine.SetRenderer(scene.NewRenderer())

	sc := buildScene(engine, a.cfg.Viewer.Timestep)
	loader := sc.CreateURDFLoader()
	loader.FixRootLink = true
	art, err := loader.Load(a.cfg.URDFPath())
	if err != nil {
		return fmt.Errorf("load robot: %w", err)
	}
	art.SetRootPose(kinematics.Identity())

	printArticulation(a, art)

	p := tea.NewProgram(newViewerModel(sc, art, engine.Renderer(), a.cfg.Viewer.FPS), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run viewer: %w", err)
	}
	return nil
}

// buildScene creates the lit scene with a ground plane.
func buildScene(engine *scene.Engine, timestep float64) *scene.Scene {
	sc := engine.CreateScene()
	sc.SetTimestep(timestep)
	sc.AddDirectionalLight(r3.Vec{X: 0, Y: 1, Z: -1}, scene.Color{0.5, 0.5, 0.5})
	sc.AddPointLight(r3.Vec{X: 1, Y: 2, Z: 2}, scene.White)
	sc.AddPointLight(r3.Vec{X: 1, Y: -2, Z: 2}, scene.White)
	sc.AddPointLight(r3.Vec{X: -1, Y: 0, Z: 1}, scene.White)
	sc.AddGround(0)
	return sc
}

func printArticulation(a *app, art *scene.Articulation) {
	fmt.Fprintf(a.stdout, "Joints: %d\n", len(art.Joints()))
	fmt.Fprintf(a.stdout, "Links:  %d\n", len(art.Links()))
	fmt.Fprintf(a.stdout, "Active joints: %d\n", art.Dof())
	for _, j := range art.ActiveJoints() {
		fmt.Fprintf(a.stdout, "  %s: [%s, %s]\n", j.Name, formatLimit(j.Lower), formatLimit(j.Upper))
	}
}

func formatLimit(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return fmt.Sprintf("%.3f", v)
}

const (
	orbitStep = 0.1
	zoomStep  = 1.1
	// nudgeFraction of a joint's range moves the drive target per key press.
	nudgeFraction = 0.05
	// unlimitedNudge is the step, in joint units, for joints without finite limits.
	unlimitedNudge = 0.1
	viewerChrome   = 4 // title, blank, help and spacing lines
)

type tickMsg time.Time

func tick(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type viewerModel struct {
	scene    *scene.Scene
	art      *scene.Articulation
	renderer *scene.Renderer
	camera   scene.Camera
	joints   []scene.ActiveJoint
	selected int
	fps      int
	substeps int
	width    int
	height   int
	quitting bool
}

func newViewerModel(sc *scene.Scene, art *scene.Articulation, r *scene.Renderer, fps int) viewerModel {
	if fps <= 0 {
		fps = 30
	}
	substeps := max(int(math.Round(1/float64(fps)/sc.Timestep())), 1)
	return viewerModel{
		scene:    sc,
		art:      art,
		renderer: r,
		camera:   scene.DefaultCamera(),
		joints:   art.ActiveJoints(),
		fps:      fps,
		substeps: substeps,
	}
}

func (m viewerModel) Init() tea.Cmd {
	return tick(m.fps)
}

func (m viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "left", "h":
			m.camera.Orbit(-orbitStep, 0)
		case "right", "l":
			m.camera.Orbit(orbitStep, 0)
		case "up", "k":
			m.camera.Orbit(0, orbitStep)
		case "down", "j":
			m.camera.Orbit(0, -orbitStep)
		case "+", "=":
			m.camera.Zoom(1 / zoomStep)
		case "-":
			m.camera.Zoom(zoomStep)
		case "tab":
			if len(m.joints) > 0 {
				m.selected = (m.selected + 1) % len(m.joints)
			}
		case "shift+tab":
			if len(m.joints) > 0 {
				m.selected = (m.selected + len(m.joints) - 1) % len(m.joints)
			}
		case "]":
			m.nudge(1)
		case "[":
			m.nudge(-1)
		case "r":
			m.reset()
		}
		return m, nil

	case tickMsg:
		for i := 0; i < m.substeps; i++ {
			m.scene.Step()
		}
		m.scene.UpdateRender()
		return m, tick(m.fps)
	}

	return m, nil
}

func (m *viewerModel) nudge(dir float64) {
	if m.selected >= len(m.joints) {
		return
	}
	j := m.joints[m.selected]
	step := unlimitedNudge
	if !math.IsInf(j.Lower, 0) && !math.IsInf(j.Upper, 0) && j.Upper > j.Lower {
		step = (j.Upper - j.Lower) * nudgeFraction
	}
	cur, err := m.art.DriveTarget(m.selected)
	if err != nil {
		return
	}
	_ = m.art.SetDriveTarget(m.selected, cur+dir*step)
}

func (m *viewerModel) reset() {
	m.camera = scene.DefaultCamera()
	for i, j := range m.joints {
		target := 0.0
		if !math.IsInf(j.Lower, 0) && !math.IsInf(j.Upper, 0) && (j.Lower > 0 || j.Upper < 0) {
			target = (j.Lower + j.Upper) / 2
		}
		_ = m.art.SetDriveTarget(i, target)
	}
}

func (m viewerModel) viewSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 24
	}
	tableHeight := len(m.joints) + 4
	return max(m.width-borderSize, 20), max(m.height-viewerChrome-tableHeight-borderSize, 8)
}

func (m viewerModel) View() string {
	if m.quitting {
		return "Viewer closed.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("URDF Viewer"))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  t=%.2fs  yaw=%.2f pitch=%.2f dist=%.2f",
		m.scene.Time(), m.camera.Yaw, m.camera.Pitch, m.camera.Distance)))
	sb.WriteString("\n\n")

	w, h := m.viewSize()
	sb.WriteString(chartStyle.Render(m.renderer.Render(m.camera, w, h)))
	sb.WriteString("\n")
	sb.WriteString(m.renderJoints())
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("←→↑↓ orbit  +/- zoom  tab select joint  [ ] move joint  r reset  q quit"))

	return sb.String()
}

func (m viewerModel) renderJoints() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true).Padding(0, 1)

	q := m.art.Qpos()
	rows := make([][]string, 0, len(m.joints))
	for i, j := range m.joints {
		target, _ := m.art.DriveTarget(i)
		rows = append(rows, []string{
			j.Name,
			formatLimit(j.Lower),
			formatLimit(j.Upper),
			fmt.Sprintf("%+.3f", target),
			fmt.Sprintf("%+.3f", q[i]),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Joint", "Lower", "Upper", "Target", "Position").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == m.selected:
				return selectedStyle
			default:
				return cellStyle
			}
		})
	return t.Render()
}
