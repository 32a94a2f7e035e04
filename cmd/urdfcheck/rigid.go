package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/urdfcheck/pkg/animate"
	"github.com/gwillem/urdfcheck/pkg/robot"
	"github.com/gwillem/urdfcheck/pkg/sim/rigid"
)

type rigidDemo struct{}

func (rigidDemo) Title() string {
	return "Rigid-body simulation"
}

func (rigidDemo) Run(ctx context.Context, a *app) error {
	cfg := a.cfg.Rigid
	engine := rigid.Connect(rigid.Config{Timestep: cfg.Timestep}, a.logger)
	defer engine.Disconnect()

	if err := engine.SetGravity(0, 0, -cfg.Gravity); err != nil {
		return err
	}
	if _, err := engine.LoadPlane(); err != nil {
		return fmt.Errorf("load plane: %w", err)
	}
	body, err := engine.LoadURDF(a.cfg.URDFPath(), rigid.LoadOptions{
		BasePosition: r3.Vec{Z: cfg.BaseHeight},
		FixedBase:    true,
	})
	if err != nil {
		return fmt.Errorf("load robot: %w", err)
	}
	if err := printBody(a.stdout, engine, body); err != nil {
		return err
	}

	joints, err := readJoints(engine, body)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Joints: %d\n", len(joints))
	fmt.Fprintln(a.stdout, renderJointTable(joints))

	controllable := robot.Controllable(joints)
	fmt.Fprintf(a.stdout, "Controllable joints: %d\n", len(controllable))

	ctrl := animate.NewController(engine, animate.Config{
		Body:     body,
		Joints:   controllable,
		Wave:     animate.Sine{Rate: cfg.Rate, Phase: cfg.Phase},
		Force:    cfg.Force,
		Timestep: cfg.Timestep,
		Hz:       cfg.Hz,
		Logger:   a.logger,
	})

	if a.headless || a.terminal() != nil {
		fmt.Fprintln(a.stdout, dimStyle.Render("Animating headless, press Ctrl+C to stop"))
		return runHeadless(ctx, ctrl, a.stdout)
	}
	return runAnimation(ctx, ctrl)
}

func printBody(w io.Writer, engine *rigid.Engine, body int) error {
	name, err := engine.BodyName(body)
	if err != nil {
		return err
	}
	base, err := engine.BasePose(body)
	if err != nil {
		return err
	}
	g := engine.Gravity()
	fmt.Fprintf(w, "Body %d: %s at (%.2f, %.2f, %.2f)\n", body, name, base.Point.X, base.Point.Y, base.Point.Z)
	fmt.Fprintf(w, "Gravity: (%.2f, %.2f, %.2f) m/s^2\n", g.X, g.Y, g.Z)
	return nil
}

func readJoints(engine *rigid.Engine, body int) ([]robot.Joint, error) {
	n, err := engine.NumJoints(body)
	if err != nil {
		return nil, err
	}
	joints := make([]robot.Joint, 0, n)
	for i := 0; i < n; i++ {
		j, err := engine.JointInfo(body, i)
		if err != nil {
			return nil, fmt.Errorf("joint %d: %w", i, err)
		}
		joints = append(joints, j)
	}
	return joints, nil
}

func renderJointTable(joints []robot.Joint) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	fixedStyle := dimStyle.Padding(0, 1)

	rows := make([][]string, 0, len(joints))
	for _, j := range joints {
		rows = append(rows, []string{
			fmt.Sprintf("%d", j.Index),
			j.Name,
			j.Type.String(),
			fmt.Sprintf("%.3f", j.Lower),
			fmt.Sprintf("%.3f", j.Upper),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("ID", "Name", "Type", "Lower", "Upper").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(joints) && !joints[row].Controllable() {
				return fixedStyle
			}
			if col == 1 {
				return nameStyle
			}
			return cellStyle
		})
	return t.Render()
}

// runHeadless animates without a UI, printing controller logs and one status line
// per simulated second.
func runHeadless(ctx context.Context, ctrl *animate.Controller, w io.Writer) error {
	done := make(chan error, 1)
	go func() { done <- ctrl.Start(ctx) }()

	var lastSecond = -1
	for {
		select {
		case err := <-done:
			drainLogs(ctrl, w)
			if ctx.Err() != nil {
				return nil
			}
			return err
		case msg := <-ctrl.Logs():
			fmt.Fprintln(w, msg)
		case s := <-ctrl.States():
			if s.Err != nil {
				continue
			}
			if sec := int(s.Time); sec != lastSecond {
				lastSecond = sec
				fmt.Fprintln(w, statusLine(s))
			}
		}
	}
}

func drainLogs(ctrl *animate.Controller, w io.Writer) {
	for {
		select {
		case msg := <-ctrl.Logs():
			fmt.Fprintln(w, msg)
		default:
			return
		}
	}
}

func statusLine(s animate.State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "t=%6.2fs", s.Time)
	for i, j := range s.Joints {
		fmt.Fprintf(&sb, "  %s=%+.3f", j.Name, s.Positions[i])
	}
	return sb.String()
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// jointPalette colors joints in list order.
var jointPalette = []string{"196", "208", "226", "46", "51", "201", "33", "129", "214", "118"}

func jointColor(i int) lipgloss.Color {
	return lipgloss.Color(jointPalette[i%len(jointPalette)])
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type animateModel struct {
	ctrl     *animate.Controller
	chart    *streamlinechart.Model
	width    int
	height   int
	logs     []string
	last     animate.State
	quitting bool
}

func (m *animateModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the controller
type stateMsg animate.State
type logMsg string

func waitForState(ctrl *animate.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *animate.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

func (m *animateModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-legendHeight-footerHeight-borderSize, 10)
	return width, height
}

func (m *animateModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func newAnimateModel(ctrl *animate.Controller) animateModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-100, 100),
	)
	for i, j := range ctrl.Joints() {
		style := lipgloss.NewStyle().Foreground(jointColor(i))
		chart.SetDataSetStyles(j.Name, runes.ThinLineStyle, style)
	}
	return animateModel{
		ctrl:  ctrl,
		chart: &chart,
	}
}

func (m animateModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func (m animateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case stateMsg:
		state := animate.State(msg)
		if state.Err == nil {
			for i, v := range state.Normalized() {
				m.chart.PushDataSet(state.Joints[i].Name, v)
			}
			m.chart.DrawAll()
			m.last = state
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m animateModel) View() string {
	if m.quitting {
		return "Simulation stopped.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("URDF Rigid-body Animation"))
	sb.WriteString(fmt.Sprintf(" - %d Hz  t=%.2fs", m.ctrl.Hz(), m.last.Time))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	sb.WriteString(renderLegend(m.ctrl.Joints()))
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend(joints []robot.Joint) string {
	items := make([]string, 0, len(joints))
	for i, j := range joints {
		colorStyle := lipgloss.NewStyle().Foreground(jointColor(i)).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+j.Name)
	}
	return strings.Join(items, "  ")
}

// runAnimation runs the controller in the background and the chart UI in the
// foreground until the user quits or ctx is cancelled.
func runAnimation(ctx context.Context, ctrl *animate.Controller) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- ctrl.Start(ctx) }()

	p := tea.NewProgram(newAnimateModel(ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run animation UI: %w", err)
	}
	return nil
}
