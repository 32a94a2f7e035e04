package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/gwillem/urdfcheck/pkg/robot"
	"github.com/gwillem/urdfcheck/pkg/sim"
	"github.com/gwillem/urdfcheck/pkg/sim/scene"
)

const banner = "RM75-B with RH56DFTP Dexterous Hand - model test tool"

type Options struct {
	Mode     sim.Mode `short:"m" long:"mode" default:"rigidbody" description:"What to run after validation: validate, rigidbody (alias pybullet) or viewer (alias maniskill)"`
	Root     string   `long:"root" description:"Model root directory that package:// mesh references resolve against"`
	URDF     string   `long:"urdf" description:"URDF path, relative to the model root"`
	Package  string   `long:"package" description:"Package name of mesh references to check"`
	Config   string   `short:"c" long:"config" description:"JSON config file (default: ./urdfcheck.json if present)"`
	LogLevel string   `long:"log-level" description:"Log level (debug, info, warn, error)"`
	Hz       int      `long:"hz" description:"Rigid-body control loop frequency"`
	Headless bool     `long:"headless" description:"Run the rigid-body demo without the terminal UI"`
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.LongDescription = "Validate the RM75-B URDF and its meshes, then animate it in a simulator"

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, err)
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 1
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	logger, err := newLogger(stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &app{
		cfg:      cfg,
		mode:     opts.Mode,
		headless: opts.Headless,
		stdout:   stdout,
		logger:   logger,
		terminal: func() error { return scene.CheckTerminal(os.Stdout) },
	}
	if err := app.run(ctx); err != nil {
		printSummary(stdout, err)
		return 1
	}
	printSummary(stdout, nil)
	return 0
}

func loadConfig(opts Options) (*robot.Config, error) {
	var (
		cfg *robot.Config
		err error
	)
	if opts.Config != "" {
		cfg, err = robot.LoadConfigFrom(opts.Config)
	} else {
		cfg, err = robot.LoadConfig()
	}
	if err != nil {
		return nil, err
	}

	if opts.Root != "" {
		cfg.Root = opts.Root
	}
	if opts.URDF != "" {
		cfg.URDF = opts.URDF
	}
	if opts.Package != "" {
		cfg.Package = opts.Package
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.Hz > 0 {
		cfg.Rigid.Hz = opts.Hz
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}

type app struct {
	cfg      *robot.Config
	mode     sim.Mode
	headless bool
	stdout   io.Writer
	logger   zerolog.Logger
	terminal func() error
}

func (a *app) run(ctx context.Context) error {
	fmt.Fprintln(a.stdout, headerStyle.Render(banner))
	fmt.Fprintln(a.stdout, dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Fprintf(a.stdout, "Mode: %s\n\n", a.mode)

	if err := a.validate(); err != nil {
		return err
	}
	if !a.mode.Simulates() {
		return nil
	}

	d, ok := demos[a.mode]
	if !ok {
		return fmt.Errorf("%s: %w", a.mode, sim.ErrEngineUnavailable)
	}
	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, headerStyle.Render(d.Title()))
	if err := d.Run(ctx, a); err != nil {
		return fmt.Errorf("%s: %w", a.mode, err)
	}
	return nil
}

func printSummary(w io.Writer, err error) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	if err != nil {
		fmt.Fprintln(w, errorStyle.Render("✗ Model test failed: "+err.Error()))
		return
	}
	fmt.Fprintln(w, successStyle.Render("✓ Model test passed"))
}
