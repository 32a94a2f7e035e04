package robot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigFile is picked up from the working directory when no config path is given.
const DefaultConfigFile = "urdfcheck.json"

// Defaults for the RM75-B arm with the RH56DFTP hand.
const (
	DefaultURDF    = "urdf/RM75B_with_dexterous_hand.urdf"
	DefaultPackage = "RM75B_with_dexterous_hand"
)

// Config holds the tool configuration
type Config struct {
	Root     string       `mapstructure:"root"`
	URDF     string       `mapstructure:"urdf"`
	Package  string       `mapstructure:"package"`
	LogLevel string       `mapstructure:"logLevel"`
	Rigid    RigidConfig  `mapstructure:"rigid"`
	Viewer   ViewerConfig `mapstructure:"viewer"`
}

// RigidConfig configures the rigid-body demo.
type RigidConfig struct {
	Gravity    float64 `mapstructure:"gravity"`    // m/s^2 along -Z
	Timestep   float64 `mapstructure:"timestep"`   // seconds per simulation step
	Force      float64 `mapstructure:"force"`      // position-control effort cap
	BaseHeight float64 `mapstructure:"baseHeight"` // meters above the plane
	Hz         int     `mapstructure:"hz"`         // control loop frequency
	Rate       float64 `mapstructure:"rate"`       // sine rate, rad per simulated second
	Phase      float64 `mapstructure:"phase"`      // phase offset between consecutive joints
}

// ViewerConfig configures the viewer demo.
type ViewerConfig struct {
	Timestep float64 `mapstructure:"timestep"`
	FPS      int     `mapstructure:"fps"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("root", ".")
	v.SetDefault("urdf", DefaultURDF)
	v.SetDefault("package", DefaultPackage)
	v.SetDefault("logLevel", "info")

	v.SetDefault("rigid.gravity", 9.8)
	v.SetDefault("rigid.timestep", 1.0/240.0)
	v.SetDefault("rigid.force", 100.0)
	v.SetDefault("rigid.baseHeight", 0.5)
	v.SetDefault("rigid.hz", 240)
	v.SetDefault("rigid.rate", 0.5)
	v.SetDefault("rigid.phase", 0.3)

	v.SetDefault("viewer.timestep", 1.0/100.0)
	v.SetDefault("viewer.fps", 30)
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	cfg, err := load(viper.New(), "")
	if err != nil {
		// defaults always decode
		panic(err)
	}
	return cfg
}

// LoadConfig loads configuration from the default config file if it exists
func LoadConfig() (*Config, error) {
	if !ConfigExists() {
		return DefaultConfig(), nil
	}
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific JSON file
func LoadConfigFrom(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the demos cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.URDF) == "":
		return fmt.Errorf("config: urdf path is empty")
	case c.Rigid.Timestep <= 0:
		return fmt.Errorf("config: rigid.timestep must be positive, got %v", c.Rigid.Timestep)
	case c.Rigid.Hz <= 0:
		return fmt.Errorf("config: rigid.hz must be positive, got %d", c.Rigid.Hz)
	case c.Rigid.Force <= 0:
		return fmt.Errorf("config: rigid.force must be positive, got %v", c.Rigid.Force)
	case c.Viewer.Timestep <= 0:
		return fmt.Errorf("config: viewer.timestep must be positive, got %v", c.Viewer.Timestep)
	case c.Viewer.FPS <= 0:
		return fmt.Errorf("config: viewer.fps must be positive, got %d", c.Viewer.FPS)
	}
	return nil
}

// URDFPath returns the URDF location, resolved against Root unless absolute.
func (c *Config) URDFPath() string {
	if filepath.IsAbs(c.URDF) {
		return c.URDF
	}
	return filepath.Join(c.Root, c.URDF)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
