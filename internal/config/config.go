// Package config loads renderer settings from an optional TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// DefaultPath is where the entry point looks for a config file.
const DefaultPath = "quad.toml"

// ValidationEnv toggles the Khronos validation layer. It overrides the file.
const ValidationEnv = "VK_VALIDATION"

type Config struct {
	Width          int           `toml:"width"`
	Height         int           `toml:"height"`
	Title          string        `toml:"title"`
	Validation     bool          `toml:"validation"`
	ShaderDir      string        `toml:"shader_dir"`
	VertexShader   string        `toml:"vertex_shader"`
	FragmentShader string        `toml:"fragment_shader"`
	FramesInFlight int           `toml:"frames_in_flight"`
	AcquireTimeout time.Duration `toml:"acquire_timeout"`
	LogLevel       string        `toml:"log_level"`
}

func Default() Config {
	return Config{
		Width:          800,
		Height:         600,
		Title:          "Quad",
		Validation:     true,
		ShaderDir:      "shaders",
		VertexShader:   "vert.spv",
		FragmentShader: "frag.spv",
		FramesInFlight: 2,
		LogLevel:       "info",
	}
}

// Load returns the defaults overlaid with the file at path, if it exists, and
// then with the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
		}
	}

	if val, ok := os.LookupEnv(ValidationEnv); ok && val != "" {
		cfg.Validation = parseToggle(val)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseToggle(val string) bool {
	switch val {
	case "0", "false", "False", "FALSE":
		return false
	default:
		return true
	}
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("config: window size %dx%d must be positive", c.Width, c.Height)
	}
	if c.FramesInFlight < 1 {
		return fmt.Errorf("config: frames_in_flight must be at least 1, got %d", c.FramesInFlight)
	}
	if c.AcquireTimeout < 0 {
		return fmt.Errorf("config: acquire_timeout must not be negative, got %s", c.AcquireTimeout)
	}
	if strings.TrimSpace(c.VertexShader) == "" || strings.TrimSpace(c.FragmentShader) == "" {
		return errors.New("config: shader file names must not be empty")
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c Config) Level() (log.Level, error) {
	return log.ParseLevel(c.LogLevel)
}

func (c Config) ShaderPath(name string) string {
	return filepath.Join(c.ShaderDir, name)
}

// AcquireTimeoutNanos is the timeout handed to vkAcquireNextImageKHR. Zero
// means wait forever.
func (c Config) AcquireTimeoutNanos() uint64 {
	if c.AcquireTimeout <= 0 {
		return ^uint64(0)
	}
	return uint64(c.AcquireTimeout.Nanoseconds())
}
