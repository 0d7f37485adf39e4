// Package config provides hierarchical configuration management.
// Priority: defaults < system < user < project < env < flags
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/tokenflow/tokenflow/pkg/errors"
)

// Animation modes.
const (
	ModeAbsolute = "absolute"
	ModeRelative = "relative"
)

// Config holds all TokenFlow configuration.
type Config struct {
	Version int `yaml:"version"`

	Animation AnimationConfig `yaml:"animation"`
	Tokens    TokensConfig    `yaml:"tokens"`
	Display   DisplayConfig   `yaml:"display"`
}

// AnimationConfig controls the animation clock.
type AnimationConfig struct {
	Mode     string  `yaml:"mode"`     // absolute | relative
	Duration float64 `yaml:"duration"` // target animation duration, seconds
}

// TokensConfig selects the value source for each token attribute.
type TokensConfig struct {
	Size  AttributeConfig `yaml:"size"`
	Color AttributeConfig `yaml:"color"`
	Image AttributeConfig `yaml:"image"`
}

// AttributeConfig names where an attribute's values come from. At most one
// field may be set; all empty means the per-attribute constant default.
type AttributeConfig struct {
	Column   string `yaml:"column"`   // per-event attribute column in the log
	Table    string `yaml:"table"`    // path to an external case/time/value CSV
	Constant string `yaml:"constant"` // fixed value for every token
}

// DisplayConfig holds pass-through dimensions for the rendering layer.
type DisplayConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Animation: AnimationConfig{
			Mode:     ModeAbsolute,
			Duration: 60,
		},
		Display: DisplayConfig{
			Width:  800,
			Height: 600,
		},
	}
}

// Validate checks the configuration against the error taxonomy.
// Violations are configuration errors and abort the whole computation.
func (c *Config) Validate() error {
	if c.Animation.Mode != ModeAbsolute && c.Animation.Mode != ModeRelative {
		return errors.UnknownAnimationMode(c.Animation.Mode)
	}
	if c.Animation.Duration <= 0 {
		return errors.NonPositiveDuration(c.Animation.Duration)
	}
	for _, a := range []struct {
		name string
		cfg  AttributeConfig
	}{
		{"size", c.Tokens.Size},
		{"color", c.Tokens.Color},
		{"image", c.Tokens.Image},
	} {
		set := 0
		if a.cfg.Column != "" {
			set++
		}
		if a.cfg.Table != "" {
			set++
		}
		if a.cfg.Constant != "" {
			set++
		}
		if set > 1 {
			return errors.BadAttributeSource(a.name, "column, table and constant are mutually exclusive")
		}
	}
	return nil
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	paths  []string // Paths that were loaded
}

// NewManager creates a new configuration manager.
func NewManager() *Manager {
	return &Manager{config: Default()}
}

// Load loads configuration from all sources in priority order.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = Default()

	for _, path := range m.getConfigPaths() {
		if err := m.loadFile(path); err != nil {
			if !os.IsNotExist(err) {
				return err
			}
		} else {
			m.paths = append(m.paths, path)
		}
	}

	m.loadEnv()
	return nil
}

// getConfigPaths returns config file paths in priority order.
func (m *Manager) getConfigPaths() []string {
	var paths []string

	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/tokenflow/config.yaml")
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".tokenflow", "config.yaml"))
	}

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".tokenflow.yaml"))
	}

	return paths
}

// loadFile loads a single config file and merges it.
func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return err
	}

	m.merge(&partial)
	return nil
}

// merge merges non-zero values from src into config.
func (m *Manager) merge(src *Config) {
	if src.Animation.Mode != "" {
		m.config.Animation.Mode = src.Animation.Mode
	}
	if src.Animation.Duration != 0 {
		m.config.Animation.Duration = src.Animation.Duration
	}

	mergeAttr := func(dst *AttributeConfig, src AttributeConfig) {
		if src.Column != "" {
			dst.Column = src.Column
		}
		if src.Table != "" {
			dst.Table = src.Table
		}
		if src.Constant != "" {
			dst.Constant = src.Constant
		}
	}
	mergeAttr(&m.config.Tokens.Size, src.Tokens.Size)
	mergeAttr(&m.config.Tokens.Color, src.Tokens.Color)
	mergeAttr(&m.config.Tokens.Image, src.Tokens.Image)

	if src.Display.Width != 0 {
		m.config.Display.Width = src.Display.Width
	}
	if src.Display.Height != 0 {
		m.config.Display.Height = src.Display.Height
	}
}

// loadEnv loads configuration from environment variables.
func (m *Manager) loadEnv() {
	if v := os.Getenv("TOKENFLOW_MODE"); v != "" {
		m.config.Animation.Mode = v
	}
	if v := os.Getenv("TOKENFLOW_DURATION"); v != "" {
		if d, err := strconv.ParseFloat(v, 64); err == nil {
			m.config.Animation.Duration = d
		}
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetPaths returns the paths that were loaded.
func (m *Manager) GetPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths
}
