// Package config loads the YAML configuration file of the command line
// tool.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yuanying/bionicbook/internal/bionic"
	"github.com/yuanying/bionicbook/internal/export"
)

// Config holds all configuration.
type Config struct {
	Bionic BionicConfig `yaml:"bionic"`
	Parse  ParseConfig  `yaml:"parse"`
	Export ExportConfig `yaml:"export"`
}

// BionicConfig controls the highlight transform. Intensity is a pointer so
// that an explicit 0 can be told apart from an absent value.
type BionicConfig struct {
	Mode      string   `yaml:"mode"`
	Intensity *float64 `yaml:"intensity"`
	Color     string   `yaml:"color"`
}

// ParseConfig controls input parsing.
type ParseConfig struct {
	MaxImageWidth int  `yaml:"max_image_width"`
	Sanitize      bool `yaml:"sanitize"`
}

// ExportConfig controls the output.
type ExportConfig struct {
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}

func (c *Config) defaults() {
	if c.Bionic.Mode == "" {
		c.Bionic.Mode = string(bionic.ModeOff)
	}
	if c.Bionic.Intensity == nil {
		v := bionic.DefaultIntensity
		c.Bionic.Intensity = &v
	}
	if c.Bionic.Color == "" {
		c.Bionic.Color = bionic.DefaultColor
	}
	if c.Parse.MaxImageWidth < 0 {
		c.Parse.MaxImageWidth = 0
	}
	if c.Export.Format == "" {
		c.Export.Format = export.FormatEPUB
	}
}

// BionicSettings converts the bionic section into a normalized
// bionic.Config. Unknown modes are kept and behave as off.
func (c *Config) BionicSettings() bionic.Config {
	cfg := bionic.Config{
		Mode:  bionic.Mode(c.Bionic.Mode),
		Color: c.Bionic.Color,
	}
	if c.Bionic.Intensity != nil {
		cfg.Intensity = *c.Bionic.Intensity
	} else {
		cfg.Intensity = bionic.DefaultIntensity
	}
	return cfg.Normalize()
}

// Load reads a YAML config file and fills missing values with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data and fills missing values with defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.defaults()
	return cfg, nil
}
