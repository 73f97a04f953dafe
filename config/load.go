package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File mirrors the YAML config file. Numeric values are kept as raw
// strings so that malformed entries can fall back to the defaults.
type File struct {
	MaxWidth  string `yaml:"max_width"`
	MaxHeight string `yaml:"max_height"`
	Colors    string `yaml:"colors"`
	FPS       string `yaml:"fps"`
	Workers   string `yaml:"workers"`
	Palette   string `yaml:"palette"`
	LogLevel  string `yaml:"log_level"`
}

// Load reads a YAML config file and applies it on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return cfg, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	f.Apply(&cfg)
	return cfg, nil
}

// Apply overlays the values present in f onto cfg.
func (f File) Apply(cfg *Config) {
	cfg.MaxWidth = ParseInt(f.MaxWidth, cfg.MaxWidth)
	cfg.MaxHeight = ParseInt(f.MaxHeight, cfg.MaxHeight)
	cfg.Colors = ParseInt(f.Colors, cfg.Colors)
	cfg.FPS = ParseInt(f.FPS, cfg.FPS)
	cfg.Workers = ParseInt(f.Workers, cfg.Workers)
	if f.Palette != "" {
		cfg.Palette = PaletteMode(f.Palette)
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	cfg.Normalize()
}
