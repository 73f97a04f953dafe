// Package config holds the optimizer settings and their defaults.
//
// Numeric settings are parsed leniently: an unparseable or non-positive
// value behaves as if it had not been given at all.
package config

import (
	"runtime"
	"strconv"
	"strings"
)

// Defaults used when neither a flag nor the config file sets a value.
const (
	DefaultMaxWidth  = 480
	DefaultMaxHeight = 480
	DefaultColors    = 128
	DefaultFPS       = 12
	DefaultLogLevel  = "info"
)

// Palette size limits. Index 0 is always the transparent entry.
const (
	MinColors = 2
	MaxColors = 256
)

// PaletteMode selects how palettes are derived for the selected frames.
type PaletteMode string

const (
	// PaletteLocal derives one palette per frame.
	PaletteLocal PaletteMode = "local"
	// PaletteShared derives one palette from all frames together.
	PaletteShared PaletteMode = "shared"
)

// Config is the complete set of optimizer settings.
type Config struct {
	MaxWidth  int
	MaxHeight int
	Colors    int
	FPS       int
	Workers   int
	Palette   PaletteMode
	LogLevel  string
}

// Default returns a Config populated with the default values.
func Default() Config {
	return Config{
		MaxWidth:  DefaultMaxWidth,
		MaxHeight: DefaultMaxHeight,
		Colors:    DefaultColors,
		FPS:       DefaultFPS,
		Workers:   runtime.NumCPU(),
		Palette:   PaletteLocal,
		LogLevel:  DefaultLogLevel,
	}
}

// Normalize clamps every value into its usable range. It never fails.
func (c *Config) Normalize() {
	if c.MaxWidth < 1 {
		c.MaxWidth = DefaultMaxWidth
	}
	if c.MaxHeight < 1 {
		c.MaxHeight = DefaultMaxHeight
	}
	if c.FPS < 1 {
		c.FPS = DefaultFPS
	}
	switch {
	case c.Colors == 0:
		c.Colors = DefaultColors
	case c.Colors < MinColors:
		c.Colors = MinColors
	case c.Colors > MaxColors:
		c.Colors = MaxColors
	}
	if c.Workers < 1 {
		c.Workers = runtime.NumCPU()
	}
	switch PaletteMode(strings.ToLower(string(c.Palette))) {
	case PaletteShared:
		c.Palette = PaletteShared
	default:
		c.Palette = PaletteLocal
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// ParseInt parses s as a positive decimal integer. Anything else,
// including the empty string, yields def.
func ParseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}
