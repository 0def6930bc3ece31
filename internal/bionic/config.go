package bionic

import (
	"math"
	"strings"
)

// Mode selects the highlight strategy.
type Mode string

const (
	ModeOff        Mode = "off"
	ModePrefix     Mode = "prefix"
	ModePrefixMid  Mode = "prefix-mid"
	ModeConsonants Mode = "consonants"
	ModeVowels     Mode = "vowels"
	ModeSyllable   Mode = "syllable"
)

// Default configuration values.
const (
	DefaultIntensity = 0.5
	DefaultColor     = "inherit"
)

// Modes lists every recognized mode.
var Modes = []Mode{ModeOff, ModePrefix, ModePrefixMid, ModeConsonants, ModeVowels, ModeSyllable}

// ParseMode returns the Mode named by s, ignoring case and surrounding
// space. ok is false for unrecognized names.
func ParseMode(s string) (m Mode, ok bool) {
	m = Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, true
		}
	}
	return ModeOff, false
}

// Config parameterizes the transform.
type Config struct {
	Mode      Mode
	Intensity float64 // clamped to [0,1] before use
	Color     string  // CSS color of highlighted letters; "inherit" omits it
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{Mode: ModeOff, Intensity: DefaultIntensity, Color: DefaultColor}
}

// Normalize returns c with the intensity clamped to [0,1] (NaN becomes the
// default), an empty color replaced by "inherit", and the mode name
// canonicalized. Unrecognized modes are kept so they act as off.
func (c Config) Normalize() Config {
	c.Intensity = ClampIntensity(c.Intensity)
	c.Color = strings.TrimSpace(c.Color)
	if c.Color == "" {
		c.Color = DefaultColor
	}
	if m, ok := ParseMode(string(c.Mode)); ok {
		c.Mode = m
	}
	return c
}

// ClampIntensity limits v to [0,1].
func ClampIntensity(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return DefaultIntensity
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
