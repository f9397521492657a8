package color

import (
	"os"
)

// ANSI color codes
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Bold   = "\033[1m"
)

// Color represents a colorizer that can be enabled or disabled
type Color struct {
	enabled bool
}

// New creates a new Color instance
func New(enabled bool) *Color {
	return &Color{enabled: enabled && shouldEnableColor()}
}

// shouldEnableColor determines if color should be enabled based on environment
func shouldEnableColor() bool {
	// Check NO_COLOR environment variable (https://no-color.org/)
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	// Check TERM environment variable
	term := os.Getenv("TERM")
	if term == "dumb" || term == "" {
		return false
	}

	return true
}

// Error colors a string red for blocking findings
func (c *Color) Error(text string) string {
	if !c.enabled {
		return text
	}
	return Red + text + Reset
}

// Warning colors a string yellow for advisory findings
func (c *Color) Warning(text string) string {
	if !c.enabled {
		return text
	}
	return Yellow + text + Reset
}

// Header colors a string cyan for section headers
func (c *Color) Header(text string) string {
	if !c.enabled {
		return text
	}
	return Cyan + text + Reset
}

// Bold makes text bold
func (c *Color) Bold(text string) string {
	if !c.enabled {
		return text
	}
	return Bold + text + Reset
}
