// Package envconfig reads the CEED_* environment variables.
package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Resource returns the default backend resource
// Configurable via CEED_RESOURCE
// Default: /cpu/self
func Resource() string {
	if s := Var("CEED_RESOURCE"); s != "" {
		return s
	}
	return "/cpu/self"
}

// LogLevel returns the log level
// Configurable via CEED_DEBUG
// Values: 0/false = INFO (default), 1/true = DEBUG, n = slog.Level(-4n)
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("CEED_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

var (
	// NumWorkers sets the worker count of the blocked CPU backend
	NumWorkers = Uint("CEED_NUM_WORKERS", uint(runtime.NumCPU()))
	// BlockSize overrides the element block width chosen from CPU features. 0 means auto.
	BlockSize = Uint("CEED_BLOCK_SIZE", 0)
	// OccaMode is the OCCA device mode used when a resource names none
	OccaMode = String("CEED_OCCA_MODE")
)

// Var returns an environment variable stripped of surrounding quotes and spaces
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// String returns a getter for a string variable
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// Uint returns a getter for an unsigned variable with a default
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every variable with its current value and a description
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"CEED_RESOURCE":    {"CEED_RESOURCE", Resource(), "Default backend resource (default /cpu/self)"},
		"CEED_DEBUG":       {"CEED_DEBUG", LogLevel(), "Show additional debug information (e.g. CEED_DEBUG=1)"},
		"CEED_NUM_WORKERS": {"CEED_NUM_WORKERS", NumWorkers(), "Worker goroutines of the blocked CPU backend"},
		"CEED_BLOCK_SIZE":  {"CEED_BLOCK_SIZE", BlockSize(), "Element block width of the blocked CPU backend (0 = auto)"},
		"CEED_OCCA_MODE":   {"CEED_OCCA_MODE", OccaMode(), "OCCA device mode when the resource names none"},
	}
}

// Values returns the variables as strings
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
