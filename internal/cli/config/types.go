// Package config loads the leapchart CLI configuration.
package config

import (
	"time"

	"github.com/leapstack-labs/leapchart/internal/source"
)

// Config holds all CLI configuration options.
type Config struct {
	ProjectRoot  string        `koanf:"-"`
	Source       source.Config `koanf:"source"`
	StatePath    string        `koanf:"state_path"`
	TemplatesDir string        `koanf:"templates_dir"`
	MacrosDir    string        `koanf:"macros_dir"`
	AdvancedMode bool          `koanf:"advanced_mode"`
	Verbose      bool          `koanf:"verbose"`
	OutputFormat string        `koanf:"output"`
	Eval         EvalConfig    `koanf:"eval"`
	UI           UIConfig      `koanf:"ui"`
}

// EvalConfig bounds template evaluation.
type EvalConfig struct {
	MaxSteps uint64 `koanf:"max_steps"`
}

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port            int           `koanf:"port"`
	Watch           bool          `koanf:"watch"`
	RefreshInterval time.Duration `koanf:"refresh_interval"`
	SessionSecret   string        `koanf:"session_secret"`
	Dev             bool          `koanf:"dev"`
}

// Default configuration values.
const (
	DefaultTemplatesDir = "charts"
	DefaultMacrosDir    = "macros"
	DefaultStateFile    = ".leapchart/state.db"
	DefaultOutput       = "auto"
	DefaultPort         = 8765
	DefaultMaxSteps     = 1_000_000
)

// ConfigFileNames are searched in the project root, in order.
var ConfigFileNames = []string{"leapchart.yaml", "leapchart.yml"}

// OutputFormats are the accepted values of output.
var OutputFormats = []string{"auto", "table", "json", "csv", "md"}

func defaults() map[string]any {
	return map[string]any{
		"source.driver":       source.DriverDuckDB,
		"source.dsn":          "",
		"state_path":          DefaultStateFile,
		"templates_dir":       DefaultTemplatesDir,
		"macros_dir":          DefaultMacrosDir,
		"advanced_mode":       false,
		"verbose":             false,
		"output":              DefaultOutput,
		"eval.max_steps":      DefaultMaxSteps,
		"ui.port":             DefaultPort,
		"ui.watch":            true,
		"ui.refresh_interval": "0s",
		"ui.session_secret":   "",
		"ui.dev":              false,
	}
}
