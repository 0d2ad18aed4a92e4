package domain

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

//go:embed config_template.toml
var configTemplateContent string

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings  []string        `toml:"-"`
	Log       LogConfig       `toml:"log"`
	Workflow  WorkflowConfig  `toml:"workflow"`
	Runner    RunnerConfig    `toml:"runner"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	History   HistoryConfig   `toml:"history"`
}

// LogConfig holds logging settings from [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty"` // Log level: debug, info, warn, error
}

// WorkflowConfig holds settings from [workflow] section.
type WorkflowConfig struct {
	File string `toml:"file,omitempty"` // Tree file, relative to the project root
}

// RunnerConfig holds process runner settings from [runner] section.
type RunnerConfig struct {
	// WindowsShims lists executables that are invoked as "<name>.cmd" on Windows.
	WindowsShims []string `toml:"windows_shims,omitempty"`
}

// TelemetryConfig holds OpenTelemetry settings from [telemetry] section.
type TelemetryConfig struct {
	Exporter    string `toml:"exporter,omitempty"`     // "stdout" or "otlp"
	Endpoint    string `toml:"endpoint,omitempty"`     // OTLP/HTTP endpoint
	ServiceName string `toml:"service_name,omitempty"` // Reported service.name
	Enabled     bool   `toml:"enabled,omitempty"`
}

// HistoryConfig holds run history settings from [history] section.
type HistoryConfig struct {
	Path    string `toml:"path,omitempty"` // SQLite database, relative to the project root
	Enabled bool   `toml:"enabled,omitempty"`
}

// Default configuration values.
const (
	DefaultLogLevel          = "info"
	DefaultTelemetryExporter = "stdout"
	DefaultServiceName       = "flow"
)

// DefaultWindowsShims are node tools installed as .cmd shims on Windows.
var DefaultWindowsShims = []string{"gulp", "au", "npm", "jspm"}

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Workflow: WorkflowConfig{
			File: FlowDirName + "/" + DefaultTreeFile,
		},
		Runner: RunnerConfig{
			WindowsShims: append([]string(nil), DefaultWindowsShims...),
		},
		Telemetry: TelemetryConfig{
			Exporter:    DefaultTelemetryExporter,
			ServiceName: DefaultServiceName,
		},
		History: HistoryConfig{
			Path:    FlowDirName + "/" + HistoryFileName,
			Enabled: true,
		},
	}
}

// RenderConfigTemplate renders the commented config file written by
// "flow config init", filled with the values of cfg.
func RenderConfigTemplate(cfg *Config) string {
	tmpl, err := template.New("config").Delims("<<", ">>").Parse(configTemplateContent)
	if err != nil {
		// Should never happen with embedded template
		panic(fmt.Sprintf("failed to parse config template: %v", err))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		// Should never happen with valid data
		panic(fmt.Sprintf("failed to execute config template: %v", err))
	}
	return buf.String()
}
