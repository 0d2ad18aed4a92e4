// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"

	"github.com/runoshun/flow/internal/domain"
)

// EnvLogLevel overrides [log] level when set.
const EnvLogLevel = "FLOW_LOG_LEVEL"

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	projectDir    string // Project root (config lives in <project>/.flow)
	globalConfDir string // Path to global config directory (e.g., ~/.config/flow)
	getenv        func(string) string
}

// NewLoader creates a new Loader.
func NewLoader(projectDir string) *Loader {
	return &Loader{
		projectDir:    projectDir,
		globalConfDir: defaultGlobalConfigDir(),
		getenv:        os.Getenv,
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(projectDir, globalConfDir string) *Loader {
	return &Loader{
		projectDir:    projectDir,
		globalConfDir: globalConfDir,
		getenv:        func(string) string { return "" },
	}
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalFlowDir(configHome)
}

// Load returns the merged configuration (project + global).
// Project config takes precedence over global config, and FLOW_LOG_LEVEL
// takes precedence over both.
func (l *Loader) Load() (*domain.Config, error) {
	base := domain.NewDefaultConfig()

	global, err := l.loadLayer(l.globalPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	project, err := l.loadLayer(domain.ProjectConfigPath(l.projectDir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	// Merge: default <- global <- project (later takes precedence)
	if global != nil {
		global.apply(base)
	}
	if project != nil {
		project.apply(base)
	}

	if level := l.getenv(EnvLogLevel); level != "" {
		base.Log.Level = level
	}
	return base, nil
}

// LoadGlobal returns the defaults merged with the global configuration only.
func (l *Loader) LoadGlobal() (*domain.Config, error) {
	base := domain.NewDefaultConfig()
	global, err := l.loadLayer(l.globalPath())
	if err != nil {
		return nil, err
	}
	global.apply(base)
	return base, nil
}

func (l *Loader) globalPath() string {
	if l.globalConfDir == "" {
		return ""
	}
	return filepath.Join(l.globalConfDir, domain.ConfigFileName)
}

// layer is one config file. Pointer fields distinguish "unset" from zero.
type layer struct {
	logLevel         *string
	workflowFile     *string
	windowsShims     []string
	telemetryEnabled *bool
	telemetryExp     *string
	telemetryEnd     *string
	telemetryService *string
	historyEnabled   *bool
	historyPath      *string
	warnings         []string
	hasShims         bool
}

// loadLayer loads a configuration file.
func (l *Loader) loadLayer(path string) (*layer, error) {
	if path == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return convertRawToLayer(raw), nil
}

// convertRawToLayer converts the raw map to a config layer and collects warnings.
func convertRawToLayer(raw map[string]any) *layer {
	res := &layer{}

	for _, section := range sortedKeys(raw) {
		m, ok := raw[section].(map[string]any)
		if !ok {
			res.warnings = append(res.warnings, fmt.Sprintf("unknown key: %s", section))
			continue
		}
		for _, k := range sortedKeys(m) {
			v := m[k]
			known := true
			switch section + "." + k {
			case "log.level":
				res.logLevel = stringValue(v)
			case "workflow.file":
				res.workflowFile = stringValue(v)
			case "runner.windows_shims":
				res.windowsShims, res.hasShims = stringSlice(v)
			case "telemetry.enabled":
				res.telemetryEnabled = boolValue(v)
			case "telemetry.exporter":
				res.telemetryExp = stringValue(v)
			case "telemetry.endpoint":
				res.telemetryEnd = stringValue(v)
			case "telemetry.service_name":
				res.telemetryService = stringValue(v)
			case "history.enabled":
				res.historyEnabled = boolValue(v)
			case "history.path":
				res.historyPath = stringValue(v)
			default:
				known = false
			}
			if !known {
				res.warnings = append(res.warnings, fmt.Sprintf("unknown key in [%s]: %s", section, k))
			}
		}
	}

	return res
}

// apply overrides cfg with every value set in the layer.
func (l *layer) apply(cfg *domain.Config) {
	cfg.Warnings = append(cfg.Warnings, l.warnings...)

	setString(&cfg.Log.Level, l.logLevel)
	setString(&cfg.Workflow.File, l.workflowFile)
	if l.hasShims {
		cfg.Runner.WindowsShims = slices.Clone(l.windowsShims)
	}
	setBool(&cfg.Telemetry.Enabled, l.telemetryEnabled)
	setString(&cfg.Telemetry.Exporter, l.telemetryExp)
	setString(&cfg.Telemetry.Endpoint, l.telemetryEnd)
	setString(&cfg.Telemetry.ServiceName, l.telemetryService)
	setBool(&cfg.History.Enabled, l.historyEnabled)
	setString(&cfg.History.Path, l.historyPath)
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func stringValue(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func boolValue(v any) *bool {
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}

func stringSlice(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
