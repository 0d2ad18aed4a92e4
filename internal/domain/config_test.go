package domain

import (
	"strings"
	"testing"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Workflow.File != ".flow/workflow.yaml" {
		t.Errorf("Workflow.File = %q", cfg.Workflow.File)
	}
	if !cfg.History.Enabled || cfg.History.Path != ".flow/history.db" {
		t.Errorf("History = %+v", cfg.History)
	}
	if cfg.Telemetry.Enabled {
		t.Error("telemetry should be disabled by default")
	}
	if len(cfg.Runner.WindowsShims) != len(DefaultWindowsShims) {
		t.Errorf("WindowsShims = %v", cfg.Runner.WindowsShims)
	}

	// the defaults slice must not be shared
	cfg.Runner.WindowsShims[0] = "changed"
	if DefaultWindowsShims[0] == "changed" {
		t.Error("NewDefaultConfig shares DefaultWindowsShims")
	}
}

func TestRenderConfigTemplate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Runner.WindowsShims = []string{"gulp", "au"}

	out := RenderConfigTemplate(cfg)

	for _, want := range []string{
		`level = "info"`,
		`file = ".flow/workflow.yaml"`,
		`windows_shims = ["gulp", "au"]`,
		`exporter = "stdout"`,
		`enabled = true`,
		`path = ".flow/history.db"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered config missing %q:\n%s", want, out)
		}
	}
}
