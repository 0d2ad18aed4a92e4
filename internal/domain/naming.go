package domain

import (
	"path/filepath"
)

// File and directory names used by flow.
const (
	FlowDirName     = ".flow"
	ConfigFileName  = "config.toml"
	DefaultTreeFile = "workflow.yaml"
	HistoryFileName = "history.db"
)

// ProjectFlowDir returns the flow directory inside a project.
func ProjectFlowDir(projectPath string) string {
	return filepath.Join(projectPath, FlowDirName)
}

// GlobalFlowDir returns the global config directory under configHome.
func GlobalFlowDir(configHome string) string {
	return filepath.Join(configHome, "flow")
}

// ProjectConfigPath returns the path to a project's config file.
func ProjectConfigPath(projectPath string) string {
	return filepath.Join(ProjectFlowDir(projectPath), ConfigFileName)
}

// DefaultTreePath returns the default workflow file of a project.
func DefaultTreePath(projectPath string) string {
	return filepath.Join(ProjectFlowDir(projectPath), DefaultTreeFile)
}

// HistoryPath returns the default run history database of a project.
func HistoryPath(projectPath string) string {
	return filepath.Join(ProjectFlowDir(projectPath), HistoryFileName)
}

// ResolvePath returns p unchanged if absolute, otherwise joined to base.
func ResolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
