package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Layer is one settings source with its provenance.
type Layer struct {
	Scope    Scope
	Path     string
	Settings *Settings
}

// Loader handles loading and merging settings from multiple scopes.
type Loader struct {
	// systemPath is the managed system-level settings file.
	systemPath string

	// userDir is the user-level config directory (e.g., ~/.aide).
	userDir string

	// projectDir is the project-level config directory (e.g., .aide).
	projectDir string
}

// NewLoader creates a settings loader with default paths.
func NewLoader() *Loader {
	homeDir, _ := os.UserHomeDir()
	return &Loader{
		systemPath: filepath.Join("/etc", "aide", "settings.json"),
		userDir:    filepath.Join(homeDir, ".aide"),
		projectDir: ".aide",
	}
}

// NewLoaderWithDirs creates a loader with custom directories, used by tests.
func NewLoaderWithDirs(systemPath, userDir, projectDir string) *Loader {
	return &Loader{
		systemPath: systemPath,
		userDir:    userDir,
		projectDir: projectDir,
	}
}

// LoadLayers loads every settings scope that exists on disk, lowest priority
// first. Missing or malformed files are skipped.
func (l *Loader) LoadLayers() []Layer {
	sources := []struct {
		scope Scope
		path  string
	}{
		{ScopeSystem, l.systemPath},
		{ScopeUser, filepath.Join(l.userDir, "settings.json")},
		{ScopeProject, filepath.Join(l.projectDir, "settings.json")},
		{ScopeProject, filepath.Join(l.projectDir, "settings.local.json")},
	}

	var layers []Layer
	for _, src := range sources {
		data, err := os.ReadFile(src.path)
		if err != nil {
			continue
		}
		var s Settings
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		layers = append(layers, Layer{Scope: src.scope, Path: src.path, Settings: &s})
	}
	return layers
}

// Load loads and merges settings from all scopes. Later scopes override
// earlier ones.
func (l *Loader) Load() (*Settings, error) {
	settings := NewSettings()
	for _, layer := range l.LoadLayers() {
		settings = MergeSettings(settings, layer.Settings)
	}
	return settings, nil
}

// LoadFile loads settings from a specific file.
func (l *Loader) LoadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

// UserDir returns the user config directory path.
func (l *Loader) UserDir() string { return l.userDir }

// ProjectDir returns the project config directory path.
func (l *Loader) ProjectDir() string { return l.projectDir }

// scopeFile returns the writable settings file for a scope.
func (l *Loader) scopeFile(scope Scope) (string, error) {
	switch scope {
	case ScopeUser:
		return filepath.Join(l.userDir, "settings.json"), nil
	case ScopeProject:
		return filepath.Join(l.projectDir, "settings.json"), nil
	case ScopeSystem:
		return l.systemPath, nil
	default:
		return "", fmt.Errorf("scope %q is not writable", scope)
	}
}

// SetValue persists one settings key into the file owning the given scope,
// preserving unrelated content. Supported keys: "hooks.disabled",
// "hooks.enabled".
func (l *Loader) SetValue(scope Scope, key string, value any) error {
	path, err := l.scopeFile(scope)
	if err != nil {
		return err
	}

	existing := NewSettings()
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, existing); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	switch key {
	case "hooks.disabled":
		names, ok := value.([]string)
		if !ok {
			return fmt.Errorf("hooks.disabled: expected []string, got %T", value)
		}
		existing.Hooks.Disabled = dedupeStrings(names)
	case "hooks.enabled":
		enabled, ok := value.(bool)
		if !ok {
			return fmt.Errorf("hooks.enabled: expected bool, got %T", value)
		}
		existing.Hooks.Enabled = &enabled
	default:
		return fmt.Errorf("unsupported settings key %q", key)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// dedupeStrings removes duplicates while keeping first-seen order.
func dedupeStrings(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
