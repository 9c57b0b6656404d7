package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeSettings(t *testing.T, path string, s *Settings) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func testLoader(t *testing.T) (*Loader, string, string) {
	t.Helper()
	tmp := t.TempDir()
	userDir := filepath.Join(tmp, "user")
	projectDir := filepath.Join(tmp, "project")
	loader := NewLoaderWithDirs(filepath.Join(tmp, "system.json"), userDir, projectDir)
	return loader, userDir, projectDir
}

func TestLoadLayersOrderAndScopes(t *testing.T) {
	loader, userDir, projectDir := testLoader(t)

	writeSettings(t, filepath.Join(userDir, "settings.json"), &Settings{Model: "user-model"})
	writeSettings(t, filepath.Join(projectDir, "settings.json"), &Settings{Model: "project-model"})
	writeSettings(t, filepath.Join(projectDir, "settings.local.json"), &Settings{Model: "local-model"})

	layers := loader.LoadLayers()
	if len(layers) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(layers))
	}
	if layers[0].Scope != ScopeUser || layers[1].Scope != ScopeProject || layers[2].Scope != ScopeProject {
		t.Errorf("unexpected scope order: %v %v %v", layers[0].Scope, layers[1].Scope, layers[2].Scope)
	}

	merged, err := loader.Load()
	if err != nil {
		t.Fatal(err)
	}
	if merged.Model != "local-model" {
		t.Errorf("expected highest layer to win, got %q", merged.Model)
	}
}

func TestLoadSkipsMalformedFiles(t *testing.T) {
	loader, userDir, _ := testLoader(t)

	path := filepath.Join(userDir, "settings.json")
	if err := os.MkdirAll(userDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	merged, err := loader.Load()
	if err != nil {
		t.Fatal(err)
	}
	if merged.Model != "" {
		t.Errorf("malformed file should contribute nothing, got model %q", merged.Model)
	}
}

func TestSetValueHooksDisabled(t *testing.T) {
	loader, _, projectDir := testLoader(t)

	writeSettings(t, filepath.Join(projectDir, "settings.json"), &Settings{Model: "keep-me"})

	if err := loader.SetValue(ScopeProject, "hooks.disabled", []string{"x", "x", "y"}); err != nil {
		t.Fatal(err)
	}

	saved, err := loader.LoadFile(filepath.Join(projectDir, "settings.json"))
	if err != nil {
		t.Fatal(err)
	}
	if saved.Model != "keep-me" {
		t.Error("SetValue must preserve unrelated settings")
	}

	count := 0
	for _, n := range saved.Hooks.Disabled {
		if n == "x" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected 'x' exactly once in disabled list, got %v", saved.Hooks.Disabled)
	}
}

func TestSetValueCreatesMissingFile(t *testing.T) {
	loader, userDir, _ := testLoader(t)

	if err := loader.SetValue(ScopeUser, "hooks.disabled", []string{"a"}); err != nil {
		t.Fatal(err)
	}

	saved, err := loader.LoadFile(filepath.Join(userDir, "settings.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(saved.Hooks.Disabled) != 1 || saved.Hooks.Disabled[0] != "a" {
		t.Errorf("expected disabled list [a], got %v", saved.Hooks.Disabled)
	}
}

func TestSetValueHooksEnabled(t *testing.T) {
	loader, _, _ := testLoader(t)

	if err := loader.SetValue(ScopeUser, "hooks.enabled", false); err != nil {
		t.Fatal(err)
	}

	merged, err := loader.Load()
	if err != nil {
		t.Fatal(err)
	}
	if merged.HooksEnabled() {
		t.Error("expected hooks disabled after SetValue")
	}
}

func TestSetValueRejectsUnknownKeyAndScope(t *testing.T) {
	loader, _, _ := testLoader(t)

	if err := loader.SetValue(ScopeUser, "mystery.key", true); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := loader.SetValue(ScopeExtension, "hooks.disabled", []string{}); err == nil {
		t.Error("expected error for read-only extension scope")
	}
}
