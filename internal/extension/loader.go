// Package extension loads hook contributions from installed extensions.
// Each extension ships an extension.yaml manifest under
// .aide/extensions/<name>/; its hooks join the registry at the extension
// provenance tier and are never written back.
package extension

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/aide-sh/aide/internal/config"
	"github.com/aide-sh/aide/internal/log"
)

// Manifest is the extension.yaml shape.
type Manifest struct {
	Name  string                 `yaml:"name"`
	Hooks map[string][]HookGroup `yaml:"hooks,omitempty"`
}

// HookGroup mirrors the settings hook group shape in YAML.
type HookGroup struct {
	Matcher    string    `yaml:"matcher,omitempty"`
	Sequential bool      `yaml:"sequential,omitempty"`
	Hooks      []HookCmd `yaml:"hooks,omitempty"`
}

// HookCmd is one command entry in a manifest.
type HookCmd struct {
	Type    string `yaml:"type,omitempty"`
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"`
	Name    string `yaml:"name,omitempty"`
}

// LoadLayers reads every extension manifest under dir (typically
// ".aide/extensions") and converts each into an extension-scoped settings
// layer. Missing directories and malformed manifests are skipped with a
// warning.
func LoadLayers(dir string) []config.Layer {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var layers []config.Layer
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name(), "extension.yaml")
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var m Manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			log.Logger().Warn("skipping malformed extension manifest",
				zap.String("path", path),
				zap.Error(err))
			continue
		}

		settings := config.NewSettings()
		for event, groups := range m.Hooks {
			for _, g := range groups {
				cmds := make([]config.HookCmd, 0, len(g.Hooks))
				for _, c := range g.Hooks {
					name := c.Name
					if name == "" && m.Name != "" {
						// Namespace unnamed hooks by extension so disable
						// lists stay unambiguous.
						name = m.Name + ":" + c.Command
					}
					cmds = append(cmds, config.HookCmd{
						Type:    c.Type,
						Command: c.Command,
						Timeout: c.Timeout,
						Name:    name,
					})
				}
				settings.Hooks.Events[event] = append(settings.Hooks.Events[event], config.HookGroup{
					Matcher:    g.Matcher,
					Sequential: g.Sequential,
					Hooks:      cmds,
				})
			}
		}

		layers = append(layers, config.Layer{
			Scope:    config.ScopeExtension,
			Path:     path,
			Settings: settings,
		})
	}
	return layers
}
