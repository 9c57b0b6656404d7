// Package config provides multi-scope settings management for Aide.
// Settings are loaded from multiple scopes with the following priority
// (lowest to highest):
//  1. /etc/aide/settings.json (system level)
//  2. ~/.aide/settings.json (user level)
//  3. .aide/settings.json (project level)
//  4. .aide/settings.local.json (project local level)
//
// Extension-provided settings are layered on top by the extension loader and
// are never written back to disk.
package config

// Scope identifies the provenance of a settings layer.
type Scope string

const (
	ScopeSystem    Scope = "system"
	ScopeUser      Scope = "user"
	ScopeProject   Scope = "project"
	ScopeExtension Scope = "extension"
)

// Settings represents the complete Aide configuration.
type Settings struct {
	// Permissions defines allow/deny/ask rules for tools.
	Permissions PermissionSettings `json:"permissions,omitempty"`

	// Model is the default model to use.
	Model string `json:"model,omitempty"`

	// Hooks configures lifecycle hooks.
	Hooks HooksSettings `json:"hooks,omitempty"`

	// Env defines environment variables to set for spawned processes.
	Env map[string]string `json:"env,omitempty"`
}

// PermissionSettings defines permission rules for tool execution.
// Rules use the format "Tool(pattern)" where pattern uses glob syntax.
//
// Example rules:
//   - "Bash(npm:*)" - npm commands
//   - "Read(**/.env)" - .env files in any directory
//   - "Edit(src/**)" - files under src
type PermissionSettings struct {
	// Allow contains patterns that are automatically allowed.
	Allow []string `json:"allow,omitempty"`

	// Deny contains patterns that are automatically denied.
	Deny []string `json:"deny,omitempty"`

	// Ask contains patterns that require user confirmation.
	Ask []string `json:"ask,omitempty"`
}

// HooksSettings configures lifecycle hooks for one scope.
type HooksSettings struct {
	// Enabled is the global hooks switch. Nil means enabled.
	Enabled *bool `json:"enabled,omitempty"`

	// Disabled lists hook names skipped in this scope. A hook is enabled
	// unless its name appears here.
	Disabled []string `json:"disabled,omitempty"`

	// Events maps an event name (e.g. "BeforeTool") to its hook groups.
	Events map[string][]HookGroup `json:"events,omitempty"`
}

// HookGroup is a set of hook commands registered for one event, optionally
// filtered by a matcher.
type HookGroup struct {
	// Matcher is a pattern matched against the event's match value
	// (tool name for tool events). Empty matches everything.
	Matcher string `json:"matcher,omitempty"`

	// Sequential forces the group's commands to run one at a time in
	// registration order.
	Sequential bool `json:"sequential,omitempty"`

	// Hooks are the commands to execute when matched.
	Hooks []HookCmd `json:"hooks,omitempty"`
}

// HookCmd defines a single hook command.
type HookCmd struct {
	// Type is the hook type. Only "command" is supported; empty means command.
	Type string `json:"type"`

	// Command is the shell command to execute.
	Command string `json:"command"`

	// Timeout bounds one invocation, in milliseconds. Zero means default.
	Timeout int `json:"timeout,omitempty"`

	// Name is an optional friendly name used by the management surface.
	// Unnamed hooks are identified by their command string.
	Name string `json:"name,omitempty"`
}

// HooksEnabled reports whether the global hooks switch is on.
func (s *Settings) HooksEnabled() bool {
	return s.Hooks.Enabled == nil || *s.Hooks.Enabled
}

// NewSettings creates a Settings instance with default values.
func NewSettings() *Settings {
	return &Settings{
		Permissions: PermissionSettings{
			Allow: []string{},
			Deny:  []string{},
			Ask:   []string{},
		},
		Hooks: HooksSettings{
			Events: make(map[string][]HookGroup),
		},
		Env: make(map[string]string),
	}
}
