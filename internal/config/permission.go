package config

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PermissionResult represents the result of a permission check.
type PermissionResult int

const (
	// PermissionAllow means the action is automatically allowed.
	PermissionAllow PermissionResult = iota

	// PermissionDeny means the action is automatically denied.
	PermissionDeny

	// PermissionAsk means the action requires user confirmation.
	PermissionAsk
)

// String returns a human-readable representation of the permission result.
func (p PermissionResult) String() string {
	switch p {
	case PermissionAllow:
		return "allow"
	case PermissionDeny:
		return "deny"
	case PermissionAsk:
		return "ask"
	default:
		return "unknown"
	}
}

// ReadOnlyTools is the set of tools that don't modify files or state.
var ReadOnlyTools = map[string]bool{
	"Read":      true,
	"Glob":      true,
	"Grep":      true,
	"WebFetch":  true,
	"WebSearch": true,
}

// IsReadOnlyTool returns true if the tool is read-only.
func IsReadOnlyTool(toolName string) bool {
	return ReadOnlyTools[toolName]
}

// CheckPermission checks if a tool action is allowed based on settings.
// Priority:
//  1. Deny rules (highest, cannot be bypassed)
//  2. Destructive command protection (always ask for dangerous bash commands)
//  3. Allow rules
//  4. Ask rules
//  5. Default behavior (read-only tools allowed, others need confirmation)
func (s *Settings) CheckPermission(toolName string, args map[string]any) PermissionResult {
	rule := BuildRule(toolName, args)

	// Deny rules first: they cannot be bypassed by any later rule.
	for _, pattern := range s.Permissions.Deny {
		if MatchRule(rule, pattern) {
			return PermissionDeny
		}
	}

	if toolName == "Bash" {
		if cmd, ok := args["command"].(string); ok {
			if IsDestructiveCommand(cmd) {
				return PermissionAsk
			}
		}
	}

	for _, pattern := range s.Permissions.Allow {
		if MatchRule(rule, pattern) {
			return PermissionAllow
		}
	}

	for _, pattern := range s.Permissions.Ask {
		if MatchRule(rule, pattern) {
			return PermissionAsk
		}
	}

	if IsReadOnlyTool(toolName) {
		return PermissionAllow
	}
	return PermissionAsk
}

// BuildRule builds a rule string from a tool name and arguments.
// Format: "Tool(args)"
//
// Different tools extract different parts of args:
//   - Bash: "Bash(command)" normalized to "cmd:rest" for prefix matching
//   - Read/Edit/Write: "Read(file_path)"
//   - Glob/Grep: "Glob(pattern)"
//   - WebFetch: "WebFetch(domain:hostname)"
func BuildRule(toolName string, args map[string]any) string {
	var argStr string

	switch toolName {
	case "Bash":
		if cmd, ok := args["command"].(string); ok {
			argStr = normalizeBashCommand(cmd)
		}

	case "Read", "Edit", "Write":
		if fp, ok := args["file_path"].(string); ok {
			argStr = fp
		}

	case "Glob", "Grep":
		if p, ok := args["pattern"].(string); ok {
			argStr = p
		}

	case "WebFetch":
		if u, ok := args["url"].(string); ok {
			if parsed, err := url.Parse(u); err == nil {
				argStr = "domain:" + parsed.Host
			} else {
				argStr = u
			}
		}

	default:
		if fp, ok := args["file_path"].(string); ok {
			argStr = fp
		} else if p, ok := args["path"].(string); ok {
			argStr = p
		} else if p, ok := args["pattern"].(string); ok {
			argStr = p
		}
	}

	return toolName + "(" + argStr + ")"
}

// normalizeBashCommand normalizes a bash command for pattern matching.
// Examples:
//   - "npm install lodash" -> "npm:install lodash"
//   - "/bin/rm -rf foo" -> "rm:-rf foo" (strips path prefix)
func normalizeBashCommand(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return ""
	}
	parts := strings.SplitN(cmd, " ", 2)

	baseCmd := filepath.Base(parts[0])
	if len(parts) == 1 {
		return baseCmd
	}
	return baseCmd + ":" + parts[1]
}

// MatchRule checks if a rule matches a pattern.
// Rule format: "Tool(args)". Pattern arguments use doublestar glob syntax:
// "*" matches within a path segment, "**" crosses segments.
func MatchRule(rule, pattern string) bool {
	toolRule, argsRule := parseRule(rule)
	toolPat, argsPat := parseRule(pattern)

	if toolRule != toolPat {
		return false
	}

	if argsPat == "" {
		return argsRule == ""
	}

	// Patterns ending in ":*" do prefix matching on normalized commands,
	// e.g. "Bash(npm:*)" matches "npm:install lodash".
	if prefix, ok := strings.CutSuffix(argsPat, ":*"); ok && !strings.Contains(prefix, "*") {
		return argsRule == prefix || strings.HasPrefix(argsRule, prefix+":")
	}

	matched, err := doublestar.Match(argsPat, argsRule)
	if err != nil {
		return argsRule == argsPat
	}
	if matched {
		return true
	}

	// File patterns like "*.go" or ".env.*" also match against the basename,
	// so "Read(**/.env)" and "Read(.env)" behave the same for nested paths.
	if strings.ContainsAny(argsPat, "*?") && strings.Contains(argsRule, "/") {
		if ok, err := doublestar.Match(argsPat, filepath.Base(argsRule)); err == nil && ok {
			return true
		}
	}
	return false
}

// parseRule parses a rule string into tool name and arguments.
// "Bash(npm install)" -> ("Bash", "npm install")
func parseRule(s string) (tool, args string) {
	tool, args, found := strings.Cut(s, "(")
	if !found {
		return s, ""
	}
	return tool, strings.TrimSuffix(args, ")")
}

// DestructiveCommands are patterns that always require user confirmation.
// These commands can cause irreversible data loss or system damage.
var DestructiveCommands = []string{
	"rm:-rf",
	"rm:-fr",
	"rm:-r",
	"git:reset --hard",
	"git:clean -fd",
	"git:clean -f",
	"git:push --force",
	"git:push -f",
	"chmod:777",
	"chmod:-R 777",
	":(){ :|:& };:", // fork bomb
	"> /dev/",       // device writes
	"dd:if=",        // direct disk access
	"mkfs",
	"fdisk",
}

// IsDestructiveCommand checks if a bash command matches any destructive
// pattern.
func IsDestructiveCommand(cmd string) bool {
	normalized := normalizeBashCommand(cmd)
	for _, pattern := range DestructiveCommands {
		if strings.Contains(normalized, pattern) {
			return true
		}
	}
	return false
}
