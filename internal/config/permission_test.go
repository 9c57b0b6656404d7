package config

import "testing"

func TestBuildRule(t *testing.T) {
	tests := []struct {
		name     string
		toolName string
		args     map[string]any
		want     string
	}{
		{
			name:     "bash command normalized",
			toolName: "Bash",
			args:     map[string]any{"command": "npm install lodash"},
			want:     "Bash(npm:install lodash)",
		},
		{
			name:     "bash absolute path stripped",
			toolName: "Bash",
			args:     map[string]any{"command": "/bin/rm -rf tmp"},
			want:     "Bash(rm:-rf tmp)",
		},
		{
			name:     "read file path",
			toolName: "Read",
			args:     map[string]any{"file_path": "/etc/passwd"},
			want:     "Read(/etc/passwd)",
		},
		{
			name:     "webfetch domain",
			toolName: "WebFetch",
			args:     map[string]any{"url": "https://example.com/page"},
			want:     "WebFetch(domain:example.com)",
		},
		{
			name:     "unknown tool falls back to path",
			toolName: "Custom",
			args:     map[string]any{"path": "/tmp/x"},
			want:     "Custom(/tmp/x)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildRule(tt.toolName, tt.args); got != tt.want {
				t.Errorf("BuildRule() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatchRule(t *testing.T) {
	tests := []struct {
		name    string
		rule    string
		pattern string
		want    bool
	}{
		{"exact match", "Bash(npm:install)", "Bash(npm:install)", true},
		{"tool mismatch", "Read(/tmp/x)", "Write(/tmp/x)", false},
		{"bare tool matches bare rule", "Bash()", "Bash()", true},
		{"bare pattern needs empty args", "Bash(npm:install)", "Bash()", false},
		{"prefix match", "Bash(npm:install lodash)", "Bash(npm:*)", true},
		{"prefix match bare command", "Bash(npm)", "Bash(npm:*)", true},
		{"prefix no match", "Bash(yarn:add x)", "Bash(npm:*)", false},
		{"glob within segment", "Read(main.go)", "Read(*.go)", true},
		{"glob does not cross segments", "Read(src/main.go)", "Read(*.md)", false},
		{"doublestar crosses segments", "Read(src/deep/main.go)", "Read(**/*.go)", true},
		{"basename fallback", "Read(src/config/.env)", "Read(.env*)", true},
		{"domain match", "WebFetch(domain:example.com)", "WebFetch(domain:example.com)", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchRule(tt.rule, tt.pattern); got != tt.want {
				t.Errorf("MatchRule(%q, %q) = %v, want %v", tt.rule, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestCheckPermission(t *testing.T) {
	settings := NewSettings()
	settings.Permissions.Deny = []string{"Read(**/.env)", "Read(.env*)"}
	settings.Permissions.Allow = []string{"Bash(npm:*)", "Write(/tmp/**)"}
	settings.Permissions.Ask = []string{"Bash(git:push*)"}

	tests := []struct {
		name     string
		toolName string
		args     map[string]any
		want     PermissionResult
	}{
		{
			name:     "deny rule wins over read-only default",
			toolName: "Read",
			args:     map[string]any{"file_path": "/repo/.env.local"},
			want:     PermissionDeny,
		},
		{
			name:     "destructive bash asks even when allowed",
			toolName: "Bash",
			args:     map[string]any{"command": "rm -rf /tmp/x"},
			want:     PermissionAsk,
		},
		{
			name:     "allow rule",
			toolName: "Bash",
			args:     map[string]any{"command": "npm install"},
			want:     PermissionAllow,
		},
		{
			name:     "ask rule",
			toolName: "Bash",
			args:     map[string]any{"command": "git push origin main"},
			want:     PermissionAsk,
		},
		{
			name:     "read-only default allows",
			toolName: "Grep",
			args:     map[string]any{"pattern": "TODO"},
			want:     PermissionAllow,
		},
		{
			name:     "mutating default asks",
			toolName: "Edit",
			args:     map[string]any{"file_path": "/repo/main.go"},
			want:     PermissionAsk,
		},
		{
			name:     "allowed write path",
			toolName: "Write",
			args:     map[string]any{"file_path": "/tmp/scratch/out.txt"},
			want:     PermissionAllow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := settings.CheckPermission(tt.toolName, tt.args); got != tt.want {
				t.Errorf("CheckPermission(%s) = %v, want %v", tt.toolName, got, tt.want)
			}
		})
	}
}

func TestIsDestructiveCommand(t *testing.T) {
	destructive := []string{
		"rm -rf node_modules",
		"git reset --hard HEAD~3",
		"git push --force origin main",
		"chmod 777 /etc",
		"dd if=/dev/zero of=/dev/sda",
	}
	for _, cmd := range destructive {
		if !IsDestructiveCommand(cmd) {
			t.Errorf("expected %q to be destructive", cmd)
		}
	}

	safe := []string{
		"rm file.txt",
		"git push origin main",
		"ls -la",
		"npm install",
	}
	for _, cmd := range safe {
		if IsDestructiveCommand(cmd) {
			t.Errorf("expected %q to be safe", cmd)
		}
	}
}
