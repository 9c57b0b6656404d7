package config

// MergeSettings merges two Settings objects. Values from overlay override
// values in base. Permission rule lists are unioned, hook event groups are
// replaced per event name, and maps are key-merged.
func MergeSettings(base, overlay *Settings) *Settings {
	if base == nil {
		return overlay
	}
	if overlay == nil {
		return base
	}

	result := NewSettings()

	result.Permissions = mergePermissionSettings(base.Permissions, overlay.Permissions)

	if overlay.Model != "" {
		result.Model = overlay.Model
	} else {
		result.Model = base.Model
	}

	result.Hooks = mergeHooksSettings(base.Hooks, overlay.Hooks)
	result.Env = mergeStringMaps(base.Env, overlay.Env)

	return result
}

// mergeHooksSettings merges hook configuration. The enabled switch from the
// higher scope wins if set, disabled lists are unioned, and event groups from
// the higher scope replace the lower scope's groups for the same event name.
func mergeHooksSettings(base, overlay HooksSettings) HooksSettings {
	result := HooksSettings{
		Events: make(map[string][]HookGroup),
	}

	result.Enabled = base.Enabled
	if overlay.Enabled != nil {
		result.Enabled = overlay.Enabled
	}

	result.Disabled = mergeStringSlices(base.Disabled, overlay.Disabled)

	for event, groups := range base.Events {
		result.Events[event] = append([]HookGroup{}, groups...)
	}
	for event, groups := range overlay.Events {
		result.Events[event] = append([]HookGroup{}, groups...)
	}

	return result
}

// mergePermissionSettings merges two PermissionSettings, deduplicating rules.
func mergePermissionSettings(base, overlay PermissionSettings) PermissionSettings {
	return PermissionSettings{
		Allow: mergeStringSlices(base.Allow, overlay.Allow),
		Deny:  mergeStringSlices(base.Deny, overlay.Deny),
		Ask:   mergeStringSlices(base.Ask, overlay.Ask),
	}
}

// mergeStringSlices merges two string slices, removing duplicates.
func mergeStringSlices(base, overlay []string) []string {
	seen := make(map[string]bool)
	var result []string

	for _, s := range base {
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range overlay {
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	return result
}

// mergeStringMaps merges two map[string]string, overlay winning.
func mergeStringMaps(base, overlay map[string]string) map[string]string {
	result := make(map[string]string)
	for k, v := range base {
		result[k] = v
	}
	for k, v := range overlay {
		result[k] = v
	}
	return result
}
