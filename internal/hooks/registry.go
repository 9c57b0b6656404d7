package hooks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aide-sh/aide/internal/config"
)

// scopeRank orders provenance tiers lowest to highest. On a name collision
// for the same event, the higher tier's definition wins: project overrides
// user overrides extension overrides system.
var scopeRank = map[config.Scope]int{
	config.ScopeSystem:    0,
	config.ScopeExtension: 1,
	config.ScopeUser:      2,
	config.ScopeProject:   3,
}

// Registry is the catalog of hook definitions merged from all settings
// scopes. Entries are replaced wholesale on every load or reload; enabled
// state is derived from the per-scope hooks.disabled lists and persists
// through the owning config layer.
type Registry struct {
	mu         sync.Mutex
	loader     *config.Loader
	extensions []config.Layer

	entries         []*RegistryEntry
	enabled         bool
	disabledByScope map[config.Scope]map[string]bool
}

// NewRegistry creates a registry backed by the given settings loader.
// Extension-provided layers may be supplied in addition to the on-disk
// scopes.
func NewRegistry(loader *config.Loader, extensions ...config.Layer) *Registry {
	return &Registry{
		loader:     loader,
		extensions: extensions,
	}
}

// Initialize loads hook definitions from every settings scope.
func (r *Registry) Initialize() error {
	return r.Reload()
}

// Reload discards all entries and rebuilds them from current settings.
func (r *Registry) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	layers := append(r.loader.LoadLayers(), r.extensions...)
	sort.SliceStable(layers, func(i, j int) bool {
		return scopeRank[layers[i].Scope] < scopeRank[layers[j].Scope]
	})

	r.enabled = true
	r.disabledByScope = make(map[config.Scope]map[string]bool)
	r.entries = nil

	type key struct {
		event EventType
		name  string
	}
	index := make(map[key]int)

	for _, layer := range layers {
		hs := layer.Settings.Hooks

		if hs.Enabled != nil {
			r.enabled = *hs.Enabled
		}
		for _, name := range hs.Disabled {
			if r.disabledByScope[layer.Scope] == nil {
				r.disabledByScope[layer.Scope] = make(map[string]bool)
			}
			r.disabledByScope[layer.Scope][name] = true
		}

		for eventName, groups := range hs.Events {
			if !KnownEvent(eventName) {
				continue
			}
			for _, group := range groups {
				for _, cmd := range group.Hooks {
					if cmd.Command == "" || (cmd.Type != "" && cmd.Type != "command") {
						continue
					}
					entry := &RegistryEntry{
						Definition: Definition{
							Command:      cmd.Command,
							Timeout:      cmd.Timeout,
							FriendlyName: cmd.Name,
						},
						EventName:  EventType(eventName),
						Source:     layer.Scope,
						Matcher:    group.Matcher,
						Sequential: group.Sequential,
						Enabled:    true,
					}
					k := key{entry.EventName, entry.Name()}
					if i, seen := index[k]; seen {
						// Higher tier replaces the colliding definition but
						// keeps its registration slot.
						r.entries[i] = entry
						continue
					}
					index[k] = len(r.entries)
					r.entries = append(r.entries, entry)
				}
			}
		}
	}

	for _, entry := range r.entries {
		entry.Enabled = !r.isDisabled(entry.Name())
	}

	return nil
}

// isDisabled reports whether name appears in any scope's disabled list.
// Callers hold r.mu.
func (r *Registry) isDisabled(name string) bool {
	for _, names := range r.disabledByScope {
		if names[name] {
			return true
		}
	}
	return false
}

// GetAllHooks returns every entry regardless of enabled state, in
// registration order. The management surface uses this for listing.
func (r *Registry) GetAllHooks() []*RegistryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*RegistryEntry(nil), r.entries...)
}

// SetHookEnabled flips a hook's enabled state and persists the owning
// scope's disabled-name list. Extension-sourced hooks persist to the project
// scope, since extension settings are read-only.
func (r *Registry) SetHookEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var owner config.Scope
	found := false
	for _, entry := range r.entries {
		if entry.Name() == name {
			entry.Enabled = enabled
			if !found {
				owner = entry.Source
				found = true
			}
		}
	}
	if !found {
		return fmt.Errorf("unknown hook %q", name)
	}
	if owner == config.ScopeExtension {
		owner = config.ScopeProject
	}

	scoped := r.disabledByScope[owner]
	if scoped == nil {
		scoped = make(map[string]bool)
		r.disabledByScope[owner] = scoped
	}
	if enabled {
		delete(scoped, name)
	} else {
		scoped[name] = true
	}

	names := make([]string, 0, len(scoped))
	for n := range scoped {
		names = append(names, n)
	}
	sort.Strings(names)

	return r.loader.SetValue(owner, "hooks.disabled", names)
}

// FindMatching returns the ordered enabled entries for an event, filtered by
// matcher against the context. Returns nothing when the global hooks switch
// is off.
func (r *Registry) FindMatching(event EventType, ctx MatchContext) []*RegistryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return nil
	}

	matchValue := MatchValue(event, ctx)

	var matched []*RegistryEntry
	for _, entry := range r.entries {
		if entry.EventName != event || !entry.Enabled {
			continue
		}
		if EventSupportsMatcher(event) && !MatchesEvent(entry.Matcher, matchValue) {
			continue
		}
		matched = append(matched, entry)
	}
	return matched
}

// HasHooks reports whether any enabled hook is registered for the event.
func (r *Registry) HasHooks(event EventType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return false
	}
	for _, entry := range r.entries {
		if entry.EventName == event && entry.Enabled {
			return true
		}
	}
	return false
}
