package search

import (
	"fmt"
	"strings"
	"sync"
)

// Hook defaults.
const (
	DefaultHookID          = "hook.search"
	DefaultHookName        = "Search"
	DefaultHookDescription = "Search across spaces"
	DefaultPriority        = 100
	DefaultDebounceMs      = 300
	DefaultMaxSpacesShown  = 6

	// Trigger starts a slash command.
	Trigger = "/"
)

// HookConfig holds the overridable hook settings. Zero values take the
// defaults.
type HookConfig struct {
	ID             string `json:"id,omitempty" yaml:"id,omitempty"`
	Name           string `json:"name,omitempty" yaml:"name,omitempty"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	Priority       int    `json:"priority,omitempty" yaml:"priority,omitempty"`
	DebounceMs     int    `json:"debounce_ms,omitempty" yaml:"debounce_ms,omitempty"`
	MaxSpacesShown int    `json:"max_spaces_shown,omitempty" yaml:"max_spaces_shown,omitempty"`
}

// Hook is the slash-command search hook: a named, ordered set of spaces and
// the currently selected one.
type Hook struct {
	ID             string
	Name           string
	Description    string
	Priority       int
	DebounceMs     int
	MaxSpacesShown int

	spaceOpts []SpaceOption

	mu       sync.RWMutex
	spaces   []*Space
	selected *Space
}

// NewHook builds a hook from cfg. opts are applied to every space built by
// InitializeSpaces.
func NewHook(cfg HookConfig, opts ...SpaceOption) *Hook {
	h := &Hook{
		ID:             orDefault(cfg.ID, DefaultHookID),
		Name:           orDefault(cfg.Name, DefaultHookName),
		Description:    orDefault(cfg.Description, DefaultHookDescription),
		Priority:       cfg.Priority,
		DebounceMs:     cfg.DebounceMs,
		MaxSpacesShown: cfg.MaxSpacesShown,
		spaceOpts:      opts,
	}
	if h.Priority == 0 {
		h.Priority = DefaultPriority
	}
	if h.DebounceMs <= 0 {
		h.DebounceMs = DefaultDebounceMs
	}
	if h.MaxSpacesShown <= 0 {
		h.MaxSpacesShown = DefaultMaxSpacesShown
	}
	return h
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// InitializeSpaces replaces the hook's spaces with ones built from cfgs.
// If any config is invalid nothing changes and the error is returned.
// The selected space is cleared when it is not among the new spaces.
func (h *Hook) InitializeSpaces(cfgs []SpaceConfig) error {
	spaces := make([]*Space, 0, len(cfgs))
	for i, cfg := range cfgs {
		s, err := NewSpace(cfg, h.spaceOpts...)
		if err != nil {
			return fmt.Errorf("space %d: %w", i, err)
		}
		spaces = append(spaces, s)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.spaces = spaces
	if h.selected != nil && !containsLocked(spaces, h.selected) {
		h.selected = nil
	}
	return nil
}

// SetSelectedSpace records s as the selected space. s is not validated.
func (h *Hook) SetSelectedSpace(s *Space) {
	h.mu.Lock()
	h.selected = s
	h.mu.Unlock()
}

// SelectedSpace returns the selected space, or nil.
func (h *Hook) SelectedSpace() *Space {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.selected
}

// Spaces returns the spaces in insertion order.
func (h *Hook) Spaces() []*Space {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Space, len(h.spaces))
	copy(out, h.spaces)
	return out
}

// SpaceNames returns the space names in insertion order.
func (h *Hook) SpaceNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, len(h.spaces))
	for i, s := range h.spaces {
		names[i] = s.Name()
	}
	return names
}

// FindSpace returns the first space whose name or id equals name, ignoring
// case, or nil.
func (h *Hook) FindSpace(name string) *Space {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.spaces {
		if strings.EqualFold(s.Name(), name) || (s.ID() != "" && strings.EqualFold(s.ID(), name)) {
			return s
		}
	}
	return nil
}

// Contains reports whether s is one of the hook's current spaces.
func (h *Hook) Contains(s *Space) bool {
	if s == nil {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return containsLocked(h.spaces, s)
}

// MatchSpaces returns up to MaxSpacesShown spaces whose lowercase name or id
// contains filter. An empty filter matches everything.
func (h *Hook) MatchSpaces(filter string) []*Space {
	filter = strings.ToLower(filter)
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*Space
	for _, s := range h.spaces {
		if len(out) >= h.MaxSpacesShown {
			break
		}
		if strings.Contains(strings.ToLower(s.Name()), filter) || strings.Contains(strings.ToLower(s.ID()), filter) {
			out = append(out, s)
		}
	}
	return out
}

func containsLocked(spaces []*Space, s *Space) bool {
	for _, candidate := range spaces {
		if candidate == s {
			return true
		}
	}
	return false
}
