package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"jack/internal/logging"
)

// Registry maps action names to the plugin providing them.
// It is thread-safe and supports registration at runtime.
type Registry struct {
	mu       sync.RWMutex
	byAction map[string]Plugin
	plugins  map[string]Plugin
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		byAction: make(map[string]Plugin),
		plugins:  make(map[string]Plugin),
	}
}

// Register adds a plugin and claims all of its actions.
// Registration is all-or-nothing: if any action collides with an
// existing registration, nothing is added and an error is returned.
func (r *Registry) Register(p Plugin) error {
	if p.Name() == "" {
		return ErrPluginNameEmpty
	}
	actions := p.Actions()
	if len(actions) == 0 {
		return fmt.Errorf("%w: %s", ErrNoActions, p.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, action := range actions {
		if existing, ok := r.byAction[action]; ok {
			return fmt.Errorf("%w: %q claimed by both %s and %s",
				ErrActionAlreadyRegistered, action, existing.Name(), p.Name())
		}
	}
	for _, action := range actions {
		r.byAction[action] = p
	}
	r.plugins[p.Name()] = p

	logging.PluginsDebug("Registered plugin: %s (actions=%v)", p.Name(), actions)
	return nil
}

// MustRegister registers a plugin and panics on error.
// Use this for static plugin registration at init time.
func (r *Registry) MustRegister(p Plugin) {
	if err := r.Register(p); err != nil {
		panic(fmt.Sprintf("failed to register plugin %s: %v", p.Name(), err))
	}
}

// Lookup returns the plugin providing an action.
func (r *Registry) Lookup(action string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byAction[action]
	return p, ok
}

// Has returns true if some plugin provides the action.
func (r *Registry) Has(action string) bool {
	_, ok := r.Lookup(action)
	return ok
}

// Actions returns all registered action names, sorted.
func (r *Registry) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := make([]string, 0, len(r.byAction))
	for a := range r.byAction {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	return actions
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Execute runs the action through its provider.
// Returns ErrNoPluginForAction if nothing provides it.
func (r *Registry) Execute(ctx context.Context, action string, params map[string]any) (*Result, error) {
	p, ok := r.Lookup(action)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoPluginForAction, action)
	}

	start := time.Now()
	logging.PluginsDebug("Executing action: %s (plugin=%s)", action, p.Name())
	result, err := p.Execute(ctx, action, params)
	logging.PluginsDebug("Action %s completed in %v (err=%v)", action, time.Since(start), err)
	return result, err
}
