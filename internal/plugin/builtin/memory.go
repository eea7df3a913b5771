package builtin

import (
	"context"
	"fmt"

	"jack/internal/memory"
	"jack/internal/plugin"
)

// MemoryPlugin exposes the long-term memory store as plugin actions so
// users can teach JACK facts conversationally.
//
//	remember_fact: {key: "user.name", value: "Jack"}
//	recall_fact:   {key: "user.name"}
type MemoryPlugin struct {
	store *memory.Store
}

// NewMemoryPlugin wraps the long-term store.
func NewMemoryPlugin(store *memory.Store) *MemoryPlugin {
	return &MemoryPlugin{store: store}
}

// Name implements plugin.Plugin.
func (p *MemoryPlugin) Name() string { return "memory" }

// Actions implements plugin.Plugin.
func (p *MemoryPlugin) Actions() []string { return []string{"remember_fact", "recall_fact"} }

// Execute implements plugin.Plugin.
func (p *MemoryPlugin) Execute(_ context.Context, action string, params map[string]any) (*plugin.Result, error) {
	key, _ := params["key"].(string)
	if key == "" {
		return plugin.Fail("parameter 'key' is required"), nil
	}

	switch action {
	case "remember_fact":
		value, ok := params["value"]
		if !ok {
			return plugin.Fail("parameter 'value' is required"), nil
		}
		if err := p.store.Set(key, value); err != nil {
			return plugin.Fail(fmt.Sprintf("failed to store %s: %v", key, err)), nil
		}
		return plugin.Ok(map[string]any{"stored": key}), nil

	case "recall_fact":
		value, found, err := p.store.Get(key)
		if err != nil {
			return plugin.Fail(fmt.Sprintf("failed to read %s: %v", key, err)), nil
		}
		if !found {
			return plugin.Fail(fmt.Sprintf("nothing remembered under %s", key)), nil
		}
		return plugin.Ok(map[string]any{"key": key, "value": value}), nil

	default:
		return plugin.Fail("unknown action: " + action), nil
	}
}
