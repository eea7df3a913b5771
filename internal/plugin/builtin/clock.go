// Package builtin provides deterministic plugins shipped with JACK so
// the kernel is runnable and testable without external capabilities.
package builtin

import (
	"context"
	"time"

	"jack/internal/plugin"
)

// ClockPlugin answers get_time and get_date.
type ClockPlugin struct {
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewClockPlugin creates a clock plugin on the system clock.
func NewClockPlugin() *ClockPlugin {
	return &ClockPlugin{Now: time.Now}
}

// Name implements plugin.Plugin.
func (p *ClockPlugin) Name() string { return "clock" }

// Actions implements plugin.Plugin.
func (p *ClockPlugin) Actions() []string { return []string{"get_time", "get_date"} }

// Execute implements plugin.Plugin.
func (p *ClockPlugin) Execute(_ context.Context, action string, _ map[string]any) (*plugin.Result, error) {
	now := p.Now()
	switch action {
	case "get_time":
		return plugin.Ok(map[string]any{
			"time":     now.Format("3:04 PM"),
			"timezone": now.Format("MST"),
		}), nil
	case "get_date":
		return plugin.Ok(map[string]any{
			"date":    now.Format("Monday, January 2, 2006"),
			"iso":     now.Format("2006-01-02"),
			"weekday": now.Weekday().String(),
		}), nil
	default:
		return plugin.Fail("unknown action: " + action), nil
	}
}
