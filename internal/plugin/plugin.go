// Package plugin defines the capability layer: named actions provided
// by external plugins, looked up through a flat action-keyed registry.
//
// Architecture:
//
//	ParsedIntent.Action → Registry.Lookup() → Plugin.Execute()
//
// Each action name maps to exactly one provider; duplicate-action
// registration fails at registration time.
package plugin

import "context"

// Plugin implements one or more named actions.
type Plugin interface {
	// Name identifies the plugin for logging and diagnostics.
	Name() string

	// Actions lists every action name this plugin provides.
	Actions() []string

	// Execute runs one action. A non-nil error and a Result with
	// Success=false are both treated as failures by the executor;
	// Execute should prefer returning a failed Result for domain
	// errors and reserve the error return for programming errors.
	Execute(ctx context.Context, action string, params map[string]any) (*Result, error)
}

// Result is the outcome of one action invocation.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok returns a successful result carrying data.
func Ok(data any) *Result {
	return &Result{Success: true, Data: data}
}

// Fail returns a failed result with a message.
func Fail(msg string) *Result {
	return &Result{Success: false, Error: msg}
}

// Func adapts a bare function into a single-action Plugin.
type Func struct {
	PluginName string
	Action     string
	Run        func(ctx context.Context, params map[string]any) (*Result, error)
}

// Name implements Plugin.
func (f *Func) Name() string { return f.PluginName }

// Actions implements Plugin.
func (f *Func) Actions() []string { return []string{f.Action} }

// Execute implements Plugin.
func (f *Func) Execute(ctx context.Context, _ string, params map[string]any) (*Result, error) {
	return f.Run(ctx, params)
}
