package plugin

import "errors"

var (
	// ErrPluginNameEmpty is returned when a plugin has no name.
	ErrPluginNameEmpty = errors.New("plugin name is empty")

	// ErrNoActions is returned when a plugin declares no actions.
	ErrNoActions = errors.New("plugin declares no actions")

	// ErrActionAlreadyRegistered is returned when two plugins claim
	// the same action name. Registration-time collision is a hard
	// error, not a runtime fallback.
	ErrActionAlreadyRegistered = errors.New("action already registered")

	// ErrNoPluginForAction is returned when no plugin provides the
	// requested action.
	ErrNoPluginForAction = errors.New("no plugin found for action")
)
