// Package types provides shared type definitions used across JACK packages.
// This package exists to break import cycles between the orchestrator,
// parser, executor, and memory packages. Types in this package should be
// foundational data structures with no complex dependencies.
package types

import "time"

// =============================================================================
// INTENT TYPES
// =============================================================================

// ParsedIntent is a single structured action derived from user text.
// Produced once per parse call and immutable after creation; referenced
// by ID throughout execution.
type ParsedIntent struct {
	// ID is unique within one parse result.
	ID string `json:"id"`

	// Action names the capability to invoke (e.g. "get_weather").
	Action string `json:"action"`

	// Parameters are passed to the plugin verbatim.
	Parameters map[string]any `json:"parameters,omitempty"`

	// Dependencies lists intent IDs that must complete first.
	Dependencies []string `json:"dependencies,omitempty"`

	// Conditional marks the intent as gated on ConditionExpr.
	Conditional bool `json:"conditional,omitempty"`

	// ConditionExpr is a restricted expression over prior results,
	// e.g. "i1.data.shouldAct === true". Evaluated only when
	// Conditional is set.
	ConditionExpr string `json:"conditionExpr,omitempty"`
}

// ExecutionOrder is a topological layering of the intent dependency DAG:
// an ordered list of groups, each group an unordered list of intent IDs.
// Every dependency of every intent in a group must be satisfied by
// intents in strictly earlier groups.
type ExecutionOrder [][]string

// Clarification is a question sent back to the user when input is
// ambiguous. The clarifying question itself is the response; no
// execution occurs.
type Clarification struct {
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
}

// IntentParseResult is the Intent Parser's output: the NLP
// collaborator's decomposition plus the deterministic acknowledgment
// decision layered on top.
type IntentParseResult struct {
	Intents        []ParsedIntent `json:"intents"`
	ExecutionOrder ExecutionOrder `json:"executionOrder"`

	// RequiresAcknowledgment is set by the parser's policy, never by
	// the NLP collaborator.
	RequiresAcknowledgment bool `json:"-"`

	// Clarification is non-nil when the input was too ambiguous to
	// decompose.
	Clarification *Clarification `json:"clarificationNeeded,omitempty"`
}

// ExecutionResult records the outcome of one intent. Created exactly
// once per intent per execution pass and never mutated after insertion;
// dependents read it read-only.
type ExecutionResult struct {
	IntentID string `json:"intentId"`
	Action   string `json:"action"`
	Success  bool   `json:"success"`
	Data     any    `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`
}

// =============================================================================
// CONTEXT TYPES
// =============================================================================

// RecentIntent is a short-term memory entry: an executed intent, its
// result, and when it ran. Entries expire 60s after creation.
type RecentIntent struct {
	Intent    ParsedIntent `json:"intent"`
	Result    any          `json:"result,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// ResourceType classifies what a client is currently focused on.
type ResourceType string

const (
	ResourceFile         ResourceType = "file"
	ResourceProject      ResourceType = "project"
	ResourceURL          ResourceType = "url"
	ResourceConversation ResourceType = "conversation"
)

// ActiveResource is the single per-client session slot. Last write
// wins; cleared on client disconnect.
type ActiveResource struct {
	Type        ResourceType   `json:"type"`
	Path        string         `json:"path,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	ActivatedAt time.Time      `json:"activatedAt"`
}

// ContextSnapshot is the merged read-only view handed to the NLP
// collaborator: recent intents, the active resource, and the union of
// the requested long-term memory namespaces.
type ContextSnapshot struct {
	ClientID       string          `json:"clientId"`
	RecentIntents  []RecentIntent  `json:"recentIntents,omitempty"`
	ActiveResource *ActiveResource `json:"activeResource,omitempty"`
	Memory         map[string]any  `json:"memory,omitempty"`
}

// =============================================================================
// TASK TYPES
// =============================================================================

// TaskState is the orchestrator's per-request state machine.
type TaskState string

const (
	TaskPending     TaskState = "pending"
	TaskRunning     TaskState = "running"
	TaskCompleted   TaskState = "completed"
	TaskFailed      TaskState = "failed"
	TaskInterrupted TaskState = "interrupted"
)

// TaskStatus tracks a client's latest (or current) request. Overwritten
// by each new Handle call; only the most recent task per client is
// retained.
type TaskStatus struct {
	TaskID      string
	ClientID    string
	State       TaskState
	Intents     []ParsedIntent
	Results     map[string]*ExecutionResult
	StartedAt   time.Time
	CompletedAt time.Time
}

// =============================================================================
// MODALITY TYPES
// =============================================================================

// ContentType is the coarse classification a result is presented under.
type ContentType string

const (
	ContentSimpleAnswer  ContentType = "simple_answer"
	ContentComplexResult ContentType = "complex_result"
	ContentCode          ContentType = "code"
	ContentData          ContentType = "data"
	ContentError         ContentType = "error"
)

// DocumentType is the rendering hint for a generated document.
type DocumentType string

const (
	DocMarkdown DocumentType = "markdown"
	DocCode     DocumentType = "code"
	DocData     DocumentType = "data"
)

// ModalityDecision is the presentation plan for one result: which
// channels to use and, for documents, where to put the file.
type ModalityDecision struct {
	Voice     bool
	VoiceText string

	Document     bool
	DocumentType DocumentType
	Location     string
	AutoOpen     bool
}

// =============================================================================
// TRANSPORT CONTRACT
// =============================================================================

// UserInput is what the transport layer delivers to the orchestrator.
type UserInput struct {
	ClientID string
	Text     string
}

// Callbacks are the five output channels back to the transport layer.
// Any nil callback is a no-op.
type Callbacks struct {
	OnAck      func(text string)
	OnSpeech   func(text string)
	OnDocument func(path string, docType DocumentType)
	OnClarify  func(question string, options []string)
	OnError    func(code, message string)
}
