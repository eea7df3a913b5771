// Package orchestrator coordinates one client request end to end:
// parse, acknowledge, execute, present.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"jack/internal/executor"
	"jack/internal/logging"
	"jack/internal/memory"
	"jack/internal/modality"
	"jack/internal/parser"
	"jack/internal/types"
)

// Error codes surfaced through the OnError callback.
const (
	CodeInternalError   = "INTERNAL_ERROR"
	CodeExecutionFailed = "EXECUTION_FAILED"
)

const (
	ackText          = "On it."
	defaultClarify   = "What would you like me to do?"
	defaultNamespace = "user"
)

// Orchestrator is the single entry point for user requests. One task
// per Handle call, tracked under the client's ID; a new call overwrites
// the client's previous task record.
type Orchestrator struct {
	parser   *parser.Parser
	executor *executor.Executor
	memory   *memory.Manager

	mu         sync.Mutex
	tasks      map[string]*types.TaskStatus
	interrupts map[string]bool

	// namespaces read into the NLP context snapshot.
	namespaces []string

	// now is swappable for tests.
	now func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNamespaces sets which long-term memory namespaces are folded into
// the context snapshot handed to the parser.
func WithNamespaces(namespaces ...string) Option {
	return func(o *Orchestrator) { o.namespaces = namespaces }
}

func New(p *parser.Parser, e *executor.Executor, m *memory.Manager, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		parser:     p,
		executor:   e,
		memory:     m,
		tasks:      make(map[string]*types.TaskStatus),
		interrupts: make(map[string]bool),
		namespaces: []string{defaultNamespace, "preferences"},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handle runs the full pipeline for one request and returns the final
// task record. All user-visible output goes through the callbacks; the
// return value is for status inspection.
func (o *Orchestrator) Handle(ctx context.Context, input types.UserInput, cb types.Callbacks) *types.TaskStatus {
	task := &types.TaskStatus{
		TaskID:    uuid.NewString(),
		ClientID:  input.ClientID,
		State:     types.TaskPending,
		StartedAt: o.now(),
	}
	o.mu.Lock()
	o.tasks[input.ClientID] = task
	o.interrupts[input.ClientID] = false
	o.mu.Unlock()

	logging.Orchestrator("task %s: handling input for client %s", task.TaskID, input.ClientID)

	snapshot, err := o.memory.Snapshot(ctx, input.ClientID, o.namespaces)
	if err != nil {
		// A snapshot failure degrades context, not the request.
		logging.Orchestrator("task %s: snapshot failed: %v", task.TaskID, err)
		snapshot = &types.ContextSnapshot{ClientID: input.ClientID}
	}

	parsed, err := o.parser.ParseInput(ctx, input.Text, snapshot)
	if err != nil {
		logging.Orchestrator("task %s: parse failed: %v", task.TaskID, err)
		o.finish(task, types.TaskFailed)
		emitError(cb, CodeInternalError, err.Error())
		return task
	}

	if parsed.Clarification != nil {
		emitClarify(cb, parsed.Clarification.Question, parsed.Clarification.Options)
		o.finish(task, types.TaskCompleted)
		return task
	}
	if len(parsed.Intents) == 0 {
		emitClarify(cb, defaultClarify, nil)
		o.finish(task, types.TaskCompleted)
		return task
	}

	o.mu.Lock()
	task.Intents = parsed.Intents
	task.State = types.TaskRunning
	o.mu.Unlock()

	if parsed.RequiresAcknowledgment && cb.OnAck != nil {
		// Fire and forget; the pipeline never waits on the ack.
		go cb.OnAck(ackText)
	}

	results, ran := o.executor.ExecuteGroups(ctx, parsed.Intents, parsed.ExecutionOrder,
		func() bool { return !o.interrupted(input.ClientID) }, nil)
	o.mu.Lock()
	task.Results = results
	o.mu.Unlock()

	if !ran {
		logging.Orchestrator("task %s: interrupted", task.TaskID)
		o.finish(task, types.TaskInterrupted)
		return task
	}

	// Results are reported in execution order. The first failure stops
	// reporting even though every branch already ran.
	for _, group := range parsed.ExecutionOrder {
		for _, id := range group {
			res, ok := results[id]
			if !ok {
				continue
			}
			if !res.Success {
				logging.Orchestrator("task %s: intent %s failed: %s", task.TaskID, id, res.Error)
				o.finish(task, types.TaskFailed)
				emitError(cb, CodeExecutionFailed, res.Error)
				return task
			}
			o.present(task, res, cb)
			o.memory.RecordIntent(input.ClientID, intentByID(parsed.Intents, id), res.Data)
		}
	}

	o.finish(task, types.TaskCompleted)
	return task
}

// present routes one successful result through the modality decision
// and out the speech/document callbacks.
func (o *Orchestrator) present(task *types.TaskStatus, res *types.ExecutionResult, cb types.Callbacks) {
	contentType := inferContentType(res.Action)

	var mctx *modality.Context
	if resource, ok := o.memory.ActiveResource(task.ClientID); ok && resource.Type == types.ResourceProject {
		mctx = &modality.Context{ProjectPath: resource.Path}
	}

	decision := modality.Decide(res, contentType, mctx)

	if decision.Document && cb.OnDocument != nil {
		path, err := writeDocument(task.TaskID, res, decision)
		if err != nil {
			logging.Modality("task %s: document write failed: %v", task.TaskID, err)
		} else {
			cb.OnDocument(path, decision.DocumentType)
		}
	}
	if decision.Voice && cb.OnSpeech != nil {
		cb.OnSpeech(decision.VoiceText)
	}
}

// Interrupt sets the client's interruption flag. It is checked only at
// group boundaries: in-flight intents run to completion, completed
// groups' results are kept.
func (o *Orchestrator) Interrupt(clientID string) {
	o.mu.Lock()
	o.interrupts[clientID] = true
	o.mu.Unlock()
	logging.Orchestrator("client %s: interrupt requested", clientID)
}

// Task returns the client's latest task record, or nil.
func (o *Orchestrator) Task(clientID string) *types.TaskStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.tasks[clientID]
}

func (o *Orchestrator) interrupted(clientID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.interrupts[clientID]
}

func (o *Orchestrator) finish(task *types.TaskStatus, state types.TaskState) {
	o.mu.Lock()
	task.State = state
	task.CompletedAt = o.now()
	o.mu.Unlock()
}

// inferContentType maps an action name to its presentation class.
func inferContentType(action string) types.ContentType {
	switch action {
	case "get_time", "get_date", "get_weather", "simple_math":
		return types.ContentSimpleAnswer
	case "generate_code", "write_code":
		return types.ContentCode
	case "export_data", "generate_logs", "export_csv":
		return types.ContentData
	default:
		return types.ContentComplexResult
	}
}

func intentByID(intents []types.ParsedIntent, id string) types.ParsedIntent {
	for _, in := range intents {
		if in.ID == id {
			return in
		}
	}
	return types.ParsedIntent{ID: id}
}

func emitError(cb types.Callbacks, code, message string) {
	if cb.OnError != nil {
		cb.OnError(code, message)
	}
}

func emitClarify(cb types.Callbacks, question string, options []string) {
	if cb.OnClarify != nil {
		cb.OnClarify(question, options)
	}
}
