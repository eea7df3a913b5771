// Package executor runs parsed intents against the plugin registry.
//
// Two execution paths live here. The group executor (Executor) takes a
// pre-computed execution order - a topological layering of the intent
// dependency DAG - and runs each group's intents concurrently, with
// dependency skip-propagation and conditional gating. The plan
// executor (PlanExecutor) is the heavier alternate path for multi-step
// plans, with per-step timeout, retries, and a permission gate.
package executor

import (
	"context"
	"fmt"
	"sync"

	"jack/internal/logging"
	"jack/internal/plugin"
	"jack/internal/types"
)

// priorResultsKey is the parameter under which accumulated results are
// injected into every plugin invocation.
const priorResultsKey = "_priorResults"

// ProgressStatus is the lifecycle of one intent during execution.
type ProgressStatus string

const (
	ProgressStarted   ProgressStatus = "started"
	ProgressCompleted ProgressStatus = "completed"
	ProgressFailed    ProgressStatus = "failed"
	ProgressSkipped   ProgressStatus = "skipped"
)

// Progress is emitted to the optional progress callback as intents
// move through execution.
type Progress struct {
	IntentID string
	Action   string
	Status   ProgressStatus
	Error    string
}

// ProgressFunc receives progress events. It may be called from
// multiple goroutines concurrently.
type ProgressFunc func(Progress)

// Executor schedules intents group-by-group against the registry.
// It carries no timeout and no retry: a hanging plugin hangs the
// group, and retries belong to the plan executor.
type Executor struct {
	registry *plugin.Registry
}

// New creates an Executor over the given plugin registry.
func New(registry *plugin.Registry) *Executor {
	return &Executor{registry: registry}
}

// GateFunc is consulted before each group starts. Returning false
// stops execution at that group boundary; in-flight intents are never
// cancelled mid-group.
type GateFunc func() bool

// ExecuteAll runs every intent per the execution order and returns the
// result map keyed by intent ID. A failing intent never surfaces as an
// error from ExecuteAll; it is recorded as a failed result, its
// dependents are skipped, and independent intents in the same group
// still run to completion.
func (e *Executor) ExecuteAll(ctx context.Context, intents []types.ParsedIntent, order types.ExecutionOrder, onProgress ProgressFunc) map[string]*types.ExecutionResult {
	results, _ := e.ExecuteGroups(ctx, intents, order, nil, onProgress)
	return results
}

// ExecuteGroups is ExecuteAll with a gate checked before each group.
// It returns the results recorded so far and whether every group ran.
// Completed groups' results are kept when the gate stops execution.
func (e *Executor) ExecuteGroups(ctx context.Context, intents []types.ParsedIntent, order types.ExecutionOrder, gate GateFunc, onProgress ProgressFunc) (map[string]*types.ExecutionResult, bool) {
	byID := make(map[string]*types.ParsedIntent, len(intents))
	for i := range intents {
		byID[intents[i].ID] = &intents[i]
	}

	results := make(map[string]*types.ExecutionResult, len(intents))
	var resultsMu sync.Mutex

	for gi, group := range order {
		if gate != nil && !gate() {
			logging.Executor("execution stopped before group %d/%d", gi+1, len(order))
			return results, false
		}
		logging.ExecutorDebug("group %d/%d starting (%d intents)", gi+1, len(order), len(group))

		// Everything recorded so far. Groups are the sequencing
		// boundary: siblings race and do not see each other's
		// results, later groups see everything before them.
		prior := snapshotResults(results, &resultsMu)

		var wg sync.WaitGroup
		for _, id := range group {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res := e.runOne(ctx, id, byID[id], prior, onProgress)
				resultsMu.Lock()
				results[id] = res
				resultsMu.Unlock()
			}()
		}
		wg.Wait()

		logging.ExecutorDebug("group %d/%d complete", gi+1, len(order))
	}

	return results, true
}

// Execute runs a single intent outside any grouping. priorResults may
// be nil.
func (e *Executor) Execute(ctx context.Context, intent types.ParsedIntent, priorResults map[string]*types.ExecutionResult) *types.ExecutionResult {
	return e.runOne(ctx, intent.ID, &intent, priorResults, nil)
}

// runOne applies, in order: missing-intent check, dependency check,
// conditional check, then the plugin call.
func (e *Executor) runOne(ctx context.Context, id string, intent *types.ParsedIntent, prior map[string]*types.ExecutionResult, onProgress ProgressFunc) *types.ExecutionResult {
	if intent == nil {
		return &types.ExecutionResult{
			IntentID: id,
			Success:  false,
			Error:    "Intent not found",
		}
	}

	// Any failed dependency short-circuits before the plugin is
	// touched.
	for _, dep := range intent.Dependencies {
		depResult, ok := prior[dep]
		if ok && !depResult.Success {
			res := &types.ExecutionResult{
				IntentID: intent.ID,
				Action:   intent.Action,
				Success:  false,
				Error:    fmt.Sprintf("Skipped: dependency '%s' failed", dep),
			}
			emit(onProgress, Progress{IntentID: intent.ID, Action: intent.Action, Status: ProgressSkipped, Error: res.Error})
			return res
		}
	}

	if intent.Conditional && intent.ConditionExpr != "" {
		if !EvaluateCondition(intent.ConditionExpr, prior) {
			res := &types.ExecutionResult{
				IntentID: intent.ID,
				Action:   intent.Action,
				Success:  false,
				Error:    "Skipped: condition not met",
			}
			emit(onProgress, Progress{IntentID: intent.ID, Action: intent.Action, Status: ProgressSkipped, Error: res.Error})
			return res
		}
	}

	emit(onProgress, Progress{IntentID: intent.ID, Action: intent.Action, Status: ProgressStarted})

	res := e.invoke(ctx, intent, prior)

	if res.Success {
		emit(onProgress, Progress{IntentID: intent.ID, Action: intent.Action, Status: ProgressCompleted})
	} else {
		emit(onProgress, Progress{IntentID: intent.ID, Action: intent.Action, Status: ProgressFailed, Error: res.Error})
	}
	return res
}

// invoke calls the plugin, converting lookup misses, errors, and
// panics into failed results. Nothing escapes as an error or panic.
func (e *Executor) invoke(ctx context.Context, intent *types.ParsedIntent, prior map[string]*types.ExecutionResult) (out *types.ExecutionResult) {
	out = &types.ExecutionResult{
		IntentID: intent.ID,
		Action:   intent.Action,
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Executor("plugin panic for action %s: %v", intent.Action, r)
			out.Success = false
			out.Data = nil
			out.Error = fmt.Sprintf("plugin panic: %v", r)
		}
	}()

	p, ok := e.registry.Lookup(intent.Action)
	if !ok {
		out.Error = fmt.Sprintf("No plugin found for action: %s", intent.Action)
		return out
	}

	params := make(map[string]any, len(intent.Parameters)+1)
	for k, v := range intent.Parameters {
		params[k] = v
	}
	params[priorResultsKey] = prior

	result, err := p.Execute(ctx, intent.Action, params)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	if result == nil {
		out.Error = "plugin returned no result"
		return out
	}

	out.Success = result.Success
	out.Data = result.Data
	out.Error = result.Error
	return out
}

func snapshotResults(results map[string]*types.ExecutionResult, mu *sync.Mutex) map[string]*types.ExecutionResult {
	mu.Lock()
	defer mu.Unlock()
	snap := make(map[string]*types.ExecutionResult, len(results))
	for k, v := range results {
		snap[k] = v
	}
	return snap
}

func emit(fn ProgressFunc, p Progress) {
	if fn != nil {
		fn(p)
	}
}
