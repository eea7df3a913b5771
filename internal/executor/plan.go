package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jack/internal/logging"
	"jack/internal/plugin"
	"jack/internal/types"
)

// The plan executor is the heavier-weight alternate execution path for
// multi-step agent plans. Unlike the group executor it owns a per-step
// timeout and a retry loop with exponential backoff, and it can pause
// a step on a permission gate.

// StepState is the plan step state machine:
// pending -> running -> (awaiting_permission) -> completed | failed.
type StepState string

const (
	StepPending            StepState = "pending"
	StepRunning            StepState = "running"
	StepAwaitingPermission StepState = "awaiting_permission"
	StepCompleted          StepState = "completed"
	StepFailed             StepState = "failed"
)

// PlanStep is one step of a plan.
type PlanStep struct {
	ID         string
	Action     string
	Parameters map[string]any

	// RequiresPermission pauses the step until the permission gate
	// approves it.
	RequiresPermission bool

	// Mutated by the executor.
	State   StepState
	Retries int
	Result  *types.ExecutionResult
}

// Plan is an ordered sequence of steps; later steps see earlier steps'
// results under the step's ID.
type Plan struct {
	ID    string
	Goal  string
	Steps []*PlanStep
}

// NewPlan assembles a plan with a fresh ID and pending steps.
func NewPlan(goal string, steps ...*PlanStep) *Plan {
	for _, s := range steps {
		s.State = StepPending
	}
	return &Plan{
		ID:    uuid.NewString(),
		Goal:  goal,
		Steps: steps,
	}
}

// PermissionFunc decides whether a gated step may run.
type PermissionFunc func(ctx context.Context, step *PlanStep) (bool, error)

// ErrPermissionDenied aborts a plan when the gate rejects a step.
var ErrPermissionDenied = errors.New("permission denied")

// PlanExecutor runs plans sequentially with retry and timeout.
type PlanExecutor struct {
	registry    *plugin.Registry
	stepTimeout time.Duration
	maxRetries  int
	permission  PermissionFunc

	// sleep is swappable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPlanExecutor creates a plan executor. stepTimeout bounds each
// attempt; maxRetries caps retries per step (so a step runs at most
// maxRetries+1 times). permission may be nil, in which case gated
// steps are denied.
func NewPlanExecutor(registry *plugin.Registry, stepTimeout time.Duration, maxRetries int, permission PermissionFunc) *PlanExecutor {
	return &PlanExecutor{
		registry:    registry,
		stepTimeout: stepTimeout,
		maxRetries:  maxRetries,
		permission:  permission,
		sleep:       sleepCtx,
	}
}

// Run executes the plan's steps in order. The first step that ends in
// StepFailed aborts the plan; earlier results are kept on the steps.
func (p *PlanExecutor) Run(ctx context.Context, plan *Plan) error {
	logging.Executor("plan %s starting (%d steps)", plan.ID, len(plan.Steps))

	prior := make(map[string]*types.ExecutionResult, len(plan.Steps))

	for _, step := range plan.Steps {
		if err := p.runStep(ctx, step, prior); err != nil {
			logging.Executor("plan %s aborted at step %s: %v", plan.ID, step.ID, err)
			return fmt.Errorf("step %s: %w", step.ID, err)
		}
		prior[step.ID] = step.Result
	}

	logging.Executor("plan %s completed", plan.ID)
	return nil
}

// runStep drives one step through the state machine.
func (p *PlanExecutor) runStep(ctx context.Context, step *PlanStep, prior map[string]*types.ExecutionResult) error {
	step.State = StepRunning

	if step.RequiresPermission {
		step.State = StepAwaitingPermission
		granted, err := p.askPermission(ctx, step)
		if err != nil {
			step.State = StepFailed
			return err
		}
		if !granted {
			step.State = StepFailed
			return fmt.Errorf("%w: %s", ErrPermissionDenied, step.Action)
		}
		step.State = StepRunning
	}

	for {
		result := p.attempt(ctx, step, prior)
		step.Result = result

		if result.Success {
			step.State = StepCompleted
			return nil
		}

		if step.Retries >= p.maxRetries {
			step.State = StepFailed
			return fmt.Errorf("failed after %d attempts: %s", step.Retries+1, result.Error)
		}

		// 2^retryCount seconds between attempts.
		backoff := time.Duration(1<<uint(step.Retries)) * time.Second
		step.Retries++
		logging.ExecutorDebug("step %s attempt %d failed (%s); backing off %v",
			step.ID, step.Retries, result.Error, backoff)
		if err := p.sleep(ctx, backoff); err != nil {
			step.State = StepFailed
			return err
		}
	}
}

// attempt makes one bounded plugin call.
func (p *PlanExecutor) attempt(ctx context.Context, step *PlanStep, prior map[string]*types.ExecutionResult) *types.ExecutionResult {
	attemptCtx := ctx
	if p.stepTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, p.stepTimeout)
		defer cancel()
	}

	intent := types.ParsedIntent{
		ID:         step.ID,
		Action:     step.Action,
		Parameters: step.Parameters,
	}
	// Reuse the single-intent path so plugin errors and panics get
	// the same failure conversion as grouped execution.
	result := New(p.registry).Execute(attemptCtx, intent, prior)

	if attemptCtx.Err() == context.DeadlineExceeded && !result.Success {
		result.Error = fmt.Sprintf("step timed out after %v", p.stepTimeout)
	}
	return result
}

func (p *PlanExecutor) askPermission(ctx context.Context, step *PlanStep) (bool, error) {
	if p.permission == nil {
		return false, nil
	}
	return p.permission(ctx, step)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
