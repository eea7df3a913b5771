package config

import (
	"fmt"
	"time"
)

// ExecutionConfig configures the plan executor. The group executor
// deliberately carries no timeout or retry settings; those belong to
// the heavier plan-based execution path only.
type ExecutionConfig struct {
	// PlanStepTimeout bounds one plan step, as a duration string.
	PlanStepTimeout string `yaml:"plan_step_timeout" json:"plan_step_timeout"`

	// PlanMaxRetries caps retries per plan step.
	PlanMaxRetries int `yaml:"plan_max_retries" json:"plan_max_retries"`
}

// DefaultExecutionConfig returns plan executor defaults.
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		PlanStepTimeout: "2m",
		PlanMaxRetries:  3,
	}
}

// StepTimeoutDuration parses PlanStepTimeout, falling back to 2m.
func (c ExecutionConfig) StepTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.PlanStepTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// Validate checks the execution section.
func (c ExecutionConfig) Validate() error {
	if c.PlanMaxRetries < 0 {
		return fmt.Errorf("plan_max_retries must be non-negative")
	}
	if c.PlanStepTimeout != "" {
		if _, err := time.ParseDuration(c.PlanStepTimeout); err != nil {
			return fmt.Errorf("invalid plan_step_timeout %q: %w", c.PlanStepTimeout, err)
		}
	}
	return nil
}
