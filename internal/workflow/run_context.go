package workflow

import (
	"context"
	"time"

	"github.com/shashank-sharma/workflow-engine/internal/util"
)

// RunContext carries the per-run identity and deadline every connector
// receives alongside its input envelope.
type RunContext struct {
	context.Context
	RunID      string
	WorkflowID string
	UserID     string
	Deadline   time.Time
}

// NewRunContext wraps parent with a deadline (if timeoutSeconds > 0)
// and the given identity, and stashes the user id in the context via
// util.WithUserID.
func NewRunContext(parent context.Context, runID, workflowID, userID string, timeoutSeconds int) (*RunContext, context.CancelFunc) {
	ctx := util.WithUserID(parent, userID)
	cancel := func() {}
	var deadline time.Time
	if timeoutSeconds > 0 {
		var c context.CancelFunc
		ctx, c = context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
		cancel = c
		deadline = time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	}
	return &RunContext{
		Context:    ctx,
		RunID:      runID,
		WorkflowID: workflowID,
		UserID:     userID,
		Deadline:   deadline,
	}, cancel
}

// RunOutcome is the terminal state of one workflow execution.
type RunOutcome string

const (
	OutcomeRunning   RunOutcome = "running"
	OutcomeCompleted RunOutcome = "completed"
	OutcomeFailed    RunOutcome = "failed"
	OutcomeCancelled RunOutcome = "cancelled"
)
