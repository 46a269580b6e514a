package workflow

import (
	"context"
	"fmt"

	"github.com/shashank-sharma/workflow-engine/internal/logger"
)

// WorkflowLogger scopes log lines to a workflow/execution/node triple,
// the way every per-node log line in this engine is expected to read.
type WorkflowLogger struct {
	workflowID  string
	executionID string
	nodeID      string
}

func NewWorkflowLogger(workflowID, executionID string) *WorkflowLogger {
	return &WorkflowLogger{
		workflowID:  workflowID,
		executionID: executionID,
	}
}

// WithNode returns a copy of the logger scoped to the given node.
func (wl *WorkflowLogger) WithNode(nodeID string) *WorkflowLogger {
	return &WorkflowLogger{
		workflowID:  wl.workflowID,
		executionID: wl.executionID,
		nodeID:      nodeID,
	}
}

func (wl *WorkflowLogger) prefix() string {
	if wl.nodeID != "" {
		return fmt.Sprintf("[workflow:%s][execution:%s][node:%s]", wl.workflowID, wl.executionID, wl.nodeID)
	}
	if wl.executionID != "" {
		return fmt.Sprintf("[workflow:%s][execution:%s]", wl.workflowID, wl.executionID)
	}
	return fmt.Sprintf("[workflow:%s]", wl.workflowID)
}

func (wl *WorkflowLogger) Debug(msg string, fields ...interface{}) {
	logger.Debug.Printf("%s %s %v", wl.prefix(), msg, fields)
}

func (wl *WorkflowLogger) Info(msg string, fields ...interface{}) {
	if len(fields) > 0 {
		logger.Info.Printf("%s %s %v", wl.prefix(), msg, fields)
	} else {
		logger.Info.Printf("%s %s", wl.prefix(), msg)
	}
}

func (wl *WorkflowLogger) Warn(msg string, fields ...interface{}) {
	if len(fields) > 0 {
		logger.Warning.Printf("%s %s %v", wl.prefix(), msg, fields)
	} else {
		logger.Warning.Printf("%s %s", wl.prefix(), msg)
	}
}

func (wl *WorkflowLogger) Error(msg string, err error, fields ...interface{}) {
	if err != nil {
		logger.Error.Printf("%s %s: %v %v", wl.prefix(), msg, err, fields)
	} else {
		logger.Error.Printf("%s %s %v", wl.prefix(), msg, fields)
	}
}

type contextKey string

const loggerKey contextKey = "workflow_logger"

func WithLogger(ctx context.Context, wl *WorkflowLogger) context.Context {
	return context.WithValue(ctx, loggerKey, wl)
}

func LoggerFromContext(ctx context.Context) *WorkflowLogger {
	if wl, ok := ctx.Value(loggerKey).(*WorkflowLogger); ok {
		return wl
	}
	return NewWorkflowLogger("unknown", "unknown")
}
