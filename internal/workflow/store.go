package workflow

import (
	"encoding/json"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"github.com/shashank-sharma/workflow-engine/internal/logger"
	"github.com/shashank-sharma/workflow-engine/internal/store"
	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// RecordExecutionRecorder persists run history to the workflow_runs and
// workflow_run_logs collections. It mirrors this codebase's other
// ambient persistence code: collections are looked up by name and
// written through core.Record rather than a generated model, since
// these two collections exist purely to back the engine's own history
// view, not the domain models a migration would declare.
type RecordExecutionRecorder struct {
	runsCollection string
	logsCollection string
}

// NewRecordExecutionRecorder builds a recorder against the given
// collection names. Pass "" for either to use the defaults
// ("workflow_runs", "workflow_run_logs").
func NewRecordExecutionRecorder(runsCollection, logsCollection string) *RecordExecutionRecorder {
	if runsCollection == "" {
		runsCollection = "workflow_runs"
	}
	if logsCollection == "" {
		logsCollection = "workflow_run_logs"
	}
	return &RecordExecutionRecorder{runsCollection: runsCollection, logsCollection: logsCollection}
}

func (r *RecordExecutionRecorder) RecordStart(runID, workflowID string, startTime time.Time) {
	app := store.GetDao()
	if app == nil {
		return
	}

	collection, err := app.FindCollectionByNameOrId(r.runsCollection)
	if err != nil {
		logger.Warning.Printf("workflow run history unavailable, collection %s not found: %v", r.runsCollection, err)
		return
	}

	rec := core.NewRecord(collection)
	rec.Id = runID
	rec.Set("workflow", workflowID)
	rec.Set("status", string(OutcomeRunning))
	rec.Set("started", startTime)

	if err := app.Save(rec); err != nil {
		logger.Error.Printf("failed to record workflow run start for %s: %v", runID, err)
	}
}

func (r *RecordExecutionRecorder) RecordLog(runID, level, message, nodeID string) {
	app := store.GetDao()
	if app == nil {
		return
	}

	collection, err := app.FindCollectionByNameOrId(r.logsCollection)
	if err != nil {
		logger.Warning.Printf("workflow run log unavailable, collection %s not found: %v", r.logsCollection, err)
		return
	}

	rec := core.NewRecord(collection)
	rec.Set("run", runID)
	rec.Set("node", nodeID)
	rec.Set("level", level)
	rec.Set("message", message)
	rec.Set("logged", time.Now())

	if err := app.Save(rec); err != nil {
		logger.Error.Printf("failed to record workflow run log for %s: %v", runID, err)
	}
}

func (r *RecordExecutionRecorder) RecordFinish(runID string, outcome RunOutcome, errMessage string, endTime time.Time, results map[string]*types.DataEnvelope) {
	app := store.GetDao()
	if app == nil {
		return
	}

	rec, err := app.FindRecordById(r.runsCollection, runID)
	if err != nil {
		logger.Warning.Printf("could not load workflow run %s to record finish: %v", runID, err)
		return
	}

	summary := make(map[string]int, len(results))
	for nodeID, env := range results {
		summary[nodeID] = env.Metadata.RecordCount
	}
	summaryBytes, _ := json.Marshal(summary)

	rec.Set("status", string(outcome))
	rec.Set("finished", endTime)
	rec.Set("error", errMessage)
	rec.Set("node_record_counts", string(summaryBytes))

	if err := app.Save(rec); err != nil {
		logger.Error.Printf("failed to record workflow run finish for %s: %v", runID, err)
	}
}
