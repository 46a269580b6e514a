package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// ExecutionRecorder persists run history. It is optional: an engine
// with a nil recorder still executes runs correctly, it just doesn't
// keep a record of them.
type ExecutionRecorder interface {
	RecordStart(runID, workflowID string, startTime time.Time)
	RecordLog(runID string, level, message string, nodeID string)
	RecordFinish(runID string, outcome RunOutcome, errMessage string, endTime time.Time, results map[string]*types.DataEnvelope)
}

// EngineOption configures a WorkflowEngine at construction time.
type EngineOption func(*WorkflowEngine)

// WithRecorder attaches an ExecutionRecorder for run history.
func WithRecorder(r ExecutionRecorder) EngineOption {
	return func(e *WorkflowEngine) { e.recorder = r }
}

// WithScheduler enables the opt-in bounded-parallelism scheduler
// (disabled by default, per §4.5's "Scheduling mode").
func WithScheduler(maxParallel int) EngineOption {
	return func(e *WorkflowEngine) {
		e.scheduler = NewScheduler(maxParallel)
	}
}

// WorkflowEngine validates and executes workflow graphs against a
// shared connector registry.
type WorkflowEngine struct {
	registry    types.ConnectorRegistry
	schemaCache *SchemaCache
	metrics     *WorkflowMetrics
	recorder    ExecutionRecorder
	scheduler   *Scheduler
}

// NewWorkflowEngine builds an engine around the given registry. The
// registry is expected to already be populated (see connectors.RegisterAllConnectors).
func NewWorkflowEngine(registry types.ConnectorRegistry, opts ...EngineOption) *WorkflowEngine {
	e := &WorkflowEngine{
		registry:    registry,
		schemaCache: NewSchemaCache(5*time.Minute, 1000),
		metrics:     NewWorkflowMetrics(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *WorkflowEngine) Registry() types.ConnectorRegistry   { return e.registry }
func (e *WorkflowEngine) Metrics() *WorkflowMetrics           { return e.metrics }
func (e *WorkflowEngine) SchemaCache() *SchemaCache           { return e.schemaCache }

// Execute validates then runs a workflow graph to completion,
// returning the per-node result envelopes, the run's terminal
// outcome, and an error when the outcome is not OutcomeCompleted.
func (e *WorkflowEngine) Execute(ctx context.Context, def *WorkflowGraph, runID, userID string, timeoutSeconds int) (map[string]*types.DataEnvelope, RunOutcome, error) {
	startTime := time.Now()
	e.metrics.IncrementActive()
	defer e.metrics.DecrementActive()

	runCtx, cancel := NewRunContext(ctx, runID, def.WorkflowID, userID, timeoutSeconds)
	defer cancel()

	wl := NewWorkflowLogger(def.WorkflowID, runID)
	if e.recorder != nil {
		e.recorder.RecordStart(runID, def.WorkflowID, startTime)
	}
	wl.Info("starting workflow execution")

	results, outcome, err := e.run(runCtx, wl, def)

	e.metrics.RecordExecution(outcome == OutcomeCompleted, time.Since(startTime))
	if err != nil {
		if code, ok := errorCodeOf(err); ok {
			e.metrics.RecordError(code)
		}
	}
	if e.recorder != nil {
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		e.recorder.RecordFinish(runID, outcome, errMsg, time.Now(), results)
	}

	return results, outcome, err
}

func (e *WorkflowEngine) run(runCtx *RunContext, wl *WorkflowLogger, def *WorkflowGraph) (map[string]*types.DataEnvelope, RunOutcome, error) {
	graph, err := BuildGraph(def)
	if err != nil {
		wl.Error("failed to build execution graph", err)
		return nil, OutcomeFailed, err
	}

	order, err := TopologicalSort(graph)
	if err != nil {
		wl.Error("cycle detected in workflow graph", err)
		return nil, OutcomeFailed, err
	}

	validation := ValidateGraph(graph, e.registry)
	if !validation.Valid {
		err := NewInvalidGraphError(fmt.Sprintf("workflow validation failed: %v", validation.Errors))
		wl.Error("graph validation failed", err)
		return nil, OutcomeFailed, err
	}
	for _, warning := range validation.Warnings {
		wl.Warn(warning)
	}

	for _, node := range order {
		if err := ValidateNodeConfig(node, e.registry); err != nil {
			wl.WithNode(node.ID).Error("node configuration invalid", err)
			return nil, OutcomeFailed, err
		}
	}

	nodeLabels := graph.NodeLabels()

	if err := e.declareSchemas(def.WorkflowID, order, nodeLabels); err != nil {
		wl.Error("declared schema validation failed", err)
		return nil, OutcomeFailed, err
	}

	select {
	case <-runCtx.Done():
		return nil, cancellationOutcome(runCtx), cancellationError(runCtx)
	default:
	}

	results := make(map[string]*types.DataEnvelope, len(graph.Nodes))

	if e.scheduler != nil {
		outcome, err := e.scheduler.Run(runCtx, graph, nodeLabels, results, e.executeNode, wl)
		if err != nil {
			return results, outcome, err
		}
	} else {
		for _, node := range order {
			select {
			case <-runCtx.Done():
				return results, cancellationOutcome(runCtx), cancellationError(runCtx)
			default:
			}

			predecessors := make([]*types.DataEnvelope, 0, len(node.Inputs))
			for _, predID := range node.Inputs {
				if env, ok := results[predID]; ok {
					predecessors = append(predecessors, env)
				}
			}
			input := AggregateInputs(predecessors, nodeLabels)

			env, err := e.executeNode(runCtx, node, input, wl)
			if err != nil {
				if node.ContinueOnError() {
					env = types.NewEmptyEnvelope()
					env.Metadata.Custom["error"] = err.Error()
					results[node.ID] = env
					continue
				}
				return results, OutcomeFailed, NewNodeFailure(node.ID, node.ConnectorTypeID, err)
			}
			results[node.ID] = env
		}
	}

	wl.Info("workflow execution completed successfully")
	return results, OutcomeCompleted, nil
}

// executeNode instantiates, configures, validates, and runs a single
// connector, producing its output envelope.
func (e *WorkflowEngine) executeNode(ctx context.Context, node *Node, input *types.DataEnvelope, wl *WorkflowLogger) (*types.DataEnvelope, error) {
	nodeLogger := wl.WithNode(node.ID)

	connector, err := e.registry.Get(node.ConnectorTypeID)
	if err != nil {
		e.metrics.RecordNodeExecution(node.ConnectorTypeID, false)
		return nil, err
	}

	if err := connector.Configure(node.Config); err != nil {
		e.metrics.RecordNodeExecution(node.ConnectorTypeID, false)
		nodeLogger.Error("failed to configure connector", err)
		return nil, NewConfigError("failed to configure connector", node.ConnectorTypeID, err)
	}

	inputMap := input.ToMap()

	if len(input.Metadata.Schema.Fields) > 0 {
		if err := ValidateSchemaCompatibility(connector, node.ID, &input.Metadata.Schema); err != nil {
			nodeLogger.Warn("input schema validation warning", err.Error())
		}
	}

	start := time.Now()
	rawResult, err := connector.Execute(ctx, inputMap)
	duration := time.Since(start)

	if err != nil {
		e.metrics.RecordNodeExecution(node.ConnectorTypeID, false)
		nodeLogger.Error(fmt.Sprintf("connector execution failed after %v", duration), err)
		return nil, NewExecutionError("connector execution failed", node.ID, err)
	}

	resultEnvelope := types.FromMap(rawResult)
	resultEnvelope.Metadata.NodeID = node.ID
	resultEnvelope.Metadata.NodeType = node.ConnectorTypeID
	resultEnvelope.Metadata.ExecutionTimeMs = duration.Milliseconds()

	if len(resultEnvelope.Metadata.Schema.Fields) == 0 && len(resultEnvelope.Data) > 0 {
		resultEnvelope.Metadata.Schema = types.InferSchema(resultEnvelope.Data, node.ID)
	}

	e.metrics.RecordNodeExecution(node.ConnectorTypeID, true)
	nodeLogger.Info(fmt.Sprintf("executed in %v, %d record(s)", duration, resultEnvelope.Metadata.RecordCount))
	if e.recorder != nil {
		e.recorder.RecordLog(wl.executionID, "info", fmt.Sprintf("node %s executed in %v", node.ID, duration), node.ID)
	}

	return resultEnvelope, nil
}

// declareSchemas runs §4.5 step 3's static pass: in topological order,
// instantiate and configure each node's connector, merge its
// predecessors' cached declared output schemas into an input_schema,
// and have the connector validate and declare its own output. Results
// are memoized in the engine's schema cache, keyed by the node's config
// hash chained with its predecessors' cached hashes, so a re-run with
// an unchanged graph and config skips every connector instantiation in
// this pass entirely.
func (e *WorkflowEngine) declareSchemas(workflowID string, order []*Node, nodeLabels map[string]string) error {
	declaredOutputs := make(map[string]*types.DataSchema, len(order))
	effectiveHash := make(map[string]string, len(order))

	for _, node := range order {
		predecessorSchemas := make([]types.DataSchema, 0, len(node.Inputs))
		inputHashes := make([]string, 0, len(node.Inputs))
		for _, predID := range node.Inputs {
			if schema, ok := declaredOutputs[predID]; ok && schema != nil {
				predecessorSchemas = append(predecessorSchemas, *schema)
			}
			if h, ok := effectiveHash[predID]; ok {
				inputHashes = append(inputHashes, h)
			}
		}

		var inputSchema *types.DataSchema
		switch len(predecessorSchemas) {
		case 0:
			inputSchema = nil
		case 1:
			inputSchema = &predecessorSchemas[0]
		default:
			merged := MergeSchemas(predecessorSchemas, nodeLabels)
			inputSchema = &merged
		}

		configHash := computeConfigHash(node.Config)

		if cached, ok := e.schemaCache.Get(node.ID, configHash, inputHashes); ok {
			declaredOutputs[node.ID] = cached
			effectiveHash[node.ID] = combineHash(configHash, inputHashes)
			continue
		}

		connector, err := e.registry.Get(node.ConnectorTypeID)
		if err != nil {
			return NewUnknownConnectorError(node.ConnectorTypeID)
		}
		if err := connector.Configure(node.Config); err != nil {
			return NewConfigError("failed to configure connector", node.ConnectorTypeID, err)
		}

		if err := connector.ValidateInputSchema(inputSchema); err != nil {
			return NewSchemaError(fmt.Sprintf("node %s rejected its declared input schema: %v", node.ID, err), node.ID)
		}

		outputSchema, err := connector.GetOutputSchema(inputSchema)
		if err != nil {
			return NewSchemaError(fmt.Sprintf("node %s failed to declare its output schema: %v", node.ID, err), node.ID)
		}

		e.schemaCache.SetWithWorkflow(workflowID, node.ID, outputSchema, configHash, inputHashes)
		declaredOutputs[node.ID] = outputSchema
		effectiveHash[node.ID] = combineHash(configHash, inputHashes)
	}

	return nil
}

// combineHash folds a node's own config hash together with its
// predecessors' effective hashes, so a change anywhere upstream changes
// every downstream node's cache key, not just its immediate parent's.
func combineHash(configHash string, inputHashes []string) string {
	return computeConfigHash(map[string]interface{}{"config": configHash, "inputs": inputHashes})
}

func errorCodeOf(err error) (ErrorCode, bool) {
	type coded interface{ ErrorCode() ErrorCode }
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if c, ok := err.(coded); ok {
			return c.ErrorCode(), true
		}
		u, ok := err.(unwrapper)
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return "", false
}
