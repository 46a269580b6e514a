package workflow

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/shashank-sharma/workflow-engine/internal/workflow/types"
)

// executeNodeFunc matches WorkflowEngine.executeNode's signature, so
// the scheduler never needs to import the engine concretely.
type executeNodeFunc func(ctx context.Context, node *Node, input *types.DataEnvelope, wl *WorkflowLogger) (*types.DataEnvelope, error)

// Scheduler runs independent nodes at the same topological depth
// concurrently, capped at maxParallel in flight, while preserving the
// precedence guarantee that a node only starts once every predecessor
// has produced its result. It is opt-in: the default engine runs
// strictly sequentially.
type Scheduler struct {
	sem *semaphore.Weighted
}

func NewScheduler(maxParallel int) *Scheduler {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Scheduler{sem: semaphore.NewWeighted(int64(maxParallel))}
}

// Run executes graph in topologically-ordered batches: each batch is
// the maximal set of not-yet-run nodes whose predecessors have all
// completed, executed concurrently with the scheduler's bound; the
// next batch starts only once its own predecessors (the prior batch,
// transitively) have all landed in results.
func (s *Scheduler) Run(
	ctx context.Context,
	graph *Graph,
	nodeLabels map[string]string,
	results map[string]*types.DataEnvelope,
	execute executeNodeFunc,
	wl *WorkflowLogger,
) (RunOutcome, error) {
	remaining := make(map[string]int, len(graph.Nodes))
	for id, n := range graph.Nodes {
		remaining[id] = len(n.Inputs)
	}

	var resultsMu sync.Mutex

	for len(results) < len(graph.Nodes) {
		select {
		case <-ctx.Done():
			return cancellationOutcome(ctx), cancellationError(ctx)
		default:
		}

		batch := make([]*Node, 0)
		resultsMu.Lock()
		for id, deg := range remaining {
			if deg == 0 {
				if _, done := results[id]; !done {
					batch = append(batch, graph.Nodes[id])
				}
			}
		}
		resultsMu.Unlock()

		if len(batch) == 0 {
			return OutcomeFailed, NewInvalidGraphError("scheduler stalled: no runnable nodes but graph incomplete")
		}

		group, groupCtx := errgroup.WithContext(ctx)
		for _, node := range batch {
			node := node
			if err := s.sem.Acquire(groupCtx, 1); err != nil {
				return cancellationOutcome(ctx), cancellationError(ctx)
			}

			group.Go(func() error {
				defer s.sem.Release(1)

				resultsMu.Lock()
				predecessors := make([]*types.DataEnvelope, 0, len(node.Inputs))
				for _, predID := range node.Inputs {
					if env, ok := results[predID]; ok {
						predecessors = append(predecessors, env)
					}
				}
				resultsMu.Unlock()

				input := AggregateInputs(predecessors, nodeLabels)
				env, err := execute(groupCtx, node, input, wl)
				if err != nil {
					if node.ContinueOnError() {
						env = types.NewEmptyEnvelope()
						env.Metadata.Custom["error"] = err.Error()
					} else {
						return NewNodeFailure(node.ID, node.ConnectorTypeID, err)
					}
				}

				resultsMu.Lock()
				results[node.ID] = env
				for _, targetID := range node.Outputs {
					remaining[targetID]--
				}
				resultsMu.Unlock()
				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return OutcomeFailed, err
		}
	}

	return OutcomeCompleted, nil
}

func cancellationOutcome(ctx context.Context) RunOutcome {
	if ctx.Err() == context.DeadlineExceeded {
		return OutcomeFailed
	}
	return OutcomeCancelled
}

func cancellationError(ctx context.Context) error {
	if ctx.Err() == context.DeadlineExceeded {
		return NewTimeoutError(0)
	}
	return NewCancellationError()
}
