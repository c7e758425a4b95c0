package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/apparelbot/concierge/agent/contract"
)

// Node names. Worker nodes are named after their destinations so the
// supervisor branch can route on the decision string directly.
const (
	nodeSupervisor        = "supervisor"
	nodePolicy            = string(contractx.DestPolicy)
	nodeInventory         = string(contractx.DestInventoryQuery)
	nodeInventoryExecutor = "inventory_executor"
	nodeSales             = string(contractx.DestSales)
	nodeSalesExecutor     = "sales_executor"
	nodeWebSearch         = string(contractx.DestWebSearch)
	nodeWebSearchExecutor = "web_search_executor"
)

// turnState threads one turn's working data through the graph.
type turnState struct {
	SessionID  string
	Transcript []contractx.Message
	Route      contractx.Destination
}

// compileTurnGraph wires the turn state machine:
//
//	supervisor -> {worker | END}
//	worker     -> {matching executor | supervisor}
//	executor   -> originating worker
//
// The graph is cyclic; compilation bounds it with a max step count derived
// from the configured round cap, so a worker⇄executor cycle that never
// converges is cut off instead of looping forever.
func (s *Service) compileTurnGraph(ctx context.Context) (compose.Runnable[*turnState, *turnState], error) {
	graph := compose.NewGraph[*turnState, *turnState]()

	if err := graph.AddLambdaNode(nodeSupervisor,
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return s.runSupervisor(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeSupervisor, err)
	}

	workerNodes := []struct {
		node     string
		dest     contractx.Destination
		executor string
	}{
		{nodePolicy, contractx.DestPolicy, ""},
		{nodeInventory, contractx.DestInventoryQuery, nodeInventoryExecutor},
		{nodeSales, contractx.DestSales, nodeSalesExecutor},
		{nodeWebSearch, contractx.DestWebSearch, nodeWebSearchExecutor},
	}

	for _, wn := range workerNodes {
		wn := wn
		if err := graph.AddLambdaNode(wn.node,
			compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
				return s.runWorker(ctx, in, wn.dest)
			}),
		); err != nil {
			return nil, fmt.Errorf("add node %s: %w", wn.node, err)
		}

		// A worker with no executor of its own has no tool round: a
		// plain edge back to the supervisor.
		if wn.executor == "" || s.executors[wn.dest] == nil {
			if err := graph.AddEdge(wn.node, nodeSupervisor); err != nil {
				return nil, fmt.Errorf("add edge %s->%s: %w", wn.node, nodeSupervisor, err)
			}
			continue
		}

		if err := graph.AddLambdaNode(wn.executor,
			compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
				return s.runExecutor(ctx, in, wn.dest)
			}),
		); err != nil {
			return nil, fmt.Errorf("add node %s: %w", wn.executor, err)
		}

		executorNode := wn.executor
		branch := compose.NewGraphBranch(
			func(ctx context.Context, in *turnState) (string, error) {
				if last, ok := lastMessage(in); ok && len(last.ToolCalls) > 0 {
					return executorNode, nil
				}
				return nodeSupervisor, nil
			},
			map[string]bool{
				executorNode:   true,
				nodeSupervisor: true,
			},
		)
		if err := graph.AddBranch(wn.node, branch); err != nil {
			return nil, fmt.Errorf("add branch from %s: %w", wn.node, err)
		}

		if err := graph.AddEdge(wn.executor, wn.node); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", wn.executor, wn.node, err)
		}
	}

	supervisorBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *turnState) (string, error) {
			if in.Route == contractx.DestTerminate {
				return compose.END, nil
			}
			return string(in.Route), nil
		},
		map[string]bool{
			nodePolicy:    true,
			nodeInventory: true,
			nodeSales:     true,
			nodeWebSearch: true,
			compose.END:   true,
		},
	)
	if err := graph.AddBranch(nodeSupervisor, supervisorBranch); err != nil {
		return nil, fmt.Errorf("add supervisor branch: %w", err)
	}

	if err := graph.AddEdge(compose.START, nodeSupervisor); err != nil {
		return nil, fmt.Errorf("add entry edge: %w", err)
	}

	runner, err := graph.Compile(ctx,
		compose.WithGraphName("concierge.turn"),
		compose.WithMaxRunSteps(s.maxRunSteps()),
	)
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runner, nil
}

func (s *Service) runSupervisor(ctx context.Context, in *turnState) (*turnState, error) {
	route, err := s.router.Route(ctx, in.Transcript)
	if err != nil {
		return nil, err
	}
	if _, ok := s.workers[route]; !ok && route != contractx.DestTerminate {
		// A destination with no registered worker cannot be served; end
		// the turn instead of crashing it.
		route = contractx.DestTerminate
	}
	in.Route = route
	return in, nil
}

func (s *Service) runWorker(ctx context.Context, in *turnState, dest contractx.Destination) (*turnState, error) {
	w, ok := s.workers[dest]
	if !ok {
		return nil, fmt.Errorf("%w: no worker registered for %s", contractx.ErrValidation, dest)
	}
	msg, err := w.Invoke(ctx, in.Transcript)
	if err != nil {
		return nil, err
	}
	in.Transcript = append(in.Transcript, msg)
	return in, nil
}

func (s *Service) runExecutor(ctx context.Context, in *turnState, dest contractx.Destination) (*turnState, error) {
	last, ok := lastMessage(in)
	if !ok || len(last.ToolCalls) == 0 {
		return in, nil
	}
	executor := s.executors[dest]
	if executor == nil {
		return nil, fmt.Errorf("%w: no executor registered for %s", contractx.ErrValidation, dest)
	}
	results := executor.Execute(ctx, in.SessionID, last.ToolCalls)
	in.Transcript = append(in.Transcript, results...)
	return in, nil
}

func lastMessage(in *turnState) (contractx.Message, bool) {
	if in == nil || len(in.Transcript) == 0 {
		return contractx.Message{}, false
	}
	return in.Transcript[len(in.Transcript)-1], true
}
