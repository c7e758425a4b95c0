package tool

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	contractx "github.com/apparelbot/concierge/agent/contract"
)

// Executor resolves a worker's pending tool calls against the registry.
// Read-only tools fan out concurrently; mutating tools run serially in
// input order because they touch shared rows (inventory, orders). Output
// order always matches input order, each observation tagged with its
// originating call ID.
type Executor struct {
	registry *Registry
	scope    map[string]struct{}
}

func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

// Scoped returns a view restricted to the named tools. A call outside the
// scope gets the same not-found observation as a call no registry knows,
// so a worker reaching for another worker's tool recovers conversationally
// instead of crossing its binding set.
func (e *Executor) Scoped(names ...string) *Executor {
	scope := make(map[string]struct{}, len(names))
	for _, name := range names {
		scope[name] = struct{}{}
	}
	return &Executor{registry: e.registry, scope: scope}
}

// lookup resolves a call name within the executor's scope.
func (e *Executor) lookup(name string) (*Tool, bool) {
	if e.scope != nil {
		if _, ok := e.scope[name]; !ok {
			return nil, false
		}
	}
	return e.registry.Lookup(name)
}

var _ contractx.ToolExecutor = (*Executor)(nil)

func (e *Executor) Execute(ctx context.Context, sessionID string, calls []contractx.ToolCall) []contractx.Message {
	observations := make([]string, len(calls))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, call := range calls {
		t, ok := e.lookup(call.Name)
		if !ok {
			observations[i] = fmt.Sprintf("Error: Tool '%s' not found.", call.Name)
			continue
		}
		if t.Mutating {
			continue
		}
		i, call, t := i, call, t
		group.Go(func() error {
			observations[i] = e.invoke(groupCtx, t, sessionID, call)
			return nil
		})
	}
	// Workers never return errors; the group is only a bounded fan-out.
	_ = group.Wait()

	for i, call := range calls {
		t, ok := e.lookup(call.Name)
		if !ok || !t.Mutating {
			continue
		}
		observations[i] = e.invoke(ctx, t, sessionID, call)
	}

	results := make([]contractx.Message, len(calls))
	for i, call := range calls {
		results[i] = contractx.ToolObservation(call.ID, observations[i])
	}
	return results
}

// invoke runs one tool call in isolation: an error or panic becomes a
// textual observation and cannot affect sibling calls.
func (e *Executor) invoke(ctx context.Context, t *Tool, sessionID string, call contractx.ToolCall) (obs string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("tool", t.Name).Any("panic", r).Msg("tool panicked")
			obs = fmt.Sprintf("Error executing tool %s: %v", t.Name, r)
		}
	}()

	inv := Invocation{Args: sanitizeArgs(call.Args)}
	if t.Mutating {
		inv.SessionID = sessionID
	}

	out, err := t.Run(ctx, inv)
	if err != nil {
		log.Warn().Str("tool", t.Name).Err(err).Msg("tool failed")
		return fmt.Sprintf("Error executing tool %s: %v", t.Name, err)
	}
	return out
}

// sanitizeArgs copies the model-provided arguments, dropping any attempt
// to smuggle a session identity through the argument map.
func sanitizeArgs(args map[string]any) map[string]any {
	cleaned := make(map[string]any, len(args))
	for k, v := range args {
		switch k {
		case "session_id", "thread_id":
			continue
		}
		cleaned[k] = v
	}
	return cleaned
}
