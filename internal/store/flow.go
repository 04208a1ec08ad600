package store

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/hoc/internal/ir"
)

// FlowState summarizes one flow.
type FlowState struct {
	FlowToken   string
	Invocations []ir.Invocation
	Completions []ir.Completion
	LastSeq     int64
	Pending     int // invocations with no completion
	Failed      int // completions with the Error case
}

// GetFlowState loads a flow and counts pending and failed calls.
func (s *Store) GetFlowState(ctx context.Context, flowToken string) (FlowState, error) {
	state := FlowState{FlowToken: flowToken}

	invocations, completions, err := s.ReadFlow(ctx, flowToken)
	if err != nil {
		return state, fmt.Errorf("get flow state: %w", err)
	}
	state.Invocations = invocations
	state.Completions = completions

	completed := make(map[string]bool, len(completions))
	for _, comp := range completions {
		completed[comp.InvocationID] = true
		state.LastSeq = max(state.LastSeq, comp.Seq)
		if comp.OutputCase == ir.OutputError {
			state.Failed++
		}
	}
	for _, inv := range invocations {
		state.LastSeq = max(state.LastSeq, inv.Seq)
		if !completed[inv.ID] {
			state.Pending++
		}
	}
	return state, nil
}

// EventType distinguishes the two kinds of FlowEvent.
type EventType int

const (
	EventInvocation EventType = iota
	EventCompletion
)

func (t EventType) String() string {
	switch t {
	case EventInvocation:
		return "invocation"
	case EventCompletion:
		return "completion"
	default:
		return "unknown"
	}
}

// FlowEvent is one entry of a merged flow trace.
type FlowEvent struct {
	Type       EventType
	Seq        int64
	ID         string
	Invocation *ir.Invocation
	Completion *ir.Completion
}

// ReadFlowEvents merges a flow's invocations and completions into one
// stream ordered by seq, then invocations before completions, then id.
func (s *Store) ReadFlowEvents(ctx context.Context, flowToken string) ([]FlowEvent, error) {
	invocations, completions, err := s.ReadFlow(ctx, flowToken)
	if err != nil {
		return nil, err
	}

	return mergeEvents(invocations, completions), nil
}

// ReadAllEvents merges every invocation and completion in the store, across
// flows, in the same order as ReadFlowEvents.
func (s *Store) ReadAllEvents(ctx context.Context) ([]FlowEvent, error) {
	invocations, err := s.ReadAllInvocations(ctx)
	if err != nil {
		return nil, err
	}
	completions, err := s.ReadAllCompletions(ctx)
	if err != nil {
		return nil, err
	}
	return mergeEvents(invocations, completions), nil
}

func mergeEvents(invocations []ir.Invocation, completions []ir.Completion) []FlowEvent {
	events := make([]FlowEvent, 0, len(invocations)+len(completions))
	for i := range invocations {
		inv := &invocations[i]
		events = append(events, FlowEvent{Type: EventInvocation, Seq: inv.Seq, ID: inv.ID, Invocation: inv})
	}
	for i := range completions {
		comp := &completions[i]
		events = append(events, FlowEvent{Type: EventCompletion, Seq: comp.Seq, ID: comp.ID, Completion: comp})
	}

	slices.SortStableFunc(events, func(a, b FlowEvent) int {
		return cmp.Or(
			cmp.Compare(a.Seq, b.Seq),
			cmp.Compare(a.Type, b.Type),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return events
}

// ReadCall resolves id, either an invocation or a completion id, to the
// invocation and its completion. The completion is nil while the call is
// pending. sql.ErrNoRows if neither table holds id.
func (s *Store) ReadCall(ctx context.Context, id string) (ir.Invocation, *ir.Completion, error) {
	inv, err := s.ReadInvocation(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		comp, cerr := s.ReadCompletion(ctx, id)
		if cerr != nil {
			return ir.Invocation{}, nil, cerr
		}
		inv, err = s.ReadInvocation(ctx, comp.InvocationID)
	}
	if err != nil {
		return ir.Invocation{}, nil, err
	}

	comp, err := s.ReadCompletionFor(ctx, inv.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return inv, nil, nil
	case err != nil:
		return ir.Invocation{}, nil, err
	}
	return inv, &comp, nil
}

// GetLastSeq returns the highest seq in the store, 0 when empty. Used to
// resume the logical clock across process runs.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var last int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			(SELECT COALESCE(MAX(seq), 0) FROM invocations),
			(SELECT COALESCE(MAX(seq), 0) FROM completions)
		)
	`).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return last, nil
}

// ListFlowTokens returns every distinct flow token, sorted.
func (s *Store) ListFlowTokens(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT flow_token FROM invocations
		ORDER BY flow_token COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list flow tokens: %w", err)
	}
	defer rows.Close()

	tokens := []string{}
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scan flow token: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flow tokens: %w", err)
	}
	return tokens, nil
}
