package store

import (
	"context"
	"fmt"

	"github.com/roach88/hoc/internal/ir"
)

const (
	invocationColumns = `id, flow_token, method_ref, args, seq, strategy, ir_version`
	completionColumns = `id, invocation_id, output_case, result, seq`
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// ReadFlow returns the invocations and completions of one flow, each
// ordered by seq then id. Empty slices, never nil, when nothing matches.
func (s *Store) ReadFlow(ctx context.Context, flowToken string) ([]ir.Invocation, []ir.Completion, error) {
	invocations, err := s.queryInvocations(ctx, `
		SELECT `+invocationColumns+`
		FROM invocations
		WHERE flow_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, flowToken)
	if err != nil {
		return nil, nil, err
	}

	completions, err := s.queryCompletions(ctx, `
		SELECT c.id, c.invocation_id, c.output_case, c.result, c.seq
		FROM completions c
		JOIN invocations i ON c.invocation_id = i.id
		WHERE i.flow_token = ?
		ORDER BY c.seq ASC, c.id COLLATE BINARY ASC
	`, flowToken)
	if err != nil {
		return nil, nil, err
	}
	return invocations, completions, nil
}

// ReadInvocation returns one invocation. sql.ErrNoRows if absent.
func (s *Store) ReadInvocation(ctx context.Context, id string) (ir.Invocation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invocationColumns+` FROM invocations WHERE id = ?`, id)
	return scanInvocation(row)
}

// ReadCompletion returns one completion. sql.ErrNoRows if absent.
func (s *Store) ReadCompletion(ctx context.Context, id string) (ir.Completion, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+completionColumns+` FROM completions WHERE id = ?`, id)
	return scanCompletion(row)
}

// ReadCompletionFor returns the completion of an invocation.
// sql.ErrNoRows if the call has not completed.
func (s *Store) ReadCompletionFor(ctx context.Context, invocationID string) (ir.Completion, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+completionColumns+` FROM completions WHERE invocation_id = ?`, invocationID)
	return scanCompletion(row)
}

// ReadAllInvocations returns every invocation across flows.
func (s *Store) ReadAllInvocations(ctx context.Context) ([]ir.Invocation, error) {
	return s.queryInvocations(ctx, `
		SELECT `+invocationColumns+`
		FROM invocations
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// ReadAllCompletions returns every completion across flows.
func (s *Store) ReadAllCompletions(ctx context.Context) ([]ir.Completion, error) {
	return s.queryCompletions(ctx, `
		SELECT `+completionColumns+`
		FROM completions
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// CountCalls returns how many invocations of method a flow recorded.
// An empty flowToken counts across all flows; an empty method counts
// every method.
func (s *Store) CountCalls(ctx context.Context, flowToken string, method ir.MethodRef) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM invocations
		WHERE (? = '' OR method_ref = ?) AND (? = '' OR flow_token = ?)
	`, string(method), string(method), flowToken, flowToken).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count calls: %w", err)
	}
	return n, nil
}

func (s *Store) queryInvocations(ctx context.Context, query string, args ...any) ([]ir.Invocation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	invocations := []ir.Invocation{}
	for rows.Next() {
		inv, err := scanInvocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		invocations = append(invocations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invocations: %w", err)
	}
	return invocations, nil
}

func (s *Store) queryCompletions(ctx context.Context, query string, args ...any) ([]ir.Completion, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()

	completions := []ir.Completion{}
	for rows.Next() {
		comp, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, comp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completions: %w", err)
	}
	return completions, nil
}

// scanInvocation returns scan errors unwrapped so sql.ErrNoRows survives.
func scanInvocation(row rowScanner) (ir.Invocation, error) {
	var inv ir.Invocation
	var methodRef, argsJSON string
	if err := row.Scan(
		&inv.ID, &inv.FlowToken, &methodRef, &argsJSON, &inv.Seq, &inv.Strategy, &inv.IRVersion,
	); err != nil {
		return ir.Invocation{}, err
	}
	inv.MethodRef = ir.MethodRef(methodRef)

	args, err := unmarshalArgs(argsJSON)
	if err != nil {
		return ir.Invocation{}, err
	}
	inv.Args = args
	return inv, nil
}

func scanCompletion(row rowScanner) (ir.Completion, error) {
	var comp ir.Completion
	var resultJSON string
	if err := row.Scan(
		&comp.ID, &comp.InvocationID, &comp.OutputCase, &resultJSON, &comp.Seq,
	); err != nil {
		return ir.Completion{}, err
	}

	result, err := unmarshalResult(resultJSON)
	if err != nil {
		return ir.Completion{}, err
	}
	comp.Result = result
	return comp, nil
}
