package store

import (
	"context"
	"fmt"

	"github.com/roach88/hoc/internal/ir"
)

// WriteInvocation inserts an invocation. A duplicate ID is ignored; other
// constraint violations are returned.
func (s *Store) WriteInvocation(ctx context.Context, inv ir.Invocation) error {
	argsJSON, err := marshalArgs(inv.Args)
	if err != nil {
		return fmt.Errorf("write invocation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invocations
		(id, flow_token, method_ref, args, seq, strategy, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		inv.ID,
		inv.FlowToken,
		string(inv.MethodRef),
		argsJSON,
		inv.Seq,
		inv.Strategy,
		inv.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write invocation: %w", err)
	}
	return nil
}

// WriteCompletion inserts a completion. The referenced invocation must
// exist. A second completion for the same invocation is silently dropped.
func (s *Store) WriteCompletion(ctx context.Context, comp ir.Completion) error {
	resultJSON, err := marshalResult(comp.Result)
	if err != nil {
		return fmt.Errorf("write completion: %w", err)
	}

	// Covers both a repeated completion ID and a second completion for
	// the same invocation_id.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO completions
		(id, invocation_id, output_case, result, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		comp.ID,
		comp.InvocationID,
		comp.OutputCase,
		resultJSON,
		comp.Seq,
	)
	if err != nil {
		return fmt.Errorf("write completion: %w", err)
	}
	return nil
}
