package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/hoc/internal/catalog"
	"github.com/roach88/hoc/internal/compiler"
	"github.com/roach88/hoc/internal/compose"
	"github.com/roach88/hoc/internal/ir"
	"github.com/roach88/hoc/internal/record"
	"github.com/roach88/hoc/internal/store"
	"github.com/roach88/hoc/internal/transform"
)

// CallOptions holds flags for the call command.
type CallOptions struct {
	*RootOptions
	Strategy  string
	Args      string // JSON array of method arguments
	Construct string // JSON array of constructor arguments
	Database  string
	FlowToken string
}

// CallResult is the outcome of one composed call.
type CallResult struct {
	Method    string `json:"method"`
	Strategy  string `json:"strategy"`
	FlowToken string `json:"flow_token"`
	Value     any    `json:"value,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewCallCommand creates the call command.
func NewCallCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "call <specs-dir> <Class.method>",
		Short: "Call a method on a composed class",
		Long: `Compose a class from the specs with a strategy, construct one
instance and call a method on it. The call is recorded in the
database as an invocation and a completion.

Examples:
  hoc call ./specs ComposableBase.doSomeCalculation --args '[2, 5]'
  hoc call ./specs ComposableBase.doSomethingIllegal --strategy factory
  hoc call ./specs Calculator.add --args '[1, 2]' --db ./hoc.db --flow f1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Strategy, "strategy", string(compose.StrategyExtendAllMethods), "composition strategy")
	cmd.Flags().StringVar(&opts.Args, "args", "[]", "method arguments as a JSON array")
	cmd.Flags().StringVar(&opts.Construct, "construct", "[]", "constructor arguments as a JSON array")
	cmd.Flags().StringVar(&opts.Database, "db", ":memory:", "path to SQLite database")
	cmd.Flags().StringVar(&opts.FlowToken, "flow", "", "flow token (default: new UUIDv7)")

	return cmd
}

func runCall(ctx context.Context, opts *CallOptions, specsDir, target string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	ref, err := ir.ParseMethodRef(target)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadArgs, err.Error(), nil)
	}
	strategy, err := compose.ParseStrategy(opts.Strategy)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadArgs, err.Error(), compose.Strategies())
	}
	args, err := parseJSONArgs("args", opts.Args)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadArgs, err.Error(), nil)
	}
	construct, err := parseJSONArgs("construct", opts.Construct)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadArgs, err.Error(), nil)
	}

	cat, err := loadCatalog(specsDir)
	if err != nil {
		return outputLoadFailure(formatter, err)
	}
	base, ok := cat.Class(ref.Class())
	if !ok {
		return formatter.Fail(ExitCommandError, ErrCodeNoSuchClass,
			fmt.Sprintf("class %q not found in specs", ref.Class()), cat.Names())
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	defer st.Close()

	lastSeq, err := st.GetLastSeq(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	recOpts := []record.Option{
		record.WithClock(record.NewClockAt(lastSeq)),
		record.WithStrategy(strategy),
		record.WithClass(ref.Class()),
		record.WithLogger(slog.Default()),
	}
	if opts.FlowToken != "" {
		recOpts = append(recOpts, record.WithFlowToken(opts.FlowToken))
	}
	rec := record.New(ctx, st, recOpts...)

	t := rec.Transform()
	if opts.Verbose {
		t = transform.Chain(transform.Verbose(slog.Default()), t)
	}
	composed, err := compose.Apply(strategy, t, base)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	inst, err := composed.New(construct...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("construct %s: %v", ref.Class(), err), nil)
	}

	formatter.VerboseLog("Calling %s with strategy %s in flow %s", ref, strategy, rec.FlowToken())
	value, callErr := inst.Call(ref.Method(), args...)

	result := CallResult{
		Method:    string(ref),
		Strategy:  string(strategy),
		FlowToken: rec.FlowToken(),
		Value:     value,
	}
	if callErr != nil {
		result.Error = callErr.Error()
		return outputCallFailure(formatter, result)
	}
	return outputCallSuccess(formatter, result)
}

// loadCatalog loads, validates and builds every class in specsDir. Any
// problem is returned as a *LoadError.
func loadCatalog(specsDir string) (*catalog.Catalog, error) {
	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		return nil, loadErrors[0]
	}
	for i := range loadResult.Classes {
		if verrs := compiler.Validate(&loadResult.Classes[i]); len(verrs) > 0 {
			return nil, &LoadError{
				Code:    verrs[0].Code,
				Message: fmt.Sprintf("class %s: %s: %s", loadResult.Classes[i].Name, verrs[0].Field, verrs[0].Message),
			}
		}
	}
	cat, err := catalog.Build(loadResult.Classes)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeClassGraph, Message: err.Error()}
	}
	return cat, nil
}

// parseJSONArgs decodes a JSON array into call arguments. Integers come
// back as int64; floats are rejected.
func parseJSONArgs(flag, raw string) ([]any, error) {
	var arr ir.IRArray
	if err := json.Unmarshal([]byte(raw), &arr); err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}
	out := make([]any, len(arr))
	for i, v := range arr {
		out[i] = ir.ToGo(v)
	}
	return out, nil
}

func outputCallSuccess(formatter *OutputFormatter, result CallResult) error {
	if formatter.Format == "json" {
		return json.NewEncoder(formatter.Writer).Encode(CLIResponse{
			Status:    "ok",
			Data:      result,
			FlowToken: result.FlowToken,
		})
	}
	fmt.Fprintf(formatter.Writer, "%s = %v\n", result.Method, formatValue(result.Value))
	formatter.VerboseLog("flow: %s", result.FlowToken)
	return nil
}

// outputCallFailure reports the error the composed method returned. The
// call itself ran, so the exit code is 1.
func outputCallFailure(formatter *OutputFormatter, result CallResult) error {
	if formatter.Format == "json" {
		if err := json.NewEncoder(formatter.Writer).Encode(CLIResponse{
			Status:    "error",
			Data:      result,
			Error:     &CLIError{Code: ErrCodeCallFailed, Message: result.Error},
			FlowToken: result.FlowToken,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "✗ %s: %s\n", result.Method, result.Error)
	}
	return WrapExitError(ExitFailure, result.Method, errors.New(result.Error))
}
