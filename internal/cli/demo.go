package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/hoc/internal/class"
	"github.com/roach88/hoc/internal/compose"
	"github.com/roach88/hoc/internal/harness"
	"github.com/roach88/hoc/internal/testutil"
	"github.com/roach88/hoc/internal/transform"
)

// strategyStacked applies the prototype-copy composer on top of the
// subtype composer, so every call passes through the transform twice.
const strategyStacked = "stacked"

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	Strategy string
}

// DemoRun is the outcome of one demo composition.
type DemoRun struct {
	Strategy string `json:"strategy"`
	Value    any    `json:"value"`
	Wrapped  int    `json:"wrapped"`  // transform wrapper invocations
	Illegal  string `json:"illegal"`  // error from doSomethingIllegal
	Original bool   `json:"original"` // error is the original one
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Compose the reference class with the verbose transform",
		Long: `Compose ComposableBase with the verbose transform under each
strategy and call doSomeCalculation(2, 5) and doSomethingIllegal().

The verbose transform logs "called <method> with args: <args>" before
each call. The stacked run applies two composers, so it logs twice.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Strategy, "strategy", harness.StrategyAll, "strategy to demo, \"all\" or \"stacked\"")

	return cmd
}

func runDemo(opts *DemoOptions, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	var strategies []string
	switch opts.Strategy {
	case harness.StrategyAll:
		for _, s := range compose.Strategies() {
			strategies = append(strategies, string(s))
		}
		strategies = append(strategies, strategyStacked)
	case strategyStacked:
		strategies = []string{strategyStacked}
	default:
		s, err := compose.ParseStrategy(opts.Strategy)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeBadArgs, err.Error(), compose.Strategies())
		}
		strategies = []string{string(s)}
	}

	// Verbose lines go to stdout in text mode and are dropped in JSON mode.
	logOut := cmd.OutOrStdout()
	if opts.Format == "json" {
		logOut = io.Discard
	}
	logger := demoLogger(logOut)

	runs := make([]DemoRun, 0, len(strategies))
	for _, s := range strategies {
		if opts.Format != "json" {
			fmt.Fprintf(cmd.OutOrStdout(), "== %s ==\n", s)
		}
		run, err := demoOnce(s, logger)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		if opts.Format != "json" {
			fmt.Fprintf(cmd.OutOrStdout(), "doSomeCalculation() returned: %v\n", run.Value)
			fmt.Fprintf(cmd.OutOrStdout(), "doSomethingIllegal() failed: %s\n\n", run.Illegal)
		}
		runs = append(runs, run)
	}

	if opts.Format == "json" {
		return formatter.Success(runs)
	}
	return nil
}

func demoOnce(strategy string, logger *slog.Logger) (DemoRun, error) {
	counter := transform.NewCounter()
	t := transform.Chain(counter.Transform(), transform.Verbose(logger))
	base := testutil.ComposableBase()

	var composed compose.Constructible
	if strategy == strategyStacked {
		composed = compose.ExtendFunctionally(t)(compose.ExtendAllMethods(t)(base))
	} else {
		var err error
		if composed, err = compose.Apply(compose.Strategy(strategy), t, base); err != nil {
			return DemoRun{}, err
		}
	}

	inst, err := composed.New("demo")
	if err != nil {
		return DemoRun{}, err
	}
	if !inst.InstanceOf(base) {
		return DemoRun{}, fmt.Errorf("%s: instance is not a %s", strategy, base.Name())
	}

	value, err := inst.Call("doSomeCalculation", 2, 5)
	if err != nil {
		return DemoRun{}, err
	}
	_, illegal := inst.Call("doSomethingIllegal")
	if illegal == nil || class.IsNoSuchMethod(illegal) {
		return DemoRun{}, fmt.Errorf("%s: doSomethingIllegal: unexpected result %v", strategy, illegal)
	}

	return DemoRun{
		Strategy: strategy,
		Value:    value,
		Wrapped:  counter.Total(),
		Illegal:  illegal.Error(),
		Original: errors.Is(illegal, testutil.ErrIllegal),
	}, nil
}

// demoLogger prints only the message, like a console log line.
func demoLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey) {
				return slog.Attr{}
			}
			return a
		},
	}))
}
