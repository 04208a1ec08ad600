package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hoc/internal/ir"
	"github.com/roach88/hoc/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	FlowToken string
	Method    string // optional - filter to one Class.method
	CallID    string // optional - show one call by invocation or completion id
	All       bool   // every flow in one timeline
}

// TraceEvent represents a single event in the trace timeline.
type TraceEvent struct {
	Seq        int64          `json:"seq"`
	Type       string         `json:"type"` // "invocation" or "completion"
	ID         string         `json:"id"`
	Flow       string         `json:"flow"`
	Method     string         `json:"method"`
	Strategy   string         `json:"strategy,omitempty"`
	Args       []any          `json:"args,omitempty"`
	OutputCase string         `json:"output_case,omitempty"`
	Result     map[string]any `json:"result,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	FlowToken string       `json:"flow_token"` // empty for --all
	Timeline  []TraceEvent `json:"timeline"`
	Stats     TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int   `json:"total_events"`
	Invocations int   `json:"invocations"`
	Completions int   `json:"completions"`
	Pending     int   `json:"pending"`
	Failed      int   `json:"failed"`
	LastSeq     int64 `json:"last_seq"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded calls of a flow",
		Long: `Show the recorded calls of a flow in seq order.

Every composed call is an invocation followed by its completion.
Without --flow, --id or --all, the flow tokens in the database are listed.
--id shows a single call given its invocation or completion id.

Examples:
  hoc trace --db ./hoc.db
  hoc trace --db ./hoc.db --flow f1
  hoc trace --db ./hoc.db --all
  hoc trace --db ./hoc.db --id 3f2a...
  hoc trace --db ./hoc.db --flow f1 --method Calculator.add
  hoc trace --db ./hoc.db --flow f1 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.FlowToken, "flow", "", "flow token to trace")
	cmd.Flags().StringVar(&opts.Method, "method", "", "filter to one Class.method")
	cmd.Flags().StringVar(&opts.CallID, "id", "", "invocation or completion id of one call")
	cmd.Flags().BoolVar(&opts.All, "all", false, "trace every flow in one timeline")
	cmd.MarkFlagsMutuallyExclusive("flow", "id", "all")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	defer st.Close()

	switch {
	case opts.CallID != "":
		return traceCall(ctx, st, opts, formatter)
	case opts.All:
		return traceAll(ctx, st, opts, formatter)
	}

	if opts.FlowToken == "" {
		tokens, err := st.ListFlowTokens(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		return outputFlowList(formatter, tokens)
	}

	state, err := st.GetFlowState(ctx, opts.FlowToken)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to get flow state: %v", err), nil)
	}
	events, err := st.ReadFlowEvents(ctx, opts.FlowToken)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to read flow: %v", err), nil)
	}

	if len(events) == 0 {
		if opts.Format == "json" {
			return outputTraceJSON(cmd.OutOrStdout(), TraceResult{
				FlowToken: opts.FlowToken,
				Timeline:  []TraceEvent{},
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "No events found for flow: %s\n", opts.FlowToken)
		return nil
	}

	timeline := buildTimeline(events, opts.Method)
	result := TraceResult{
		FlowToken: opts.FlowToken,
		Timeline:  timeline,
		Stats: TraceStats{
			TotalEvents: len(timeline),
			Invocations: len(state.Invocations),
			Completions: len(state.Completions),
			Pending:     state.Pending,
			Failed:      state.Failed,
			LastSeq:     state.LastSeq,
		},
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd.OutOrStdout(), result)
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

func traceCall(ctx context.Context, st *store.Store, opts *TraceOptions, formatter *OutputFormatter) error {
	inv, comp, err := st.ReadCall(ctx, opts.CallID)
	if errors.Is(err, sql.ErrNoRows) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("no call recorded with id %s", opts.CallID), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to read call: %v", err), nil)
	}

	events := []store.FlowEvent{{Type: store.EventInvocation, Seq: inv.Seq, ID: inv.ID, Invocation: &inv}}
	if comp != nil {
		events = append(events, store.FlowEvent{Type: store.EventCompletion, Seq: comp.Seq, ID: comp.ID, Completion: comp})
	}
	timeline := buildTimeline(events, "")
	result := TraceResult{FlowToken: inv.FlowToken, Timeline: timeline, Stats: eventStats(events, len(timeline))}
	return outputTrace(formatter, result, opts)
}

func traceAll(ctx context.Context, st *store.Store, opts *TraceOptions, formatter *OutputFormatter) error {
	events, err := st.ReadAllEvents(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to read events: %v", err), nil)
	}
	if len(events) == 0 && opts.Format != "json" {
		fmt.Fprintln(formatter.Writer, "No events recorded")
		return nil
	}
	timeline := buildTimeline(events, opts.Method)
	return outputTrace(formatter, TraceResult{Timeline: timeline, Stats: eventStats(events, len(timeline))}, opts)
}

func outputTrace(formatter *OutputFormatter, result TraceResult, opts *TraceOptions) error {
	if opts.Format == "json" {
		return outputTraceJSON(formatter.Writer, result)
	}
	return outputTraceText(formatter.Writer, result, opts.Verbose)
}

// eventStats counts the calls in events. shown is the timeline length
// after filtering.
func eventStats(events []store.FlowEvent, shown int) TraceStats {
	stats := TraceStats{TotalEvents: shown}
	for _, ev := range events {
		stats.LastSeq = max(stats.LastSeq, ev.Seq)
		switch ev.Type {
		case store.EventInvocation:
			stats.Invocations++
		case store.EventCompletion:
			stats.Completions++
			if ev.Completion.OutputCase == ir.OutputError {
				stats.Failed++
			}
		}
	}
	stats.Pending = stats.Invocations - stats.Completions
	return stats
}

// buildTimeline converts store events to trace timeline events.
// When methodFilter is set, only includes invocations of that method
// and their completions.
func buildTimeline(events []store.FlowEvent, methodFilter string) []TraceEvent {
	timeline := []TraceEvent{}
	methods := make(map[string]string)
	flows := make(map[string]string)

	for _, event := range events {
		switch event.Type {
		case store.EventInvocation:
			inv := event.Invocation
			if inv == nil {
				continue
			}
			methods[inv.ID] = string(inv.MethodRef)
			flows[inv.ID] = inv.FlowToken
			if methodFilter != "" && string(inv.MethodRef) != methodFilter {
				continue
			}
			args := make([]any, len(inv.Args))
			for i, a := range inv.Args {
				args[i] = ir.ToGo(a)
			}
			timeline = append(timeline, TraceEvent{
				Seq:      event.Seq,
				Type:     "invocation",
				ID:       inv.ID,
				Flow:     inv.FlowToken,
				Method:   string(inv.MethodRef),
				Strategy: inv.Strategy,
				Args:     args,
			})

		case store.EventCompletion:
			comp := event.Completion
			if comp == nil {
				continue
			}
			method := methods[comp.InvocationID]
			if methodFilter != "" && method != methodFilter {
				continue
			}
			var result map[string]any
			if comp.Result != nil {
				result, _ = ir.ToGo(comp.Result).(map[string]any)
			}
			timeline = append(timeline, TraceEvent{
				Seq:        event.Seq,
				Type:       "completion",
				ID:         comp.ID,
				Flow:       flows[comp.InvocationID],
				Method:     method,
				OutputCase: comp.OutputCase,
				Result:     result,
			})
		}
	}
	return timeline
}

func outputFlowList(formatter *OutputFormatter, tokens []string) error {
	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"flows": tokens})
	}
	if len(tokens) == 0 {
		fmt.Fprintln(formatter.Writer, "No flows recorded")
		return nil
	}
	fmt.Fprintf(formatter.Writer, "Flows (%d):\n", len(tokens))
	for _, t := range tokens {
		fmt.Fprintf(formatter.Writer, "  %s\n", t)
	}
	return nil
}

func outputTraceJSON(w io.Writer, result TraceResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: "ok", Data: result, FlowToken: result.FlowToken})
}

func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	all := result.FlowToken == ""
	if all {
		fmt.Fprintln(w, "Trace for all flows")
	} else {
		fmt.Fprintf(w, "Trace for Flow: %s\n", result.FlowToken)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, event := range result.Timeline {
		formatTimelineEvent(w, event, verbose, all)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Invocations:  %d\n", result.Stats.Invocations)
	fmt.Fprintf(w, "  Completions:  %d\n", result.Stats.Completions)
	fmt.Fprintf(w, "  Pending:      %d\n", result.Stats.Pending)
	fmt.Fprintf(w, "  Failed:       %d\n", result.Stats.Failed)
	return nil
}

func formatTimelineEvent(w io.Writer, event TraceEvent, verbose, showFlow bool) {
	switch event.Type {
	case "invocation":
		flow := ""
		if showFlow {
			flow = " flow=" + event.Flow
		}
		fmt.Fprintf(w, "  [%d] INV  %s%s%s\n", event.Seq, event.Method, formatValue(event.Args), flow)
		if verbose {
			fmt.Fprintf(w, "       Strategy: %s\n", event.Strategy)
			fmt.Fprintf(w, "       ID: %s\n", truncateID(event.ID))
		}
	case "completion":
		fmt.Fprintf(w, "  [%d] COMP %s %s %s\n", event.Seq, event.Method, event.OutputCase, formatValue(event.Result))
		if verbose {
			fmt.Fprintf(w, "       ID: %s\n", truncateID(event.ID))
		}
	}
}

// formatValue formats a value for display. Map keys are sorted so output
// is deterministic; argument lists print as (a, b).
func formatValue(v any) string {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 0 {
			return "{}"
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%s", k, formatValue(val[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = formatValue(elem)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%v", v)
	}
}
