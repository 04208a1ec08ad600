package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/hoc/internal/class"
	"github.com/roach88/hoc/internal/compose"
	"github.com/roach88/hoc/internal/ir"
	"github.com/roach88/hoc/internal/store"
)

// DefaultMaxCalls bounds the calls a single flow may record.
const DefaultMaxCalls = 1000

// Recorder is a transform source that logs every wrapped call to a store
// as an invocation followed by a completion, both stamped from one
// logical clock and grouped under one flow token.
//
// Thread-safety: the returned transforms may be called from any goroutine.
// Seq numbers are unique but concurrent calls interleave in clock order.
type Recorder struct {
	ctx       context.Context
	store     *store.Store
	clock     Sequencer
	flowGen   FlowTokenGenerator
	flowToken string
	strategy  compose.Strategy
	className string
	maxCalls  int
	logger    *slog.Logger

	mu     sync.Mutex
	calls  int
	seeded bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock replaces the default clock, usually with one resumed from
// store.GetLastSeq or a deterministic test clock.
func WithClock(c Sequencer) Option {
	return func(r *Recorder) { r.clock = c }
}

// WithFlowToken fixes the flow token instead of generating one.
func WithFlowToken(token string) Option {
	return func(r *Recorder) { r.flowToken = token }
}

// WithFlowGenerator sets the generator used when no token is fixed.
func WithFlowGenerator(gen FlowTokenGenerator) Option {
	return func(r *Recorder) { r.flowGen = gen }
}

// WithStrategy tags every invocation with the strategy that composed the
// class.
func WithStrategy(s compose.Strategy) Option {
	return func(r *Recorder) { r.strategy = s }
}

// WithClass sets the class half of every recorded method ref. Without it
// the base class is derived from the receiving instance.
func WithClass(name string) Option {
	return func(r *Recorder) { r.className = name }
}

// WithMaxCalls sets the per-flow call quota. Calls already stored under the
// flow token count against it, so a flow resumed by a later recorder keeps
// its budget. Zero or less disables it.
func WithMaxCalls(n int) Option {
	return func(r *Recorder) { r.maxCalls = n }
}

// WithLogger sets the logger. Nil or unset means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

// New creates a recorder writing to st. ctx bounds every store write,
// since a compose.Transform has no context of its own.
func New(ctx context.Context, st *store.Store, opts ...Option) *Recorder {
	r := &Recorder{
		ctx:      ctx,
		store:    st,
		clock:    NewClock(),
		flowGen:  UUIDv7Generator{},
		maxCalls: DefaultMaxCalls,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.flowToken == "" {
		r.flowToken = r.flowGen.Generate()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// FlowToken returns the token every call of this recorder is logged under.
func (r *Recorder) FlowToken() string {
	return r.flowToken
}

// Calls returns the flow's call count as seen by the quota: calls already
// stored under the flow token when this recorder first ran, plus the ones
// it admitted since.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Transform returns the recording transform. Method results and errors
// pass through unchanged; store failures are joined onto the returned
// error as an *Error with ErrCodeWriteFailed.
func (r *Recorder) Transform() compose.Transform {
	return func(method class.Func, name string) class.Func {
		return func(self *class.Instance, args ...any) (any, error) {
			return r.call(method, name, self, args)
		}
	}
}

func (r *Recorder) call(method class.Func, name string, self *class.Instance, args []any) (any, error) {
	ref := ir.NewMethodRef(r.classOf(self), name)

	if err := r.admit(ref); err != nil {
		return nil, err
	}

	irArgs := toArgs(args)
	seq := r.clock.Next()
	invID, err := ir.InvocationID(r.flowToken, ref, irArgs, seq)
	if err != nil {
		return nil, r.writeError(ref, "compute invocation id", err)
	}
	inv := ir.Invocation{
		ID:        invID,
		FlowToken: r.flowToken,
		MethodRef: ref,
		Args:      irArgs,
		Seq:       seq,
		Strategy:  string(r.strategy),
		IRVersion: ir.IRVersion,
	}
	if err := r.store.WriteInvocation(r.ctx, inv); err != nil {
		return nil, r.writeError(ref, "write invocation", err)
	}
	r.logger.Debug("invocation recorded",
		"flow_token", r.flowToken,
		"method", string(ref),
		"seq", seq,
		"id", invID,
	)

	value, callErr := method(self, args...)

	outputCase, result := ir.OutputSuccess, ir.IRObject{}
	if callErr != nil {
		outputCase = ir.OutputError
		result["error"] = ir.IRString(callErr.Error())
	} else if value != nil {
		result["value"] = toValue(value)
	}

	seq = r.clock.Next()
	compID, err := ir.CompletionID(invID, outputCase, result, seq)
	if err != nil {
		return value, errors.Join(callErr, r.writeError(ref, "compute completion id", err))
	}
	comp := ir.Completion{
		ID:           compID,
		InvocationID: invID,
		OutputCase:   outputCase,
		Result:       result,
		Seq:          seq,
	}
	if err := r.store.WriteCompletion(r.ctx, comp); err != nil {
		return value, errors.Join(callErr, r.writeError(ref, "write completion", err))
	}
	r.logger.Debug("completion recorded",
		"flow_token", r.flowToken,
		"method", string(ref),
		"seq", seq,
		"output_case", outputCase,
	)
	return value, callErr
}

// admit counts the call against the quota. The first call loads the
// flow's stored call count.
func (r *Recorder) admit(ref ir.MethodRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.seeded {
		n, err := r.store.CountCalls(r.ctx, r.flowToken, "")
		if err != nil {
			return r.writeError(ref, "count flow calls", err)
		}
		r.calls += n
		r.seeded = true
	}
	if r.maxCalls > 0 && r.calls >= r.maxCalls {
		r.logger.Info("call quota exceeded",
			"flow_token", r.flowToken,
			"method", string(ref),
			"limit", r.maxCalls,
		)
		return &Error{
			Code:      ErrCodeQuotaExceeded,
			Message:   fmt.Sprintf("limit of %d calls reached", r.maxCalls),
			FlowToken: r.flowToken,
			Method:    string(ref),
		}
	}
	r.calls++
	return nil
}

func (r *Recorder) writeError(ref ir.MethodRef, msg string, err error) error {
	r.logger.Info("record failed",
		"flow_token", r.flowToken,
		"method", string(ref),
		"error", err,
	)
	return &Error{
		Code:      ErrCodeWriteFailed,
		Message:   msg,
		FlowToken: r.flowToken,
		Method:    string(ref),
		Err:       err,
	}
}

// classOf names the class a call is logged under: the fixed name, or the
// first ancestor of the receiver that is not a composed subtype.
func (r *Recorder) classOf(self *class.Instance) string {
	if r.className != "" {
		return r.className
	}
	c := self.Class()
	for c.Parent() != nil && strings.HasPrefix(c.Name(), "Composed(") {
		c = c.Parent()
	}
	return c.Name()
}

// toArgs converts call arguments to IR. Values with no IR form are
// recorded by their printed representation.
func toArgs(args []any) ir.IRArray {
	out := make(ir.IRArray, len(args))
	for i, a := range args {
		out[i] = toValue(a)
	}
	return out
}

func toValue(v any) ir.IRValue {
	if v == nil {
		return ir.IRString("<nil>")
	}
	if val, err := ir.FromGo(v); err == nil {
		return val
	}
	return ir.IRString(fmt.Sprint(v))
}
