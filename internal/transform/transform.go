// Package transform provides ready-made compose.Transform values.
package transform

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/hoc/internal/class"
	"github.com/roach88/hoc/internal/compose"
)

// Identity returns a wrapper that only delegates.
func Identity(method class.Func, _ string) class.Func {
	return func(self *class.Instance, args ...any) (any, error) {
		return method(self, args...)
	}
}

// Verbose logs every call with its method name and arguments, then
// delegates. A nil logger uses slog.Default().
func Verbose(logger *slog.Logger) compose.Transform {
	if logger == nil {
		logger = slog.Default()
	}
	return func(method class.Func, name string) class.Func {
		return func(self *class.Instance, args ...any) (any, error) {
			logger.Info(fmt.Sprintf("called %s with args: %s", name, JoinArgs(args)),
				"method", name,
				"class", self.Class().Name(),
			)
			return method(self, args...)
		}
	}
}

// JoinArgs renders args the way the verbose transform prints them.
func JoinArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return strings.Join(parts, ", ")
}

// Chain combines transforms; the first is outermost at call time.
func Chain(ts ...compose.Transform) compose.Transform {
	return func(method class.Func, name string) class.Func {
		for i := len(ts) - 1; i >= 0; i-- {
			method = ts[i](method, name)
		}
		return method
	}
}

// Counter counts wrapper invocations per method name.
// Safe for concurrent use.
type Counter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Transform returns a transform that increments the count for the method
// before delegating.
func (c *Counter) Transform() compose.Transform {
	return func(method class.Func, name string) class.Func {
		return func(self *class.Instance, args ...any) (any, error) {
			c.mu.Lock()
			c.counts[name]++
			c.mu.Unlock()
			return method(self, args...)
		}
	}
}

// Count returns the number of calls recorded for name.
func (c *Counter) Count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

// Total returns the number of calls across all names.
func (c *Counter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Reset clears all counts.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.counts)
}
