package comptime

import (
	"context"
	"reflect"
	"time"
)

// HostExecutor is the host-delegated "transpile and run" step (spec.md
// §4.5 tier 2): the evaluator hands it an expression's source text and
// a capability grant, and the host toolchain executes it in its own
// isolated execution context (whitelisted globals, no network/FS/
// process control beyond the grant). The core never implements this
// itself — it only enforces the timeout, cancellation, and the
// resulting value's conversion back to a comptime Value.
type HostExecutor func(ctx context.Context, source string, grant Grant) (any, error)

// DefaultTimeout is the sandboxed tier's hard wall-clock ceiling
// (spec.md §4.5 default 5,000 ms).
const DefaultTimeout = 5 * time.Second

// SandboxEvaluator runs HostExecutor under a timeout and capability
// grant, converting the result to a comptime Value (spec.md §4.5
// tier 2). Grounded on internal/effects/capability.go's EffContext
// (capabilities carried alongside execution) generalized with a
// wall-clock budget.
type SandboxEvaluator struct {
	Exec    HostExecutor
	Grant   Grant
	Timeout time.Duration
}

func NewSandboxEvaluator(exec HostExecutor, grant Grant) *SandboxEvaluator {
	return &SandboxEvaluator{Exec: exec, Grant: grant, Timeout: DefaultTimeout}
}

// Run executes source under the configured grant and timeout. The
// evaluator is single-threaded and cooperative (spec.md §5): it does
// not preempt the host executor, only abandons waiting for it once the
// timeout or an external cancellation fires.
func (s *SandboxEvaluator) Run(ctx context.Context, source string) (Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   any
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := s.Exec(cctx, source, s.Grant)
		ch <- result{v, err}
	}()

	select {
	case <-cctx.Done():
		return Value{}, newError(Timeout, "comptime sandbox exceeded %s", timeout)
	case r := <-ch:
		if r.err != nil {
			return Value{}, newError(RuntimeError, "%v", r.err)
		}
		return hostValueToComptime(r.v, map[uintptr]bool{})
	}
}

// hostValueToComptime converts an arbitrary host-executed result back
// into a comptime Value, rejecting circular aggregates by tracking
// visited map/slice identities (spec.md §4.5 "circular-reference
// detection ... tracking visited aggregates by identity").
func hostValueToComptime(v any, seen map[uintptr]bool) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case float64:
		return Number(t), nil
	case int:
		return Number(float64(t)), nil
	case string:
		return Str(t), nil
	case bool:
		return Bool(t), nil
	case []any:
		rv := reflect.ValueOf(t)
		ptr := rv.Pointer()
		if seen[ptr] {
			return Value{}, newError(ConversionError, "circular array detected while converting host value")
		}
		seen[ptr] = true
		elems := make([]Value, len(t))
		for i, e := range t {
			cv, err := hostValueToComptime(e, seen)
			if err != nil {
				return Value{}, err
			}
			elems[i] = cv
		}
		delete(seen, ptr)
		return Array(elems), nil
	case map[string]any:
		rv := reflect.ValueOf(t)
		ptr := rv.Pointer()
		if seen[ptr] {
			return Value{}, newError(ConversionError, "circular object detected while converting host value")
		}
		seen[ptr] = true
		fields := map[string]Value{}
		for k, e := range t {
			cv, err := hostValueToComptime(e, seen)
			if err != nil {
				return Value{}, err
			}
			fields[k] = cv
		}
		delete(seen, ptr)
		return Object(fields), nil
	default:
		return Value{}, newError(ConversionError, "host value of type %T is not representable as a comptime value", v)
	}
}
