package gokata

import (
	"context"
	"errors"
)

// ErrSyncUnsupported reports a task that needs asynchronous execution while
// validation runs in synchronous mode. It is a usage error, not a validation
// failure, and never appears inside an aggregate.
var ErrSyncUnsupported = errors.New("gokata: async-only test executed in sync mode")

// task is one independent unit of validation work. Its position in the Tasks
// slice, not its completion order, decides where a failure lands in the
// aggregate.
type task func(ctx context.Context) error

type runTestsParams struct {
	Sync       bool
	Path       string
	Value      any
	Prior      []*ValidationError
	AbortEarly bool
	Tasks      []task
}

// runTests executes the tasks and folds their failures together with the
// prior errors into a single aggregate. Both execution modes share this
// aggregation; only dispatch differs. Under AbortEarly the first failure is
// returned alone and remaining work is discarded, not cancelled.
func runTests(ctx context.Context, p runTestsParams) error {
	if p.Sync {
		return runTestsSync(ctx, p)
	}
	return runTestsAsync(ctx, p)
}

func runTestsSync(ctx context.Context, p runTestsParams) error {
	var elem []*ValidationError
	for _, t := range p.Tasks {
		err := t(ctx)
		if err == nil {
			continue
		}
		ve, ok := AsValidationError(err)
		if !ok {
			return err
		}
		if p.AbortEarly {
			return ve
		}
		elem = append(elem, ve)
	}
	return finishRun(p, elem)
}

func runTestsAsync(ctx context.Context, p runTestsParams) error {
	if len(p.Tasks) == 0 {
		return finishRun(p, nil)
	}
	type result struct {
		pos int
		err error
	}
	// Buffered so discarded tasks can still complete and be collected by GC.
	results := make(chan result, len(p.Tasks))
	for i, t := range p.Tasks {
		go func(pos int, t task) {
			results <- result{pos: pos, err: t(ctx)}
		}(i, t)
	}
	// The single collector loop below is the only writer of byPos, which
	// keeps the shared error list free of concurrent appends.
	byPos := make([]*ValidationError, len(p.Tasks))
	for range p.Tasks {
		r := <-results
		if r.err == nil {
			continue
		}
		ve, ok := AsValidationError(r.err)
		if !ok {
			return r.err
		}
		if p.AbortEarly {
			return ve
		}
		byPos[r.pos] = ve
	}
	var elem []*ValidationError
	for _, ve := range byPos {
		if ve != nil {
			elem = append(elem, ve)
		}
	}
	return finishRun(p, elem)
}

// finishRun orders prior (base-phase) failures before element failures and
// wraps them into one aggregate. No failures means success.
func finishRun(p runTestsParams, elem []*ValidationError) error {
	all := make([]*ValidationError, 0, len(p.Prior)+len(elem))
	all = append(all, p.Prior...)
	all = append(all, elem...)
	if agg := AggregateError(all, p.Value, p.Path); agg != nil {
		return agg
	}
	return nil
}
