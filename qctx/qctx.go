// Package qctx holds per-query state. A Context is created once per call
// to quarry.Execute and threaded into the integrated result builder, the
// only pass that needs a counter (the LeftJoin __row_id bridge column).
// Owning the counters per query rather than at package level keeps the
// core re-entrant for concurrent queries in the same process.
package qctx

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Context carries one query's cancellation signal and monotone counters.
// It is safe for concurrent use by multiple goroutines.
type Context struct {
	ctx        context.Context
	rowJoinSeq int64
}

// New returns a Context wrapping ctx, with its counters at zero.
func New(ctx context.Context) *Context {
	return &Context{ctx: ctx}
}

// Context returns the underlying context, so blocking passes can observe
// cancellation at their next suspension point.
func (c *Context) Context() context.Context { return c.ctx }

// NextRowJoinColumn returns a fresh, query-unique column name for bridging
// a LeftJoin's two children during result integration.
func (c *Context) NextRowJoinColumn() string {
	n := atomic.AddInt64(&c.rowJoinSeq, 1)
	return fmt.Sprintf("__row_id_%d", n)
}
