// Package quarry is the public entry point of the hybrid SPARQL/time-series
// query splitter: Execute takes an already-parsed algebra tree (the SPARQL
// parser producing it lives with the caller) and drives it through
// inference, rewriting, static execution, planning, time-series execution
// and result integration in sequence.
package quarry

import (
	"context"
	"io"

	"github.com/prediktor/quarry/algebra"
	"github.com/prediktor/quarry/emit"
	"github.com/prediktor/quarry/frame"
	"github.com/prediktor/quarry/inference"
	"github.com/prediktor/quarry/integrate"
	"github.com/prediktor/quarry/qctx"
	"github.com/prediktor/quarry/rdfstore"
	"github.com/prediktor/quarry/rewrite"
	"github.com/prediktor/quarry/term"
	"github.com/prediktor/quarry/tracer"
	"github.com/prediktor/quarry/tsplan"
	"github.com/prediktor/quarry/tsstore"
)

// Execute runs the full pipeline over root/arena against endpoint and
// store, returning the stitched result frame. root is consumed by value
// semantics only: Execute never mutates the tree or arena the caller
// passed in beyond the constraint bits inference.Infer and, after the
// static query, inference.Backpropagate add to its terms.
func Execute(ctx context.Context, root *algebra.Operator, arena *term.Arena, endpoint rdfstore.Endpoint, store tsstore.Store) (*frame.Frame, error) {
	if err := root.Validate(); err != nil {
		return nil, err
	}

	tracer.Stage(traceWriter, "infer")
	inference.Infer(root)

	tracer.Stage(traceWriter, "rewrite")
	rewritten, _, err := rewrite.Rewrite(root, arena)
	if err != nil {
		return nil, err
	}

	tracer.Stage(traceWriter, "emit")
	query, err := emit.Emit(rewritten)
	if err != nil {
		return nil, err
	}

	tracer.Stage(traceWriter, "static-select")
	static, err := endpoint.Select(ctx, query)
	if err != nil {
		return nil, err
	}

	tracer.Stage(traceWriter, "backpropagate")
	inference.Backpropagate(root, externalVariables(static))

	tracer.Stage(traceWriter, "plan")
	requests, err := tsplan.Plan(root, static)
	if err != nil {
		return nil, err
	}

	tracer.Stage(traceWriter, "ts-execute")
	if err := tsstore.ExecuteAll(ctx, store, requests); err != nil {
		return nil, err
	}

	tracer.Stage(traceWriter, "integrate")
	qc := qctx.New(ctx)
	return integrate.Build(qc, root, dropHelperColumns(static, requests), requests)
}

// externalVariables reads the static frame's `*_is_ext_var` columns (bound
// by the rewriter's helper triples) and returns the set of UA variable
// names the static store flagged as externally materialised.
func externalVariables(static *frame.Frame) map[string]bool {
	ext := make(map[string]bool)
	for _, col := range static.Columns {
		const suffix = "_is_ext_var"
		if len(col) <= len(suffix) || col[len(col)-len(suffix):] != suffix {
			continue
		}
		name := col[:len(col)-len(suffix)]
		for _, r := range static.Rows {
			if b := r[col]; !b.IsNull() && b.Bool != nil && *b.Bool {
				ext[name] = true
				break
			}
		}
	}
	return ext
}

// dropHelperColumns removes the `*_is_ext_var` bookkeeping columns the
// rewriter introduced (they have already done their job steering
// Backpropagate) and every planned request's data-variable column. A
// variable discovered external only at runtime still has its value column
// in the static frame, all-NULL because its OPTIONAL never matched; the
// real values arrive with the time-series frame, and the stale static
// column would otherwise shadow them during the inner join.
func dropHelperColumns(static *frame.Frame, requests []*tsplan.Request) *frame.Frame {
	var helpers []string
	for _, col := range static.Columns {
		const suffix = "_is_ext_var"
		if len(col) > len(suffix) && col[len(col)-len(suffix):] == suffix {
			helpers = append(helpers, col)
		}
	}
	for _, req := range requests {
		if req.DataVar != nil && static.HasColumn(req.DataVar.Value()) {
			helpers = append(helpers, req.DataVar.Value())
		}
	}
	if len(helpers) == 0 {
		return static
	}
	return static.Drop(helpers...)
}

// traceWriter is where pipeline-stage events go. nil keeps tracer.Stage a
// no-op; callers that want pipeline tracing set it via SetTraceWriter.
var traceWriter io.Writer

// SetTraceWriter directs subsequent Execute calls' pipeline-stage trace
// events to w, or silences them if w is nil.
func SetTraceWriter(w io.Writer) {
	traceWriter = w
}
