// Package tsstore is the time-series executor: it dispatches each planned
// tsplan.Request to the abstract time-series store and renames the
// response's columns into the enclosing query's variable names. Requests
// are independent and are fanned out one goroutine per request via
// errgroup; ordering stays deterministic because each request's
// ResultFrame is written back into the caller-owned slice rather than
// collected off a channel.
package tsstore

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/prediktor/quarry/frame"
	"github.com/prediktor/quarry/qerr"
	"github.com/prediktor/quarry/tsplan"
)

// Store is the abstract time-series store: one request in, one frame out.
// Implementations may apply LiteralFilters server-side but are not
// required to: the integrated result builder reapplies every filter
// locally regardless.
type Store interface {
	Execute(ctx context.Context, req *tsplan.Request) (*frame.Frame, error)
}

// dtColumn maps a request's datatype to the wire column name the store
// contract uses for its typed payload.
var dtColumn = map[tsplan.Datatype]string{
	tsplan.DatatypeStr:  "str_value",
	tsplan.DatatypeReal: "real_value",
	tsplan.DatatypeInt:  "int_value",
	tsplan.DatatypeBool: "bool_value",
}

// ExecuteAll dispatches every request in reqs concurrently and fills in
// each Request's ResultFrame in place. It returns the first error
// encountered, wrapped as qerr.KindTimeSeries, and cancels the remaining
// in-flight requests.
func ExecuteAll(ctx context.Context, store Store, reqs []*tsplan.Request) error {
	grp, gctx := errgroup.WithContext(ctx)
	for _, req := range reqs {
		r := req
		grp.Go(func() error {
			f, err := store.Execute(gctx, r)
			if err != nil {
				return qerr.KindTimeSeries.New(err.Error())
			}
			r.ResultFrame = renameResult(r, f)
			return nil
		})
	}
	return grp.Wait()
}

// renameResult maps the store's wire columns onto the query's variables:
// signal_id -> <subject_var>_signal_id, ts -> <timestamp_var>, and the
// request's single typed-value column -> <data_var>.
func renameResult(r *tsplan.Request, f *frame.Frame) *frame.Frame {
	out := f
	if out.HasColumn("signal_id") {
		out = out.Rename("signal_id", r.SignalIDColumn)
	}
	if r.TimestampVar != nil && out.HasColumn("ts") {
		out = out.Rename("ts", r.TimestampVar.Value())
	}
	if r.DataVar != nil {
		if col := dtColumn[r.Datatype]; col != "" && out.HasColumn(col) {
			out = out.Rename(col, r.DataVar.Value())
		}
	}
	return out
}
