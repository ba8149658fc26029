// Package integrate is the integrated result builder: it folds the static
// frame, the time-series request frames, and the original (pre-rewrite)
// algebra tree back together, honouring LeftJoin semantics, FILTER
// expressions, and the final projection. The p1/p2 __row_id bridge column
// name comes from a qctx.Context counter so concurrent queries never
// collide.
package integrate

import (
	"github.com/prediktor/quarry/algebra"
	"github.com/prediktor/quarry/frame"
	"github.com/prediktor/quarry/qctx"
	"github.com/prediktor/quarry/qerr"
	"github.com/prediktor/quarry/term"
	"github.com/prediktor/quarry/tsplan"
)

// Build runs the integrated result builder over root, which must be a
// SelectQuery, starting from the static frame (already stripped of its
// `*_is_ext_var` and consumed data-var columns) and the pending
// time-series request frames. It returns the final result frame with
// exactly the SelectQuery's project columns, in order.
func Build(qc *qctx.Context, root *algebra.Operator, static *frame.Frame, requests []*tsplan.Request) (*frame.Frame, error) {
	if root.Type != algebra.SelectQuery {
		return nil, qerr.KindUnsupportedOperator.New(string(root.Type))
	}
	if len(root.Children) != 1 {
		return nil, qerr.KindUnsupportedOperator.New("SelectQuery requires exactly one child")
	}
	f, remaining, err := build(qc, root.Children[0], static, requests)
	if err != nil {
		return nil, err
	}
	f, err = applyFilters(root, f)
	if err != nil {
		return nil, err
	}
	if len(remaining) > 0 {
		return nil, qerr.KindUnconsumedTSRequest.New(remaining[0].VariableTerm.Value())
	}
	names := make([]string, len(root.ProjectVars))
	for i, pv := range root.ProjectVars {
		names[i] = pv.Value()
	}
	return f.Select(names...)
}

// build recurses by operator type, returning the frame produced at this
// node plus the time-series requests still unconsumed below it.
func build(qc *qctx.Context, op *algebra.Operator, f *frame.Frame, reqs []*tsplan.Request) (*frame.Frame, []*tsplan.Request, error) {
	switch op.Type {
	case algebra.Project:
		if len(op.Children) != 1 {
			return nil, nil, qerr.KindUnsupportedOperator.New("Project requires exactly one child")
		}
		return build(qc, op.Children[0], f, reqs)
	case algebra.LeftJoin:
		return buildLeftJoin(qc, op, f, reqs)
	case algebra.BGP:
		return buildBGPOrFilter(qc, op, f, reqs)
	case algebra.Filter:
		return buildBGPOrFilter(qc, op, f, reqs)
	default:
		return nil, nil, qerr.KindUnsupportedOperator.New(string(op.Type))
	}
}

func buildLeftJoin(qc *qctx.Context, op *algebra.Operator, f *frame.Frame, reqs []*tsplan.Request) (*frame.Frame, []*tsplan.Request, error) {
	p1 := op.Child("p1")
	p2 := op.Child("p2")
	if p1 == nil || p2 == nil {
		return nil, nil, qerr.KindUnsupportedOperator.New("LeftJoin requires children p1 and p2")
	}
	joinCol := qc.NextRowJoinColumn()
	withID := f.WithRowID(joinCol)

	fl, reqs1, err := build(qc, p1, withID, reqs)
	if err != nil {
		return nil, nil, err
	}
	fr, reqs2, err := build(qc, p2, withID, reqs1)
	if err != nil {
		return nil, nil, err
	}
	joined, err := fl.LeftJoin(fr, []string{joinCol})
	if err != nil {
		return nil, nil, err
	}
	return joined.Drop(joinCol), reqs2, nil
}

// buildBGPOrFilter handles both BGP and Filter: consume matching
// time-series requests first, recurse into any children (always none for
// BGP, at most one for Filter), then apply this node's own FILTER
// expressions (always none for BGP).
func buildBGPOrFilter(qc *qctx.Context, op *algebra.Operator, f *frame.Frame, reqs []*tsplan.Request) (*frame.Frame, []*tsplan.Request, error) {
	f, reqs, err := consumeRequests(op, f, reqs)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range op.Children {
		f, reqs, err = build(qc, c, f, reqs)
		if err != nil {
			return nil, nil, err
		}
	}
	f, err = applyFilters(op, f)
	if err != nil {
		return nil, nil, err
	}
	return f, reqs, nil
}

// consumeRequests joins in every pending request whose variable term is
// this BGP/Filter's external subject, removing it from the pending list.
func consumeRequests(op *algebra.Operator, f *frame.Frame, reqs []*tsplan.Request) (*frame.Frame, []*tsplan.Request, error) {
	remaining := reqs
	for _, t := range op.Triples {
		if !t.Subject.Constraints().Has(term.ExternalUAVariableValue) {
			continue
		}
		idx := indexOf(remaining, t.Subject)
		if idx == -1 {
			continue
		}
		req := remaining[idx]
		remaining = removeAt(remaining, idx)

		keys := []string{req.SignalIDColumn}
		if req.TimestampVar != nil && f.HasColumn(req.TimestampVar.Value()) {
			keys = append(keys, req.TimestampVar.Value())
		}
		joined, err := f.InnerJoin(req.ResultFrame, keys)
		if err != nil {
			return nil, nil, err
		}
		f = joined
	}
	return f, remaining, nil
}

func indexOf(reqs []*tsplan.Request, v *term.Term) int {
	for i, r := range reqs {
		if r.VariableTerm == v {
			return i
		}
	}
	return -1
}

func removeAt(reqs []*tsplan.Request, idx int) []*tsplan.Request {
	out := make([]*tsplan.Request, 0, len(reqs)-1)
	out = append(out, reqs[:idx]...)
	out = append(out, reqs[idx+1:]...)
	return out
}

func applyFilters(op *algebra.Operator, f *frame.Frame) (*frame.Frame, error) {
	for _, e := range op.Expressions {
		nf, err := applyExpr(e, f)
		if err != nil {
			return nil, err
		}
		f = nf
	}
	return f, nil
}
