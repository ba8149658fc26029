// Package rewrite implements the static rewriter: it produces a
// deep-copied algebra tree in which every external-variable triple has
// been replaced by surrogate `signalId`/`isExternalValue` triples the
// static RDF store can answer directly, moving any still-needed payload
// triple into an OPTIONAL (LeftJoin) sub-tree. The copy lives in a freshly
// cloned term.Arena so the original tree stays untouched.
package rewrite

import (
	"github.com/prediktor/quarry/algebra"
	"github.com/prediktor/quarry/inference"
	"github.com/prediktor/quarry/term"
)

// Rewrite deep-copies root (whose terms must already have been tagged to
// fixpoint by inference.Infer) into a fresh Arena and returns the
// rewritten tree. The returned Arena is independent of arena: mutating
// constraints on it (there should be none left to add) never leaks back
// to the original tree the external-bit back-propagator still needs.
func Rewrite(root *algebra.Operator, arena *term.Arena) (*algebra.Operator, *term.Arena, error) {
	newArena, mapping := arena.Clone()
	mapTerm := func(t *term.Term) *term.Term {
		if nt, ok := mapping[t]; ok {
			return nt
		}
		return t
	}
	newRoot, _, err := rewriteOp(root, newArena, mapTerm)
	if err != nil {
		return nil, nil, err
	}
	return newRoot, newArena, nil
}

// rewriteOp rewrites one operator, children first, returning the
// replacement operator plus the set of fresh surrogate variables
// introduced anywhere in its subtree, bubbled up so the enclosing
// SelectQuery can add them to its project list.
func rewriteOp(op *algebra.Operator, arena *term.Arena, mapTerm func(*term.Term) *term.Term) (*algebra.Operator, []*term.Term, error) {
	var freshVars []*term.Term
	seenFresh := make(map[*term.Term]bool)
	addFresh := func(t *term.Term) {
		if !seenFresh[t] {
			seenFresh[t] = true
			freshVars = append(freshVars, t)
		}
	}

	newChildren := make([]*algebra.Operator, 0, len(op.Children))
	for _, c := range op.Children {
		nc, fv, err := rewriteOp(c, arena, mapTerm)
		if err != nil {
			return nil, nil, err
		}
		newChildren = append(newChildren, nc)
		for _, t := range fv {
			addFresh(t)
		}
	}

	if op.Type == algebra.BGP {
		mandatory, optional, err := rewriteTriples(op.Triples, arena, mapTerm, addFresh)
		if err != nil {
			return nil, nil, err
		}
		if len(optional) == 0 {
			newOp := algebra.New(algebra.BGP, op.Name)
			newOp.Triples = mandatory
			return newOp, freshVars, nil
		}
		mandOp := algebra.New(algebra.BGP, "p1")
		mandOp.Triples = mandatory
		return buildOptionalChain(mandOp, op.Name, optional), freshVars, nil
	}

	newOp := algebra.New(op.Type, op.Name)
	newOp.Children = newChildren
	newOp.Expressions = mapExpressions(op.Expressions, mapTerm)
	if op.Type == algebra.SelectQuery {
		newOp.ProjectVars = buildProjectVars(op.ProjectVars, mapTerm, freshVars)
	}
	return newOp, freshVars, nil
}

// rewriteTriples applies the three rewrite rules to one BGP's triples,
// returning the mandatory (kept on the rewritten BGP) and optional (moved
// to a LeftJoin p2 leaf) triple lists in their original order, so the
// optional chain's nesting is deterministic.
func rewriteTriples(triples []algebra.Triple, arena *term.Arena, mapTerm func(*term.Term) *term.Term, addFresh func(*term.Term)) ([]algebra.Triple, []algebra.Triple, error) {
	var mandatory, optional []algebra.Triple
	seenSignal := make(map[*term.Term]bool)
	seenIsExt := make(map[*term.Term]bool)

	for _, trip := range triples {
		s := mapTerm(trip.Subject)
		v := mapTerm(trip.Verb)
		o := mapTerm(trip.Object)
		sc := s.Constraints()
		oc := o.Constraints()

		switch {
		case sc.Has(term.ExternalUAVariableValue) && (oc.Has(term.ExternalDataValue) || oc.Has(term.Timestamp)):
			// External subject: drop the triple, one mandatory signalId
			// surrogate per subject suffices.
			if !seenSignal[s] {
				sigVar := arena.NewVariable(s.Value() + "_signal_id")
				mandatory = append(mandatory, algebra.Triple{
					Subject: s,
					Verb:    arena.NewIRI(inference.SignalIDPropID),
					Object:  sigVar,
				})
				addFresh(sigVar)
				seenSignal[s] = true
			}
		case sc.Has(term.UAVariableValue) && oc.Has(term.DataValue):
			// Internal value: move the value triple to the optional side,
			// and emit the mandatory isExternalValue plus optional signalId
			// helpers.
			optional = append(optional, algebra.Triple{Subject: s, Verb: v, Object: o})
			if !seenIsExt[s] {
				isExtVar := arena.NewVariable(s.Value() + "_is_ext_var")
				mandatory = append(mandatory, algebra.Triple{
					Subject: s,
					Verb:    arena.NewIRI(inference.IsExternalValueID),
					Object:  isExtVar,
				})
				addFresh(isExtVar)
				seenIsExt[s] = true
			}
			if !seenSignal[s] {
				sigVar := arena.NewVariable(s.Value() + "_signal_id")
				optional = append(optional, algebra.Triple{
					Subject: s,
					Verb:    arena.NewIRI(inference.SignalIDPropID),
					Object:  sigVar,
				})
				addFresh(sigVar)
				seenSignal[s] = true
			}
		default:
			// Keep unchanged (already deep-copied via mapTerm).
			mandatory = append(mandatory, algebra.Triple{Subject: s, Verb: v, Object: o})
		}
	}
	return mandatory, optional, nil
}

// buildOptionalChain wraps lhs in a chain of LeftJoin nodes, one per
// optional triple, each triple becoming the right child p2 of its own
// LeftJoin with the accumulating result as p1 of the next one up. The
// outermost LeftJoin takes name, the BGP's original role under its own
// parent.
func buildOptionalChain(lhs *algebra.Operator, name string, triples []algebra.Triple) *algebra.Operator {
	lhs.Name = "p1"
	return chain(lhs, name, triples)
}

func chain(lhs *algebra.Operator, name string, triples []algebra.Triple) *algebra.Operator {
	rhs := algebra.New(algebra.BGP, "p2")
	rhs.Triples = []algebra.Triple{triples[0]}
	if len(triples) == 1 {
		lj := algebra.New(algebra.LeftJoin, name)
		lj.Children = []*algebra.Operator{lhs, rhs}
		return lj
	}
	inner := chain(lhs, "p1", triples[1:])
	lj := algebra.New(algebra.LeftJoin, name)
	lj.Children = []*algebra.Operator{inner, rhs}
	return lj
}

func mapExpressions(exprs []algebra.Expression, mapTerm func(*term.Term) *term.Term) []algebra.Expression {
	if len(exprs) == 0 {
		return nil
	}
	out := make([]algebra.Expression, len(exprs))
	for i, e := range exprs {
		out[i] = algebra.Expression{LHS: mapTerm(e.LHS), Op: e.Op, RHS: mapTerm(e.RHS)}
	}
	return out
}

// buildProjectVars drops any original project variable now carrying a
// Timestamp or ExternalDataValue constraint (those no longer exist as
// static-store columns) and appends every fresh surrogate variable
// introduced anywhere in the tree.
func buildProjectVars(orig []*term.Term, mapTerm func(*term.Term) *term.Term, fresh []*term.Term) []*term.Term {
	out := make([]*term.Term, 0, len(orig)+len(fresh))
	for _, pv := range orig {
		mapped := mapTerm(pv)
		if mapped.Constraints().Any(term.Timestamp | term.ExternalDataValue) {
			continue
		}
		out = append(out, mapped)
	}
	out = append(out, fresh...)
	return out
}
