package integrate

import (
	"strconv"
	"time"

	"github.com/prediktor/quarry/algebra"
	"github.com/prediktor/quarry/frame"
	"github.com/prediktor/quarry/qerr"
	"github.com/prediktor/quarry/term"
)

// applyExpr filters f down to the rows satisfying e, resolving e's LHS as a
// column lookup (it is always a Variable after type inference) and RHS as
// either another column lookup or a literal constant. The supported FILTER
// fragment is a conjunction of single relational comparisons, so no
// expression tree is needed here.
func applyExpr(e algebra.Expression, f *frame.Frame) (*frame.Frame, error) {
	if e.LHS.Kind() != term.Variable {
		return nil, qerr.KindUnsupportedExpression.New(e.String())
	}
	if !f.HasColumn(e.LHS.Value()) {
		return nil, qerr.KindColumnNotFound.New(e.LHS.Value())
	}
	lhsCol := e.LHS.Value()

	var rhsCol string
	rhsIsColumn := e.RHS.Kind() == term.Variable
	if rhsIsColumn {
		rhsCol = e.RHS.Value()
		if !f.HasColumn(rhsCol) {
			return nil, qerr.KindColumnNotFound.New(rhsCol)
		}
	}

	cmp, err := compareFunc(e.Op)
	if err != nil {
		return nil, err
	}

	var rhsLit *frame.Cell
	if !rhsIsColumn {
		rhsLit = literalCell(e.RHS)
	}

	return f.Filter(func(r frame.Row) bool {
		lhs := r[lhsCol]
		var rhs *frame.Cell
		if rhsIsColumn {
			rhs = r[rhsCol]
		} else {
			rhs = rhsLit
		}
		if lhs.IsNull() || rhs.IsNull() {
			return false
		}
		ok, err := cmp(lhs, rhs)
		return err == nil && ok
	}), nil
}

// literalCell converts a Literal term's lexical form to the cell shape that
// compares most naturally: numeric first, then boolean, then an RFC 3339
// timestamp, falling back to a plain string. The literal's datatype IRI is
// not consulted; the conversion is attempted in this fixed order instead.
func literalCell(t *term.Term) *frame.Cell {
	v := t.Value()
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return frame.RealCell(f)
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return frame.BoolCell(b)
	}
	if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return frame.TimeCell(ts)
	}
	return frame.StrCell(v)
}

type compareFn func(lhs, rhs *frame.Cell) (bool, error)

func compareFunc(op algebra.CompareOp) (compareFn, error) {
	switch op {
	case algebra.EQ:
		return cellEQ, nil
	case algebra.LT:
		return cellOrdered(func(c int) bool { return c < 0 }), nil
	case algebra.LE:
		return cellOrdered(func(c int) bool { return c <= 0 }), nil
	case algebra.GT:
		return cellOrdered(func(c int) bool { return c > 0 }), nil
	case algebra.GE:
		return cellOrdered(func(c int) bool { return c >= 0 }), nil
	default:
		return nil, qerr.KindUnsupportedFilterOp.New(string(op))
	}
}

// cellEQ compares two non-null cells for equality, numeric-first so that a
// real-valued column compares correctly against an integer literal.
func cellEQ(lhs, rhs *frame.Cell) (bool, error) {
	if ln, lok := cellNumber(lhs); lok {
		if rn, rok := cellNumber(rhs); rok {
			return ln == rn, nil
		}
	}
	switch {
	case lhs.Bool != nil && rhs.Bool != nil:
		return *lhs.Bool == *rhs.Bool, nil
	case lhs.Time != nil && rhs.Time != nil:
		return lhs.Time.Equal(*rhs.Time), nil
	case lhs.Str != nil && rhs.Str != nil:
		return *lhs.Str == *rhs.Str, nil
	default:
		return false, qerr.KindUnsupportedFilterOp.New("incomparable cell types")
	}
}

// cellOrdered builds a comparator from a function over the three-way
// comparison result (-1, 0, 1), shared by LT/LE/GT/GE so each only needs to
// name which sign it accepts.
func cellOrdered(accept func(sign int) bool) compareFn {
	return func(lhs, rhs *frame.Cell) (bool, error) {
		if ln, lok := cellNumber(lhs); lok {
			if rn, rok := cellNumber(rhs); rok {
				return accept(sign(ln - rn)), nil
			}
		}
		if lhs.Time != nil && rhs.Time != nil {
			switch {
			case lhs.Time.Before(*rhs.Time):
				return accept(-1), nil
			case lhs.Time.After(*rhs.Time):
				return accept(1), nil
			default:
				return accept(0), nil
			}
		}
		if lhs.Str != nil && rhs.Str != nil {
			switch {
			case *lhs.Str < *rhs.Str:
				return accept(-1), nil
			case *lhs.Str > *rhs.Str:
				return accept(1), nil
			default:
				return accept(0), nil
			}
		}
		return false, qerr.KindUnsupportedFilterOp.New("incomparable cell types")
	}
}

// cellNumber extracts a float64 view of an Int or Real cell, the common
// numeric representation comparisons are done in.
func cellNumber(c *frame.Cell) (float64, bool) {
	switch {
	case c.Int != nil:
		return float64(*c.Int), true
	case c.Real != nil:
		return *c.Real, true
	default:
		return 0, false
	}
}

func sign(f float64) int {
	switch {
	case f < 0:
		return -1
	case f > 0:
		return 1
	default:
		return 0
	}
}
