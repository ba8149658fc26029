// Package tsplan is the time-series planner: it walks the re-tagged
// original (pre-rewrite) tree and the static result frame and groups
// triples by external subject term into one Request each, carrying the
// signal-id column, the required datatype, an optional timestamp binding,
// and any literal comparison pushed down onto it.
package tsplan

import (
	"github.com/prediktor/quarry/algebra"
	"github.com/prediktor/quarry/frame"
	"github.com/prediktor/quarry/inference"
	"github.com/prediktor/quarry/qerr"
	"github.com/prediktor/quarry/term"
)

// Datatype is the typed payload column a request reads, one of the four
// OPC-UA value kinds or None if the request only ever needs a timestamp.
type Datatype string

// The datatype kinds a TimeSeriesRequest's payload column can carry.
const (
	DatatypeNone Datatype = ""
	DatatypeStr  Datatype = "str"
	DatatypeReal Datatype = "real"
	DatatypeInt  Datatype = "int"
	DatatypeBool Datatype = "bool"
)

// Request is one planned call to the time-series store: a variable term,
// the signal ids to fetch (read from the static frame at planning time),
// the payload datatype, optional timestamp/data variable bindings, and any
// pushdown filter hints. ResultFrame is nil until the time-series executor
// (package tsstore) fills it in.
type Request struct {
	VariableTerm   *term.Term
	SignalIDColumn string
	SignalIDs      []*int32
	Datatype       Datatype
	TimestampVar   *term.Term
	DataVar        *term.Term
	LiteralFilters []algebra.Expression
	ResultFrame    *frame.Frame
}

// Plan walks root (already back-propagated by inference.Backpropagate)
// and the static frame, returning one Request per distinct external
// subject term, in first-encountered order.
func Plan(root *algebra.Operator, static *frame.Frame) ([]*Request, error) {
	p := &planner{
		static:         static,
		bySubject:      make(map[*term.Term]*Request),
		timestampIndex: make(map[*term.Term][]*Request),
		dataIndex:      make(map[*term.Term]*Request),
	}
	if err := p.walk(root); err != nil {
		return nil, err
	}
	return p.requests, nil
}

type planner struct {
	static         *frame.Frame
	requests       []*Request
	bySubject      map[*term.Term]*Request
	timestampIndex map[*term.Term][]*Request
	dataIndex      map[*term.Term]*Request
}

// walk recurses children first, then this operator's own triples and
// expressions: an expression can only resolve against a request created by
// a triple visited earlier in the walk, whether in a child or a sibling
// triple of the same node.
func (p *planner) walk(op *algebra.Operator) error {
	for _, c := range op.Children {
		if err := p.walk(c); err != nil {
			return err
		}
	}
	for _, t := range op.Triples {
		if err := p.visitTriple(t); err != nil {
			return err
		}
	}
	for _, e := range op.Expressions {
		p.visitExpression(e)
	}
	return nil
}

func (p *planner) visitTriple(t algebra.Triple) error {
	if !t.Subject.Constraints().Has(term.ExternalUAVariableValue) {
		return nil
	}
	req, ok := p.bySubject[t.Subject]
	if !ok {
		colName := t.Subject.Value() + "_signal_id"
		ids, err := p.static.Int32Column(colName)
		if err != nil {
			return err
		}
		req = &Request{VariableTerm: t.Subject, SignalIDColumn: colName, SignalIDs: ids}
		p.bySubject[t.Subject] = req
		p.requests = append(p.requests, req)
	}
	if t.Verb.Kind() != term.IRI {
		return nil
	}
	switch t.Verb.Value() {
	case inference.TimestampVerb:
		if t.Object.Kind() != term.Variable {
			return qerr.KindUnsupportedTimestampBinding.New(t.Subject.Value())
		}
		req.TimestampVar = t.Object
		p.timestampIndex[t.Object] = append(p.timestampIndex[t.Object], req)
	case inference.RealValueVerb:
		req.Datatype = DatatypeReal
		p.bindDataVar(t.Object, req)
	case inference.IntValueVerb:
		req.Datatype = DatatypeInt
		p.bindDataVar(t.Object, req)
	case inference.StringValueVerb:
		req.Datatype = DatatypeStr
		p.bindDataVar(t.Object, req)
	case inference.BoolValueVerb:
		req.Datatype = DatatypeBool
		p.bindDataVar(t.Object, req)
	}
	return nil
}

func (p *planner) bindDataVar(o *term.Term, req *Request) {
	if o.Kind() != term.Variable {
		return
	}
	req.DataVar = o
	p.dataIndex[o] = req
}

// visitExpression attaches a relational expression as a pushdown hint to
// every request whose timestamp or data variable appears as one side of
// the comparison, provided the other side is a Literal. A Variable-vs-
// Variable comparison is left untouched: it survives as a post-join
// filter the integrated result builder applies.
func (p *planner) visitExpression(e algebra.Expression) {
	p.attachIfMatch(e.LHS, e.RHS, e)
	p.attachIfMatch(e.RHS, e.LHS, e)
}

func (p *planner) attachIfMatch(side, other *term.Term, e algebra.Expression) {
	if side.Kind() != term.Variable || other.Kind() != term.Literal {
		return
	}
	if reqs, ok := p.timestampIndex[side]; ok {
		for _, r := range reqs {
			r.LiteralFilters = append(r.LiteralFilters, e)
		}
		return
	}
	if req, ok := p.dataIndex[side]; ok {
		req.LiteralFilters = append(req.LiteralFilters, e)
	}
}
