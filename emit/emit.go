// Package emit serialises a rewritten algebra tree back into SPARQL SELECT
// text, one function per operator type. Filter expressions are never
// emitted: they are re-applied locally after time-series materialisation,
// so a Filter node only contributes its child's body to the query text.
package emit

import (
	"fmt"
	"strings"

	"github.com/prediktor/quarry/algebra"
	"github.com/prediktor/quarry/qerr"
	"github.com/prediktor/quarry/term"
)

// Emit serialises root, which must be a SelectQuery, into SPARQL text.
func Emit(root *algebra.Operator) (string, error) {
	if root.Type != algebra.SelectQuery {
		return "", qerr.KindUnsupportedOperator.New(string(root.Type))
	}
	var sb strings.Builder
	if err := writeOp(&sb, root); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeOp(sb *strings.Builder, op *algebra.Operator) error {
	switch op.Type {
	case algebra.SelectQuery:
		return writeSelect(sb, op)
	case algebra.Project:
		return writeChildren(sb, op)
	case algebra.LeftJoin:
		return writeLeftJoin(sb, op)
	case algebra.Filter:
		return writeChildren(sb, op)
	case algebra.BGP:
		return writeBGP(sb, op)
	default:
		return qerr.KindUnsupportedOperator.New(string(op.Type))
	}
}

func writeSelect(sb *strings.Builder, op *algebra.Operator) error {
	sb.WriteString("SELECT")
	for _, pv := range op.ProjectVars {
		sb.WriteByte(' ')
		sb.WriteString("?" + pv.Value())
	}
	sb.WriteString(" WHERE {\n")
	if err := writeChildren(sb, op); err != nil {
		return err
	}
	sb.WriteString("}")
	return nil
}

func writeChildren(sb *strings.Builder, op *algebra.Operator) error {
	for _, c := range op.Children {
		if err := writeOp(sb, c); err != nil {
			return err
		}
	}
	return nil
}

func writeLeftJoin(sb *strings.Builder, op *algebra.Operator) error {
	p1 := op.Child("p1")
	p2 := op.Child("p2")
	if p1 == nil || p2 == nil {
		return qerr.KindUnsupportedOperator.New("LeftJoin missing p1/p2 child")
	}
	if err := writeOp(sb, p1); err != nil {
		return err
	}
	sb.WriteString("OPTIONAL {\n")
	if err := writeOp(sb, p2); err != nil {
		return err
	}
	sb.WriteString("}\n")
	return nil
}

func writeBGP(sb *strings.Builder, op *algebra.Operator) error {
	for _, t := range op.Triples {
		if err := writeTriple(sb, t); err != nil {
			return err
		}
	}
	return nil
}

func writeTriple(sb *strings.Builder, t algebra.Triple) error {
	s, err := writeTerm(t.Subject)
	if err != nil {
		return err
	}
	v, err := writeTerm(t.Verb)
	if err != nil {
		return err
	}
	o, err := writeTerm(t.Object)
	if err != nil {
		return err
	}
	sb.WriteString(s)
	sb.WriteByte(' ')
	sb.WriteString(v)
	sb.WriteByte(' ')
	sb.WriteString(o)
	sb.WriteString(".\n")
	return nil
}

func writeTerm(t *term.Term) (string, error) {
	switch t.Kind() {
	case term.Variable:
		return "?" + t.Value(), nil
	case term.IRI:
		return "<" + t.Value() + ">", nil
	case term.Path:
		return fmt.Sprintf("<%s>%c", t.Value(), t.PathMod()), nil
	case term.Literal:
		if t.Datatype() != "" {
			return "", qerr.KindUnsupportedLiteral.New(t.String())
		}
		return fmt.Sprintf("%q", t.Value()), nil
	default:
		return "", qerr.KindUnsupportedTerm.New(t.String())
	}
}
