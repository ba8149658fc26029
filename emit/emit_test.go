package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prediktor/quarry/algebra"
	"github.com/prediktor/quarry/term"
)

func TestEmitSimpleSelect(t *testing.T) {
	a := term.NewArena()
	n := a.NewVariable("n")
	name := a.NewVariable("name")
	displayName := a.NewIRI("http://opcua/displayName")

	bgp := algebra.New(algebra.BGP, "algebra")
	bgp.Triples = []algebra.Triple{{Subject: n, Verb: displayName, Object: name}}

	sq := algebra.New(algebra.SelectQuery, "algebra")
	sq.Children = []*algebra.Operator{bgp}
	sq.ProjectVars = []*term.Term{n, name}

	q, err := Emit(sq)
	require.NoError(t, err)
	assert.Equal(t, "SELECT ?n ?name WHERE {\n?n <http://opcua/displayName> ?name.\n}", q)
}

func TestEmitLeftJoin(t *testing.T) {
	a := term.NewArena()
	s := a.NewVariable("val")
	v := a.NewIRI("http://opcfoundation.org/UA/#realValue")
	o := a.NewVariable("v")

	mand := algebra.New(algebra.BGP, "p1")
	opt := algebra.New(algebra.BGP, "p2")
	opt.Triples = []algebra.Triple{{Subject: s, Verb: v, Object: o}}

	lj := algebra.New(algebra.LeftJoin, "algebra")
	lj.Children = []*algebra.Operator{mand, opt}

	sq := algebra.New(algebra.SelectQuery, "algebra")
	sq.Children = []*algebra.Operator{lj}
	sq.ProjectVars = []*term.Term{o}

	q, err := Emit(sq)
	require.NoError(t, err)
	assert.Contains(t, q, "OPTIONAL {\n?val <http://opcfoundation.org/UA/#realValue> ?v.\n}")
}

func TestEmitRejectsTypedLiteral(t *testing.T) {
	a := term.NewArena()
	s := a.NewVariable("x")
	v := a.NewIRI("http://example/p")
	o := a.NewLiteral("1", "http://www.w3.org/2001/XMLSchema#integer")

	bgp := algebra.New(algebra.BGP, "algebra")
	bgp.Triples = []algebra.Triple{{Subject: s, Verb: v, Object: o}}
	sq := algebra.New(algebra.SelectQuery, "algebra")
	sq.Children = []*algebra.Operator{bgp}
	sq.ProjectVars = []*term.Term{s}

	_, err := Emit(sq)
	require.Error(t, err)
}
