package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prediktor/quarry/algebra"
	"github.com/prediktor/quarry/term"
)

// buildExternalValueQuery builds a query over a value with both a
// timestamp and a real payload.
func buildExternalValueQuery(a *term.Arena) *algebra.Operator {
	cay := a.NewVariable("cay")
	val := a.NewVariable("val")
	ts := a.NewVariable("ts")
	v := a.NewVariable("v")

	bgp := algebra.New(algebra.BGP, "algebra")
	bgp.Triples = []algebra.Triple{
		{Subject: cay, Verb: a.NewIRI(ValueVerb), Object: val},
		{Subject: val, Verb: a.NewIRI(TimestampVerb), Object: ts},
		{Subject: val, Verb: a.NewIRI(RealValueVerb), Object: v},
	}
	sq := algebra.New(algebra.SelectQuery, "algebra")
	sq.Children = []*algebra.Operator{bgp}
	sq.ProjectVars = []*term.Term{ts, v}
	return sq
}

func TestInferTagsExternalSubjectAndDerivedExternalDataValue(t *testing.T) {
	a := term.NewArena()
	sq := buildExternalValueQuery(a)
	Infer(sq)

	val := a.NewVariable("val")
	v := a.NewVariable("v")
	ts := a.NewVariable("ts")

	assert.True(t, val.Constraints().Has(term.UAVariableValue))
	assert.True(t, val.Constraints().Has(term.ExternalUAVariableValue), "the #timestamp catalogue rule marks its subject external directly")
	assert.True(t, ts.Constraints().Has(term.Timestamp))
	assert.True(t, v.Constraints().Has(term.DataValue))
	assert.True(t, v.Constraints().Has(term.ExternalDataValue), "a datatype verb's object inherits externality from an already-external subject")
}

// TestInferReachesFixpointRegardlessOfTripleOrder runs the same triples in
// reverse order and checks the constraint sets end up identical, proving
// the fixpoint loop (not single-pass order) drives the result.
func TestInferReachesFixpointRegardlessOfTripleOrder(t *testing.T) {
	forward := term.NewArena()
	sqForward := buildExternalValueQuery(forward)
	Infer(sqForward)

	reversed := term.NewArena()
	sqReverse := buildExternalValueQuery(reversed)
	bgp := sqReverse.Children[0]
	for i, j := 0, len(bgp.Triples)-1; i < j; i, j = i+1, j-1 {
		bgp.Triples[i], bgp.Triples[j] = bgp.Triples[j], bgp.Triples[i]
	}
	Infer(sqReverse)

	fVal := forward.NewVariable("val")
	rVal := reversed.NewVariable("val")
	assert.Equal(t, fVal.Constraints(), rVal.Constraints())

	fV := forward.NewVariable("v")
	rV := reversed.NewVariable("v")
	assert.Equal(t, fV.Constraints(), rV.Constraints())
}

func TestInferIsIdempotentOnceAtFixpoint(t *testing.T) {
	a := term.NewArena()
	sq := buildExternalValueQuery(a)
	Infer(sq)
	before := a.NewVariable("val").Constraints()
	Infer(sq)
	after := a.NewVariable("val").Constraints()
	assert.Equal(t, before, after)
}

func TestBackpropagateTagsOriginalTreeByVariableName(t *testing.T) {
	a := term.NewArena()
	n := a.NewVariable("n")
	bgp := algebra.New(algebra.BGP, "p")
	bgp.Triples = []algebra.Triple{{Subject: n, Verb: a.NewIRI("hasName"), Object: a.NewVariable("name")}}
	sq := algebra.New(algebra.SelectQuery, "algebra")
	sq.Children = []*algebra.Operator{bgp}

	require.False(t, n.Constraints().Has(term.ExternalUAVariableValue))
	Backpropagate(sq, map[string]bool{"n": true})
	assert.True(t, n.Constraints().Has(term.ExternalUAVariableValue))
}

func TestBackpropagateIgnoresUnlistedVariables(t *testing.T) {
	a := term.NewArena()
	n := a.NewVariable("n")
	bgp := algebra.New(algebra.BGP, "p")
	bgp.Triples = []algebra.Triple{{Subject: n, Verb: a.NewIRI("hasName"), Object: a.NewVariable("name")}}
	sq := algebra.New(algebra.SelectQuery, "algebra")
	sq.Children = []*algebra.Operator{bgp}

	Backpropagate(sq, map[string]bool{"other": true})
	assert.False(t, n.Constraints().Has(term.ExternalUAVariableValue))
}
