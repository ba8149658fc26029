package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaInternsByValue(t *testing.T) {
	a := NewArena()
	v1 := a.NewVariable("x")
	v2 := a.NewVariable("x")
	assert.Same(t, v1, v2)

	i1 := a.NewIRI("http://example/p")
	i2 := a.NewIRI("http://example/p")
	assert.Same(t, i1, i2)

	l1 := a.NewLiteral("42", "")
	l2 := a.NewLiteral("42", "http://www.w3.org/2001/XMLSchema#int")
	assert.NotSame(t, l1, l2, "different datatypes must intern separately")
}

func TestConstraintsAreMonotonicAndShared(t *testing.T) {
	a := NewArena()
	x := a.NewVariable("x")
	x.AddConstraints(UAVariableValue)
	again := a.NewVariable("x")
	assert.True(t, again.Constraints().Has(UAVariableValue), "constraint set is visible through any handle to the same interned term")

	x.AddConstraints(Timestamp)
	assert.True(t, x.Constraints().Has(UAVariableValue))
	assert.True(t, x.Constraints().Has(Timestamp))
}

func TestConstraintHasAndAny(t *testing.T) {
	c := UAVariableValue | Timestamp
	assert.True(t, c.Has(UAVariableValue))
	assert.False(t, c.Has(DataValue))
	assert.True(t, c.Any(DataValue|Timestamp))
	assert.False(t, c.Any(DataValue|ExternalDataValue))
}

func TestCloneProducesIndependentArena(t *testing.T) {
	a := NewArena()
	x := a.NewVariable("x")
	x.AddConstraints(UAVariableValue)

	na, mapping := a.Clone()
	nx, ok := mapping[x]
	require.True(t, ok)
	assert.NotSame(t, x, nx)
	assert.True(t, nx.Constraints().Has(UAVariableValue), "clone starts with a snapshot of the source constraints")

	nx.AddConstraints(Timestamp)
	assert.False(t, x.Constraints().Has(Timestamp), "mutating the clone must never leak back to the original arena")

	nx2 := na.NewVariable("x")
	assert.Same(t, nx, nx2, "the new arena interns independently of the old one")
}

func TestStringRendering(t *testing.T) {
	a := NewArena()
	assert.Equal(t, "?x", a.NewVariable("x").String())
	assert.Equal(t, "<http://e/p>", a.NewIRI("http://e/p").String())
	assert.Equal(t, `"42"`, a.NewLiteral("42", "").String())
	assert.Contains(t, a.NewLiteral("42", "xsd:int").String(), "xsd:int")
}
