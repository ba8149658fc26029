package algebra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prediktor/quarry/term"
)

func TestNewAssignsDistinctGUIDs(t *testing.T) {
	o1 := New(BGP, "p")
	o2 := New(BGP, "p")
	assert.NotEqual(t, o1.GUID, o2.GUID)
}

func TestChildLookup(t *testing.T) {
	p1 := New(BGP, "p1")
	p2 := New(BGP, "p2")
	lj := New(LeftJoin, "p")
	lj.Children = []*Operator{p1, p2}

	assert.Same(t, p1, lj.Child("p1"))
	assert.Same(t, p2, lj.Child("p2"))
	assert.Nil(t, lj.Child("p3"))
}

func TestValidateLeftJoinRequiresP1P2(t *testing.T) {
	lj := New(LeftJoin, "p")
	lj.Children = []*Operator{New(BGP, "p1")}
	require.Error(t, lj.Validate())

	lj.Children = append(lj.Children, New(BGP, "p2"))
	require.NoError(t, lj.Validate())
}

func TestValidateBGPMustBeLeaf(t *testing.T) {
	bgp := New(BGP, "p")
	bgp.Children = []*Operator{New(BGP, "p1")}
	assert.Error(t, bgp.Validate())
}

func TestValidateSingleChildOperators(t *testing.T) {
	for _, typ := range []OpType{Filter, Project, SelectQuery} {
		op := New(typ, "p")
		assert.Error(t, op.Validate(), "%s with zero children must fail", typ)
		op.Children = []*Operator{New(BGP, "p")}
		assert.NoError(t, op.Validate(), "%s with one child must pass", typ)
		op.Children = append(op.Children, New(BGP, "p2"))
		assert.Error(t, op.Validate(), "%s with two children must fail", typ)
	}
}

func TestWalkVisitsChildrenBeforeParent(t *testing.T) {
	leaf := New(BGP, "p")
	root := New(Project, "p")
	root.Children = []*Operator{leaf}

	var order []*Operator
	Walk(root, func(o *Operator) { order = append(order, o) })
	require.Len(t, order, 2)
	assert.Same(t, leaf, order[0])
	assert.Same(t, root, order[1])
}

func TestTransformRebuildsFromNewChildren(t *testing.T) {
	a := term.NewArena()
	leaf := New(BGP, "p")
	leaf.Triples = []Triple{{Subject: a.NewVariable("s"), Verb: a.NewIRI("v"), Object: a.NewVariable("o")}}
	root := New(Project, "p")
	root.Children = []*Operator{leaf}

	out := Transform(root, func(orig *Operator, newChildren []*Operator) *Operator {
		cp := New(orig.Type, orig.Name)
		cp.Children = newChildren
		cp.Triples = orig.Triples
		return cp
	})

	require.Len(t, out.Children, 1)
	assert.Equal(t, BGP, out.Children[0].Type)
	assert.NotSame(t, leaf, out.Children[0], "Transform must build new operators, not reuse the originals")
}

func TestTripleKeyIsComparable(t *testing.T) {
	a := term.NewArena()
	s, v, o := a.NewVariable("s"), a.NewIRI("v"), a.NewVariable("o")
	t1 := Triple{Subject: s, Verb: v, Object: o}
	t2 := Triple{Subject: s, Verb: v, Object: o}
	assert.Equal(t, t1.Key(), t2.Key())
}
