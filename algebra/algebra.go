// Copyright 2015 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package algebra contains the immutable-shape tree of graph-algebra
// operators the query splitter walks: SelectQuery, Project, LeftJoin,
// Filter and BGP. The tree itself is mutated in place by later passes only
// through each Term's constraint set (see package term); the shape
// (children, triples, expressions) is fixed once built, except for the
// fresh tree the static rewriter produces.
package algebra

import (
	"fmt"

	"github.com/pborman/uuid"

	"github.com/prediktor/quarry/qerr"
	"github.com/prediktor/quarry/term"
)

// OpType is the tag distinguishing the five supported operator shapes.
type OpType string

// The five operator shapes the supported SPARQL fragment compiles to.
const (
	SelectQuery OpType = "SelectQuery"
	Project     OpType = "Project"
	LeftJoin    OpType = "LeftJoin"
	Filter      OpType = "Filter"
	BGP         OpType = "BGP"
)

// CompareOp is a relational comparison operator.
type CompareOp string

// The relational operators the supported FILTER fragment allows.
const (
	EQ CompareOp = "="
	LT CompareOp = "<"
	LE CompareOp = "<="
	GT CompareOp = ">"
	GE CompareOp = ">="
)

// Triple is a (subject, verb, object) pattern. Identity is by value of its
// three Terms, which in Go means by the three Term pointers once the
// Terms are interned through a shared Arena.
type Triple struct {
	Subject *term.Term
	Verb    *term.Term
	Object  *term.Term
}

// Key returns the triple's three term pointers as a fixed-size array,
// usable to deduplicate triples in a map or set. Triple itself is also
// comparable (its fields are pointers); Key just names that identity.
func (t Triple) Key() [3]*term.Term {
	return [3]*term.Term{t.Subject, t.Verb, t.Object}
}

func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s", t.Subject, t.Verb, t.Object)
}

// Expression is a single relational comparison between two terms. A
// conjunction of expressions is modeled implicitly: an Operator's
// Expressions slice is the AND of all its members.
type Expression struct {
	LHS *term.Term
	Op  CompareOp
	RHS *term.Term
}

func (e Expression) String() string {
	return fmt.Sprintf("%s %s %s", e.LHS, e.Op, e.RHS)
}

// Operator is one node of the algebra tree. Identity is by GUID, not by
// structural equality, so that two value-equal BGPs (e.g. identical
// triples) can coexist as distinct children of a LeftJoin.
type Operator struct {
	// Type is one of SelectQuery, Project, LeftJoin, Filter, BGP.
	Type OpType
	// Name is the role this operator plays under its parent: "p", "p1",
	// "p2", or "algebra" for the tree root.
	Name string
	// GUID is the operator's stable nominal identity.
	GUID string

	Children []*Operator

	// Triples is non-empty only for BGP, and for the rewritten LeftJoin
	// right-hand sides the static rewriter synthesises.
	Triples []Triple

	// Expressions is non-empty only for Filter and SelectQuery.
	Expressions []Expression

	// ProjectVars is the ordered SELECT column list; only set (and only
	// meaningful) on a SelectQuery operator.
	ProjectVars []*term.Term
}

// New creates an operator of the given type and role name with a fresh
// GUID. Children, triples and expressions are attached by the caller
// through the exported fields.
func New(t OpType, name string) *Operator {
	return &Operator{Type: t, Name: name, GUID: uuid.New()}
}

// Child returns the first child with the given role name, or nil.
func (o *Operator) Child(name string) *Operator {
	for _, c := range o.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Validate checks the tree's structural invariants: a
// LeftJoin has exactly two children named p1 and p2; BGP has no children;
// Filter, Project and SelectQuery have exactly one child.
func (o *Operator) Validate() error {
	switch o.Type {
	case LeftJoin:
		if len(o.Children) != 2 || o.Child("p1") == nil || o.Child("p2") == nil {
			return qerr.KindUnsupportedOperator.New(fmt.Sprintf("LeftJoin %s requires children p1 and p2", o.GUID))
		}
	case BGP:
		if len(o.Children) != 0 {
			return qerr.KindUnsupportedOperator.New(fmt.Sprintf("BGP %s must be a leaf", o.GUID))
		}
	case Filter, Project, SelectQuery:
		if len(o.Children) != 1 {
			return qerr.KindUnsupportedOperator.New(fmt.Sprintf("%s %s requires exactly one child", o.Type, o.GUID))
		}
	default:
		return qerr.KindUnsupportedOperator.New(string(o.Type))
	}
	for _, c := range o.Children {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Walk visits every operator in the tree rooted at o, children first
// (post-order), calling fn on each.
func Walk(o *Operator, fn func(*Operator)) {
	for _, c := range o.Children {
		Walk(c, fn)
	}
	fn(o)
}

// Transform returns a new tree obtained by applying fn to every operator,
// children first, and rebuilding parents from the (possibly replaced)
// children fn returns. fn receives the original operator and the already
// transformed children and returns the replacement operator (commonly a
// shallow copy with Children set to the new slice, or a deeper rewrite
// such as a LeftJoin chain).
func Transform(o *Operator, fn func(orig *Operator, newChildren []*Operator) *Operator) *Operator {
	newChildren := make([]*Operator, 0, len(o.Children))
	for _, c := range o.Children {
		newChildren = append(newChildren, Transform(c, fn))
	}
	return fn(o, newChildren)
}
