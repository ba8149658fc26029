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

// Package inference tags algebra terms with role constraints by matching
// triple verbs against the reserved OPC-UA property catalogue, and later
// back-propagates the externally-discovered bit onto the original tree.
package inference

import (
	"github.com/prediktor/quarry/algebra"
	"github.com/prediktor/quarry/term"
)

// Reserved verb URIs the splitter treats as magic; everything else is
// opaque data.
const (
	ValueVerb         = "http://opcfoundation.org/UA/#value"
	TimestampVerb     = "http://opcfoundation.org/UA/#timestamp"
	StringValueVerb   = "http://opcfoundation.org/UA/#stringValue"
	RealValueVerb     = "http://opcfoundation.org/UA/#realValue"
	IntValueVerb      = "http://opcfoundation.org/UA/#intValue"
	BoolValueVerb     = "http://opcfoundation.org/UA/#boolValue"
	IsExternalValueID = "http://prediktor.com/UA-helpers/#isExternalValue"
	SignalIDPropID    = "http://prediktor.com/UA-helpers/#signalId"
)

// datatypeVerbs is the set of verbs whose object is a typed payload.
var datatypeVerbs = map[string]bool{
	StringValueVerb: true,
	RealValueVerb:   true,
	IntValueVerb:    true,
	BoolValueVerb:   true,
}

// property is one row of the verb catalogue: the constraints a verb adds
// to its subject and object.
type property struct {
	uri                string
	subjectConstraints term.Constraint
	objectConstraints  term.Constraint
}

// catalogue is the fixed verb-to-constraint table.
var catalogue = []property{
	{
		uri:               ValueVerb,
		objectConstraints: term.UAVariableValue,
	},
	{
		uri:                TimestampVerb,
		subjectConstraints: term.ExternalUAVariableValue | term.UAVariableValue,
		objectConstraints:  term.Timestamp,
	},
	{uri: StringValueVerb, subjectConstraints: term.UAVariableValue, objectConstraints: term.DataValue},
	{uri: RealValueVerb, subjectConstraints: term.UAVariableValue, objectConstraints: term.DataValue},
	{uri: IntValueVerb, subjectConstraints: term.UAVariableValue, objectConstraints: term.DataValue},
	{uri: BoolValueVerb, subjectConstraints: term.UAVariableValue, objectConstraints: term.DataValue},
}

// Infer walks the tree rooted at root and applies the verb catalogue to
// every triple, repeating passes until one adds no new constraint. Two
// triples anywhere in the tree can share a subject term, so the derived
// rule (external subject + datatype verb => external data value on the
// object) may only become applicable after a later triple has been
// visited; a single pass is not always sufficient, hence the fixpoint
// loop.
func Infer(root *algebra.Operator) {
	for {
		added := false
		algebra.Walk(root, func(o *algebra.Operator) {
			for _, t := range o.Triples {
				if inferTriple(t) {
					added = true
				}
			}
		})
		if !added {
			return
		}
	}
}

// inferTriple applies the catalogue plus the derived external-data-value
// rule to one triple, returning true if any constraint was newly added.
func inferTriple(t algebra.Triple) bool {
	added := false
	if t.Verb.Kind() == term.IRI {
		for _, p := range catalogue {
			if t.Verb.Value() != p.uri {
				continue
			}
			if p.subjectConstraints != 0 && addIfNew(t.Subject, p.subjectConstraints) {
				added = true
			}
			if p.objectConstraints != 0 && addIfNew(t.Object, p.objectConstraints) {
				added = true
			}
		}
		if t.Subject.Constraints().Has(term.ExternalUAVariableValue) && datatypeVerbs[t.Verb.Value()] {
			if addIfNew(t.Object, term.ExternalDataValue) {
				added = true
			}
		}
	}
	return added
}

// addIfNew adds c to t's constraints and reports whether any bit was not
// already present.
func addIfNew(t *term.Term, c term.Constraint) bool {
	before := t.Constraints()
	if before.Has(c) {
		return false
	}
	t.AddConstraints(c)
	return true
}

// Backpropagate re-walks the original (pre-rewrite) tree and sets
// ExternalUAVariableValue on every term whose variable name appears in
// ext, the set of variables the static result flagged via *_is_ext_var
// columns.
func Backpropagate(root *algebra.Operator, ext map[string]bool) {
	algebra.Walk(root, func(o *algebra.Operator) {
		for _, t := range o.Triples {
			tagIfExternal(t.Subject, ext)
			tagIfExternal(t.Object, ext)
		}
	})
}

func tagIfExternal(t *term.Term, ext map[string]bool) {
	if t.Kind() == term.Variable && ext[t.Value()] {
		t.AddConstraints(term.ExternalUAVariableValue)
	}
}
