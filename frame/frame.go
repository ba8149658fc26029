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

// Package frame is the minimal column-oriented table primitive the static
// and time-series results are represented in: the static executor's SPARQL
// bindings, each time-series request's response, and the integrated result
// builder's intermediate and final output are all a *Frame. A Frame is
// built once and every transform (Rename, Drop, Select, the two joins)
// returns a new Frame; the time-series executor dispatches N requests in
// parallel that all read the same static frame, so frames carry no locks.
package frame

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prediktor/quarry/qerr"
)

// Cell holds exactly one of a handful of value shapes a binding can carry.
// A nil *Cell, or a Cell with every field nil, represents SQL-style NULL:
// the RDF endpoint contract's "missing variables yield null" and the
// time-series store's nullable signal-id column both produce these.
type Cell struct {
	Str  *string
	Int  *int32
	Real *float64
	Bool *bool
	Time *time.Time
}

// IsNull reports whether c carries no value.
func (c *Cell) IsNull() bool {
	return c == nil || (c.Str == nil && c.Int == nil && c.Real == nil && c.Bool == nil && c.Time == nil)
}

// StrCell wraps a string value.
func StrCell(s string) *Cell { return &Cell{Str: &s} }

// IntCell wraps a 32-bit integer value; signal ids are always this width.
func IntCell(i int32) *Cell { return &Cell{Int: &i} }

// RealCell wraps a float64 value.
func RealCell(f float64) *Cell { return &Cell{Real: &f} }

// BoolCell wraps a boolean value.
func BoolCell(b bool) *Cell { return &Cell{Bool: &b} }

// TimeCell wraps a timestamp value.
func TimeCell(t time.Time) *Cell { return &Cell{Time: &t} }

// String renders the cell for diagnostics; the empty string for NULL.
func (c *Cell) String() string {
	switch {
	case c == nil:
		return ""
	case c.Str != nil:
		return *c.Str
	case c.Int != nil:
		return strconv.FormatInt(int64(*c.Int), 10)
	case c.Real != nil:
		return strconv.FormatFloat(*c.Real, 'g', -1, 64)
	case c.Bool != nil:
		return strconv.FormatBool(*c.Bool)
	case c.Time != nil:
		return c.Time.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Row is one tuple of bindings, keyed by column name, mirroring
// table.Row's map[string]*Cell shape.
type Row map[string]*Cell

// Frame is an immutable tabular result: an ordered column list plus the
// rows that populate it. Columns is authoritative for iteration order
// (e.g. when projecting); a Row may carry keys beyond Columns during
// intermediate joins, but callers should treat Columns as the contract.
type Frame struct {
	Columns []string
	Rows    []Row
}

// New builds a Frame over the given columns and rows. The columns slice is
// copied so callers may reuse their backing array.
func New(columns []string, rows []Row) *Frame {
	cp := append([]string(nil), columns...)
	return &Frame{Columns: cp, Rows: rows}
}

// HasColumn reports whether name is one of f's declared columns.
func (f *Frame) HasColumn(name string) bool {
	for _, c := range f.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// NumRows returns the row count.
func (f *Frame) NumRows() int { return len(f.Rows) }

// Column returns the named column's cells in row order.
func (f *Frame) Column(name string) ([]*Cell, error) {
	if !f.HasColumn(name) {
		return nil, qerr.KindColumnNotFound.New(name)
	}
	out := make([]*Cell, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r[name]
	}
	return out, nil
}

// Int32Column returns the named column as a slice of nullable int32s, the
// shape a signal-id column takes once the RDF endpoint decoder (package
// rdfstore) has parsed it.
func (f *Frame) Int32Column(name string) ([]*int32, error) {
	cells, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]*int32, len(cells))
	for i, c := range cells {
		if c != nil && c.Int != nil {
			out[i] = c.Int
		}
	}
	return out, nil
}

// Rename returns a new Frame with column old renamed to new. A no-op copy
// if old is absent.
func (f *Frame) Rename(oldName, newName string) *Frame {
	cols := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		if c == oldName {
			cols[i] = newName
		} else {
			cols[i] = c
		}
	}
	rows := make([]Row, len(f.Rows))
	for i, r := range f.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			if k == oldName {
				nr[newName] = v
			} else {
				nr[k] = v
			}
		}
		rows[i] = nr
	}
	return &Frame{Columns: cols, Rows: rows}
}

// Drop returns a new Frame with the named columns removed.
func (f *Frame) Drop(names ...string) *Frame {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var cols []string
	for _, c := range f.Columns {
		if !drop[c] {
			cols = append(cols, c)
		}
	}
	rows := make([]Row, len(f.Rows))
	for i, r := range f.Rows {
		nr := make(Row, len(cols))
		for _, c := range cols {
			nr[c] = r[c]
		}
		rows[i] = nr
	}
	return &Frame{Columns: cols, Rows: rows}
}

// Select projects f down to exactly the named columns, in that order. This
// is how the integrated result builder produces the SelectQuery's final
// column set.
func (f *Frame) Select(names ...string) (*Frame, error) {
	for _, n := range names {
		if !f.HasColumn(n) {
			return nil, qerr.KindColumnNotFound.New(n)
		}
	}
	rows := make([]Row, len(f.Rows))
	for i, r := range f.Rows {
		nr := make(Row, len(names))
		for _, n := range names {
			nr[n] = r[n]
		}
		rows[i] = nr
	}
	return &Frame{Columns: append([]string(nil), names...), Rows: rows}, nil
}

// WithRowID returns a new frame with an added monotone integer column
// colName, one per row in row order. The integrated result builder injects
// this before recursing into a LeftJoin's two children so it can rejoin
// them afterwards on an identifier neither child otherwise shares.
func (f *Frame) WithRowID(colName string) *Frame {
	cols := append(append([]string(nil), f.Columns...), colName)
	rows := make([]Row, len(f.Rows))
	for i, r := range f.Rows {
		nr := make(Row, len(r)+1)
		for k, v := range r {
			nr[k] = v
		}
		id := int32(i)
		nr[colName] = &Cell{Int: &id}
		rows[i] = nr
	}
	return &Frame{Columns: cols, Rows: rows}
}

// InnerJoin returns the rows of f joined with the rows of other whose key
// columns match exactly; a NULL key value never matches anything,
// including another NULL. Columns of other not already present in f are
// appended. This is how an external variable's time-series frame is folded
// back into the static frame on [signal_id] or [signal_id, ts].
func (f *Frame) InnerJoin(other *Frame, keys []string) (*Frame, error) {
	if err := checkKeys(f, other, keys); err != nil {
		return nil, err
	}
	extra := extraColumns(f, other)
	index := make(map[string][]Row)
	for _, r := range other.Rows {
		k, ok := joinKey(r, keys)
		if !ok {
			continue
		}
		index[k] = append(index[k], r)
	}
	var rows []Row
	for _, lr := range f.Rows {
		k, ok := joinKey(lr, keys)
		if !ok {
			continue
		}
		for _, rr := range index[k] {
			rows = append(rows, mergeRow(lr, rr, extra))
		}
	}
	return &Frame{Columns: append(append([]string(nil), f.Columns...), extra...), Rows: rows}, nil
}

// LeftJoin keeps every row of f. Where other has a row matching on keys,
// the columns of other not already in f are merged in; otherwise those
// columns are NULL. Used for the LeftJoin operator's synthetic __row_id
// bridge: extra columns coming from p2 are null iff no matching p2 binding
// existed.
func (f *Frame) LeftJoin(other *Frame, keys []string) (*Frame, error) {
	if err := checkKeys(f, other, keys); err != nil {
		return nil, err
	}
	extra := extraColumns(f, other)
	index := make(map[string][]Row)
	for _, r := range other.Rows {
		k, ok := joinKey(r, keys)
		if !ok {
			continue
		}
		index[k] = append(index[k], r)
	}
	var rows []Row
	for _, lr := range f.Rows {
		k, ok := joinKey(lr, keys)
		matches := index[k]
		if !ok || len(matches) == 0 {
			rows = append(rows, mergeRow(lr, nil, extra))
			continue
		}
		for _, rr := range matches {
			rows = append(rows, mergeRow(lr, rr, extra))
		}
	}
	return &Frame{Columns: append(append([]string(nil), f.Columns...), extra...), Rows: rows}, nil
}

// Filter returns the rows for which keep reports true, same columns.
func (f *Frame) Filter(keep func(Row) bool) *Frame {
	var rows []Row
	for _, r := range f.Rows {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return &Frame{Columns: f.Columns, Rows: rows}
}

func checkKeys(f, other *Frame, keys []string) error {
	for _, k := range keys {
		if !f.HasColumn(k) {
			return qerr.KindColumnNotFound.New(k)
		}
		if !other.HasColumn(k) {
			return qerr.KindColumnNotFound.New(k)
		}
	}
	return nil
}

func extraColumns(f, other *Frame) []string {
	have := make(map[string]bool, len(f.Columns))
	for _, c := range f.Columns {
		have[c] = true
	}
	var extra []string
	for _, c := range other.Columns {
		if !have[c] {
			extra = append(extra, c)
		}
	}
	return extra
}

func mergeRow(lr, rr Row, extra []string) Row {
	nr := make(Row, len(lr)+len(extra))
	for k, v := range lr {
		nr[k] = v
	}
	for _, c := range extra {
		if rr != nil {
			nr[c] = rr[c]
		} else {
			nr[c] = nil
		}
	}
	return nr
}

// joinKey builds a comparable composite key from the named columns of r.
// A NULL in any key column makes the row unjoinable (ok=false), since SQL
// join semantics never match NULL to NULL.
func joinKey(r Row, keys []string) (string, bool) {
	var sb strings.Builder
	for _, k := range keys {
		c := r[k]
		if c.IsNull() {
			return "", false
		}
		sb.WriteString(cellKeyString(c))
		sb.WriteByte('\x1f')
	}
	return sb.String(), true
}

func cellKeyString(c *Cell) string {
	switch {
	case c.Str != nil:
		return "s:" + *c.Str
	case c.Int != nil:
		return "i:" + strconv.FormatInt(int64(*c.Int), 10)
	case c.Real != nil:
		return "r:" + strconv.FormatFloat(*c.Real, 'g', -1, 64)
	case c.Bool != nil:
		return "b:" + strconv.FormatBool(*c.Bool)
	case c.Time != nil:
		return "t:" + c.Time.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// String renders the frame for diagnostics and test failure messages.
func (f *Frame) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%v\n", f.Columns)
	for _, r := range f.Rows {
		fmt.Fprintf(&sb, "%v\n", r)
	}
	return sb.String()
}
