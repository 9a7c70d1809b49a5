/*
Copyright 2025 FreteOps Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package model

import (
	"strconv"
	"strings"
)

// CellKind enumerates the scalar types a spreadsheet cell can carry.
type CellKind int

const (
	CellAbsent CellKind = iota
	CellString
	CellNumber
	CellBool
)

// Cell is one spreadsheet cell. Spreadsheet decoders surface
// numeric-looking identifiers as numbers, so the importer never assumes a
// cell is a string.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
	Bool bool
}

// StringCell returns a string-kind cell.
func StringCell(s string) Cell { return Cell{Kind: CellString, Str: s} }

// NumberCell returns a number-kind cell.
func NumberCell(f float64) Cell { return Cell{Kind: CellNumber, Num: f} }

// BoolCell returns a boolean-kind cell.
func BoolCell(b bool) Cell { return Cell{Kind: CellBool, Bool: b} }

// AbsentCell returns the absent cell.
func AbsentCell() Cell { return Cell{Kind: CellAbsent} }

// Coerce stringifies and trims the cell value. String, number and boolean
// cells stringify; absent (or unknown) cells coerce to the empty string.
func (c Cell) Coerce() string {
	switch c.Kind {
	case CellString:
		return strings.TrimSpace(c.Str)
	case CellNumber:
		return strings.TrimSpace(strconv.FormatFloat(c.Num, 'f', -1, 64))
	case CellBool:
		return strconv.FormatBool(c.Bool)
	default:
		return ""
	}
}

// Field is one (column label, cell) pair of a row.
type Field struct {
	Key  string
	Cell Cell
}

// Row is one decoded spreadsheet row: an ordered sequence of fields. Keyed
// access serves the primary resolution mode, positional access serves the
// header-row fallback. Column order is preserved from the source file.
type Row struct {
	Fields []Field
}

// Get returns the cell stored under key, or an absent cell.
func (r Row) Get(key string) Cell {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Cell
		}
	}
	return AbsentCell()
}

// At returns the cell at position i, or an absent cell when the row is
// shorter than i+1 columns.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r.Fields) {
		return AbsentCell()
	}
	return r.Fields[i].Cell
}

// Keys returns the column labels in source order.
func (r Row) Keys() []string {
	keys := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		keys[i] = f.Key
	}
	return keys
}

// ResolutionMode reports how the required columns were located.
type ResolutionMode int

const (
	// ResolvedByKey means columns were matched against row keys.
	ResolvedByKey ResolutionMode = iota
	// ResolvedByPosition means the literal header row was alias-matched
	// and rows are re-extracted by column position.
	ResolvedByPosition
)

// ColumnResolution locates the required logical fields inside a batch of
// rows. Exactly one of the key or index pairs is meaningful, depending on
// Mode. KeyColumn/KeyIndex locate the optional CT-e key column; HasKey is
// false when the source carries none.
type ColumnResolution struct {
	Mode ResolutionMode

	NumberKey   string
	ExternalKey string
	KeyColumn   string

	NumberIndex   int
	ExternalIndex int
	KeyIndex      int

	HasKey bool
}
