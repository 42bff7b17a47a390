package doctree

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStructure is wrapped by every error that aborts the parse of a
// single document.
var ErrInvalidStructure = errors.New("invalid structure")

// InvalidTableStructureError reports a table whose rows cannot be reconciled.
type InvalidTableStructureError struct {
	Message string
}

func (e *InvalidTableStructureError) Error() string { return e.Message }
func (e *InvalidTableStructureError) Unwrap() error { return ErrInvalidStructure }

// NewInvalidTableStructure formats an InvalidTableStructureError.
func NewInvalidTableStructure(format string, args ...any) *InvalidTableStructureError {
	return &InvalidTableStructureError{Message: fmt.Sprintf(format, args...)}
}

type Table struct {
	Rows []*TableRow
}

func (t *Table) Kind() Kind { return KindTable }
func (t *Table) Children() []Node {
	var out []Node
	for _, r := range t.Rows {
		for _, c := range r.Columns {
			if c.Node != nil {
				out = append(out, c.Node)
			}
		}
	}
	return out
}

// HeaderRows returns the header rows in order.
func (t *Table) HeaderRows() []*TableRow {
	var out []*TableRow
	for _, r := range t.Rows {
		if r.Header {
			out = append(out, r)
		}
	}
	return out
}

// BodyRows returns the non-header rows in order.
func (t *Table) BodyRows() []*TableRow {
	var out []*TableRow
	for _, r := range t.Rows {
		if !r.Header {
			out = append(out, r)
		}
	}
	return out
}

type TableRow struct {
	Columns []*TableColumn
	Header  bool
}

// AddColumn appends a column with trimmed content.
func (r *TableRow) AddColumn(content string, colSpan int) *TableColumn {
	c := NewTableColumn(content, colSpan)
	r.Columns = append(r.Columns, c)
	return c
}

// Column returns the column at index i or nil.
func (r *TableRow) Column(i int) *TableColumn {
	if i < 0 || i >= len(r.Columns) {
		return nil
	}
	return r.Columns[i]
}

// RemoveColumn drops the column at index i.
func (r *TableRow) RemoveColumn(i int) {
	if i < 0 || i >= len(r.Columns) {
		return
	}
	r.Columns = append(r.Columns[:i], r.Columns[i+1:]...)
}

// String joins the column contents with " | ".
func (r *TableRow) String() string {
	parts := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		parts[i] = c.Content
	}
	return strings.Join(parts, " | ")
}

// Absorb merges a continuation row into r: each column's content is
// appended on a new line and its row span grows by one. Rows with a
// different column count cannot be merged.
func (r *TableRow) Absorb(next *TableRow) error {
	if len(next.Columns) != len(r.Columns) {
		return NewInvalidTableStructure("Malformed table: lines %q and %q do not appear to be in the same table", r.String(), next.String())
	}
	for i, c := range next.Columns {
		target := r.Columns[i]
		target.AddContent("\n" + c.Content)
		target.IncrementRowSpan()
		target.merged++
	}
	return nil
}

type TableColumn struct {
	Content string
	ColSpan int
	RowSpan int
	Node    Node

	// merged counts source lines absorbed as continuations. They add to
	// RowSpan but not to the rows the cell spans when rendered.
	merged int
}

func NewTableColumn(content string, colSpan int) *TableColumn {
	if colSpan < 1 {
		colSpan = 1
	}
	return &TableColumn{Content: strings.TrimSpace(content), ColSpan: colSpan, RowSpan: 1}
}

func (c *TableColumn) AddContent(s string) {
	c.Content = strings.TrimSpace(c.Content + s)
}

func (c *TableColumn) IncrementRowSpan() { c.RowSpan++ }

// RenderedRowSpan is the number of table rows the cell covers.
func (c *TableColumn) RenderedRowSpan() int {
	return c.RowSpan - c.merged
}

// IntentionallyEmpty reports the "\" sentinel for a blank cell.
func (c *TableColumn) IntentionallyEmpty() bool {
	return c.Content == `\`
}
