package rst

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/guides/internal/doctree"
)

func tableLinesOf(src string) []string {
	return strings.Split(strings.Trim(src, "\n"), "\n")
}

func TestParseSeparatorLine(t *testing.T) {
	tests := []struct {
		line   string
		ok     bool
		pretty bool
		header bool
		parts  int
	}{
		{"+-----+-----+", true, true, false, 2},
		{"+=====+=====+", true, true, true, 2},
		{"+-----+", true, true, false, 1},
		{"=====  =====", true, false, false, 2},
		{"-----  -----  --", true, false, false, 3},
		{"=====", false, false, false, 0},
		{"| a | b |", false, false, false, 0},
		{"hello", false, false, false, 0},
		{"", false, false, false, 0},
	}
	for _, tt := range tests {
		sep, ok := parseSeparatorLine(tt.line)
		if ok != tt.ok {
			t.Errorf("%q: expected ok=%v, got %v", tt.line, tt.ok, ok)
			continue
		}
		if !ok {
			continue
		}
		if sep.pretty != tt.pretty || sep.header != tt.header || len(sep.parts) != tt.parts {
			t.Errorf("%q: expected pretty=%v header=%v parts=%d, got %v %v %d",
				tt.line, tt.pretty, tt.header, tt.parts, sep.pretty, sep.header, len(sep.parts))
		}
	}
}

func TestParseTable_GridRoundTrip(t *testing.T) {
	src := `
+-------+-------+-------+
| one   | two   | three |
+-------+-------+-------+
| four  | five  | six   |
+-------+-------+-------+
| seven | eight | nine  |
+-------+-------+-------+`
	table, err := parseTable(tableLinesOf(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"one | two | three", "four | five | six", "seven | eight | nine"}
	if len(table.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(table.Rows))
	}
	for i, row := range table.Rows {
		if len(row.Columns) != 3 {
			t.Errorf("row %d: expected 3 columns, got %d", i, len(row.Columns))
		}
		if row.String() != want[i] {
			t.Errorf("row %d: expected %q, got %q", i, want[i], row.String())
		}
		if row.Header {
			t.Errorf("row %d: expected no header", i)
		}
	}
}

func TestParseTable_GridContinuationMerges(t *testing.T) {
	src := `
+-------+-------+
| a     | b     |
| a2    | b2    |
+-------+-------+
| c     | d     |
+-------+-------+`
	table, err := parseTable(tableLinesOf(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// three content lines, one of them a continuation
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	first := table.Rows[0].Columns[0]
	if first.Content != "a\na2" {
		t.Errorf("expected merged content %q, got %q", "a\na2", first.Content)
	}
	if first.RowSpan != 2 {
		t.Errorf("expected row span 2, got %d", first.RowSpan)
	}
	if first.RenderedRowSpan() != 1 {
		t.Errorf("expected rendered row span 1, got %d", first.RenderedRowSpan())
	}
}

func TestParseTable_GridMismatchedContinuation(t *testing.T) {
	src := `
+-------+-------+
| a     | b     |
| c             |
+-------+-------+`
	_, err := parseTable(tableLinesOf(src))
	var tableErr *doctree.InvalidTableStructureError
	if !errors.As(err, &tableErr) {
		t.Fatalf("expected InvalidTableStructureError, got %v", err)
	}
	if !strings.Contains(err.Error(), `"a | b"`) || !strings.Contains(err.Error(), `"c"`) {
		t.Errorf("expected offending rows in message, got %q", err.Error())
	}
}

func TestParseTable_GridBordersWithDifferentSplits(t *testing.T) {
	src := `
+--+-----+
| a| b   |
+-----+--+
| c   | d|
+-----+--+`
	table, err := parseTable(tableLinesOf(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	want := [][]struct {
		content string
		span    int
	}{
		{{"a", 1}, {"b", 2}},
		{{"c", 2}, {"d", 1}},
	}
	for ri, cols := range want {
		row := table.Rows[ri]
		if len(row.Columns) != len(cols) {
			t.Fatalf("row %d: expected %d columns, got %d", ri, len(cols), len(row.Columns))
		}
		for ci, c := range cols {
			got := row.Columns[ci]
			if got.Content != c.content || got.ColSpan != c.span {
				t.Errorf("row %d col %d: expected %q/%d, got %q/%d", ri, ci, c.content, c.span, got.Content, got.ColSpan)
			}
		}
	}
}

func TestParseTable_GridEmptyColumnBetweenBorders(t *testing.T) {
	_, err := parseTable(tableLinesOf("++-\n+0000\n+=="))
	var tableErr *doctree.InvalidTableStructureError
	if !errors.As(err, &tableErr) {
		t.Fatalf("expected InvalidTableStructureError, got %v", err)
	}
}

func TestParseTable_GridHeaderAndColspan(t *testing.T) {
	src := `
+-------+-------+
| name  | value |
+=======+=======+
| spans both    |
+-------+-------+
| x     | \     |
+-------+-------+`
	table, err := parseTable(tableLinesOf(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table.Rows))
	}
	if !table.Rows[0].Header || table.Rows[1].Header {
		t.Errorf("expected only the first row to be a header")
	}
	if len(table.Rows[1].Columns) != 1 || table.Rows[1].Columns[0].ColSpan != 2 {
		t.Errorf("expected one column spanning 2, got %+v", table.Rows[1].Columns)
	}
	if !table.Rows[2].Columns[1].IntentionallyEmpty() {
		t.Errorf("expected backslash cell to be intentionally empty")
	}
}

func TestParseTable_GridMultipleHeaders(t *testing.T) {
	src := `
+-------+
| a     |
+=======+
| b     |
+=======+`
	_, err := parseTable(tableLinesOf(src))
	if !errors.Is(err, doctree.ErrInvalidStructure) {
		t.Fatalf("expected invalid structure, got %v", err)
	}
}

func TestParseTable_GridRowspan(t *testing.T) {
	src := `
+-------+-------+
| A     | B     |
|       +-------+
|       | C     |
+-------+-------+`
	table, err := parseTable(tableLinesOf(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	a := table.Rows[0].Columns[0]
	if a.Content != "A" || a.RowSpan != 2 || a.RenderedRowSpan() != 2 {
		t.Errorf("expected A spanning 2 rows, got %q span %d", a.Content, a.RowSpan)
	}
	if got := table.Rows[1].String(); got != "C" {
		t.Errorf("expected second row %q, got %q", "C", got)
	}
}

func TestParseTable_IncompleteGridRow(t *testing.T) {
	src := `
+-------+-------+
| a     | b
+-------+-------+`
	_, err := parseTable(tableLinesOf(src))
	if !errors.Is(err, doctree.ErrInvalidStructure) {
		t.Fatalf("expected invalid structure, got %v", err)
	}
}

func TestParseTable_SimpleWithHeaderAndContinuation(t *testing.T) {
	src := `
=====  =====
A      B
=====  =====
1      2
       cont
3      4 and more
=====  =====`
	table, err := parseTable(tableLinesOf(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table.Rows))
	}
	if !table.Rows[0].Header || table.Rows[1].Header {
		t.Errorf("expected only first row as header")
	}
	if got := table.Rows[1].Columns[1].Content; got != "2\ncont" {
		t.Errorf("expected continuation merged, got %q", got)
	}
	if got := table.Rows[2].Columns[1].Content; got != "4 and more" {
		t.Errorf("expected last column to take the rest of the line, got %q", got)
	}
}

func TestParseTable_SimpleWithoutHeader(t *testing.T) {
	src := `
===  ===
a    b
c    d
===  ===`
	table, err := parseTable(tableLinesOf(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	for _, r := range table.Rows {
		if r.Header {
			t.Errorf("expected no header rows")
		}
	}
}

func TestParseTable_SimpleGapContent(t *testing.T) {
	src := `
=====  =====
abcdefgh   x
=====  =====`
	_, err := parseTable(tableLinesOf(src))
	if !errors.Is(err, doctree.ErrInvalidStructure) {
		t.Fatalf("expected invalid structure for gap content, got %v", err)
	}
}
