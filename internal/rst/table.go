package rst

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
)

// separatorLine is a table border: "+---+---+", "+===+===+" for grid
// tables, "=====  =====" or "-----  -----" for simple tables.
type separatorLine struct {
	header bool
	pretty bool
	parts  [][2]int // rune ranges [start, end) of the line characters
	char   rune
	raw    string
}

var partialSeparatorRe = regexp.MustCompile(`\+-+\+`)

func parseSeparatorLine(line string) (separatorLine, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return separatorLine{}, false
	}
	rs := []rune(trimmed)
	lineChar, spaceChar, ok := findTableChars(rs)
	if !ok {
		return separatorLine{}, false
	}

	sep := separatorLine{raw: trimmed}
	switch {
	case lineChar == '+' && spaceChar == '-':
		sep.pretty = true
		lineChar, spaceChar = '-', '+'
	case lineChar == '+' && spaceChar == '=':
		sep.pretty, sep.header = true, true
		lineChar, spaceChar = '=', '+'
	default:
		if lineChar != '=' && lineChar != '-' {
			return separatorLine{}, false
		}
		if spaceChar != ' ' {
			return separatorLine{}, false
		}
	}
	sep.char = lineChar

	start := -1
	for i, r := range rs {
		if r == lineChar {
			if start < 0 {
				start = i
			}
			continue
		}
		if r != spaceChar {
			return separatorLine{}, false
		}
		if start < 0 {
			continue
		}
		sep.parts = append(sep.parts, [2]int{start, i})
		start = -1
	}
	if start >= 0 {
		sep.parts = append(sep.parts, [2]int{start, len(rs)})
	}

	if len(sep.parts) > 1 || (sep.pretty && len(sep.parts) == 1) {
		return sep, true
	}
	return separatorLine{}, false
}

// findTableChars returns the two characters a border line is made of.
func findTableChars(rs []rune) (lineChar, spaceChar rune, ok bool) {
	lineChar = rs[0]
	for _, r := range rs {
		if r == lineChar {
			continue
		}
		if spaceChar == 0 {
			spaceChar = r
			continue
		}
		if r != spaceChar {
			return 0, 0, false
		}
	}
	return lineChar, spaceChar, spaceChar != 0
}

// tableLines splits the raw lines of one table into border and content
// lines, keyed by their position in the table.
type tableLines struct {
	separators map[int]separatorLine
	content    map[int][]rune
	count      int
}

func splitTableLines(raw []string) tableLines {
	t := tableLines{
		separators: make(map[int]separatorLine),
		content:    make(map[int][]rune),
		count:      len(raw),
	}
	for i, line := range raw {
		if sep, ok := parseSeparatorLine(line); ok {
			t.separators[i] = sep
			continue
		}
		t.content[i] = []rune(strings.TrimRight(line, " "))
	}
	return t
}

func (t tableLines) contentIndexes() []int {
	idx := make([]int, 0, len(t.content))
	for i := range t.content {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// parseTable builds a table from its raw lines. The first line must be a
// border.
func parseTable(raw []string) (*doctree.Table, error) {
	if len(raw) == 0 {
		return &doctree.Table{}, nil
	}
	first, ok := parseSeparatorLine(raw[0])
	if !ok {
		return nil, doctree.NewInvalidTableStructure("Malformed table: first line %q is not a border", raw[0])
	}
	lines := splitTableLines(raw)
	if first.pretty {
		return compileGridTable(lines)
	}
	return compileSimpleTable(first, lines)
}

func compileSimpleTable(first separatorLine, t tableLines) (*doctree.Table, error) {
	indexes := t.contentIndexes()
	table := &doctree.Table{}
	if len(indexes) == 0 {
		return table, nil
	}

	// a second "=" border before the last content line ends the header
	finalHeader := 0
	for i := 1; i < t.count; i++ {
		if sep, ok := t.separators[i]; ok && sep.char == '=' {
			finalHeader = i
			break
		}
	}
	if finalHeader > indexes[len(indexes)-1] {
		finalHeader = 0
	}

	ranges := first.parts
	lastEnd := ranges[len(ranges)-1][1]

	var rows []*doctree.TableRow
	for _, i := range indexes {
		line := t.content[i]
		row := &doctree.TableRow{Header: i <= finalHeader}
		prevEnd := -1
		for _, r := range ranges {
			beyond := r[0] >= len(line)
			if prevEnd >= 0 && !beyond {
				gap := string(line[prevEnd:r[0]])
				if strings.TrimSpace(gap) != "" {
					return nil, doctree.NewInvalidTableStructure("Malformed table: content %q appears in the \"gap\" on row %q", gap, string(line))
				}
			}

			var content string
			switch {
			case beyond:
			case r[1] == lastEnd:
				// the last column may run past the border
				content = string(line[r[0]:])
			default:
				content = string(line[r[0]:min(r[1], len(line))])
			}
			row.AddColumn(content, 1)
			prevEnd = r[1]
		}
		rows = append(rows, row)
	}

	// an empty first column continues the previous row
	var prev *doctree.TableRow
	for _, row := range rows {
		if prev != nil && row.Columns[0].Content == "" {
			if err := prev.Absorb(row); err != nil {
				return nil, err
			}
			continue
		}
		table.Rows = append(table.Rows, row)
		prev = row
	}
	return table, nil
}

func compileGridTable(t tableLines) (*doctree.Table, error) {
	// every "+" on any border is a column boundary; cells whose text runs
	// across a boundary become colspans below
	bounds := make(map[int]bool)
	finalHeader, headerSeen := 0, false
	for i := 0; i < t.count; i++ {
		sep, ok := t.separators[i]
		if !ok {
			continue
		}
		if sep.header {
			if headerSeen {
				return nil, doctree.NewInvalidTableStructure("Malformed table: multiple \"header rows\" using \"===\" were found. See table lines \"%d\" and \"%d\"", finalHeader+1, i)
			}
			headerSeen = true
			finalHeader = i - 1
		}
		rs := []rune(sep.raw)
		for pos, r := range rs {
			if r == '+' {
				bounds[pos] = true
			}
		}
		if rs[len(rs)-1] != '+' {
			bounds[len(rs)] = true
		}
	}
	offsets := make([]int, 0, len(bounds))
	for pos := range bounds {
		offsets = append(offsets, pos)
	}
	sort.Ints(offsets)

	colRanges := make(map[int]int, len(offsets))
	starts := make([]int, 0, len(offsets))
	for i := 1; i < len(offsets); i++ {
		start, end := offsets[i-1]+1, offsets[i]
		if start >= end {
			return nil, doctree.NewInvalidTableStructure("Malformed table: borders leave an empty column at offset %d", start)
		}
		colRanges[start] = end
		starts = append(starts, start)
	}

	rows := make(map[int]*doctree.TableRow)
	partial := make(map[int]bool)
	indexes := t.contentIndexes()
	for _, i := range indexes {
		line := t.content[i]
		if partialSeparatorRe.MatchString(string(line)) {
			partial[i] = true
		}

		row := &doctree.TableRow{}
		curStart, span, prevEnd := -1, 1, -1
		for _, start := range starts {
			end := colRanges[start]
			if end >= len(line) {
				return nil, doctree.NewInvalidTableStructure("Malformed table: Line\n\n%s\n\ndoes not appear to be a complete table row", string(line))
			}
			if curStart >= 0 {
				gap := string(line[prevEnd:start])
				if !strings.ContainsAny(gap, "|+") {
					// text runs through the gap: colspan
					span++
				} else {
					row.AddColumn(string(line[curStart:prevEnd]), span)
					span, curStart = 1, -1
				}
			}
			if curStart < 0 {
				curStart = start
			}
			prevEnd = end
		}
		if curStart >= 0 {
			row.AddColumn(string(line[curStart:prevEnd]), span)
		}
		rows[i] = row
	}

	table := &doctree.Table{}
	var inRowspan []int
	absorbed := make(map[int]bool)
	for _, i := range indexes {
		if absorbed[i] {
			continue
		}
		row := rows[i]

		if partial[i] {
			// part border, part content: content columns continue a cell
			// of an earlier row
			for ci, col := range row.Columns {
				if col.Content != "" && strings.Trim(col.Content, "-") == "" {
					continue
				}
				target := findColumnInPreviousRows(table.Rows, ci)
				if target == nil {
					return nil, doctree.NewInvalidTableStructure("Malformed table: line %q spans a row that does not exist", string(t.content[i]))
				}
				target.AddContent("\n" + col.Content)
				target.IncrementRowSpan()
				inRowspan = append(inRowspan, ci)
			}
			continue
		}

		spanned := inRowspan
		inRowspan = nil
		if err := moveRowspanColumns(row, spanned, table.Rows); err != nil {
			return nil, err
		}

		// content lines without a border in between continue this row
		for n := i + 1; ; n++ {
			next, ok := rows[n]
			if !ok || partial[n] {
				break
			}
			absorbed[n] = true
			if err := moveRowspanColumns(next, spanned, table.Rows); err != nil {
				return nil, err
			}
			if err := row.Absorb(next); err != nil {
				return nil, err
			}
		}

		row.Header = headerSeen && i <= finalHeader
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// moveRowspanColumns appends the content of columns that belong to a cell
// spanning from an earlier row to that cell and drops them from row.
func moveRowspanColumns(row *doctree.TableRow, columns []int, previous []*doctree.TableRow) error {
	sorted := append([]int(nil), columns...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	for _, ci := range sorted {
		col := row.Column(ci)
		target := findColumnInPreviousRows(previous, ci)
		if col == nil || target == nil {
			return doctree.NewInvalidTableStructure("Malformed table: cannot find column %d spanned into row %q", ci, row.String())
		}
		target.AddContent("\n" + col.Content)
		row.RemoveColumn(ci)
	}
	return nil
}

func findColumnInPreviousRows(rows []*doctree.TableRow, ci int) *doctree.TableColumn {
	for i := len(rows) - 1; i >= 0; i-- {
		if c := rows[i].Column(ci); c != nil {
			return c
		}
	}
	return nil
}
