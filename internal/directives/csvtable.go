package directives

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/rst"
)

// csvTable builds a Table from inline CSV or a :file: next to the document.
type csvTable struct{}

func (csvTable) Name() string      { return "csv-table" }
func (csvTable) Aliases() []string { return nil }

func (csvTable) Process(ctx *rst.Context, _ doctree.Node, d rst.Directive) (doctree.Node, error) {
	delim, err := csvDelimiter(d.Options.Get("delim", ","))
	if err != nil {
		return nil, err
	}

	src := d.Body
	if file := d.Options.Get("file", ""); file != "" {
		data, err := ctx.ReadFile(file)
		if err != nil {
			return nil, err
		}
		src = string(data)
	}
	if strings.TrimSpace(src) == "" {
		return nil, errors.New("csv-table has no content")
	}

	records, err := readCSV(src, delim)
	if err != nil {
		return nil, err
	}
	headerRows, err := d.Options.Int("header-rows", 0)
	if err != nil {
		return nil, err
	}
	if h := d.Options.Get("header", ""); h != "" {
		header, err := readCSV(h, delim)
		if err != nil {
			return nil, err
		}
		records = append(header, records...)
		headerRows += len(header)
	}

	width := len(records[0])
	table := &doctree.Table{}
	for i, rec := range records {
		if len(rec) != width {
			return nil, doctree.NewInvalidTableStructure(
				"csv-table row %d has %d columns, expected %d", i+1, len(rec), width)
		}
		row := &doctree.TableRow{Header: i < headerRows}
		for _, cell := range rec {
			col := row.AddColumn(cell, 1)
			if col.Content != "" && !col.IntentionallyEmpty() {
				col.Node = ctx.ParseSpan(col.Content)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func readCSV(src string, delim rune) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(src))
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("csv-table has no rows")
	}
	return records, nil
}

func csvDelimiter(v string) (rune, error) {
	switch v {
	case "tab", `\t`:
		return '\t', nil
	case "space":
		return ' ', nil
	}
	if utf8.RuneCountInString(v) != 1 {
		return 0, fmt.Errorf("csv-table delim %q must be a single character", v)
	}
	r, _ := utf8.DecodeRuneInString(v)
	return r, nil
}
