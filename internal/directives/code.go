package directives

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/rst"
)

type codeBlock struct{}

func (codeBlock) Name() string      { return "code-block" }
func (codeBlock) Aliases() []string { return []string{"code", "sourcecode"} }

func (codeBlock) Process(_ *rst.Context, _ doctree.Node, d rst.Directive) (doctree.Node, error) {
	highlight, err := parseLineRanges(d.Options.Get("emphasize-lines", ""))
	if err != nil {
		return nil, err
	}
	return &doctree.Code{
		Language:    d.Data,
		Value:       d.Body,
		LineNumbers: d.Options.Bool("linenos"),
		Highlight:   highlight,
	}, nil
}

// parseLineRanges parses "1,3-5" into [1 3 4 5].
func parseLineRanges(s string) ([]int, error) {
	var lines []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		from, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("emphasize-lines %q: %w", part, err)
		}
		to := from
		if isRange {
			if to, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("emphasize-lines %q: %w", part, err)
			}
		}
		if from < 1 || to < from {
			return nil, fmt.Errorf("emphasize-lines %q: invalid range", part)
		}
		for n := from; n <= to; n++ {
			lines = append(lines, n)
		}
	}
	return lines, nil
}

type rawDirective struct{}

func (rawDirective) Name() string      { return "raw" }
func (rawDirective) Aliases() []string { return nil }

func (rawDirective) Process(_ *rst.Context, _ doctree.Node, d rst.Directive) (doctree.Node, error) {
	if d.Data == "" {
		return nil, errors.New("raw requires an output format")
	}
	return &doctree.Raw{Format: strings.ToLower(d.Data), Value: d.Body}, nil
}
