package directives

import (
	"regexp"
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/rst"
)

var tocEntryRe = regexp.MustCompile(`^(.*?)\s*<([^<>]+)>$`)

// toctreeDirective lists child documents. Non-glob entries are recorded as
// dependencies right away; glob entries are expanded once every document
// is known.
type toctreeDirective struct{}

func (toctreeDirective) Name() string      { return "toctree" }
func (toctreeDirective) Aliases() []string { return nil }

func (toctreeDirective) Process(ctx *rst.Context, _ doctree.Node, d rst.Directive) (doctree.Node, error) {
	depth, err := d.Options.Int("maxdepth", 0)
	if err != nil {
		return nil, err
	}
	toc := &doctree.Toc{
		Glob:       d.Options.Bool("glob"),
		Hidden:     d.Options.Bool("hidden"),
		TitlesOnly: d.Options.Bool("titlesonly"),
		MaxDepth:   depth,
		Caption:    d.Options.Get("caption", ""),
		Index:      ctx.NextTocIndex(),
	}

	for _, line := range strings.Split(d.Body, "\n") {
		entry := strings.TrimSpace(line)
		if entry == "" {
			continue
		}
		if m := tocEntryRe.FindStringSubmatch(entry); m != nil {
			entry = strings.TrimSpace(m[2])
		}
		toc.Entries = append(toc.Entries, entry)
		if toc.Glob && strings.Contains(entry, "*") {
			continue
		}
		ctx.AddDependency(ctx.ResolvePath(entry))
	}
	return toc, nil
}
