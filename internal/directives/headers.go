package directives

import (
	"errors"
	"sort"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/rst"
)

// titleDirective sets the document title without adding a visible heading.
type titleDirective struct{}

func (titleDirective) Name() string      { return "title" }
func (titleDirective) Aliases() []string { return nil }

func (titleDirective) Process(ctx *rst.Context, _ doctree.Node, d rst.Directive) (doctree.Node, error) {
	if d.Data == "" {
		return nil, errors.New("title requires an argument")
	}
	ctx.AddHeader(&doctree.DocumentTitle{Value: d.Data})
	return nil, nil
}

// metaDirective turns each option into a <meta> header.
type metaDirective struct{}

func (metaDirective) Name() string      { return "meta" }
func (metaDirective) Aliases() []string { return nil }

func (metaDirective) Process(ctx *rst.Context, _ doctree.Node, d rst.Directive) (doctree.Node, error) {
	keys := make([]string, 0, len(d.Options))
	for k := range d.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ctx.AddHeader(&doctree.Meta{Name: k, Content: d.Options[k].Value})
	}
	return nil, nil
}

type stylesheetDirective struct{}

func (stylesheetDirective) Name() string      { return "stylesheet" }
func (stylesheetDirective) Aliases() []string { return nil }

func (stylesheetDirective) Process(ctx *rst.Context, _ doctree.Node, d rst.Directive) (doctree.Node, error) {
	if d.Data == "" {
		return nil, errors.New("stylesheet requires a path")
	}
	ctx.AddHeader(&doctree.Stylesheet{Href: d.Data})
	return nil, nil
}
