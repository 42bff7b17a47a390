package directives

import (
	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/rst"
)

var admonitionNames = []string{
	"note", "warning", "tip", "important", "caution",
	"danger", "error", "hint", "attention", "seealso",
}

// admonition is one of the named call-out boxes. Content may begin on the
// directive line.
type admonition struct {
	name string
}

func (a admonition) Name() string      { return a.name }
func (admonition) Aliases() []string   { return nil }
func (admonition) InlineContent() bool { return true }

func (a admonition) ProcessBody(_ *rst.Context, _ doctree.Node, d rst.Directive, content *doctree.Fragment) (doctree.Node, error) {
	return &doctree.Admonition{
		Name:    a.name,
		Classes: classes(d.Options.Get("class", "")),
		Content: content,
	}, nil
}

// genericAdmonition takes its title from the directive argument.
type genericAdmonition struct{}

func (genericAdmonition) Name() string      { return "admonition" }
func (genericAdmonition) Aliases() []string { return nil }

func (genericAdmonition) ProcessBody(_ *rst.Context, _ doctree.Node, d rst.Directive, content *doctree.Fragment) (doctree.Node, error) {
	return &doctree.Admonition{
		Name:    "admonition",
		Title:   d.Data,
		Classes: classes(d.Options.Get("class", "")),
		Content: content,
	}, nil
}

type containerDirective struct{}

func (containerDirective) Name() string      { return "container" }
func (containerDirective) Aliases() []string { return nil }

func (containerDirective) ProcessBody(_ *rst.Context, _ doctree.Node, d rst.Directive, content *doctree.Fragment) (doctree.Node, error) {
	return &doctree.Container{Classes: classes(d.Data), Content: content}, nil
}

// classDirective is rendered like a container carrying the given classes.
type classDirective struct{}

func (classDirective) Name() string      { return "class" }
func (classDirective) Aliases() []string { return []string{"rst-class"} }

func (classDirective) ProcessBody(_ *rst.Context, _ doctree.Node, d rst.Directive, content *doctree.Fragment) (doctree.Node, error) {
	return &doctree.Container{Classes: classes(d.Data), Content: content}, nil
}

type topicDirective struct{}

func (topicDirective) Name() string      { return "topic" }
func (topicDirective) Aliases() []string { return []string{"sidebar"} }

func (topicDirective) ProcessBody(_ *rst.Context, _ doctree.Node, d rst.Directive, content *doctree.Fragment) (doctree.Node, error) {
	return &doctree.Topic{Title: d.Data, Content: content}, nil
}
