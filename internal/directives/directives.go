// Package directives holds the built-in directive handlers.
package directives

import (
	"strings"

	"github.com/dgallion1/guides/internal/rst"
)

// Builtins returns a fresh set of the built-in handlers.
func Builtins() []rst.Handler {
	handlers := []rst.Handler{
		titleDirective{},
		metaDirective{},
		stylesheetDirective{},
		genericAdmonition{},
		containerDirective{},
		classDirective{},
		topicDirective{},
		toctreeDirective{},
		codeBlock{},
		rawDirective{},
		imageDirective{},
		figureDirective{},
		csvTable{},
	}
	for _, name := range admonitionNames {
		handlers = append(handlers, admonition{name: name})
	}
	return handlers
}

// Register installs the built-in handlers at built-in priority so that
// extensions registered later can override them.
func Register(reg *rst.Registry) {
	for _, h := range Builtins() {
		reg.Register(h, rst.PriorityBuiltin)
	}
}

// NewRegistry returns a registry with the built-ins installed.
func NewRegistry() *rst.Registry {
	reg := rst.NewRegistry()
	Register(reg)
	return reg
}

func classes(v string) []string {
	return strings.Fields(v)
}
