package directives

import (
	"errors"
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/rst"
)

func newImage(d rst.Directive) (*doctree.Image, error) {
	url := strings.TrimSpace(d.Data)
	if url == "" {
		return nil, errors.New(d.Name + " requires an image path")
	}
	return &doctree.Image{
		URL:    url,
		Alt:    d.Options.Get("alt", ""),
		Width:  d.Options.Get("width", ""),
		Height: d.Options.Get("height", ""),
		Align:  d.Options.Get("align", ""),
	}, nil
}

type imageDirective struct{}

func (imageDirective) Name() string      { return "image" }
func (imageDirective) Aliases() []string { return nil }

func (imageDirective) Process(_ *rst.Context, _ doctree.Node, d rst.Directive) (doctree.Node, error) {
	return newImage(d)
}

// figureDirective is an image whose optional body is the caption.
type figureDirective struct{}

func (figureDirective) Name() string      { return "figure" }
func (figureDirective) Aliases() []string { return nil }

func (figureDirective) Process(ctx *rst.Context, _ doctree.Node, d rst.Directive) (doctree.Node, error) {
	img, err := newImage(d)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(d.Body) != "" {
		caption, err := ctx.ParseFragment(d.Body)
		if err != nil {
			return nil, err
		}
		img.Caption = caption
	}
	return img, nil
}
