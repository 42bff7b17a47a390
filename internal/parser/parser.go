package parser

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/rst"
)

// Parser converts raw source bytes into a document tree. path is the
// logical document path, without extension.
type Parser interface {
	Parse(path string, src []byte) (*doctree.Document, error)
}

// ErrUnsupportedFormat is returned for files no parser handles.
var ErrUnsupportedFormat = errors.New("unsupported format")

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".rst": true,
	".md":  true,
	".txt": true,
}

// Set picks a parser by file extension. The reStructuredText parser is
// shared so every document sees the same directive registry.
type Set struct {
	rst      *rst.Parser
	markdown *MarkdownParser
	text     *TextParser
}

func NewSet(rp *rst.Parser) *Set {
	return &Set{rst: rp, markdown: NewMarkdownParser(), text: &TextParser{}}
}

// ForFile returns the appropriate parser for a filename.
func (s *Set) ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".rst":
		return s.rst, nil
	case ".md":
		return s.markdown, nil
	case ".txt":
		return s.text, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(path.Ext(filename))
	return SupportedExtensions[ext]
}
