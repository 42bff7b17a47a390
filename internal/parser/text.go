package parser

import (
	"bufio"
	"bytes"
	"path"
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
)

// TextParser handles plain text files. Blank lines separate paragraphs and
// the file name becomes the document title.
type TextParser struct{}

func (p *TextParser) Parse(docPath string, src []byte) (*doctree.Document, error) {
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(strings.TrimRight(line, " \t\r"))
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	doc := &doctree.Document{
		Hash:    doctree.ContentHash(src),
		Path:    docPath,
		Headers: []doctree.Node{&doctree.DocumentTitle{Value: path.Base(docPath)}},
		Links:   make(map[string]string),
	}
	for _, para := range paragraphs {
		doc.Nodes = append(doc.Nodes, &doctree.Paragraph{
			Value: &doctree.Span{Nodes: []doctree.Node{&doctree.Text{Value: para}}},
		})
	}
	return doc, nil
}
