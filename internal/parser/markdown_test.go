package parser

import (
	"reflect"
	"testing"

	"github.com/dgallion1/guides/internal/doctree"
)

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.

## Section B

Section B content.
`
	p := NewMarkdownParser()
	doc, err := p.Parse("guide/doc", []byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title() != "Title" {
		t.Errorf("expected title %q, got %q", "Title", doc.Title())
	}
	if len(doc.Nodes) != 1 {
		t.Fatalf("expected 1 top-level section, got %d", len(doc.Nodes))
	}

	h1 := doc.Nodes[0].(*doctree.Section)
	// intro paragraph plus two h2 sections
	if len(h1.Nodes) != 3 {
		t.Fatalf("expected 3 children under h1, got %d", len(h1.Nodes))
	}
	secA := h1.Nodes[1].(*doctree.Section)
	if got := doctree.PlainText(secA.Title); got != "Section A" {
		t.Errorf("expected %q, got %q", "Section A", got)
	}
	if secA.Title.ID != "section-a" || secA.Title.Level != 2 {
		t.Errorf("unexpected title id/level %q %d", secA.Title.ID, secA.Title.Level)
	}
	sub, ok := secA.Nodes[1].(*doctree.Section)
	if !ok || doctree.PlainText(sub.Title) != "Subsection A1" {
		t.Errorf("expected Subsection A1 under Section A, got %#v", secA.Nodes[1])
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	doc, err := NewMarkdownParser().Parse("notes", []byte("Just some plain text.\n\nAnother paragraph.\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(doc.Nodes))
	}
	if doc.Title() != "" {
		t.Errorf("expected no title, got %q", doc.Title())
	}
}

func TestMarkdownParser_InlineAndLinks(t *testing.T) {
	input := "Intro with *em*, **strong**, `code`, [Install](install.md#req) and [Go](https://go.dev).\n"
	doc, err := NewMarkdownParser().Parse("index", []byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	span := doc.Nodes[0].(*doctree.Paragraph).Value

	var kinds []doctree.Kind
	for _, n := range span.Nodes {
		if n.Kind() != doctree.KindText {
			kinds = append(kinds, n.Kind())
		}
	}
	want := []doctree.Kind{doctree.KindEmphasis, doctree.KindStrong, doctree.KindLiteral, doctree.KindReference, doctree.KindLink}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("expected inline kinds %v, got %v", want, kinds)
	}

	var ref *doctree.Reference
	var link *doctree.Link
	for _, n := range span.Nodes {
		switch v := n.(type) {
		case *doctree.Reference:
			ref = v
		case *doctree.Link:
			link = v
		}
	}
	if ref.Role != "doc" || ref.Target != "install" || ref.Anchor != "req" || ref.Text != "Install" {
		t.Errorf("unexpected reference %+v", ref)
	}
	if link.URL != "https://go.dev" || link.Text != "Go" {
		t.Errorf("unexpected link %+v", link)
	}
	if !reflect.DeepEqual(doc.Dependencies, []string{"install"}) {
		t.Errorf("expected dependency on install, got %v", doc.Dependencies)
	}
}

func TestMarkdownParser_Blocks(t *testing.T) {
	input := "- one\n- two\n\n```go\nfmt.Println(\"hi\")\n```\n\n| Name | Value |\n|------|-------|\n| a    | 1     |\n\n![Logo](img/logo.png)\n\n---\n\n> quoted\n"
	doc, err := NewMarkdownParser().Parse("index", []byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Nodes) != 6 {
		t.Fatalf("expected 6 blocks, got %d", len(doc.Nodes))
	}
	list := doc.Nodes[0].(*doctree.List)
	if list.Ordered || len(list.Items) != 2 {
		t.Errorf("expected 2 bullet items, got %+v", list)
	}
	code := doc.Nodes[1].(*doctree.Code)
	if code.Language != "go" || code.Value != `fmt.Println("hi")` {
		t.Errorf("unexpected code %+v", code)
	}
	table := doc.Nodes[2].(*doctree.Table)
	if len(table.Rows) != 2 || !table.Rows[0].Header || table.Rows[1].Header {
		t.Fatalf("expected header row plus one body row, got %d rows", len(table.Rows))
	}
	if got := table.Rows[1].String(); got != "a | 1" {
		t.Errorf("unexpected body row %q", got)
	}
	if img := doc.Nodes[3].(*doctree.Image); img.URL != "img/logo.png" || img.Alt != "Logo" {
		t.Errorf("unexpected image %+v", img)
	}
	if _, ok := doc.Nodes[4].(*doctree.Separator); !ok {
		t.Errorf("expected separator, got %T", doc.Nodes[4])
	}
	if _, ok := doc.Nodes[5].(*doctree.Quote); !ok {
		t.Errorf("expected quote, got %T", doc.Nodes[5])
	}
}
