package directives

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/rst"
)

type mapFiles map[string]string

func (m mapFiles) Read(p string) ([]byte, error) {
	s, ok := m[p]
	if !ok {
		return nil, fmt.Errorf("%s: not found", p)
	}
	return []byte(s), nil
}

func parse(t *testing.T, path, src string, files rst.FileReader) *doctree.Document {
	t.Helper()
	p := rst.New(NewRegistry(), rst.DefaultConfig(), files, slog.New(slog.NewTextHandler(io.Discard, nil)))
	doc, err := p.Parse(path, []byte(src))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return doc
}

func TestNote_EndToEnd(t *testing.T) {
	doc := parse(t, "index", ".. note::\n   Hello\n", nil)
	if len(doc.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(doc.Nodes))
	}
	adm, ok := doc.Nodes[0].(*doctree.Admonition)
	if !ok {
		t.Fatalf("expected admonition, got %T", doc.Nodes[0])
	}
	if adm.Name != "note" {
		t.Errorf("expected note, got %q", adm.Name)
	}
	if got := doctree.PlainText(adm.Content); got != "Hello" {
		t.Errorf("expected Hello, got %q", got)
	}
}

func TestAdmonitions(t *testing.T) {
	for _, name := range admonitionNames {
		doc := parse(t, "index", ".. "+name+":: Careful now.\n", nil)
		adm, ok := doc.Nodes[0].(*doctree.Admonition)
		if !ok || adm.Name != name {
			t.Errorf("%s: expected admonition, got %#v", name, doc.Nodes[0])
			continue
		}
		if got := doctree.PlainText(adm.Content); got != "Careful now." {
			t.Errorf("%s: expected inline content, got %q", name, got)
		}
	}

	doc := parse(t, "index", ".. admonition:: Read this\n   :class: wide\n\n   Body.\n", nil)
	adm := doc.Nodes[0].(*doctree.Admonition)
	if adm.Title != "Read this" || !reflect.DeepEqual(adm.Classes, []string{"wide"}) {
		t.Errorf("unexpected generic admonition %+v", adm)
	}
}

func TestContainerClassAndTopic(t *testing.T) {
	src := ".. container:: a b\n\n   One.\n\n.. rst-class:: c\n\n   Two.\n\n.. topic:: About\n\n   Three.\n"
	doc := parse(t, "index", src, nil)
	if len(doc.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(doc.Nodes))
	}
	if c := doc.Nodes[0].(*doctree.Container); !reflect.DeepEqual(c.Classes, []string{"a", "b"}) {
		t.Errorf("unexpected container classes %v", c.Classes)
	}
	if c := doc.Nodes[1].(*doctree.Container); !reflect.DeepEqual(c.Classes, []string{"c"}) {
		t.Errorf("unexpected class directive classes %v", c.Classes)
	}
	if topic := doc.Nodes[2].(*doctree.Topic); topic.Title != "About" {
		t.Errorf("unexpected topic title %q", topic.Title)
	}
}

func TestMissingBodyAbortsDocument(t *testing.T) {
	p := rst.New(NewRegistry(), rst.DefaultConfig(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := p.Parse("index", []byte(".. container:: wide\n\nText.\n"))
	if !errors.Is(err, doctree.ErrInvalidStructure) {
		t.Fatalf("expected structural error, got %v", err)
	}
}

func TestHeaderDirectives(t *testing.T) {
	src := ".. title:: Custom Title\n\n.. meta::\n   :keywords: a, b\n   :description: d\n\n.. stylesheet:: css/site.css\n\nText.\n"
	doc := parse(t, "index", src, nil)
	if doc.Title() != "Custom Title" {
		t.Errorf("expected header title, got %q", doc.Title())
	}
	if len(doc.Headers) != 4 {
		t.Fatalf("expected 4 headers, got %d", len(doc.Headers))
	}
	if m := doc.Headers[1].(*doctree.Meta); m.Name != "description" {
		t.Errorf("expected meta headers sorted by name, got %q first", m.Name)
	}
	if s := doc.Headers[3].(*doctree.Stylesheet); s.Href != "css/site.css" {
		t.Errorf("unexpected stylesheet %q", s.Href)
	}
	if len(doc.Nodes) != 1 {
		t.Errorf("expected header directives to leave only the paragraph, got %d nodes", len(doc.Nodes))
	}
}

func TestToctree(t *testing.T) {
	src := ".. toctree::\n   :maxdepth: 2\n   :glob:\n\n   install\n   Guide <guide/index>\n   api/*\n\n.. toctree::\n   :hidden:\n\n   ../changelog\n"
	doc := parse(t, "manual/index", src, nil)
	tocs := doc.Tocs()
	if len(tocs) != 2 {
		t.Fatalf("expected 2 toctrees, got %d", len(tocs))
	}
	first := tocs[0]
	if !reflect.DeepEqual(first.Entries, []string{"install", "guide/index", "api/*"}) {
		t.Errorf("unexpected entries %v", first.Entries)
	}
	if first.MaxDepth != 2 || !first.Glob || first.Index != 0 {
		t.Errorf("unexpected toc options %+v", first)
	}
	if !tocs[1].Hidden || tocs[1].Index != 1 {
		t.Errorf("unexpected second toc %+v", tocs[1])
	}
	want := []string{"manual/install", "manual/guide/index", "changelog"}
	if !reflect.DeepEqual(doc.Dependencies, want) {
		t.Errorf("expected dependencies %v, got %v", want, doc.Dependencies)
	}
}

func TestToctreeInvalidMaxDepthDegrades(t *testing.T) {
	doc := parse(t, "index", ".. toctree::\n   :maxdepth: lots\n\n   install\n", nil)
	if _, ok := doc.Nodes[0].(*doctree.DirectivePlaceholder); !ok {
		t.Errorf("expected placeholder, got %T", doc.Nodes[0])
	}
}

func TestCodeBlock(t *testing.T) {
	src := ".. code-block:: go\n   :linenos:\n   :emphasize-lines: 1,3-4\n\n   a := 1\n   b := 2\n   c := a + b\n   fmt.Println(c)\n"
	doc := parse(t, "index", src, nil)
	code := doc.Nodes[0].(*doctree.Code)
	if code.Language != "go" || !code.LineNumbers {
		t.Errorf("unexpected code options %+v", code)
	}
	if !reflect.DeepEqual(code.Highlight, []int{1, 3, 4}) {
		t.Errorf("unexpected highlight %v", code.Highlight)
	}
	if code.Value != "a := 1\nb := 2\nc := a + b\nfmt.Println(c)" {
		t.Errorf("unexpected code %q", code.Value)
	}

	doc = parse(t, "index", ".. code:: php\n\n   echo 1;\n", nil)
	if code := doc.Nodes[0].(*doctree.Code); code.Language != "php" {
		t.Errorf("expected code alias to produce php code, got %+v", code)
	}
}

func TestParseLineRanges(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"", nil, false},
		{"2", []int{2}, false},
		{"1, 4-6", []int{1, 4, 5, 6}, false},
		{"x", nil, true},
		{"5-3", nil, true},
		{"0", nil, true},
	}
	for _, tt := range tests {
		got, err := parseLineRanges(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: expected error=%v, got %v", tt.in, tt.wantErr, err)
			continue
		}
		if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q: expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestRaw(t *testing.T) {
	doc := parse(t, "index", ".. raw:: HTML\n\n   <hr>\n", nil)
	raw := doc.Nodes[0].(*doctree.Raw)
	if raw.Format != "html" || raw.Value != "<hr>" {
		t.Errorf("unexpected raw %+v", raw)
	}
}

func TestImageAndFigure(t *testing.T) {
	src := ".. image:: img/logo.png\n   :alt: Logo\n   :width: 200\n\n.. figure:: img/chart.png\n\n   Monthly totals.\n\n.. image::\n"
	doc := parse(t, "index", src, nil)
	img := doc.Nodes[0].(*doctree.Image)
	if img.URL != "img/logo.png" || img.Alt != "Logo" || img.Width != "200" || img.Caption != nil {
		t.Errorf("unexpected image %+v", img)
	}
	fig := doc.Nodes[1].(*doctree.Image)
	if got := doctree.PlainText(fig.Caption); got != "Monthly totals." {
		t.Errorf("unexpected caption %q", got)
	}
	if _, ok := doc.Nodes[2].(*doctree.DirectivePlaceholder); !ok {
		t.Errorf("expected image without path to degrade, got %T", doc.Nodes[2])
	}
}

func TestCSVTable(t *testing.T) {
	src := ".. csv-table:: Prices\n   :header: \"Item\", \"Cost\"\n\n   Apple, 1\n   \"Pear, green\", 2\n"
	doc := parse(t, "index", src, nil)
	table := doc.Nodes[0].(*doctree.Table)
	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table.Rows))
	}
	if !table.Rows[0].Header || table.Rows[1].Header {
		t.Error("expected only the first row to be a header")
	}
	if got := table.Rows[2].Columns[0].Content; got != "Pear, green" {
		t.Errorf("expected quoted cell, got %q", got)
	}
	if table.Rows[1].Columns[0].Node == nil {
		t.Error("expected cell content to be parsed")
	}
}

func TestCSVTableFromFile(t *testing.T) {
	files := mapFiles{"guide/data.csv": "a;b\nc;d\n"}
	src := ".. csv-table::\n   :file: data.csv\n   :delim: ;\n   :header-rows: 1\n"
	doc := parse(t, "guide/index", src, files)
	table := doc.Nodes[0].(*doctree.Table)
	if len(table.HeaderRows()) != 1 || len(table.BodyRows()) != 1 {
		t.Fatalf("expected 1 header and 1 body row, got %d and %d", len(table.HeaderRows()), len(table.BodyRows()))
	}
	if got := table.BodyRows()[0].String(); got != "c | d" {
		t.Errorf("unexpected body row %q", got)
	}
}

func TestCSVTableColumnMismatchIsStructural(t *testing.T) {
	p := rst.New(NewRegistry(), rst.DefaultConfig(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := p.Parse("index", []byte(".. csv-table::\n\n   a, b\n   c\n"))
	var tableErr *doctree.InvalidTableStructureError
	if !errors.As(err, &tableErr) {
		t.Fatalf("expected InvalidTableStructureError, got %v", err)
	}
}

func TestCSVDelimiter(t *testing.T) {
	if r, err := csvDelimiter("tab"); err != nil || r != '\t' {
		t.Errorf("expected tab, got %q err=%v", r, err)
	}
	if _, err := csvDelimiter(";;"); err == nil {
		t.Error("expected error for multi-character delimiter")
	}
}

type customNote struct{}

func (customNote) Name() string      { return "note" }
func (customNote) Aliases() []string { return nil }
func (customNote) Process(*rst.Context, doctree.Node, rst.Directive) (doctree.Node, error) {
	return &doctree.Raw{Format: "html", Value: "custom"}, nil
}

func TestExtensionOverridesBuiltin(t *testing.T) {
	reg := NewRegistry()
	reg.Register(customNote{}, rst.PriorityExtension)
	p := rst.New(reg, rst.DefaultConfig(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	doc, err := p.Parse("index", []byte(".. note::\n   Hello\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw, ok := doc.Nodes[0].(*doctree.Raw); !ok || raw.Value != "custom" {
		t.Errorf("expected the extension handler to run, got %#v", doc.Nodes[0])
	}
}

func TestBuiltinsRegistered(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"note", "seealso", "toctree", "code", "sourcecode", "csv-table", "figure", "rst-class", "sidebar"} {
		if h, err := reg.Lookup(name); err != nil || h == nil {
			t.Errorf("expected %q to be registered, got %v err=%v", name, h, err)
		}
	}
}
