package reference

import (
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/meta"
)

func testMetas() *meta.Metas {
	m := meta.New()
	m.Set(&meta.Entry{
		File:  "guide/setup",
		URL:   "guide/setup.html",
		Title: "Setup",
		Titles: []*meta.TitleNode{
			{Title: "Installing", ID: "install-guide", Level: 1},
		},
		Links: map[string]string{"install-guide": "#install-guide", "go": "https://go.dev"},
	})
	m.Set(&meta.Entry{
		File:  "install",
		URL:   "install.html",
		Title: "Install Guide",
		Titles: []*meta.TitleNode{
			{Title: "Install Guide", ID: "install-guide", Level: 1, Children: []*meta.TitleNode{
				{Title: "Requirements", ID: "requirements", Level: 2},
			}},
		},
	})
	m.Set(&meta.Entry{
		File:    "index",
		URL:     "index.html",
		Title:   "Home",
		Depends: []string{"UNRESOLVED__ref__install-guide", "UNRESOLVED__ref__nowhere", "install"},
	})
	return m
}

func newTestResolver(m *meta.Metas) *Resolver {
	return New(m, "api", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRef_DeclaredLinkBeatsTitle(t *testing.T) {
	r := newTestResolver(testMetas())
	ctx := Context{File: "index"}

	res := r.Resolve(ctx, &doctree.Reference{Role: "ref", Target: "install-guide"})
	if res.Invalid {
		t.Fatal("expected install-guide to resolve")
	}
	if res.File != "guide/setup" || res.URL != "guide/setup.html#install-guide" || res.Title != "Installing" {
		t.Errorf("expected declared link target, got %+v", res)
	}

	res = r.Resolve(ctx, &doctree.Reference{Role: "ref", Target: "Install Guide"})
	if res.File != "install" || res.URL != "install.html" || res.Title != "Install Guide" {
		t.Errorf("expected title fallback, got %+v", res)
	}
}

func TestRef_CurrentDocumentLinksFirst(t *testing.T) {
	r := newTestResolver(testMetas())
	ctx := Context{File: "index", Links: map[string]string{"install-guide": "https://example.com/install"}}

	res := r.Resolve(ctx, &doctree.Reference{Role: "ref", Target: "install-guide", Text: "Installing"})
	if res.URL != "https://example.com/install" || res.File != "" || res.Title != "Installing" {
		t.Errorf("expected local link, got %+v", res)
	}
}

func TestRef_SectionTitle(t *testing.T) {
	r := newTestResolver(testMetas())
	res := r.Resolve(Context{File: "index"}, &doctree.Reference{Role: "ref", Target: "requirements"})
	if res.URL != "install.html#requirements" || res.Title != "Requirements" {
		t.Errorf("expected section target, got %+v", res)
	}
}

func TestRef_Invalid(t *testing.T) {
	r := newTestResolver(testMetas())
	res := r.Resolve(Context{File: "index"}, &doctree.Reference{Role: "ref", Target: "nowhere"})
	if !res.Invalid {
		t.Fatalf("expected invalid reference, got %+v", res)
	}
	if res.Text() != "nowhere" {
		t.Errorf("expected text nowhere, got %q", res.Text())
	}

	res = r.Resolve(Context{File: "index"}, &doctree.Reference{Role: "unknown", Target: "x", Text: "shown"})
	if !res.Invalid || res.Text() != "shown" {
		t.Errorf("expected invalid reference with text, got %+v", res)
	}
}

func TestDoc(t *testing.T) {
	r := newTestResolver(testMetas())
	ctx := Context{File: "guide/setup"}

	tests := []struct {
		ref   doctree.Reference
		url   string
		title string
	}{
		{doctree.Reference{Role: "doc", Target: "../install"}, "install.html", "Install Guide"},
		{doctree.Reference{Role: "doc", Target: "/install", Anchor: "Requirements"}, "install.html#requirements", "Requirements"},
		{doctree.Reference{Role: "doc", Target: "/install", Text: "here"}, "install.html", "here"},
		{doctree.Reference{Role: "doc", Target: "/install", Anchor: "Missing Section"}, "install.html#missing-section", "Install Guide"},
	}
	for _, tt := range tests {
		res := r.Resolve(ctx, &tt.ref)
		if res.Invalid || res.File != "install" || res.URL != tt.url || res.Title != tt.title {
			t.Errorf("%+v: expected %s %q, got %+v", tt.ref, tt.url, tt.title, res)
		}
	}

	res := r.Resolve(ctx, &doctree.Reference{Role: "doc", Target: "missing"})
	if !res.Invalid || res.Text() != "missing" {
		t.Errorf("expected invalid doc reference, got %+v", res)
	}
}

func TestAPIRoles(t *testing.T) {
	r := newTestResolver(meta.New())

	tests := []struct {
		role, target, url string
	}{
		{"class", `App\Kernel`, "api/classes/App-Kernel.html"},
		{"php:class", `\App\Kernel`, "api/classes/App-Kernel.html"},
		{"method", `App\Kernel::boot()`, "api/classes/App-Kernel.html#method_boot"},
		{"php:method", `App\Kernel::boot`, "api/classes/App-Kernel.html#method_boot"},
		{"property", `App\Kernel::$env`, "api/classes/App-Kernel.html#property_env"},
		{"const", `App\Kernel::VERSION`, "api/classes/App-Kernel.html#constant_VERSION"},
		{"namespace", `App\Http`, "api/namespaces/app-http.html"},
	}
	for _, tt := range tests {
		res := r.Resolve(Context{}, &doctree.Reference{Role: tt.role, Target: tt.target})
		if res.Invalid || res.URL != tt.url {
			t.Errorf("%s %s: expected %s, got %+v", tt.role, tt.target, tt.url, res)
		}
	}

	res := r.Resolve(Context{}, &doctree.Reference{Role: "method", Target: `App\Kernel`})
	if !res.Invalid {
		t.Errorf("expected method without member to be invalid, got %+v", res)
	}
}

func TestResolveDependencies(t *testing.T) {
	m := testMetas()
	r := newTestResolver(m)

	r.ResolveDependencies()
	r.ResolveDependencies()

	e, _ := m.Get("index")
	expected := []string{"guide/setup", "UNRESOLVED__ref__nowhere", "install"}
	if !reflect.DeepEqual(e.Depends, expected) {
		t.Errorf("expected %v, got %v", expected, e.Depends)
	}
}
