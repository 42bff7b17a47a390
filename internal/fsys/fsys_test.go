package fsys

import (
	"reflect"
	"testing"
)

func TestWriteReadHas(t *testing.T) {
	f := NewMemory()
	if err := f.Write("guide/index.html", []byte("<p>hi</p>")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Has("guide/index.html") || !f.Has("/guide/index.html") {
		t.Error("expected file to exist with and without leading slash")
	}
	data, err := f.Read("guide/index.html")
	if err != nil || string(data) != "<p>hi</p>" {
		t.Errorf("unexpected read %q err=%v", data, err)
	}
	if _, err := f.Read("missing.html"); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := f.ModTime("guide/index.html"); err != nil {
		t.Errorf("unexpected ModTime error: %v", err)
	}
	if err := f.Remove("guide/index.html"); err != nil || f.Has("guide/index.html") {
		t.Errorf("expected file removed, err=%v", err)
	}
	if err := f.Remove("guide/index.html"); err != nil {
		t.Errorf("expected removing a missing file to succeed, got %v", err)
	}
}

func TestFind(t *testing.T) {
	f := NewMemory()
	for _, p := range []string{
		"index.rst", "guide/install.rst", "guide/usage.md", "guide/img/logo.png",
		"build/index.rst", ".git/config.rst", "notes.txt",
	} {
		if err := f.Write(p, []byte("x")); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	got, err := f.Find(FindSpec{Extensions: []string{".rst", ".md", ".txt"}, Exclude: []string{"build"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"guide/install.rst", "guide/usage.md", "index.rst", "notes.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	got, err = f.Find(FindSpec{Dir: "guide"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = []string{"guide/img/logo.png", "guide/install.rst", "guide/usage.md"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if got, err := f.Find(FindSpec{Dir: "nope"}); err != nil || got != nil {
		t.Errorf("expected no files for a missing dir, got %v err=%v", got, err)
	}
}
