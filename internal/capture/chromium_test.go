package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestPagePNGValidatesOptions(t *testing.T) {
	ctx := context.Background()
	if err := PagePNG(ctx, Options{OutputPath: "x.png"}); err == nil {
		t.Error("missing URL accepted")
	}
	if err := PagePNG(ctx, Options{URL: "http://127.0.0.1/"}); err == nil {
		t.Error("missing output path accepted")
	}
}

func TestNormalizeDefaults(t *testing.T) {
	o := Options{URL: "http://127.0.0.1/", OutputPath: "out.png"}
	if err := o.normalize(); err != nil {
		t.Fatal(err)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight || o.Timeout != DefaultTimeout {
		t.Errorf("defaults not applied: %+v", o)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "preview.png")
	if err := writeFileAtomic(path, []byte("one")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := writeFileAtomic(path, []byte("two")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "two" {
		t.Errorf("content = %q, %v", got, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}
