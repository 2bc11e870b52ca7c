package pdf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/linktofunnel/storefront/internal/domain"
)

func TestRenderGuideWritesPDF(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	renderer, err := NewRenderer(dir)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	renderer.nowFn = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}

	fileName, err := renderer.RenderGuide(domain.Guide{
		Title: "Launch Guide",
		Chapters: []domain.GuideChapter{
			{Title: "Start", Content: "Do the first thing."},
			{Title: "Finish", Content: "Do the last thing."},
		},
	}, "Launch Guide!")
	if err != nil {
		t.Fatalf("render guide: %v", err)
	}

	if fileName != "launch_guide_20250601120000.pdf" {
		t.Fatalf("unexpected file name: %q", fileName)
	}
	raw, err := os.ReadFile(filepath.Join(dir, fileName))
	if err != nil {
		t.Fatalf("read rendered file: %v", err)
	}
	if !strings.HasPrefix(string(raw), "%PDF") {
		t.Fatalf("output is not a PDF")
	}
}

func TestSanitizeFileName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Launch Guide!":     "launch_guide",
		"  Spaced   Out  ":  "spaced_out",
		"über/speed:guide?": "berspeedguide",
	}
	for in, want := range cases {
		if got := sanitizeFileName(in); got != want {
			t.Fatalf("sanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
