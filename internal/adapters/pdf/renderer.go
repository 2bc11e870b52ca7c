package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/linktofunnel/storefront/internal/domain"
)

// Renderer writes generated guides into the product file store as PDFs.
type Renderer struct {
	outputDir string
	nowFn     func() time.Time
}

func NewRenderer(outputDir string) (*Renderer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create product files dir: %w", err)
	}
	return &Renderer{outputDir: outputDir, nowFn: time.Now}, nil
}

// RenderGuide writes the guide and returns the stored file name. The name is
// timestamped so re-registering an offer never overwrites a file a live
// download link still points at.
func (r *Renderer) RenderGuide(guide domain.Guide, baseName string) (string, error) {
	fileName := fmt.Sprintf("%s_%s.pdf", sanitizeFileName(baseName), r.nowFn().UTC().Format("20060102150405"))

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetHeaderFunc(func() {
		doc.SetFont("Arial", "B", 16)
		doc.CellFormat(0, 10, "LinktoFunnel - Digital Product", "", 1, "C", false, 0, "")
		doc.Ln(5)
	})
	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont("Arial", "I", 8)
		doc.CellFormat(0, 10, fmt.Sprintf("Page %d", doc.PageNo()), "", 0, "C", false, 0, "")
	})

	doc.AddPage()
	doc.SetFont("Arial", "B", 20)
	doc.MultiCell(0, 10, guide.Title, "", "C", false)
	doc.Ln(8)

	for _, chapter := range guide.Chapters {
		doc.SetFont("Arial", "B", 14)
		doc.SetFillColor(200, 220, 255)
		doc.CellFormat(0, 10, chapter.Title, "", 1, "L", true, 0, "")
		doc.Ln(4)

		doc.SetFont("Arial", "", 11)
		doc.MultiCell(0, 6, chapter.Content, "", "L", false)
		doc.Ln(6)
	}

	path := filepath.Join(r.outputDir, fileName)
	if err := doc.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return fileName, nil
}

var (
	nonWordChars = regexp.MustCompile(`[^\w\s-]`)
	spaceRuns    = regexp.MustCompile(`[-\s]+`)
)

func sanitizeFileName(name string) string {
	name = nonWordChars.ReplaceAllString(name, "")
	name = spaceRuns.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "product"
	}
	return strings.ToLower(name)
}
