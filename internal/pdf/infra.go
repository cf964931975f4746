package pdf

import (
	"context"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"
)

type GofpdfRenderer struct{}

func NewGofpdfRenderer() *GofpdfRenderer {
	return &GofpdfRenderer{}
}

func (r *GofpdfRenderer) RenderTextFile(ctx context.Context, txtPath, pdfPath string) error {
	content, err := os.ReadFile(txtPath)
	if err != nil {
		return fmt.Errorf("read text artifact: %w", err)
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetHeaderFunc(func() {
		doc.SetFont("Arial", "B", 15)
		doc.CellFormat(0, 10, "Transcribed Text", "", 1, "C", false, 0, "")
		doc.Ln(10)
	})
	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont("Arial", "I", 8)
		doc.CellFormat(0, 10, fmt.Sprintf("Page %d", doc.PageNo()), "", 0, "C", false, 0, "")
	})

	doc.AddPage()
	doc.SetFont("Arial", "", 12)
	doc.MultiCell(0, 10, tr(string(content)), "", "", false)
	doc.Ln(-1)

	if err := doc.OutputFileAndClose(pdfPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
