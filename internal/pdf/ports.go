package pdf

import "context"

type Renderer interface {
	// RenderTextFile — текстовый артефакт → PDF по указанному пути.
	RenderTextFile(ctx context.Context, txtPath, pdfPath string) error
}
