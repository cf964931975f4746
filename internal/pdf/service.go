package pdf

import "context"

type Service struct {
	renderer Renderer
}

func NewService(r Renderer) *Service {
	return &Service{renderer: r}
}

func (s *Service) Render(ctx context.Context, txtPath, pdfPath string) error {
	return s.renderer.RenderTextFile(ctx, txtPath, pdfPath)
}
