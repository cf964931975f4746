package pdf

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTextFile(t *testing.T) {
	dir := t.TempDir()
	txtPath := filepath.Join(dir, "note.txt")
	pdfPath := filepath.Join(dir, "note.pdf")
	require.NoError(t, os.WriteFile(txtPath, []byte("hello\nworld"), 0o644))

	svc := NewService(NewGofpdfRenderer())
	require.NoError(t, svc.Render(context.Background(), txtPath, pdfPath))

	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
	assert.NotEmpty(t, data)
}

func TestRenderMissingSource(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(NewGofpdfRenderer())

	err := svc.Render(context.Background(), filepath.Join(dir, "absent.txt"), filepath.Join(dir, "out.pdf"))
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "out.pdf"))
	assert.True(t, os.IsNotExist(statErr), "no partial pdf on failure")
}
