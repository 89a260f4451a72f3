package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type failingRenderer struct{}

func (failingRenderer) Name() string { return "broken" }
func (failingRenderer) Ext() string  { return "bin" }
func (failingRenderer) Render(ctx context.Context, model Model) ([]byte, error) {
	return nil, errors.New("render blew up")
}

func TestGenerateWritesAllFormats(t *testing.T) {
	dir := t.TempDir()
	service := NewService(dir,
		MarkdownRenderer{},
		ExcelRenderer{},
		PdfRenderer{},
		DashboardRenderer{},
	)

	club, summary := sampleClub()
	outputs, err := service.Generate(context.Background(), club, summary)
	require.NoError(t, err)
	require.Len(t, outputs, 4)

	for _, output := range outputs {
		require.Equal(t, dir, filepath.Dir(output.Path))
		content, err := os.ReadFile(output.Path)
		require.NoError(t, err)
		require.NotEmpty(t, content)
	}
}

func TestGenerateDeterministicFilenames(t *testing.T) {
	dir := t.TempDir()
	service := NewService(dir, MarkdownRenderer{})

	club, summary := sampleClub()
	outputs, err := service.Generate(context.Background(), club, summary)
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	require.Equal(t,
		"downtown_speakers_2024-09-01_report.md",
		filepath.Base(outputs[0].Path))
}

func TestGenerateIsolatesRendererFailures(t *testing.T) {
	dir := t.TempDir()
	service := NewService(dir, failingRenderer{}, MarkdownRenderer{})

	club, summary := sampleClub()
	outputs, err := service.Generate(context.Background(), club, summary)

	// the markdown report still got written
	require.Len(t, outputs, 1)
	require.Equal(t, "markdown", outputs[0].Renderer)

	require.Error(t, err)
	require.Contains(t, err.Error(), "render blew up")
}

func TestMarkdownContent(t *testing.T) {
	club, summary := sampleClub()
	model := Build(club, summary, "run-1")

	content, err := MarkdownRenderer{}.Render(context.Background(), model)
	require.NoError(t, err)

	text := string(content)
	require.Contains(t, text, "# Downtown Speakers Club Report")
	require.Contains(t, text, "Presentation Mastery")
	require.Contains(t, text, "35.7%")
	require.Contains(t, text, "Managing Time")
	require.Contains(t, text, "incomplete")
}

func TestDashboardContent(t *testing.T) {
	club, summary := sampleClub()
	model := Build(club, summary, "run-1")

	content, err := DashboardRenderer{}.Render(context.Background(), model)
	require.NoError(t, err)

	text := string(content)
	require.True(t, strings.HasPrefix(text, "<!doctype html>"))
	require.Contains(t, text, "<details>")
	require.Contains(t, text, "Alice Ng")
	require.Contains(t, text, "Pathway Distribution")
}

func TestExcelAndPdfRender(t *testing.T) {
	club, summary := sampleClub()
	model := Build(club, summary, "run-1")

	book, err := ExcelRenderer{}.Render(context.Background(), model)
	require.NoError(t, err)
	require.NotEmpty(t, book)

	doc, err := PdfRenderer{}.Render(context.Background(), model)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(doc), "%PDF"))
}
