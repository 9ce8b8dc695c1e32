package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetDocType(t *testing.T) {
	tests := []struct {
		path     string
		expected commonModels.DocType
	}{
		{"test.pdf", commonModels.PDF},
		{"DOC.DOCX", commonModels.DOCX},
		{"letter.rtf", commonModels.DOCX},
		{"notes.txt", commonModels.TXT},
		{"README.md", commonModels.TXT},
		{"orders.JSON", commonModels.JSON},
		{"image.png", commonModels.ERR},
	}

	for _, tt := range tests {
		if got := formatFromExtension(filepath.Ext(tt.path)); got != tt.expected {
			t.Errorf("formatFromExtension(%s) = %v; want %v", tt.path, got, tt.expected)
		}
	}
}

func TestDetectFormat_SniffsUnknownExtension(t *testing.T) {
	path := writeFile(t, "upload.bin", `{"title":"Sniffed","items":[1,2,3]}`)
	assert.Equal(t, commonModels.JSON, DetectFormat(path, "upload.bin"))
}

func TestParse_Text(t *testing.T) {
	p := NewParser(nil, time.Second)
	path := writeFile(t, "tmp-123", "  Hello world.\nSecond line.  \n")

	doc, err := p.Parse(context.Background(), path, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "Hello world.\nSecond line.", doc.Text)
	assert.Equal(t, commonModels.TXT, doc.Format)
	assert.Equal(t, "notes.txt", doc.FileName)

	name, _ := doc.Metadata["filename"].AsString()
	assert.Equal(t, "notes.txt", name)
	size, _ := doc.Metadata["size_bytes"].AsNumber()
	assert.Equal(t, 30.0, size)
	assert.Empty(t, doc.Records)
}

func TestParse_JSONArrayKeepsRecords(t *testing.T) {
	p := NewParser(nil, time.Second)
	path := writeFile(t, "orders.json", `[{"price":10,"category":"a"},{"price":20,"category":"b"}]`)

	doc, err := p.Parse(context.Background(), path, "orders.json")
	require.NoError(t, err)
	assert.Equal(t, commonModels.JSON, doc.Format)
	require.Len(t, doc.Records, 2)
	assert.JSONEq(t, `{"price":20,"category":"b"}`, string(doc.Records[1]))
	assert.Contains(t, doc.Text, "\n  {\n    \"price\": 10")
}

func TestParse_JSONObjectMetadata(t *testing.T) {
	p := NewParser(nil, time.Second)
	path := writeFile(t, "report.json", `{"title":"Q3 report","author":"Finance","metadata":{"year":2024},"rows":[{"v":1}]}`)

	doc, err := p.Parse(context.Background(), path, "report.json")
	require.NoError(t, err)

	title, ok := doc.Metadata["title"].AsString()
	assert.True(t, ok)
	assert.Equal(t, "Q3 report", title)
	author, _ := doc.Metadata["author"].AsString()
	assert.Equal(t, "Finance", author)
	docMeta, _ := doc.Metadata["document_metadata"].AsString()
	assert.JSONEq(t, `{"year":2024}`, docMeta)

	require.Len(t, doc.Records, 1)
}

func TestParse_InvalidJSON(t *testing.T) {
	p := NewParser(nil, time.Second)
	path := writeFile(t, "broken.json", `{"title": `)

	_, err := p.Parse(context.Background(), path, "broken.json")
	assert.ErrorIs(t, err, ragErrors.ErrInvalidDocument)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	p := NewParser(nil, time.Second)
	path := writeFile(t, "image.png", "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	_, err := p.Parse(context.Background(), path, "image.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ragErrors.ErrInvalidDocument)
}

func TestParse_MissingPDF(t *testing.T) {
	p := NewParser(nil, time.Second)

	_, err := p.Parse(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), "nope.pdf")
	assert.ErrorIs(t, err, ragErrors.ErrInvalidDocument)
}
