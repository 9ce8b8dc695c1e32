package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

func (p *Parser) parsePDF(ctx context.Context, path string) (commonModels.ParsedDocument, error) {
	log := p.logger.WithTrace(ctx)
	f, err := pdf.Open(path)
	if err != nil {
		return commonModels.ParsedDocument{}, invalid(fmt.Errorf("failed to open pdf: %w", err))
	}

	numPages := f.NumPage()
	var text strings.Builder
	problematic := []any{}
	scanned := true
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			problematic = append(problematic, i)
			continue
		}

		content, err := p.protectExtract(ctx, page)
		if err != nil {
			log.Warn("Error parsing page content", "page", i, "error", err)
			problematic = append(problematic, i)
			continue
		}
		content = strings.TrimSpace(content)
		if utf8.RuneCountInString(content) > config.ScannedPDFThreshold {
			scanned = false
		}
		text.WriteString(content)
		text.WriteString("\n")
	}

	metadata := pdfInfo(f)
	metadata["format"] = commonModels.String("pdf")
	metadata["pages"] = commonModels.Int(numPages)
	problems, _ := commonModels.FromAny(problematic)
	metadata["problematic_pages"] = problems
	metadata["is_scanned_pdf"] = commonModels.Bool(scanned)

	extracted := strings.TrimSpace(text.String())
	if (scanned || utf8.RuneCountInString(extracted) < config.ScannedPDFThreshold) && numPages > 0 && p.ocr != nil {
		if ocrText, err := p.runOCR(ctx, path); err != nil {
			log.Warn("OCR fallback failed, keeping text layer", "error", err)
		} else if strings.TrimSpace(ocrText) != "" {
			extracted = strings.TrimSpace(ocrText)
			metadata["ocr"] = commonModels.Bool(true)
		}
	}

	return commonModels.ParsedDocument{Text: extracted, Metadata: metadata}, nil
}

// pdfInfo copies the document information dictionary, keys lower-cased.
func pdfInfo(f *pdf.Reader) commonModels.Metadata {
	metadata := commonModels.Metadata{}
	info := f.Trailer().Key("Info")
	if info.IsNull() {
		return metadata
	}
	for _, key := range info.Keys() {
		value := strings.TrimSpace(info.Key(key).Text())
		if value != "" {
			metadata[strings.ToLower(key)] = commonModels.String(value)
		}
	}
	return metadata
}

func (p *Parser) runOCR(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout(p.ocrTimeout))
	defer cancel()
	return p.ocr.ExtractText(ctx, data, "application/pdf")
}

// GetPlainText can spin on malformed content streams, so each page gets a deadline.
func (p *Parser) protectExtract(ctx context.Context, page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{"", fmt.Errorf("page extraction panicked: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(p.pageTimeout):
		return "", errors.New("page extraction timed out")
	}
}

// parseWordProcessor reads .docx, .rtf and .odt files.
func parseWordProcessor(path string) (commonModels.ParsedDocument, error) {
	text, err := cat.File(path)
	if err != nil {
		return commonModels.ParsedDocument{}, invalid(fmt.Errorf("failed to extract document text: %w", err))
	}
	paragraphs := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			paragraphs++
		}
	}
	return commonModels.ParsedDocument{
		Text: strings.TrimSpace(text),
		Metadata: commonModels.Metadata{
			"format":     commonModels.String("docx"),
			"paragraphs": commonModels.Int(paragraphs),
		},
	}, nil
}

// parseJSON pretty-prints the document for retrieval and keeps its records for aggregation:
// the elements of a top-level array, or the object itself.
func parseJSON(path string) (commonModels.ParsedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return commonModels.ParsedDocument{}, invalid(err)
	}
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return commonModels.ParsedDocument{}, invalid(errors.New("file is not valid JSON"))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return commonModels.ParsedDocument{}, invalid(err)
	}

	metadata := commonModels.Metadata{"format": commonModels.String("json")}
	var records []json.RawMessage

	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &records); err != nil {
			return commonModels.ParsedDocument{}, invalid(err)
		}
	case '{':
		records = []json.RawMessage{json.RawMessage(data)}

		var top map[string]json.RawMessage
		if err := json.Unmarshal(data, &top); err != nil {
			return commonModels.ParsedDocument{}, invalid(err)
		}
		for _, key := range []string{"title", "author"} {
			if raw, ok := top[key]; ok {
				var v commonModels.MetaValue
				if err := json.Unmarshal(raw, &v); err == nil {
					metadata[key] = v
				}
			}
		}
		if raw, ok := top["metadata"]; ok {
			metadata["document_metadata"] = commonModels.String(string(raw))
		}
	}

	return commonModels.ParsedDocument{
		Text:     pretty.String(),
		Metadata: metadata,
		Records:  records,
	}, nil
}

func parseText(path string) (commonModels.ParsedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return commonModels.ParsedDocument{}, invalid(err)
	}
	if !utf8.Valid(data) {
		return commonModels.ParsedDocument{}, invalid(errors.New("text file is not valid UTF-8"))
	}
	return commonModels.ParsedDocument{
		Text: strings.TrimSpace(string(data)),
		Metadata: commonModels.Metadata{
			"format":     commonModels.String("txt"),
			"size_bytes": commonModels.Int(len(data)),
		},
	}, nil
}
