package parser

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/gabriel-vasile/mimetype"
)

// Parser turns uploaded files into text plus metadata. ocr may be nil, scanned PDFs
// then keep whatever text the PDF layer produced.
type Parser struct {
	ocr         llm.OCR
	ocrTimeout  time.Duration
	pageTimeout time.Duration
	logger      *logger_i.Logger
}

func NewParser(ocr llm.OCR, ocrTimeout time.Duration) *Parser {
	return &Parser{
		ocr:         ocr,
		ocrTimeout:  ocrTimeout,
		pageTimeout: 10 * time.Second,
		logger:      logger_i.NewLogger("parser"),
	}
}

// Parse reads the file at path. fileName is the name the client uploaded it under and
// decides the format; path is where it sits on disk.
func (p *Parser) Parse(ctx context.Context, path string, fileName string) (commonModels.ParsedDocument, error) {
	log := p.logger.WithTrace(ctx).With("filename", fileName)
	if fileName == "" {
		fileName = filepath.Base(path)
	}

	docType := DetectFormat(path, fileName)
	log.Debug("Parsing document", "type", docType)

	var doc commonModels.ParsedDocument
	var err error
	switch docType {
	case commonModels.PDF:
		doc, err = p.parsePDF(ctx, path)
	case commonModels.DOCX:
		doc, err = parseWordProcessor(path)
	case commonModels.JSON:
		doc, err = parseJSON(path)
	case commonModels.TXT:
		doc, err = parseText(path)
	default:
		return commonModels.ParsedDocument{}, ragErrors.Newf(ragErrors.KindInvalidDocument, "parse", "",
			"unsupported file format: %s", filepath.Ext(fileName))
	}
	if err != nil {
		log.Error("Error parsing document", "error", err)
		return commonModels.ParsedDocument{}, err
	}

	doc.FileName = filepath.Base(fileName)
	doc.Format = docType
	if doc.Metadata == nil {
		doc.Metadata = commonModels.Metadata{}
	}
	doc.Metadata["filename"] = commonModels.String(doc.FileName)
	if _, ok := doc.Metadata["format"]; !ok {
		doc.Metadata["format"] = commonModels.String(string(docType))
	}
	return doc, nil
}

// DetectFormat goes by extension and sniffs the content when the extension is unknown.
func DetectFormat(path string, fileName string) commonModels.DocType {
	if t := formatFromExtension(filepath.Ext(fileName)); t != commonModels.ERR {
		return t
	}
	if path == "" {
		return commonModels.ERR
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return commonModels.ERR
	}
	return formatFromExtension(mtype.Extension())
}

func formatFromExtension(ext string) commonModels.DocType {
	switch strings.ToLower(ext) {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".rtf", ".odt":
		return commonModels.DOCX
	case ".json":
		return commonModels.JSON
	case ".txt", ".md", ".text":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}

func invalid(err error) error {
	return ragErrors.New(ragErrors.KindInvalidDocument, "parse", "", err)
}

func defaultTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return config.GenerationTimeout
	}
	return d
}
