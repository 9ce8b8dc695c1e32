package commonModels

import (
	"encoding/json"
	"time"
)

// Document is the unit of ingestion. Records is only set for structured (JSON) sources.
type Document struct {
	Id       string            `json:"document_id"`
	RawText  string            `json:"raw_text"`
	Metadata Metadata          `json:"metadata"`
	Records  []json.RawMessage `json:"records,omitempty"`
}

// DocChunk is immutable once created. Id is derived from DocumentId and ChunkIndex.
type DocChunk struct {
	Id         string    `json:"chunk_id"`
	DocumentId string    `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"content"`
	CharStart  int       `json:"char_start"`
	CharEnd    int       `json:"char_end"`
	Embedding  []float32 `json:"-"`
	Metadata   Metadata  `json:"metadata"`
	IngestedAt time.Time `json:"ingested_at"`
}

type SearchResult struct {
	Chunk        DocChunk `json:"chunk"`
	Score        float64  `json:"score"`
	VectorScore  float64  `json:"vector_score"`
	LexicalScore float64  `json:"lexical_score"`
}

// ContextWindow is built per request and never persisted.
type ContextWindow struct {
	Query     string         `json:"query"`
	Results   []SearchResult `json:"results"`
	UsedChars int            `json:"used_chars"`
	Budget    int            `json:"budget"`
	Truncated bool           `json:"truncated"`
	Dropped   int            `json:"dropped"`
}

type IngestionReport struct {
	DocumentId string    `json:"document_id"`
	ChunkCount int       `json:"chunk_count"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Record is one structured JSON record kept for aggregation.
type Record struct {
	DocumentId string          `json:"document_id"`
	Data       json.RawMessage `json:"data"`
}

// ParsedDocument is what a format parser hands to the ingestion path.
type ParsedDocument struct {
	FileName string            `json:"filename"`
	Format   DocType           `json:"format"`
	Text     string            `json:"content"`
	Metadata Metadata          `json:"metadata"`
	Records  []json.RawMessage `json:"-"`
}

type Answer struct {
	Query     string         `json:"query"`
	Answer    string         `json:"answer"`
	Context   []SearchResult `json:"context"`
	NoResults bool           `json:"no_results"`
}

type DocType string

var PDF DocType = "pdf"
var DOCX DocType = "docx"
var JSON DocType = "json"
var TXT DocType = "txt"
var ERR DocType = "error"
