package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Kind    string `json:"kind,omitempty" example:"INVALID_DOCUMENT"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type Result struct {
	Status    string          `json:"status"`
	Step      string          `json:"step,omitempty"`
	Ingestion *IngestResponse `json:"ingestion,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type ErrorResponse struct {
	Error JobOutgoingError `json:"error"`
}

type HealthResponse struct {
	Message    string `json:"message" example:"RAG service is running"`
	QueuedJobs int    `json:"queued_jobs" example:"0"`
}

// responses---------------------

type IngestResponse struct {
	DocumentId string         `json:"document_id" example:"report_20240102150405"`
	Format     string         `json:"format" example:"pdf"`
	Metadata   map[string]any `json:"metadata"`
	ChunkCount int            `json:"chunk_count" example:"12"`
}

type ParseResponse struct {
	FileName string         `json:"filename" example:"report.pdf"`
	Format   string         `json:"format" example:"pdf"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

type SearchResult struct {
	DocumentId   string         `json:"document_id"`
	ChunkIndex   int            `json:"chunk_index"`
	Content      string         `json:"content"`
	Score        float64        `json:"score"`
	VectorScore  float64        `json:"vector_score"`
	LexicalScore float64        `json:"lexical_score"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type SearchResponse struct {
	Query     string         `json:"query"`
	Results   []SearchResult `json:"results"`
	NoResults bool           `json:"no_results"`
}

type AnswerResponse struct {
	Query     string         `json:"query"`
	Answer    string         `json:"answer"`
	Context   []SearchResult `json:"context"`
	NoResults bool           `json:"no_results"`
}

type AggregateResponse struct {
	Result     float64 `json:"result" example:"40"`
	Count      int     `json:"count" example:"2"`
	Operation  string  `json:"operation" example:"sum"`
	Field      string  `json:"field" example:"price"`
	DocumentId string  `json:"document_id" example:"all"`
}

// requests---------------------

type AnswerRequest struct {
	Query      string `json:"query" validate:"required"`
	DocumentId string `json:"document_id,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

type AggregateRequest struct {
	DocumentId string         `json:"document_id,omitempty"`
	Field      string         `json:"field" validate:"required"`
	Operation  string         `json:"operation" validate:"required" enums:"max,min,sum,average,median,count"`
	Filter     map[string]any `json:"filter,omitempty"`
}
