package rag

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/domain/storeModel"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/aggregate"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/internal/rag/ingest"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/internal/rag/retrieval"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

/*
ARCHITECTURE NOTE: OPAQUE INTERFACE PATTERN
---------------------------------------------------------

1. Service (Interface):
  - This is the PUBLIC contract used by the worker, the HTTP handlers,
    the MCP tools and the CLI.
  - None of them need to know which vector store, embedder or LLM is behind it.

2. service (Private Struct):
  - This is the PRIVATE implementation.
  - It holds the ingestion coordinator, the retrieval assembler, the
    aggregator and the generation provider.

3. Dependency Injection (NewService):
  - Adapters are handed in through Dependencies so tests can swap
    real stores and providers for mocks without touching callers.
*/

// Service is everything the outer layers may ask of the pipeline.
type Service interface {
	Ingest(ctx context.Context, doc commonModels.Document) (commonModels.IngestionReport, error)
	IngestFile(ctx context.Context, path string, fileName string, documentId string) (commonModels.IngestionReport, commonModels.ParsedDocument, error)
	// IngestDocument is the worker entry point for queued upload jobs.
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
	ParseFile(ctx context.Context, path string, fileName string) (commonModels.ParsedDocument, error)
	Search(ctx context.Context, query string, documentId string, limit int) ([]commonModels.SearchResult, error)
	Answer(ctx context.Context, query string, documentId string, limit int) (commonModels.Answer, error)
	Aggregate(ctx context.Context, req aggregate.Request) (aggregate.Result, error)
}

type Dependencies struct {
	Store    vectorDB.DocumentStore
	Records  storeModel.RecordStore
	Locker   storeModel.DocumentLocker
	Embedder embedding.Embedder
	LLM      llm.Provider
	Parser   ingest.Parser
}

type Options struct {
	Ingest            ingest.Options
	Retrieval         retrieval.Options
	MaxTokens         int
	GenerationTimeout time.Duration
}

type service struct {
	ingester    *ingest.Coordinator
	parser      ingest.Parser
	retriever   *retrieval.Assembler
	aggregator  *aggregate.Aggregator
	llmProvider llm.Provider
	opts        Options
	logger      *logger_i.Logger
}

// NewService constructor
func NewService(deps Dependencies, opts Options) Service {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1000
	}
	return &service{
		ingester:    ingest.NewCoordinator(deps.Store, deps.Records, deps.Locker, deps.Embedder, deps.Parser, opts.Ingest),
		parser:      deps.Parser,
		retriever:   retrieval.NewAssembler(deps.Store, opts.Retrieval),
		aggregator:  aggregate.NewAggregator(deps.Records),
		llmProvider: deps.LLM,
		opts:        opts,
		logger:      logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) Ingest(ctx context.Context, doc commonModels.Document) (commonModels.IngestionReport, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()
	return s.ingester.Ingest(ctx, doc)
}

func (s *service) IngestFile(ctx context.Context, path string, fileName string, documentId string) (commonModels.IngestionReport, commonModels.ParsedDocument, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()
	return s.ingester.IngestFile(ctx, path, fileName, documentId)
}

func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.logger.WithTrace(ctx).With("JobId", job.Id)
	job = logOutput(job, jobModel.IngestProcessing, log)

	report, parsed, err := s.IngestFile(ctx, job.JobPayload.IngestPath, job.JobPayload.IngestFileName, job.JobPayload.DocumentId)
	job.JobPayload.Format = parsed.Format
	job.JobPayload.Metadata = parsed.Metadata
	if err != nil {
		return s.jobError(job, err, "INGESTION_FAILURE")
	}

	job.JobPayload.DocumentId = report.DocumentId
	job.JobPayload.ChunkCount = report.ChunkCount
	job.Status = jobModel.JobStatusComplete
	return logOutput(job, jobModel.Complete, log)
}

func (s *service) ParseFile(ctx context.Context, path string, fileName string) (commonModels.ParsedDocument, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_parsing", time.Since(start)) }()
	return s.parser.Parse(ctx, path, fileName)
}

func (s *service) Search(ctx context.Context, query string, documentId string, limit int) ([]commonModels.SearchResult, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("hybrid_search", time.Since(start)) }()
	return s.retriever.Search(ctx, query, documentId, limit)
}

// Answer retrieves context and generates a grounded answer. An empty retrieval, or a
// window left empty by the budget, is reported as NoResults without calling the model.
func (s *service) Answer(ctx context.Context, query string, documentId string, limit int) (commonModels.Answer, error) {
	log := s.logger.WithTrace(ctx).With("document_id", documentId)
	answer := commonModels.Answer{Query: query, Context: []commonModels.SearchResult{}}

	window, err := s.executeRetrievalStep(ctx, query, documentId, limit)
	if errors.Is(err, ragErrors.ErrNoResultsFound) {
		log.Info("No context found, skipping generation")
		answer.NoResults = true
		return answer, nil
	}
	if err != nil {
		return answer, err
	}
	if len(window.Results) == 0 {
		log.Warn("Every retrieved chunk exceeds the context budget, skipping generation", "budget", window.Budget)
		answer.NoResults = true
		return answer, nil
	}
	answer.Context = window.Results

	text, err := s.executeLLMStep(ctx, query, window)
	if err != nil {
		log.Error("Generation failed", "error", err)
		return answer, ragErrors.FromExternal(ragErrors.KindAdapterUnavailable, "answer.generate", documentId, err)
	}
	answer.Answer = text
	return answer, nil
}

func (s *service) Aggregate(ctx context.Context, req aggregate.Request) (aggregate.Result, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("aggregation", time.Since(start)) }()
	return s.aggregator.Aggregate(ctx, req)
}
