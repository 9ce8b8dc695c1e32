package rag

import (
	"context"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/retrieval"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("IngestDocument", "Current Status", job.CurrentStep)
	return job
}

func (s *service) jobError(job jobModel.Job, err error, message string) jobModel.Job {
	s.logger.Error(message, "error", err, "JobId", job.Id)

	job.Error = jobModel.JobError{
		Code:    ragErrors.HTTPStatus(err),
		Kind:    string(ragErrors.KindOf(err)),
		Message: ragErrors.PublicMessage(err),
		Retry:   ragErrors.Retryable(err),
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	return job
}

func (s *service) executeRetrievalStep(ctx context.Context, query string, documentId string, limit int) (commonModels.ContextWindow, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("retrieval", time.Since(start)) }()

	return s.retriever.Retrieve(ctx, query, documentId, limit)
}

func (s *service) executeLLMStep(ctx context.Context, query string, window commonModels.ContextWindow) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	if s.opts.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.GenerationTimeout)
		defer cancel()
	}
	return s.llmProvider.Generate(ctx, query, retrieval.FormatContext(window), s.opts.MaxTokens)
}
