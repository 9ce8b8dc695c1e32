package worker

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	jobmodel "github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/metrics"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	done := job.Done
	job.Done = nil
	defer func() {
		// Record total time at the end
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()

	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, jobTimeout)
	defer cancel()
	log := logger.With("traceId", job.TraceId, "JobId", job.Id)
	log.Debug("Processing job")

	job.Status = jobmodel.JobStatusRunning
	saveJobState(ctx, job)

	if job.JobType == jobmodel.JobTypeIngest {
		job.CurrentStep = jobmodel.IngestProcessing
		job = _ingester.IngestDocument(ctx, job)
		removeUpload(job.JobPayload.IngestPath)
	}
	if job.Status != jobmodel.JobStatusError {
		job.Status = jobmodel.JobStatusComplete
	}

	job.EndTime = time.Now()
	saveJobState(ctx, job)
	log.Info("Job finished", "status", job.Status, "chunks", job.JobPayload.ChunkCount)

	if done != nil {
		// buffered by the submitter, so this never blocks a worker
		select {
		case done <- job:
		default:
			log.Warn("Nobody waiting for job result")
		}
	}
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	count := atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker", "reason", reason, "workerCount", count)
	metrics.DecrementActiveWorkerCount()
}

func removeUpload(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Could not remove uploaded file", "path", path, "err", err)
	}
}

func saveJobState(ctx context.Context, job jobmodel.Job) {
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update job status", "err", err)
	}
}
