package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/job"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
)

type JobHandler struct {
	service *job.Service
}

func InitJobHandler(jobService *job.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})
}

// CreateNewJob queues an ingestion job. When wait is set the returned channel receives
// the finished job.
func CreateNewJob(newJob newJobData) <-chan jobModel.Job {
	log := logJH.With("traceId", newJob.traceId, "job id", newJob.id)
	log.Info("To create new job")
	return handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) <-chan jobModel.Job {
	_job := jobModel.Job{}
	_job.Id = newJob.id
	_job.CreatedTime = time.Now()
	_job.TraceId = newJob.traceId
	_job.Status = jobModel.JobStatusQueued
	_job.CurrentStep = jobModel.IngestInit
	_job.JobType = jobModel.JobTypeIngest
	_job.JobPayload.DocumentId = newJob.documentId
	_job.JobPayload.IngestFileName = newJob.documentName
	_job.JobPayload.IngestPath = newJob.documentSource

	var done chan jobModel.Job
	if newJob.wait {
		done = make(chan jobModel.Job, 1)
		_job.Done = done
	}

	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.traceId)
	if err := h.service.JobStore.SaveJob(ctxC, _job); err != nil {
		logJH.Error("Could not save queued job", "err", err)
	}

	//metrics
	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //this is a blocking send to prevent the system from being overwhelmed
	logJH.Info("Created new job")

	//ingestion involves batch embedding which might take time - external system calls
	//so every ingestion asks the dispatcher for another worker, idle ones retire on their own
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1) //after sending a request increment counter
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || _job.JobType == jobModel.JobTypeIngest {
		select {
		case h.service.DispatcherChannel <- true:
			metrics.StartDispatcherSignalCount() //metrics
			logJH.Debug("Worker count signal", "requests", accurateCount)
		default:
			// a signal is already pending
		}
	}
	return done
}
