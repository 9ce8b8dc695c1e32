package job

import (
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/data/store"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
)

// Service is the shared state between the job handler, the dispatcher and the workers.
type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	// BufferLimit sizes JobChannel when none is given. Defaults to config.BufferLimit.
	BufferLimit int
}

// InitJobService fills any missing channel or store so tests and tools can pass a partial config.
func InitJobService(cfg ServiceConfig) *Service {
	if cfg.JobChannel == nil {
		limit := cfg.BufferLimit
		if limit <= 0 {
			limit = config.BufferLimit
		}
		cfg.JobChannel = make(chan jobModel.Job, limit)
	}
	if cfg.DispatcherChannel == nil {
		cfg.DispatcherChannel = make(chan bool, 1)
	}
	if cfg.JobStore == nil {
		cfg.JobStore = store.InitInMemoryJobStore()
	}
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
	}
}

// QueueDepth is the number of jobs waiting for a worker.
func (s *Service) QueueDepth() int {
	return len(s.JobChannel)
}
