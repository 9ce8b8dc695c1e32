package worker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/job"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

// MockRagService to track if jobs are executed
type MockRagService struct {
	ProcessedCount int32
	OnIngest       func(ctx context.Context, j jobModel.Job) jobModel.Job
}

func (m *MockRagService) IngestDocument(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.ProcessedCount, 1)
	if m.OnIngest != nil {
		return m.OnIngest(ctx, j)
	}
	j.JobPayload.ChunkCount = 3
	return j
}

type MockJobStore struct {
	mu    sync.Mutex
	saved []jobModel.Job
}

func (m *MockJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].Id == jobId {
			return m.saved[i], true
		}
	}
	return jobModel.Job{}, false
}

func (m *MockJobStore) DeleteJob(ctx context.Context, jobID string) {}

func (m *MockJobStore) SaveJob(ctx context.Context, j jobModel.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, j)
	return nil
}

func (m *MockJobStore) statuses(jobId string) []jobModel.JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []jobModel.JobStatus
	for _, j := range m.saved {
		if j.Id == jobId {
			out = append(out, j.Status)
		}
	}
	return out
}

func TestWorkerPool_Flow(t *testing.T) {
	// 1. Setup
	store := &MockJobStore{}
	jobSvc := &job.Service{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          store,
	}
	mockRag := &MockRagService{}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	// Reset global state for test
	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, 1)

	InitServices(jobSvc, mockRag)
	InitWorkerPool(stopChan, wg)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		// Signal dispatcher to create a worker
		jobSvc.DispatcherChannel <- true

		// Give it a moment to spawn
		time.Sleep(50 * time.Millisecond)

		count := atomic.LoadInt64(&currentWorkerCount)
		if count < 1 {
			t.Errorf("Expected at least 1 worker, got %d", count)
		}
	})

	t.Run("Worker processes a job and reports on Done", func(t *testing.T) {
		upload := filepath.Join(t.TempDir(), "upload.txt")
		if err := os.WriteFile(upload, []byte("hello"), 0644); err != nil {
			t.Fatal(err)
		}
		done := make(chan jobModel.Job, 1)
		jobSvc.JobChannel <- jobModel.Job{
			Id:         "test-1",
			JobType:    jobModel.JobTypeIngest,
			JobPayload: jobModel.JobPayload{IngestPath: upload},
			Done:       done,
		}

		select {
		case finished := <-done:
			if finished.Status != jobModel.JobStatusComplete {
				t.Errorf("Status got %v, want %v", finished.Status, jobModel.JobStatusComplete)
			}
			if finished.JobPayload.ChunkCount != 3 {
				t.Errorf("ChunkCount got %d, want 3", finished.JobPayload.ChunkCount)
			}
			if finished.EndTime.IsZero() {
				t.Error("EndTime not set")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("job did not finish")
		}

		if processed := atomic.LoadInt32(&mockRag.ProcessedCount); processed != 1 {
			t.Errorf("Expected 1 job processed, got %d", processed)
		}
		if _, err := os.Stat(upload); !os.IsNotExist(err) {
			t.Errorf("uploaded file should be removed, stat err %v", err)
		}
		got := store.statuses("test-1")
		if len(got) != 2 || got[0] != jobModel.JobStatusRunning || got[1] != jobModel.JobStatusComplete {
			t.Errorf("saved statuses got %v", got)
		}
	})

	t.Run("Failed ingestion keeps error status", func(t *testing.T) {
		mockRag.OnIngest = func(ctx context.Context, j jobModel.Job) jobModel.Job {
			j.Status = jobModel.JobStatusError
			j.Error = jobModel.JobError{Code: 503, Message: "store down"}
			return j
		}
		done := make(chan jobModel.Job, 1)
		jobSvc.JobChannel <- jobModel.Job{Id: "test-2", JobType: jobModel.JobTypeIngest, Done: done}

		select {
		case finished := <-done:
			if finished.Status != jobModel.JobStatusError || finished.Error.Code != 503 {
				t.Errorf("got status %v code %d", finished.Status, finished.Error.Code)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("job did not finish")
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		// Send stop signal
		close(stopChan)

		// Wait for workers to exit
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			// Success
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestWorker_IdleTimeout(t *testing.T) {
	// Temporarily override config/globals for test
	atomic.StoreInt64(&currentWorkerCount, 0)
	prevMin, prevIdle := atomic.LoadInt64(&minWorkerCount), idleWorkerTimeout
	atomic.StoreInt64(&minWorkerCount, 0)
	idleWorkerTimeout = 20 * time.Millisecond
	t.Cleanup(func() {
		atomic.StoreInt64(&minWorkerCount, prevMin)
		idleWorkerTimeout = prevIdle
	})

	logger = logger_i.NewLogger("TestWorkerPool")
	jobSvc := &job.Service{
		JobChannel: make(chan jobModel.Job),
	}
	InitServices(jobSvc, &MockRagService{})

	wg := &sync.WaitGroup{}
	stopChan := make(chan bool)
	workerWaitGroup = wg
	stopWorkerChannel = stopChan

	// Spawn 1 worker manually
	createWorker()
	time.Sleep(idleWorkerTimeout)

	time.Sleep(100 * time.Millisecond)
	count := atomic.LoadInt64(&currentWorkerCount)
	if count != 0 {
		t.Errorf("Assertion Failed: Worker should have timed out and retired, but count is %d", count)
	}
}
