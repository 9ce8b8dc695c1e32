package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_jobs_in_queue",
	Help: "Number of jobs in queue",
})

var dispatcherSignalCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

var documentsZeroChunks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "documents_zero_chunks_total",
	Help: "Ingestions that failed after the previous chunks were deleted, leaving the document empty",
})

var ingestionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "document_ingestions_total",
	Help: "Document ingestions labelled by outcome kind",
}, []string{"outcome"})

var chunksPerDocument = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "chunks_per_document",
	Help:    "Number of chunks produced per ingested document.",
	Buckets: prometheus.ExponentialBuckets(1, 2, 12),
})

var contextChars = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "retrieval_context_chars",
	Help:    "Characters placed in the generation context per query.",
	Buckets: prometheus.ExponentialBuckets(250, 2, 8),
})

var aggregationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aggregations_total",
	Help: "Structured aggregations labelled by operation",
}, []string{"operation"})

// HttpStatusRecorder remembers the status written through it.
type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}
func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

func IncrementZeroChunkDocuments() {
	documentsZeroChunks.Inc()
}

func CaptureIngestion(outcome string, chunkCount int) {
	ingestionsTotal.WithLabelValues(outcome).Inc()
	if chunkCount > 0 {
		chunksPerDocument.Observe(float64(chunkCount))
	}
}

func CaptureContextSize(chars int) {
	contextChars.Observe(float64(chars))
}

func CaptureAggregation(operation string) {
	aggregationsTotal.WithLabelValues(operation).Inc()
}

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "process_request_duration_seconds",
	Help:    "Total time spent processing a job.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60, 120},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureJobMetrics(label string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}
