package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/GoRAG/internal/api"
	"github.com/akolanti/GoRAG/internal/data/store"
	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/job"
	"github.com/akolanti/GoRAG/internal/rag/aggregate"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	OnSearch    func(query, documentId string, limit int) ([]commonModels.SearchResult, error)
	OnAnswer    func(query, documentId string, limit int) (commonModels.Answer, error)
	OnAggregate func(req aggregate.Request) (aggregate.Result, error)
	OnParse     func(path, fileName string) (commonModels.ParsedDocument, error)
}

func (m *mockService) Ingest(context.Context, commonModels.Document) (commonModels.IngestionReport, error) {
	return commonModels.IngestionReport{}, nil
}

func (m *mockService) IngestFile(context.Context, string, string, string) (commonModels.IngestionReport, commonModels.ParsedDocument, error) {
	return commonModels.IngestionReport{}, commonModels.ParsedDocument{}, nil
}

func (m *mockService) IngestDocument(_ context.Context, j jobModel.Job) jobModel.Job { return j }

func (m *mockService) ParseFile(_ context.Context, path, fileName string) (commonModels.ParsedDocument, error) {
	return m.OnParse(path, fileName)
}

func (m *mockService) Search(_ context.Context, query, documentId string, limit int) ([]commonModels.SearchResult, error) {
	return m.OnSearch(query, documentId, limit)
}

func (m *mockService) Answer(_ context.Context, query, documentId string, limit int) (commonModels.Answer, error) {
	return m.OnAnswer(query, documentId, limit)
}

func (m *mockService) Aggregate(_ context.Context, req aggregate.Request) (aggregate.Result, error) {
	return m.OnAggregate(req)
}

var (
	setupOnce  sync.Once
	jobService *job.Service
)

// setup wires the singletons once and swaps in the mock for every test.
func setup(t *testing.T, svc *mockService) {
	t.Helper()
	setupOnce.Do(func() {
		jobService = job.InitJobService(job.ServiceConfig{
			JobChannel:        make(chan jobModel.Job, 10),
			DispatcherChannel: make(chan bool, 1),
			JobStore:          store.InitInMemoryJobStore(),
		})
		InitJobHandler(jobService)
	})
	InitRequestHandler(svc, t.TempDir())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func multipartBody(t *testing.T, fileName, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestGetHandler(t *testing.T) {
	setup(t, &mockService{})
	rec := httptest.NewRecorder()
	GetHandler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[api.HealthResponse](t, rec)
	assert.Equal(t, "RAG service is running", body.Message)
	assert.Equal(t, jobService.QueueDepth(), body.QueuedJobs)
}

func TestGetSearchHandler(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		err        error
		wantStatus int
		wantKind   string
		noResults  bool
	}{
		{name: "results", url: "/search?query=price&limit=2&document_id=doc-1", wantStatus: http.StatusOK},
		{name: "no results is empty 200", url: "/search?query=zzz",
			err: ragErrors.Newf(ragErrors.KindNoResultsFound, "retrieval.search", "", "none"), wantStatus: http.StatusOK, noResults: true},
		{name: "blank query", url: "/search?query=",
			err: ragErrors.Newf(ragErrors.KindInvalidQuery, "retrieval.search", "", "query is empty"), wantStatus: http.StatusBadRequest, wantKind: "INVALID_QUERY"},
		{name: "store down", url: "/search?query=x",
			err: ragErrors.Newf(ragErrors.KindStoreUnavailable, "retrieval.search", "", "down"), wantStatus: http.StatusServiceUnavailable, wantKind: "STORE_UNAVAILABLE"},
		{name: "bad limit", url: "/search?query=x&limit=abc", wantStatus: http.StatusBadRequest, wantKind: "INVALID_QUERY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t, &mockService{OnSearch: func(query, documentId string, limit int) ([]commonModels.SearchResult, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				assert.Equal(t, "doc-1", documentId)
				assert.Equal(t, 2, limit)
				return []commonModels.SearchResult{{Chunk: commonModels.DocChunk{DocumentId: "doc-1", Text: "price 10"}, Score: 1}}, nil
			}})

			rec := httptest.NewRecorder()
			GetSearchHandler(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, decode[api.ErrorResponse](t, rec).Error.Kind)
				return
			}
			res := decode[api.SearchResponse](t, rec)
			assert.Equal(t, tt.noResults, res.NoResults)
			if !tt.noResults {
				require.Len(t, res.Results, 1)
				assert.Equal(t, "price 10", res.Results[0].Content)
			}
		})
	}
}

func TestPostAnswerHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "answer", body: `{"query":"what is the price","limit":2}`, wantStatus: http.StatusOK},
		{name: "missing query", body: `{"limit":2}`, wantStatus: http.StatusBadRequest, wantMsg: "query"},
		{name: "unknown field", body: `{"query":"x","top_k":3}`, wantStatus: http.StatusBadRequest, wantMsg: "top_k"},
		{name: "not json", body: `query=x`, wantStatus: http.StatusBadRequest, wantMsg: "not valid JSON"},
		{name: "llm timeout", body: `{"query":"x"}`,
			err: ragErrors.Newf(ragErrors.KindTimeout, "llm.generate", "", "deadline"), wantStatus: http.StatusGatewayTimeout},
		{name: "internal failure is not described", body: `{"query":"x"}`,
			err: ragErrors.Newf(ragErrors.KindInternal, "rag.answer", "", "nil pointer in secret place"), wantStatus: http.StatusInternalServerError, wantMsg: "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t, &mockService{OnAnswer: func(query, documentId string, limit int) (commonModels.Answer, error) {
				if tt.err != nil {
					return commonModels.Answer{}, tt.err
				}
				return commonModels.Answer{Query: query, Answer: "10", Context: []commonModels.SearchResult{}}, nil
			}})

			rec := httptest.NewRecorder()
			PostAnswerHandler(rec, httptest.NewRequest(http.MethodPost, "/answer", strings.NewReader(tt.body)))
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus == http.StatusOK {
				res := decode[api.AnswerResponse](t, rec)
				assert.Equal(t, "10", res.Answer)
				assert.Equal(t, "what is the price", res.Query)
				return
			}
			errBody := decode[api.ErrorResponse](t, rec)
			assert.Equal(t, tt.wantStatus, errBody.Error.Code)
			if tt.wantMsg != "" {
				assert.Contains(t, errBody.Error.Message, tt.wantMsg)
			}
		})
	}
}

func TestPostAggregateHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "sum with filter", body: `{"field":"products.price","operation":"sum","filter":{"products.category":"toys"}}`, wantStatus: http.StatusOK},
		{name: "unknown operation", body: `{"field":"price","operation":"mode"}`, wantStatus: http.StatusBadRequest},
		{name: "nested filter value", body: `{"field":"price","operation":"sum","filter":{"a":{"b":1}}}`, wantStatus: http.StatusBadRequest},
		{name: "empty set", body: `{"field":"price","operation":"max"}`,
			err: ragErrors.Newf(ragErrors.KindEmptyAggregateSet, "aggregate", "", "no values"), wantStatus: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t, &mockService{OnAggregate: func(req aggregate.Request) (aggregate.Result, error) {
				if tt.err != nil {
					return aggregate.Result{}, tt.err
				}
				assert.Equal(t, map[string]any{"products.category": "toys"}, req.Filter)
				return aggregate.Result{Result: 40, Count: 2, Operation: req.Operation, Field: req.Field, DocumentId: aggregate.AllDocuments}, nil
			}})

			rec := httptest.NewRecorder()
			PostAggregateHandler(rec, httptest.NewRequest(http.MethodPost, "/aggregate", strings.NewReader(tt.body)))
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				res := decode[api.AggregateResponse](t, rec)
				assert.Equal(t, 40.0, res.Result)
				assert.Equal(t, 2, res.Count)
				assert.Equal(t, "all", res.DocumentId)
			}
		})
	}
}

func TestPostParseHandler(t *testing.T) {
	var storedPath string
	setup(t, &mockService{OnParse: func(path, fileName string) (commonModels.ParsedDocument, error) {
		storedPath = path
		assert.Equal(t, "notes.txt", fileName)
		return commonModels.ParsedDocument{FileName: fileName, Format: commonModels.TXT, Text: "hello"}, nil
	}})

	body, contentType := multipartBody(t, "notes.txt", "hello", nil)
	req := httptest.NewRequest(http.MethodPost, "/parse-document", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	PostParseHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[api.ParseResponse](t, rec)
	assert.Equal(t, "hello", res.Content)
	assert.Equal(t, "txt", res.Format)
	_, err := os.Stat(storedPath)
	assert.True(t, os.IsNotExist(err), "parse uploads are removed after the response")
}

func TestPostParseHandler_MissingFile(t *testing.T) {
	setup(t, &mockService{})
	body, contentType := multipartBody(t, "x.txt", "x", nil)
	req := httptest.NewRequest(http.MethodPost, "/parse-document", strings.NewReader(strings.Replace(body.String(), `name="file"`, `name="other"`, 1)))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	PostParseHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_DOCUMENT", decode[api.ErrorResponse](t, rec).Error.Kind)
}

// fakeWorker plays the worker pool: it takes one job and finishes it with result.
func fakeWorker(t *testing.T, result func(jobModel.Job) jobModel.Job) {
	t.Helper()
	go func() {
		select {
		case j := <-jobService.JobChannel:
			done := j.Done
			j.Done = nil
			j = result(j)
			_ = jobService.JobStore.SaveJob(context.Background(), j)
			if done != nil {
				done <- j
			}
		case <-time.After(5 * time.Second):
		}
	}()
}

func TestPostDocumentHandler_Sync(t *testing.T) {
	setup(t, &mockService{})
	fakeWorker(t, func(j jobModel.Job) jobModel.Job {
		assert.Equal(t, "manual", j.JobPayload.DocumentId)
		assert.Equal(t, "manual.txt", j.JobPayload.IngestFileName)
		j.Status = jobModel.JobStatusComplete
		j.JobPayload.Format = commonModels.TXT
		j.JobPayload.ChunkCount = 4
		return j
	})

	body, contentType := multipartBody(t, "manual.txt", "press the red button", map[string]string{"document_id": "manual"})
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	PostDocumentHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[api.IngestResponse](t, rec)
	assert.Equal(t, "manual", res.DocumentId)
	assert.Equal(t, 4, res.ChunkCount)
}

func TestPostDocumentHandler_SyncError(t *testing.T) {
	setup(t, &mockService{})
	fakeWorker(t, func(j jobModel.Job) jobModel.Job {
		j.Status = jobModel.JobStatusError
		j.Error = jobModel.JobError{Code: http.StatusServiceUnavailable, Kind: "ADAPTER_UNAVAILABLE", Message: "embedding failed", Retry: true}
		return j
	})

	body, contentType := multipartBody(t, "manual.txt", "text", nil)
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	PostDocumentHandler(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	errBody := decode[api.ErrorResponse](t, rec)
	assert.Equal(t, "ADAPTER_UNAVAILABLE", errBody.Error.Kind)
	assert.True(t, errBody.Error.Retry)
}

func TestPostDocumentHandler_AsyncThenStatus(t *testing.T) {
	setup(t, &mockService{})

	body, contentType := multipartBody(t, "manual.txt", "text", map[string]string{"async": "true"})
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	PostDocumentHandler(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	accepted := decode[api.InitJobResponse](t, rec)
	require.NotEmpty(t, accepted.Id)

	queued := <-jobService.JobChannel
	assert.Equal(t, accepted.Id, queued.Id)
	assert.Nil(t, queued.Done)

	router := chi.NewRouter()
	router.Get("/status/{id}", GetStatusHandler)

	statusRec := httptest.NewRecorder()
	router.ServeHTTP(statusRec, httptest.NewRequest(http.MethodGet, "/status/"+accepted.Id, nil))
	require.Equal(t, http.StatusOK, statusRec.Code)
	status := decode[api.JobResponse](t, statusRec)
	assert.Equal(t, string(jobModel.JobStatusQueued), status.Result.Status)

	missingRec := httptest.NewRecorder()
	router.ServeHTTP(missingRec, httptest.NewRequest(http.MethodGet, "/status/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, missingRec.Code)
}
