package handlers

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/akolanti/GoRAG/internal/adapter"
	"github.com/akolanti/GoRAG/internal/adapter/utils"
	"github.com/akolanti/GoRAG/internal/api"
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/rag"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

var (
	logRH      *logger_i.Logger
	ragService rag.Service
	uploadDir  = config.UploadDirectory
)

// technically i dont need this
// but i want to eventually remove jobHandler from handlers and set it in another package
// so in anticipation for that this struct exists
type newJobData struct {
	id             string
	traceId        string
	documentId     string
	documentName   string
	documentSource string
	wait           bool
}

// InitRequestHandler wires the pipeline used by the synchronous endpoints.
func InitRequestHandler(service rag.Service, uploadDirectory string) {
	ragService = service
	if uploadDirectory != "" {
		uploadDir = uploadDirectory
	}
	if logRH == nil {
		logRH = logger_i.NewLogger("RequestHandler")
	}
}

// GetHandler godoc
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Security     BearerAuth
// @Router       / [get]
func GetHandler(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{Message: "RAG service is running"}
	if handlerInstance != nil {
		resp.QueuedJobs = handlerInstance.service.QueueDepth()
	}
	writeJsonResponse(w, http.StatusOK, resp)
}

// PostDocumentHandler godoc
// @Summary      Upload and ingest a document
// @Description  Parses the file (pdf, docx, rtf, odt, json, txt), chunks, embeds and stores it. Waits for the result unless async is true.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        file         formData  file    true   "The document to ingest"
// @Param        document_id  formData  string  false  "Document id, derived from the file name when empty"
// @Param        async        formData  bool    false  "Return 202 and a status URL instead of waiting"
// @Success      200  {object}  api.IngestResponse   "Document ingested"
// @Success      202  {object}  api.InitJobResponse  "Accepted - poll status_url"
// @Failure      400  {object}  api.ErrorResponse    "Unsupported or empty document"
// @Failure      500  {object}  api.ErrorResponse    "Ingestion failed after the previous version was removed"
// @Failure      503  {object}  api.ErrorResponse    "Store or model provider unavailable"
// @Security     BearerAuth
// @Router       /documents [post]
func PostDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return
	}

	path, fileName, ok := readUpload(w, r)
	if !ok {
		return
	}

	async, _ := strconv.ParseBool(r.FormValue("async"))
	newJob := newJobData{
		id:             utils.GetNewUUID(),
		traceId:        traceId(r.Context()),
		documentId:     strings.TrimSpace(r.FormValue("document_id")),
		documentName:   fileName,
		documentSource: path,
		wait:           !async,
	}
	done := CreateNewJob(newJob)
	if async {
		writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
		return
	}

	select {
	case finished := <-done:
		if finished.Status == jobModel.JobStatusError {
			writeJsonResponse(w, finished.Error.Code, adapter.JobErrorResponse(finished.Error))
			return
		}
		writeJsonResponse(w, http.StatusOK, adapter.ToIngestResponse(finished.JobPayload))
	case <-r.Context().Done():
		// client gave up, the job keeps running and stays visible under /status
		writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
	}
}

// PostParseHandler godoc
// @Summary      Parse a document without ingesting it
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "The document to parse"
// @Success      200  {object}  api.ParseResponse
// @Failure      400  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /parse-document [post]
func PostParseHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	path, fileName, ok := readUpload(w, r)
	if !ok {
		return
	}
	defer os.Remove(path)

	parsed, err := ragService.ParseFile(r.Context(), path, fileName)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToParseResponse(parsed))
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of an ingestion job using its ID.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID "
// @Success      200  {object}  api.JobResponse    "Successful retrieval of job status"
// @Failure      404  {object}  api.ErrorResponse  "Job not found"
// @Security     BearerAuth
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	//use chi get the url id
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := validateId(idString, traceId(r.Context()))

	logRH.Debug("Get Status Request", "URL path", r.URL.Path)
	if !isFound {
		WriteBadRequest(w, http.StatusNotFound, ragErrors.KindInvalidQuery, "Job not found")
		return
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// GetSearchHandler godoc
// @Summary      Hybrid search over ingested chunks
// @Tags         Retrieval
// @Produce      json
// @Param        query        query  string  true   "Search text"
// @Param        document_id  query  string  false  "Restrict to one document"
// @Param        limit        query  int     false  "Number of results (default 3, max 50)"
// @Success      200  {object}  api.SearchResponse
// @Failure      400  {object}  api.ErrorResponse
// @Failure      503  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /search [get]
func GetSearchHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	q := r.URL.Query()
	query := q.Get("query")
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteBadRequest(w, http.StatusBadRequest, ragErrors.KindInvalidQuery, "limit must be an integer")
			return
		}
		limit = n
	}

	results, err := ragService.Search(r.Context(), query, q.Get("document_id"), limit)
	if err != nil && !errors.Is(err, ragErrors.ErrNoResultsFound) {
		WriteErrorResponse(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSearchResponse(query, results))
}

// PostAnswerHandler godoc
// @Summary      Answer a question from the ingested documents
// @Tags         Retrieval
// @Accept       json
// @Produce      json
// @Param        request  body      api.AnswerRequest  true  "Question and optional document filter"
// @Success      200      {object}  api.AnswerResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      503      {object}  api.ErrorResponse
// @Failure      504      {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /answer [post]
func PostAnswerHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.AnswerRequest
	if err := decodeValidated(r, answerRequestSchema, &req); err != nil {
		logRH.WithTrace(r.Context()).Warn("Bad answer request", "err", err)
		WriteBadRequest(w, http.StatusBadRequest, ragErrors.KindInvalidQuery, err.Error())
		return
	}

	answer, err := ragService.Answer(r.Context(), req.Query, req.DocumentId, req.Limit)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAnswerResponse(answer))
}

// PostAggregateHandler godoc
// @Summary      Aggregate a field over structured (JSON) records
// @Tags         Aggregation
// @Accept       json
// @Produce      json
// @Param        request  body      api.AggregateRequest  true  "Field, operation and optional filter"
// @Success      200      {object}  api.AggregateResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      422      {object}  api.ErrorResponse  "No usable values"
// @Security     BearerAuth
// @Router       /aggregate [post]
func PostAggregateHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.AggregateRequest
	if err := decodeValidated(r, aggregateRequestSchema, &req); err != nil {
		logRH.WithTrace(r.Context()).Warn("Bad aggregate request", "err", err)
		WriteBadRequest(w, http.StatusBadRequest, ragErrors.KindInvalidQuery, err.Error())
		return
	}

	res, err := ragService.Aggregate(r.Context(), adapter.ToAggregateRequest(req))
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAggregateResponse(res))
}
