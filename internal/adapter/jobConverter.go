package adapter

import (
	"fmt"

	"github.com/akolanti/GoRAG/internal/api"
	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/rag/aggregate"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id), //pass "status/job.Id"
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	result := api.Result{
		Status: string(job.Status),
		Step:   string(job.CurrentStep),
	}
	if job.Status == jobModel.JobStatusComplete {
		ingestion := ToIngestResponse(job.JobPayload)
		result.Ingestion = &ingestion
	}

	return api.JobResponse{
		Id:        job.Id,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     toOutgoingError(job.Error),
		Result:    result,
	}
}

func toOutgoingError(e jobModel.JobError) *api.JobOutgoingError {
	if e.Message == "" && e.Code == 0 {
		return nil
	}
	return &api.JobOutgoingError{Code: e.Code, Kind: e.Kind, Message: e.Message, Retry: e.Retry}
}

func ToIngestResponse(payload jobModel.JobPayload) api.IngestResponse {
	return api.IngestResponse{
		DocumentId: payload.DocumentId,
		Format:     string(payload.Format),
		Metadata:   metadataMap(payload.Metadata),
		ChunkCount: payload.ChunkCount,
	}
}

func ToParseResponse(doc commonModels.ParsedDocument) api.ParseResponse {
	return api.ParseResponse{
		FileName: doc.FileName,
		Format:   string(doc.Format),
		Content:  doc.Text,
		Metadata: metadataMap(doc.Metadata),
	}
}

func ToSearchResults(results []commonModels.SearchResult) []api.SearchResult {
	out := make([]api.SearchResult, len(results))
	for i, r := range results {
		out[i] = api.SearchResult{
			DocumentId:   r.Chunk.DocumentId,
			ChunkIndex:   r.Chunk.ChunkIndex,
			Content:      r.Chunk.Text,
			Score:        r.Score,
			VectorScore:  r.VectorScore,
			LexicalScore: r.LexicalScore,
			Metadata:     r.Chunk.Metadata.ToMap(),
		}
	}
	return out
}

func ToSearchResponse(query string, results []commonModels.SearchResult) api.SearchResponse {
	return api.SearchResponse{
		Query:     query,
		Results:   ToSearchResults(results),
		NoResults: len(results) == 0,
	}
}

func ToAnswerResponse(answer commonModels.Answer) api.AnswerResponse {
	return api.AnswerResponse{
		Query:     answer.Query,
		Answer:    answer.Answer,
		Context:   ToSearchResults(answer.Context),
		NoResults: answer.NoResults,
	}
}

func ToAggregateRequest(req api.AggregateRequest) aggregate.Request {
	return aggregate.Request{
		Field:      req.Field,
		Operation:  aggregate.Operation(req.Operation),
		Filter:     req.Filter,
		DocumentId: req.DocumentId,
	}
}

func ToAggregateResponse(res aggregate.Result) api.AggregateResponse {
	return api.AggregateResponse{
		Result:     res.Result,
		Count:      res.Count,
		Operation:  string(res.Operation),
		Field:      res.Field,
		DocumentId: res.DocumentId,
	}
}

// ToErrorResponse turns a pipeline error into the public error body.
func ToErrorResponse(err error) api.ErrorResponse {
	return api.ErrorResponse{Error: api.JobOutgoingError{
		Code:    ragErrors.HTTPStatus(err),
		Kind:    string(ragErrors.KindOf(err)),
		Message: ragErrors.PublicMessage(err),
		Retry:   ragErrors.Retryable(err),
	}}
}

func BadRequest(kind ragErrors.Kind, message string, code int) api.ErrorResponse {
	return api.ErrorResponse{Error: api.JobOutgoingError{
		Code:    code,
		Kind:    string(kind),
		Message: message,
		Retry:   false,
	}}
}

func JobErrorResponse(e jobModel.JobError) api.ErrorResponse {
	return api.ErrorResponse{Error: api.JobOutgoingError{Code: e.Code, Kind: e.Kind, Message: e.Message, Retry: e.Retry}}
}

func metadataMap(md commonModels.Metadata) map[string]any {
	if md == nil {
		return map[string]any{}
	}
	return md.ToMap()
}
