// Package aggregate computes statistics over the structured records of JSON documents.
package aggregate

import (
	"context"
	"slices"
	"strings"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/domain/storeModel"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/tidwall/gjson"
)

type Operation string

const (
	Max     Operation = "max"
	Min     Operation = "min"
	Sum     Operation = "sum"
	Average Operation = "average"
	Median  Operation = "median"
	Count   Operation = "count"
)

// AllDocuments is reported as the document id of unfiltered requests.
const AllDocuments = "all"

var Operations = []Operation{Max, Min, Sum, Average, Median, Count}

type Request struct {
	Field      string         `json:"field"`
	Operation  Operation      `json:"operation"`
	Filter     map[string]any `json:"filter,omitempty"`
	DocumentId string         `json:"document_id,omitempty"`
}

type Result struct {
	Result     float64   `json:"result"`
	Count      int       `json:"count"`
	Operation  Operation `json:"operation"`
	Field      string    `json:"field"`
	DocumentId string    `json:"document_id"`
}

type Aggregator struct {
	records storeModel.RecordStore
	logger  *logger_i.Logger
}

func NewAggregator(records storeModel.RecordStore) *Aggregator {
	return &Aggregator{records: records, logger: logger_i.NewLogger("aggregate")}
}

func (a *Aggregator) Aggregate(ctx context.Context, req Request) (Result, error) {
	log := a.logger.WithTrace(ctx)
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	records, err := a.records.ListRecords(ctx, req.DocumentId)
	if err != nil {
		return Result{}, ragErrors.FromExternal(ragErrors.KindStoreUnavailable, "aggregate.list_records", req.DocumentId, err)
	}

	values, contributing := collect(records, req)
	if len(values) == 0 {
		return Result{}, ragErrors.Newf(ragErrors.KindEmptyAggregateSet, "aggregate", req.DocumentId,
			"no usable values for %q", req.Field)
	}

	docId := req.DocumentId
	if docId == "" {
		docId = AllDocuments
	}
	res := Result{
		Result:     compute(req.Operation, values),
		Count:      contributing,
		Operation:  req.Operation,
		Field:      req.Field,
		DocumentId: docId,
	}
	metrics.CaptureAggregation(string(req.Operation))
	log.Debug("aggregated", "operation", req.Operation, "field", req.Field, "records", len(records), "count", contributing)
	return res, nil
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Field) == "" {
		return ragErrors.Newf(ragErrors.KindInvalidQuery, "aggregate", r.DocumentId, "field is required")
	}
	if !slices.Contains(Operations, r.Operation) {
		return ragErrors.Newf(ragErrors.KindInvalidQuery, "aggregate", r.DocumentId, "unsupported operation %q", r.Operation)
	}
	return nil
}

// collect returns the usable values of every record passing the filter and how many
// records contributed at least one of them.
func collect(records []commonModels.Record, req Request) ([]float64, int) {
	var values []float64
	contributing := 0
	for _, rec := range records {
		if !gjson.ValidBytes(rec.Data) {
			continue
		}
		root := gjson.ParseBytes(rec.Data)
		if !matches(root, req.Filter) {
			continue
		}

		found := 0
		for _, v := range Extract(root, req.Field) {
			switch {
			case req.Operation == Count:
				if v.Type != gjson.Null {
					values = append(values, 1)
					found++
				}
			case v.Type == gjson.Number:
				values = append(values, v.Num)
				found++
			}
		}
		if found > 0 {
			contributing++
		}
	}
	return values, contributing
}

func compute(op Operation, values []float64) float64 {
	switch op {
	case Max:
		return slices.Max(values)
	case Min:
		return slices.Min(values)
	case Sum:
		return sum(values)
	case Average:
		return sum(values) / float64(len(values))
	case Median:
		sorted := slices.Clone(values)
		slices.Sort(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			return (sorted[mid-1] + sorted[mid]) / 2
		}
		return sorted[mid]
	case Count:
		return float64(len(values))
	}
	return 0
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
