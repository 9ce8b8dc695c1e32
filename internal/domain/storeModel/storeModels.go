package storeModel

import (
	"context"
	"encoding/json"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
)

// RecordStore keeps the structured records of JSON documents for aggregation.
type RecordStore interface {
	// ReplaceRecords swaps every record of documentId for records. An empty slice clears them.
	ReplaceRecords(ctx context.Context, documentId string, records []json.RawMessage) error
	DeleteRecords(ctx context.Context, documentId string) error
	// ListRecords returns the records of one document, or of every document when documentId is empty.
	ListRecords(ctx context.Context, documentId string) ([]commonModels.Record, error)
}

// DocumentLocker serialises writers of the same document. unlock is safe to call once.
type DocumentLocker interface {
	Lock(ctx context.Context, documentId string) (unlock func(), err error)
}
