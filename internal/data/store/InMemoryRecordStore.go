package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
)

type InMemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string][]json.RawMessage
}

func InitInMemoryRecordStore() *InMemoryRecordStore {
	return &InMemoryRecordStore{records: make(map[string][]json.RawMessage)}
}

func (s *InMemoryRecordStore) ReplaceRecords(_ context.Context, documentId string, records []json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(records) == 0 {
		delete(s.records, documentId)
		return nil
	}
	copied := make([]json.RawMessage, len(records))
	copy(copied, records)
	s.records[documentId] = copied
	return nil
}

func (s *InMemoryRecordStore) DeleteRecords(_ context.Context, documentId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, documentId)
	return nil
}

func (s *InMemoryRecordStore) ListRecords(_ context.Context, documentId string) ([]commonModels.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []string{documentId}
	if documentId == "" {
		ids = make([]string, 0, len(s.records))
		for id := range s.records {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}

	var out []commonModels.Record
	for _, id := range ids {
		for _, r := range s.records[id] {
			out = append(out, commonModels.Record{DocumentId: id, Data: r})
		}
	}
	return out, nil
}
