package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/data/redisStore"
	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

const (
	recordKeyPrefix = "records:"
	recordIndexKey  = "records:index"
)

// RedisRecordStore keeps every document's records as one JSON array under records:<id>
// and the set of document ids under records:index.
type RedisRecordStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

// GetRedisRecordStore returns nil when redis is offline.
func GetRedisRecordStore(ctx context.Context, settings config.RedisSettings) *RedisRecordStore {
	s := redisStore.GetRedisStore(ctx, settings, config.RedisRecordStore)
	if s == nil {
		return nil
	}
	return NewRedisRecordStore(s)
}

func NewRedisRecordStore(store *redisStore.Store) *RedisRecordStore {
	return &RedisRecordStore{
		store:  store,
		logger: logger_i.NewLogger("RecordStore"),
	}
}

func (s *RedisRecordStore) ReplaceRecords(ctx context.Context, documentId string, records []json.RawMessage) error {
	log := s.logger.WithTrace(ctx).With("document_id", documentId)
	if len(records) == 0 {
		return s.DeleteRecords(ctx, documentId)
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := s.store.SetAndIndex(ctx, recordKeyPrefix+documentId, data, recordIndexKey, documentId); err != nil {
		log.Error("Error saving records", "error", err)
		return err
	}
	log.Debug("Saved records", "count", len(records))
	return nil
}

func (s *RedisRecordStore) DeleteRecords(ctx context.Context, documentId string) error {
	return s.store.DelAndUnindex(ctx, recordKeyPrefix+documentId, recordIndexKey, documentId)
}

func (s *RedisRecordStore) ListRecords(ctx context.Context, documentId string) ([]commonModels.Record, error) {
	ids := []string{documentId}
	if documentId == "" {
		var err error
		ids, err = s.store.SetMembers(ctx, recordIndexKey)
		if err != nil {
			return nil, err
		}
		sort.Strings(ids)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKeyPrefix + id
	}
	values, err := s.store.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}

	var out []commonModels.Record
	for i, raw := range values {
		if raw == "" {
			continue
		}
		var records []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &records); err != nil {
			return nil, fmt.Errorf("decode records of %s: %w", ids[i], err)
		}
		for _, r := range records {
			out = append(out, commonModels.Record{DocumentId: ids[i], Data: r})
		}
	}
	return out, nil
}
