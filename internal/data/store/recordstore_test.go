package store_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/akolanti/GoRAG/internal/data/store"
	"github.com/akolanti/GoRAG/internal/domain/storeModel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func recordStores(t *testing.T) map[string]storeModel.RecordStore {
	_, internalStore := newMiniRedis(t)
	return map[string]storeModel.RecordStore{
		"redis":    store.NewRedisRecordStore(internalStore),
		"inMemory": store.InitInMemoryRecordStore(),
	}
}

func TestRecordStores(t *testing.T) {
	for name, rs := range recordStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, rs.ReplaceRecords(ctx, "orders", []json.RawMessage{raw(`{"total":10}`), raw(`{"total":20}`)}))
			require.NoError(t, rs.ReplaceRecords(ctx, "refunds", []json.RawMessage{raw(`{"total":-5}`)}))

			got, err := rs.ListRecords(ctx, "orders")
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "orders", got[0].DocumentId)
			assert.JSONEq(t, `{"total":10}`, string(got[0].Data))

			all, err := rs.ListRecords(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			// replacing drops the previous version entirely
			require.NoError(t, rs.ReplaceRecords(ctx, "orders", []json.RawMessage{raw(`{"total":99}`)}))
			got, err = rs.ListRecords(ctx, "orders")
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.JSONEq(t, `{"total":99}`, string(got[0].Data))

			require.NoError(t, rs.ReplaceRecords(ctx, "refunds", nil))
			all, err = rs.ListRecords(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 1)

			require.NoError(t, rs.DeleteRecords(ctx, "orders"))
			all, err = rs.ListRecords(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, all)

			missing, err := rs.ListRecords(ctx, "never-ingested")
			require.NoError(t, err)
			assert.Empty(t, missing)
		})
	}
}
