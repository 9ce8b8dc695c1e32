package chromemDB

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/philippgille/chromem-go"
)

// Store is the embedded vector index used when qdrant is not reachable.
// An empty path keeps everything in memory.
type Store struct {
	db             *chromem.DB
	collection     *chromem.Collection
	collectionName string
	logger         *logger_i.Logger
}

func NewStore(path string, collectionName string) (*Store, error) {
	var db *chromem.DB
	if path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open chromem at %s: %w", path, err)
		}
	}

	s := &Store{db: db, collectionName: collectionName, logger: logger_i.NewLogger("chromem")}
	if err := s.CreateCollection(context.Background(), collectionName); err != nil {
		return nil, err
	}
	s.logger.Info("chromem vector index ready", "collection", collectionName, "persistent", path != "")
	return s, nil
}

func (s *Store) CreateCollection(_ context.Context, collectionName string) error {
	if collectionName == "" {
		collectionName = s.collectionName
	}
	// embeddings always come precomputed, so no embedding func is needed
	c, err := s.db.GetOrCreateCollection(collectionName, map[string]string{"hnsw:space": "cosine"}, nil)
	if err != nil {
		return fmt.Errorf("chromem collection %s: %w", collectionName, err)
	}
	s.collection = c
	return nil
}

func (s *Store) UpsertBatch(ctx context.Context, chunks []commonModels.DocChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunk.Id)
		}
		meta, err := toMetadata(chunk)
		if err != nil {
			return err
		}
		docs[i] = chromem.Document{
			ID:        chunk.Id,
			Metadata:  meta,
			Embedding: chunk.Embedding,
			Content:   chunk.Text,
		}
	}
	return s.collection.AddDocuments(ctx, docs, runtime.NumCPU())
}

func (s *Store) DeleteByDocumentId(ctx context.Context, documentId string) error {
	if s.collection.Count() == 0 {
		return nil
	}
	return s.collection.Delete(ctx, map[string]string{vectorDB.FieldDocumentId: documentId}, nil)
}

func (s *Store) Search(ctx context.Context, vector []float32, documentIdFilter string, limit int) ([]commonModels.SearchResult, error) {
	count := s.collection.Count()
	if count == 0 || limit <= 0 {
		return nil, nil
	}
	// chromem rejects nResults above the collection size
	n := min(limit, count)

	var where map[string]string
	if documentIdFilter != "" {
		where = map[string]string{vectorDB.FieldDocumentId: documentIdFilter}
	}

	res, err := s.collection.QueryEmbedding(ctx, vector, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]commonModels.SearchResult, 0, len(res))
	for _, r := range res {
		payload := make(map[string]any, len(r.Metadata)+1)
		for k, v := range r.Metadata {
			payload[k] = v
		}
		payload[vectorDB.FieldContent] = r.Content
		score := float64(r.Similarity)
		out = append(out, commonModels.SearchResult{
			Chunk:       vectorDB.ChunkFromPayload(r.ID, payload),
			Score:       score,
			VectorScore: score,
		})
	}
	return out, nil
}

// chromem metadata is flat strings, so numbers are formatted and the
// document metadata travels as JSON text.
func toMetadata(chunk commonModels.DocChunk) (map[string]string, error) {
	md, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return nil, fmt.Errorf("metadata for chunk %s: %w", chunk.Id, err)
	}
	return map[string]string{
		vectorDB.FieldDocumentId: chunk.DocumentId,
		vectorDB.FieldChunkIndex: strconv.Itoa(chunk.ChunkIndex),
		vectorDB.FieldCharStart:  strconv.Itoa(chunk.CharStart),
		vectorDB.FieldCharEnd:    strconv.Itoa(chunk.CharEnd),
		vectorDB.FieldIngestedAt: strconv.FormatInt(chunk.IngestedAt.Unix(), 10),
		vectorDB.FieldMetadata:   string(md),
	}, nil
}
