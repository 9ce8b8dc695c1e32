package lexical

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

const deletePageSize = 500

// Index is the keyword side of hybrid search, backed by bleve.
type Index struct {
	index  bleve.Index
	logger *logger_i.Logger
}

// NewIndex opens the index at path, creating it when missing. An empty path keeps it in memory.
func NewIndex(path string) (*Index, error) {
	logger := logger_i.NewLogger("lexical")

	var idx bleve.Index
	var err error
	switch {
	case path == "":
		idx, err = bleve.NewMemOnly(chunkMapping())
	default:
		if _, statErr := os.Stat(path); statErr == nil {
			idx, err = bleve.Open(path)
		} else {
			idx, err = bleve.New(path, chunkMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open lexical index: %w", err)
	}

	logger.Info("lexical index ready", "path", path)
	return &Index{index: idx, logger: logger}, nil
}

func chunkMapping() mapping.IndexMapping {
	content := bleve.NewTextFieldMapping()
	content.Store = true

	keyword := bleve.NewKeywordFieldMapping()
	keyword.Store = true

	number := bleve.NewNumericFieldMapping()
	number.Store = true

	stored := bleve.NewTextFieldMapping()
	stored.Index = false
	stored.Store = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(vectorDB.FieldContent, content)
	doc.AddFieldMappingsAt(vectorDB.FieldDocumentId, keyword)
	doc.AddFieldMappingsAt(vectorDB.FieldChunkIndex, number)
	doc.AddFieldMappingsAt(vectorDB.FieldCharStart, number)
	doc.AddFieldMappingsAt(vectorDB.FieldCharEnd, number)
	doc.AddFieldMappingsAt(vectorDB.FieldIngestedAt, number)
	doc.AddFieldMappingsAt(vectorDB.FieldMetadata, stored)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	return im
}

func (i *Index) Index(_ context.Context, chunks []commonModels.DocChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	batch := i.index.NewBatch()
	for _, chunk := range chunks {
		md, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("metadata for chunk %s: %w", chunk.Id, err)
		}
		doc := map[string]any{
			vectorDB.FieldContent:    chunk.Text,
			vectorDB.FieldDocumentId: chunk.DocumentId,
			vectorDB.FieldChunkIndex: float64(chunk.ChunkIndex),
			vectorDB.FieldCharStart:  float64(chunk.CharStart),
			vectorDB.FieldCharEnd:    float64(chunk.CharEnd),
			vectorDB.FieldIngestedAt: float64(chunk.IngestedAt.Unix()),
			vectorDB.FieldMetadata:   string(md),
		}
		if err := batch.Index(chunk.Id, doc); err != nil {
			return fmt.Errorf("index chunk %s: %w", chunk.Id, err)
		}
	}
	return i.index.Batch(batch)
}

func (i *Index) DeleteByDocumentId(ctx context.Context, documentId string) error {
	for {
		req := bleve.NewSearchRequestOptions(documentQuery(documentId), deletePageSize, 0, false)
		res, err := i.index.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("find chunks of %s: %w", documentId, err)
		}
		if len(res.Hits) == 0 {
			return nil
		}
		batch := i.index.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := i.index.Batch(batch); err != nil {
			return fmt.Errorf("delete chunks of %s: %w", documentId, err)
		}
	}
}

func (i *Index) Search(ctx context.Context, text string, documentIdFilter string, limit int) ([]commonModels.SearchResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	match := bleve.NewMatchQuery(text)
	match.SetField(vectorDB.FieldContent)

	var q query.Query = match
	if documentIdFilter != "" {
		q = bleve.NewConjunctionQuery(match, documentQuery(documentIdFilter))
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"*"}
	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	out := make([]commonModels.SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, commonModels.SearchResult{
			Chunk:        vectorDB.ChunkFromPayload(hit.ID, hit.Fields),
			Score:        hit.Score,
			LexicalScore: hit.Score,
		})
	}
	return out, nil
}

func (i *Index) DocCount() (uint64, error) {
	return i.index.DocCount()
}

func (i *Index) Close() error {
	if i.index == nil {
		return errors.New("lexical index already closed")
	}
	err := i.index.Close()
	i.index = nil
	return err
}

func documentQuery(documentId string) *query.TermQuery {
	term := bleve.NewTermQuery(documentId)
	term.SetField(vectorDB.FieldDocumentId)
	return term
}
