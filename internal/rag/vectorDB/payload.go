package vectorDB

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
)

// ChunkPayload flattens a chunk into the fields every backend stores next to it.
func ChunkPayload(chunk commonModels.DocChunk) map[string]any {
	return map[string]any{
		FieldContent:    chunk.Text,
		FieldDocumentId: chunk.DocumentId,
		FieldChunkIndex: int64(chunk.ChunkIndex),
		FieldCharStart:  int64(chunk.CharStart),
		FieldCharEnd:    int64(chunk.CharEnd),
		FieldMetadata:   chunk.Metadata.ToMap(),
		FieldIngestedAt: chunk.IngestedAt.Unix(),
	}
}

// ChunkFromPayload is the inverse of ChunkPayload. Backends hand numbers back as int64,
// float64 or strings and metadata either as a map or as JSON text; all are accepted.
func ChunkFromPayload(id string, p map[string]any) commonModels.DocChunk {
	chunk := commonModels.DocChunk{
		Id:         id,
		Text:       asString(p[FieldContent]),
		DocumentId: asString(p[FieldDocumentId]),
		ChunkIndex: asInt(p[FieldChunkIndex]),
		CharStart:  asInt(p[FieldCharStart]),
		CharEnd:    asInt(p[FieldCharEnd]),
		Metadata:   asMetadata(p[FieldMetadata]),
	}
	if ts := asInt(p[FieldIngestedAt]); ts > 0 {
		chunk.IngestedAt = time.Unix(int64(ts), 0).UTC()
	}
	return chunk
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return int(i)
	}
	return 0
}

func asMetadata(v any) commonModels.Metadata {
	switch m := v.(type) {
	case map[string]any:
		md, err := commonModels.MetadataFromMap(m)
		if err == nil {
			return md
		}
	case string:
		if m == "" {
			return commonModels.Metadata{}
		}
		var md commonModels.Metadata
		if err := json.Unmarshal([]byte(m), &md); err == nil {
			return md
		}
	}
	return commonModels.Metadata{}
}
