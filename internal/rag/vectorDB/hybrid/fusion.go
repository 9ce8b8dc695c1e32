package hybrid

import (
	"sort"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
)

// Fuse merges the two ranked lists with relative score fusion. Scores in each list are
// min-max normalised to [0,1] and combined as alpha*vector + (1-alpha)*lexical, a chunk
// missing from one list scores 0 there. Ties are broken by document id then chunk index
// so the order is stable across calls.
func Fuse(vector, lexical []commonModels.SearchResult, alpha float64, limit int) []commonModels.SearchResult {
	vNorm := normalise(vector)
	lNorm := normalise(lexical)

	merged := make(map[string]*commonModels.SearchResult, len(vector)+len(lexical))
	order := make([]string, 0, len(vector)+len(lexical))

	for i, r := range vector {
		res := commonModels.SearchResult{Chunk: r.Chunk, VectorScore: r.VectorScore, Score: alpha * vNorm[i]}
		merged[r.Chunk.Id] = &res
		order = append(order, r.Chunk.Id)
	}
	for i, r := range lexical {
		part := (1 - alpha) * lNorm[i]
		if existing, ok := merged[r.Chunk.Id]; ok {
			existing.LexicalScore = r.LexicalScore
			existing.Score += part
			continue
		}
		res := commonModels.SearchResult{Chunk: r.Chunk, LexicalScore: r.LexicalScore, Score: part}
		merged[r.Chunk.Id] = &res
		order = append(order, r.Chunk.Id)
	}

	out := make([]commonModels.SearchResult, 0, len(order))
	for _, id := range order {
		out = append(out, *merged[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Chunk.DocumentId != out[j].Chunk.DocumentId {
			return out[i].Chunk.DocumentId < out[j].Chunk.DocumentId
		}
		return out[i].Chunk.ChunkIndex < out[j].Chunk.ChunkIndex
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func normalise(results []commonModels.SearchResult) []float64 {
	norm := make([]float64, len(results))
	if len(results) == 0 {
		return norm
	}
	lo, hi := results[0].Score, results[0].Score
	for _, r := range results[1:] {
		lo = min(lo, r.Score)
		hi = max(hi, r.Score)
	}
	for i, r := range results {
		if hi == lo {
			norm[i] = 1
			continue
		}
		norm[i] = (r.Score - lo) / (hi - lo)
	}
	return norm
}
