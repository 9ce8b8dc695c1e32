package embedding

import (
	"context"
	"fmt"
)

// Embedder turns text into vectors. BatchEmbedding returns one vector per input, in order.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error)
}

// CheckBatch rejects a provider response that cannot be zipped back onto its inputs:
// a wrong count, an empty vector or mixed dimensions.
func CheckBatch(inputs int, vectors [][]float32) error {
	if len(vectors) != inputs {
		return fmt.Errorf("got %d vectors for %d inputs", len(vectors), inputs)
	}
	dimension := -1
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("vector %d is empty", i)
		}
		if dimension == -1 {
			dimension = len(v)
		} else if len(v) != dimension {
			return fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dimension)
		}
	}
	return nil
}
