// Package chunker splits raw text into overlapping, sentence-aware chunks.
//
// Offsets are in runes. Consecutive chunks always share exactly Overlap runes:
// chunk i+1 starts at chunk i's end minus Overlap, whether or not the end was
// snapped to a sentence boundary.
package chunker

import (
	"fmt"

	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
)

type Options struct {
	ChunkSize int
	Overlap   int
	// LookBack bounds how far before the hard cut a sentence boundary may be taken.
	LookBack       int
	SnapToSentence bool
}

type Candidate struct {
	Index     int
	Text      string
	CharStart int
	CharEnd   int
}

func DefaultOptions(chunkSize, overlap int) Options {
	return Options{
		ChunkSize:      chunkSize,
		Overlap:        overlap,
		LookBack:       chunkSize / 4,
		SnapToSentence: true,
	}
}

func (o Options) Validate() error {
	if o.ChunkSize <= 0 {
		return ragErrors.New(ragErrors.KindInvalidConfiguration, "chunker", "", fmt.Errorf("chunk size must be positive, got %d", o.ChunkSize))
	}
	if o.Overlap < 0 || o.Overlap >= o.ChunkSize {
		return ragErrors.New(ragErrors.KindInvalidConfiguration, "chunker", "",
			fmt.Errorf("overlap must be in [0, %d), got %d", o.ChunkSize, o.Overlap))
	}
	if o.LookBack < 0 {
		return ragErrors.New(ragErrors.KindInvalidConfiguration, "chunker", "", fmt.Errorf("look-back must not be negative, got %d", o.LookBack))
	}
	return nil
}

// Split chunks text with the default look-back and sentence snapping.
func Split(text string, chunkSize, overlap int) ([]Candidate, error) {
	return Chunk(text, DefaultOptions(chunkSize, overlap))
}

func Chunk(text string, opts Options) ([]Candidate, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	runes := []rune(text)
	n := len(runes)
	chunks := make([]Candidate, 0, estimate(n, opts))
	if n == 0 {
		return chunks, nil
	}

	cursor := 0
	for {
		if n-cursor <= opts.ChunkSize {
			chunks = append(chunks, newCandidate(runes, len(chunks), cursor, n))
			return chunks, nil
		}

		end := cursor + opts.ChunkSize
		if opts.SnapToSentence {
			end = snapToBoundary(runes, cursor, end, opts)
		}
		chunks = append(chunks, newCandidate(runes, len(chunks), cursor, end))
		cursor = end - opts.Overlap
	}
}

// snapToBoundary returns the end closest to hardEnd whose last rune ends a sentence.
// The end never drops to cursor+Overlap or below, so the cursor always advances.
func snapToBoundary(runes []rune, cursor, hardEnd int, opts Options) int {
	floor := hardEnd - opts.LookBack
	if minEnd := cursor + opts.Overlap + 1; floor < minEnd {
		floor = minEnd
	}
	for end := hardEnd; end >= floor; end-- {
		if isBoundary(runes[end-1]) {
			return end
		}
	}
	return hardEnd
}

func isBoundary(r rune) bool {
	switch r {
	case '.', '?', '!', '\n':
		return true
	}
	return false
}

func newCandidate(runes []rune, index, start, end int) Candidate {
	return Candidate{
		Index:     index,
		Text:      string(runes[start:end]),
		CharStart: start,
		CharEnd:   end,
	}
}

func estimate(n int, opts Options) int {
	step := opts.ChunkSize - opts.Overlap
	if n == 0 || step <= 0 {
		return 0
	}
	return n/step + 1
}
