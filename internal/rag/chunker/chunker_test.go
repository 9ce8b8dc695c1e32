package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "The quick brown fox jumps over the lazy dog. Pack my box with five dozen liquor jugs!\n" +
	"How vexingly quick daft zebras jump? Sphinx of black quartz, judge my vow. " +
	"The five boxing wizards jump quickly. Jackdaws love my big sphinx of quartz.\n" +
	"Grumpy wizards make toxic brew for the evil queen and jack. Ünïcödé runes count as one character."

// reassemble drops the first overlap runes of every chunk after the first.
func reassemble(chunks []Candidate, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		r := []rune(c.Text)
		if i > 0 {
			r = r[overlap:]
		}
		b.WriteString(string(r))
	}
	return b.String()
}

func TestChunk_EmptyInput(t *testing.T) {
	chunks, err := Split("", 100, 10)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_ShortInputIsSingleChunk(t *testing.T) {
	chunks, err := Split("Hello world.", 1000, 100)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Hello world.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, 12, chunks[0].CharEnd)
}

func TestChunk_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -5, 0},
		{"overlap equals size", 10, 10},
		{"overlap above size", 10, 11},
		{"negative overlap", 10, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(sample, tt.size, tt.overlap)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ragErrors.ErrInvalidConfiguration))
		})
	}
}

func TestChunk_RoundTrip(t *testing.T) {
	for _, snap := range []bool{false, true} {
		for _, size := range []int{7, 25, 60, 128} {
			for _, overlap := range []int{0, 1, 3, size / 2, size - 1} {
				opts := Options{ChunkSize: size, Overlap: overlap, LookBack: size / 4, SnapToSentence: snap}
				chunks, err := Chunk(sample, opts)
				require.NoError(t, err)
				assert.Equal(t, sample, reassemble(chunks, overlap), "size=%d overlap=%d snap=%v", size, overlap, snap)
			}
		}
	}
}

func TestChunk_Invariants(t *testing.T) {
	opts := DefaultOptions(60, 12)
	chunks, err := Chunk(sample, opts)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	total := len([]rune(sample))
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.LessOrEqual(t, len([]rune(c.Text)), opts.ChunkSize)
		assert.Equal(t, c.CharEnd-c.CharStart, len([]rune(c.Text)))
		if i > 0 {
			assert.Equal(t, chunks[i-1].CharEnd-opts.Overlap, c.CharStart, "overlap accounting")
		}
	}
	assert.Equal(t, total, chunks[len(chunks)-1].CharEnd, "final chunk reaches the end without padding")
}

func TestChunk_SnapsToSentenceBoundary(t *testing.T) {
	text := "First sentence here. Second sentence is a bit longer than the first."
	chunks, err := Chunk(text, Options{ChunkSize: 30, Overlap: 0, LookBack: 15, SnapToSentence: true})
	require.NoError(t, err)
	assert.Equal(t, "First sentence here.", chunks[0].Text)

	hard, err := Chunk(text, Options{ChunkSize: 30, Overlap: 0, SnapToSentence: false})
	require.NoError(t, err)
	assert.Equal(t, 30, len([]rune(hard[0].Text)), "without snapping the cut is hard")
}

func TestChunk_LookBackLimitsSnapping(t *testing.T) {
	text := "Short. " + strings.Repeat("x", 40)
	chunks, err := Chunk(text, Options{ChunkSize: 30, Overlap: 0, LookBack: 5, SnapToSentence: true})
	require.NoError(t, err)
	assert.Equal(t, 30, len([]rune(chunks[0].Text)), "boundary outside the look-back window is ignored")
}

func TestChunk_AlwaysProgresses(t *testing.T) {
	// a boundary right after the overlap region must not stall the cursor
	text := strings.Repeat("ab.", 50)
	chunks, err := Chunk(text, Options{ChunkSize: 10, Overlap: 9, LookBack: 10, SnapToSentence: true})
	require.NoError(t, err)
	assert.Equal(t, text, reassemble(chunks, 9))
}

func TestChunk_Deterministic(t *testing.T) {
	a, err := Split(sample, 50, 10)
	require.NoError(t, err)
	b, err := Split(sample, 50, 10)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
