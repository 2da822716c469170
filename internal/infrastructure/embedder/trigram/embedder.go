// Package trigram provides an Embedder that hashes character trigrams into
// a fixed-size vector, so names with similar spelling land near each other.
package trigram

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"

	"github.com/ersonp/fishreg/internal/domain/ports"
)

// MinDimensions is the smallest vector size accepted by NewEmbedder.
const MinDimensions = 16

// Embedder implements ports.Embedder with hashed character trigrams.
type Embedder struct {
	dims int
}

var _ ports.Embedder = (*Embedder)(nil)

// NewEmbedder creates a trigram embedder producing vectors of size dims.
func NewEmbedder(dims int) (*Embedder, error) {
	if dims < MinDimensions {
		return nil, errors.New("trigram dimensions must be at least 16")
	}
	return &Embedder{dims: dims}, nil
}

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() uint64 {
	return uint64(e.dims)
}

// Embed generates a unit-length vector for text. Empty text yields the zero vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.vector(text), nil
}

// EmbedBatch generates vectors for multiple texts.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.vector(text)
	}
	return vectors, nil
}

func (e *Embedder) vector(text string) []float32 {
	vec := make([]float32, e.dims)
	for _, gram := range trigrams(text) {
		h := fnv.New32a()
		h.Write([]byte(gram))
		sum := h.Sum32()
		// The high bit picks the sign so collisions tend to cancel.
		if sum&(1<<31) != 0 {
			vec[int(sum%uint32(e.dims))]--
		} else {
			vec[int(sum%uint32(e.dims))]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// trigrams splits each word of text, padded with spaces, into overlapping
// three-rune windows.
func trigrams(text string) []string {
	var grams []string
	for _, word := range strings.Fields(text) {
		runes := []rune(" " + word + " ")
		for i := 0; i+3 <= len(runes); i++ {
			grams = append(grams, string(runes[i:i+3]))
		}
	}
	return grams
}
