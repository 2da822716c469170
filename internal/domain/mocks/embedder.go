// Package mocks provides mock implementations for testing.
package mocks

import "context"

// Embedder is a mock implementation of ports.Embedder.
type Embedder struct {
	EmbeddingResult []float32
	Err             error
	Size            uint64

	// Call tracking
	EmbedCallCount      int
	EmbedBatchCallCount int
	EmbeddedTexts       []string
}

// Embed returns the configured embedding or error.
func (m *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.EmbedCallCount++
	m.EmbeddedTexts = append(m.EmbeddedTexts, text)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.EmbeddingResult, nil
}

// EmbedBatch returns the configured embedding once per text.
func (m *Embedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.EmbedBatchCallCount++
	m.EmbeddedTexts = append(m.EmbeddedTexts, texts...)
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.EmbeddingResult
	}
	return result, nil
}

// Dimensions returns the configured vector size.
func (m *Embedder) Dimensions() uint64 {
	return m.Size
}
