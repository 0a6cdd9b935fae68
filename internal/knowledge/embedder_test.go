package knowledge

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	vector := []float32{3, 4}
	Normalize(vector)

	assert.InDelta(t, 0.6, vector[0], 1e-6)
	assert.InDelta(t, 0.8, vector[1], 1e-6)

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestNormalizeZeroVector(t *testing.T) {
	vector := []float32{0, 0, 0}
	Normalize(vector)
	assert.Equal(t, []float32{0, 0, 0}, vector)
}

func TestNewOpenAIEmbedderWithoutKey(t *testing.T) {
	embedder := NewOpenAIEmbedder("", "text-embedding-3-small")
	assert.False(t, embedder.Ready())

	_, err := embedder.Embed(context.Background(), "hello")
	assert.Error(t, err)
}

func TestOpenAIEmbedderDimensions(t *testing.T) {
	embedder := NewOpenAIEmbedder("test-key", "text-embedding-3-large")
	assert.Equal(t, 3072, embedder.Dimensions())

	embedder = NewOpenAIEmbedder("test-key", "unknown-model")
	assert.Equal(t, 1536, embedder.Dimensions())
}
