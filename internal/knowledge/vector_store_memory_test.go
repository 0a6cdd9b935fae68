package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func memoryRecord(id string, embedding []float32, chunk string) Record {
	return Record{
		ID:        id,
		Embedding: embedding,
		Metadata: RecordMetadata{
			DocID:    "doc",
			Chunk:    chunk,
			Filename: "doc.txt",
		},
	}
}

func TestMemoryVectorStoreQueryOrdering(t *testing.T) {
	store := NewMemoryVectorStore()
	ctx := context.Background()

	err := store.Upsert(ctx, []Record{
		memoryRecord("a", []float32{1, 0}, "chunk a"),
		memoryRecord("b", []float32{0, 1}, "chunk b"),
		memoryRecord("c", []float32{0.6, 0.8}, "chunk c"),
	})
	assert.NoError(t, err)

	matches, err := store.Query(ctx, []float32{1, 0}, 2)
	assert.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	assert.Equal(t, "c", matches[1].ID)
	assert.Equal(t, "chunk c", matches[1].Metadata.Chunk)
}

func TestMemoryVectorStoreUpsertOverwrite(t *testing.T) {
	store := NewMemoryVectorStore()
	ctx := context.Background()

	assert.NoError(t, store.Upsert(ctx, []Record{memoryRecord("a", []float32{1, 0}, "old")}))
	assert.NoError(t, store.Upsert(ctx, []Record{memoryRecord("a", []float32{1, 0}, "new")}))

	total, err := store.Stats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)

	matches, err := store.Query(ctx, []float32{1, 0}, 5)
	assert.NoError(t, err)
	assert.Equal(t, "new", matches[0].Metadata.Chunk)
}

func TestMemoryVectorStoreEmptyStats(t *testing.T) {
	store := NewMemoryVectorStore()

	total, err := store.Stats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(0), total)

	matches, err := store.Query(context.Background(), []float32{1, 0}, 5)
	assert.NoError(t, err)
	assert.Empty(t, matches)
}
