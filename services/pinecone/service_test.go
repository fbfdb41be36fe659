package pinecone

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"prepwise/models"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)), 1}
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

type fakeIndex struct {
	vectors  map[string]*pinecone.Vector
	pageSize int
	listErr  error
	upserted int
}

func newFakeIndex(pageSize int) *fakeIndex {
	return &fakeIndex{vectors: map[string]*pinecone.Vector{}, pageSize: pageSize}
}

func (f *fakeIndex) UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error) {
	for _, vector := range in {
		f.vectors[vector.Id] = vector
	}
	f.upserted += len(in)
	return uint32(len(in)), nil
}

func (f *fakeIndex) ListVectors(ctx context.Context, in *pinecone.ListVectorsRequest) (*pinecone.ListVectorsResponse, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	ids := []string{}
	for id := range f.vectors {
		if strings.HasPrefix(id, *in.Prefix) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	start := 0
	if in.PaginationToken != nil {
		start, _ = strconv.Atoi(*in.PaginationToken)
	}
	end := min(start+f.pageSize, len(ids))

	resp := &pinecone.ListVectorsResponse{}
	for i := start; i < end; i++ {
		id := ids[i]
		resp.VectorIds = append(resp.VectorIds, &id)
	}
	if end < len(ids) {
		token := strconv.Itoa(end)
		resp.NextPaginationToken = &token
	}
	return resp, nil
}

func (f *fakeIndex) FetchVectors(ctx context.Context, ids []string) (*pinecone.FetchVectorsResponse, error) {
	resp := &pinecone.FetchVectorsResponse{Vectors: map[string]*pinecone.Vector{}}
	for _, id := range ids {
		if vector, ok := f.vectors[id]; ok {
			resp.Vectors[id] = vector
		}
	}
	return resp, nil
}

func TestAddThenGetAllKeepsOrderAcrossPages(t *testing.T) {
	index := newFakeIndex(2)
	service := newService(index, &fakeEmbedder{})
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return clock }

	err := service.Add(context.Background(), "s1", "", []models.Message{
		{Role: models.RoleUser, Content: "My name is Asha."},
	})
	require.NoError(t, err)

	clock = clock.Add(time.Minute)
	err = service.Add(context.Background(), "s1", "exam-agent-v1", []models.Message{
		{Role: models.RoleUser, Content: "Explain osmosis"},
		{Role: models.RoleAssistant, Content: "Osmosis is diffusion of water."},
	})
	require.NoError(t, err)

	require.NoError(t, service.Add(context.Background(), "s2", "", []models.Message{{Role: models.RoleUser, Content: "other"}}))
	assert.Equal(t, 4, index.upserted)

	entries, err := service.GetAll(context.Background(), "s1")
	require.NoError(t, err)

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.Memory
		assert.Equal(t, "s1", entry.SessionID)
		assert.True(t, strings.HasPrefix(entry.ID, "s1#"))
	}
	assert.Equal(t, []string{"My name is Asha.", "Explain osmosis", "Osmosis is diffusion of water."}, texts)
	assert.Equal(t, "", entries[0].AgentID)
	assert.Equal(t, "exam-agent-v1", entries[2].AgentID)
	assert.Equal(t, models.RoleAssistant, entries[2].Role)
}

func TestGetAllEmptyNamespace(t *testing.T) {
	index := newFakeIndex(10)
	index.listErr = errors.New("rpc error: Namespace not found")
	service := newService(index, &fakeEmbedder{})

	entries, err := service.GetAll(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	index.listErr = errors.New("unavailable")
	_, err = service.GetAll(context.Background(), "s1")
	assert.ErrorContains(t, err, "failed to list vectors")
}

func TestAddEmbeddingFailure(t *testing.T) {
	index := newFakeIndex(10)
	service := newService(index, &fakeEmbedder{err: errors.New("quota")})

	err := service.Add(context.Background(), "s1", "", []models.Message{{Role: models.RoleUser, Content: "hi"}})
	assert.ErrorContains(t, err, "failed to generate embeddings")
	assert.Zero(t, index.upserted)
}

func TestEntryMetadataRoundTrip(t *testing.T) {
	entry := models.MemoryEntry{
		ID:        "s1#abc",
		SessionID: "s1",
		AgentID:   "exam-agent-v1",
		Role:      models.RoleUser,
		Memory:    "I study at night",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC),
	}

	metadata, err := entryMetadata(entry)
	require.NoError(t, err)

	assert.Equal(t, entry, entryFromVector(&pinecone.Vector{Id: entry.ID, Metadata: metadata}))
	assert.Equal(t, models.MemoryEntry{ID: "bare"}, entryFromVector(&pinecone.Vector{Id: "bare"}))
}
