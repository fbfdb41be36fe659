package pinecone

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"prepwise/models"

	"github.com/google/uuid"
	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	DefaultIndexName = "prepwise-memory-index"
	memoryNamespace  = "prepwise-memory"
	embeddingDim     = int32(1536)
	listPageSize     = uint32(100)
	idSeparator      = "#"
)

type vectorIndex interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	ListVectors(ctx context.Context, in *pinecone.ListVectorsRequest) (*pinecone.ListVectorsResponse, error)
	FetchVectors(ctx context.Context, ids []string) (*pinecone.FetchVectorsResponse, error)
}

// Service is a memory store on a Pinecone serverless index. Every message is
// one vector whose id is prefixed by the session so a session can be listed
// without a query.
type Service struct {
	index    vectorIndex
	embedder embeddings.Embedder
	now      func() time.Time
}

func NewService(ctx context.Context, apiKey, openaiAPIKey, indexName string) (*Service, error) {
	log.Info().Msgf("[INFO] Initializing Pinecone service for index %s", indexName)

	pc, err := NewClient(apiKey)
	if err != nil {
		return nil, err
	}

	llm, err := openai.New(
		openai.WithToken(openaiAPIKey),
		openai.WithEmbeddingModel("text-embedding-ada-002"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	idxDesc, err := pc.DescribeIndex(ctx, indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index: %w", err)
	}

	idxConn, err := pc.Index(pinecone.NewIndexConnParams{
		Host:      idxDesc.Host,
		Namespace: memoryNamespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index connection: %w", err)
	}

	log.Info().Msg("[INFO] Pinecone service initialized successfully")
	return newService(idxConn, embedder), nil
}

func newService(index vectorIndex, embedder embeddings.Embedder) *Service {
	return &Service{
		index:    index,
		embedder: embedder,
		now:      time.Now,
	}
}

func NewClient(apiKey string) (*pinecone.Client, error) {
	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}
	return pc, nil
}

func (s *Service) Add(ctx context.Context, sessionID, agentID string, messages []models.Message) error {
	texts := lo.Map(messages, func(message models.Message, _ int) string {
		return message.Content
	})

	values, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(values) != len(messages) {
		return fmt.Errorf("expected %d embeddings, got %d", len(messages), len(values))
	}

	// Nanosecond offsets keep insertion order when a batch shares a clock tick.
	base := s.now().UTC()
	vectors := make([]*pinecone.Vector, 0, len(messages))
	for i, message := range messages {
		entry := models.MemoryEntry{
			ID:        vectorID(sessionID),
			SessionID: sessionID,
			AgentID:   agentID,
			Role:      message.Role,
			Memory:    message.Content,
			CreatedAt: base.Add(time.Duration(i)),
		}

		metadata, err := entryMetadata(entry)
		if err != nil {
			return err
		}

		vectors = append(vectors, &pinecone.Vector{
			Id:       entry.ID,
			Values:   &values[i],
			Metadata: metadata,
		})
	}

	count, err := s.index.UpsertVectors(ctx, vectors)
	if err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}

	log.Info().Msgf("[INFO] Upserted %d memory vectors for session %s", count, sessionID)
	return nil
}

func (s *Service) GetAll(ctx context.Context, sessionID string) ([]models.MemoryEntry, error) {
	prefix := sessionID + idSeparator
	limit := listPageSize

	entries := []models.MemoryEntry{}
	var token *string

	for {
		listResp, err := s.index.ListVectors(ctx, &pinecone.ListVectorsRequest{
			Prefix:          &prefix,
			Limit:           &limit,
			PaginationToken: token,
		})
		if err != nil {
			if strings.Contains(err.Error(), "Namespace not found") {
				log.Info().Msgf("[INFO] Namespace does not exist yet - no memories for session %s", sessionID)
				return entries, nil
			}
			return nil, fmt.Errorf("failed to list vectors: %w", err)
		}

		ids := lo.FilterMap(listResp.VectorIds, func(id *string, _ int) (string, bool) {
			if id == nil {
				return "", false
			}
			return *id, true
		})

		if len(ids) > 0 {
			fetchResp, err := s.index.FetchVectors(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch vectors: %w", err)
			}

			for _, id := range ids {
				vector, ok := fetchResp.Vectors[id]
				if !ok || vector == nil {
					continue
				}
				entries = append(entries, entryFromVector(vector))
			}
		}

		if listResp.NextPaginationToken == nil {
			break
		}
		token = listResp.NextPaginationToken
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	return entries, nil
}

// EnsureIndex creates the serverless index when it is missing and waits
// until it reports ready.
func EnsureIndex(ctx context.Context, pc *pinecone.Client, indexName string) error {
	indexes, err := pc.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}

	for _, idx := range indexes {
		if idx.Name == indexName {
			log.Info().Msgf("[INFO] Index %s already exists", indexName)
			return nil
		}
	}

	log.Info().Msgf("[INFO] Creating Pinecone index: %s", indexName)
	dimension := embeddingDim
	deletionProtection := pinecone.DeletionProtectionDisabled
	metric := pinecone.Cosine

	_, err = pc.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:               indexName,
		Dimension:          &dimension,
		Metric:             &metric,
		Cloud:              pinecone.Aws,
		Region:             "us-east-1",
		DeletionProtection: &deletionProtection,
		Tags:               &pinecone.IndexTags{"project": "prepwise-memory"},
	})
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	for {
		idx, err := pc.DescribeIndex(ctx, indexName)
		if err != nil {
			return fmt.Errorf("failed to describe index: %w", err)
		}
		if idx.Status.Ready {
			log.Info().Msgf("[INFO] Index %s is ready", indexName)
			return nil
		}

		log.Info().Msgf("[INFO] Waiting for index %s to be ready...", indexName)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Second):
		}
	}
}

func vectorID(sessionID string) string {
	return sessionID + idSeparator + uuid.NewString()
}

func entryMetadata(entry models.MemoryEntry) (*structpb.Struct, error) {
	metadata, err := structpb.NewStruct(map[string]any{
		"session_id": entry.SessionID,
		"agent_id":   entry.AgentID,
		"role":       entry.Role,
		"memory":     entry.Memory,
		"created_at": entry.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata struct for %s: %w", entry.ID, err)
	}
	return metadata, nil
}

func entryFromVector(vector *pinecone.Vector) models.MemoryEntry {
	entry := models.MemoryEntry{ID: vector.Id}
	if vector.Metadata == nil {
		return entry
	}

	metadata := vector.Metadata.AsMap()
	entry.SessionID, _ = metadata["session_id"].(string)
	entry.AgentID, _ = metadata["agent_id"].(string)
	entry.Role, _ = metadata["role"].(string)
	entry.Memory, _ = metadata["memory"].(string)
	if createdAt, ok := metadata["created_at"].(string); ok {
		entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	}

	return entry
}
