package services

import (
	"context"
	"fmt"
	"strings"

	"prepwise/models"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog/log"
)

// MemoryStore is the session-scoped memory gateway. Implementations live in
// db (Postgres), services/pinecone and services/mem0.
type MemoryStore interface {
	GetAll(ctx context.Context, sessionID string) ([]models.MemoryEntry, error)
	Add(ctx context.Context, sessionID, agentID string, messages []models.Message) error
}

type MemoryService struct {
	store MemoryStore
}

func NewMemoryService(store MemoryStore) *MemoryService {
	return &MemoryService{store: store}
}

// GetMemories never fails: a store error is logged and treated as an empty
// memory so the request can continue.
func (s *MemoryService) GetMemories(ctx context.Context, sessionID string) []models.MemoryEntry {
	log.Info().Msgf("[INFO] Loading memory for session %s", sessionID)

	memories, err := s.store.GetAll(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Msgf("[ERROR] Failed to load memory for session %s, continuing without it", sessionID)
		return []models.MemoryEntry{}
	}

	log.Info().Msgf("[INFO] Loaded %d memories for session %s", len(memories), sessionID)
	return memories
}

func (s *MemoryService) AddMessages(ctx context.Context, sessionID, agentID string, messages []models.Message) error {
	log.Info().Msgf("[INFO] Saving %d messages to memory for session %s", len(messages), sessionID)

	if len(messages) == 0 {
		return nil
	}

	if err := s.store.Add(ctx, sessionID, agentID, messages); err != nil {
		log.Error().Err(err).Msgf("[ERROR] Failed to save memory for session %s", sessionID)
		return fmt.Errorf("failed to save memory: %w", err)
	}

	log.Info().Msgf("[INFO] Saved memory for session %s", sessionID)
	return nil
}

// SaveQuietly writes messages and only logs a failure. Used where a lost
// memory write must not affect the response.
func (s *MemoryService) SaveQuietly(ctx context.Context, sessionID, agentID string, messages []models.Message) {
	if err := s.AddMessages(ctx, sessionID, agentID, messages); err != nil {
		log.Warn().Err(err).Msgf("[WARN] Memory write dropped for session %s", sessionID)
	}
}

func (s *MemoryService) SearchMemories(ctx context.Context, sessionID string, searchTerms []string) []models.MemoryEntry {
	log.Info().Msgf("[INFO] Starting memory search with %d search terms", len(searchTerms))

	memories := s.GetMemories(ctx, sessionID)
	if len(searchTerms) == 0 {
		log.Info().Msgf("[INFO] No search terms provided, returning all %d memories", len(memories))
		return memories
	}

	var matching []models.MemoryEntry
	for _, memory := range memories {
		if memoryMatchesSearch(memory.Memory, searchTerms) {
			matching = append(matching, memory)
		}
	}

	log.Info().Msgf("[INFO] Found %d memories matching search criteria", len(matching))
	return matching
}

func memoryMatchesSearch(content string, searchTerms []string) bool {
	words := strings.Fields(strings.ToLower(content))

	cleanWords := make([]string, 0, len(words))
	for _, word := range words {
		cleanWord := strings.Trim(word, ".,!?;:()[]{}\"'")
		if len(cleanWord) > 0 {
			cleanWords = append(cleanWords, cleanWord)
		}
	}

	for _, term := range searchTerms {
		if fuzzy.MatchFold(term, content) {
			return true
		}

		if len(fuzzy.Find(strings.ToLower(term), cleanWords)) > 0 {
			return true
		}
	}

	return false
}
