package services

import (
	"context"

	"prepwise/models"
)

type fakeStore struct {
	entries  []models.MemoryEntry
	getErr   error
	addErr   error
	getCalls int
	added    [][]models.Message
	agentIDs []string
}

func (f *fakeStore) GetAll(ctx context.Context, sessionID string) ([]models.MemoryEntry, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entries, nil
}

func (f *fakeStore) Add(ctx context.Context, sessionID, agentID string, messages []models.Message) error {
	f.added = append(f.added, messages)
	f.agentIDs = append(f.agentIDs, agentID)
	return f.addErr
}

func (f *fakeStore) calls() int {
	return f.getCalls + len(f.added)
}

type fakeGateway struct {
	result   *models.RunResult
	err      error
	panicMsg string
	requests []models.RunRequest
}

func (f *fakeGateway) Run(ctx context.Context, req models.RunRequest) (*models.RunResult, error) {
	f.requests = append(f.requests, req)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func textResult(content string) *models.RunResult {
	return &models.RunResult{Content: content}
}

func memories(texts ...string) []models.MemoryEntry {
	out := make([]models.MemoryEntry, 0, len(texts))
	for _, text := range texts {
		out = append(out, models.MemoryEntry{Memory: text})
	}
	return out
}
