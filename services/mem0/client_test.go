package mem0

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"prepwise/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSendsMessages(t *testing.T) {
	var received addRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/memories/", r.URL.Path)
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`[{"id":"m1","event":"ADD"}]`))
	}))
	defer server.Close()

	client := NewClient("secret", server.URL+"/")
	err := client.Add(context.Background(), "s1", "exam-agent-v1", []models.Message{
		{Role: models.RoleUser, Content: "What is osmosis?"},
		{Role: models.RoleAssistant, Content: "Diffusion of water."},
	})
	require.NoError(t, err)

	assert.Equal(t, "s1", received.UserID)
	assert.Equal(t, "exam-agent-v1", received.AgentID)
	assert.Len(t, received.Messages, 2)
	assert.Equal(t, "Diffusion of water.", received.Messages[1].Content)
}

func TestAddOmitsEmptyAgentID(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient("secret", server.URL)
	require.NoError(t, client.Add(context.Background(), "s1", "", []models.Message{{Role: models.RoleUser, Content: "hi"}}))

	_, hasAgent := raw["agent_id"]
	assert.False(t, hasAgent)
	assert.Equal(t, "s1", raw["user_id"])
}

func TestGetAll(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "bare array",
			body: `[{"id":"m1","memory":"Name is Asha","user_id":"s1","created_at":"2026-01-01T10:00:00Z"},{"id":"m2","memory":"Preparing for NEET","user_id":"s1","created_at":"2026-01-01T10:01:00Z"}]`,
		},
		{
			name: "paginated",
			body: `{"count":2,"results":[{"id":"m1","memory":"Name is Asha","user_id":"s1","created_at":"2026-01-01T10:00:00Z"},{"id":"m2","memory":"Preparing for NEET","created_at":"2026-01-01T10:01:00Z"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "s1", r.URL.Query().Get("user_id"))
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			entries, err := NewClient("secret", server.URL).GetAll(context.Background(), "s1")
			require.NoError(t, err)

			require.Len(t, entries, 2)
			assert.Equal(t, models.MemoryEntry{
				ID:        "m1",
				SessionID: "s1",
				Memory:    "Name is Asha",
				CreatedAt: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
			}, entries[0])
			assert.Equal(t, "s1", entries[1].SessionID)
			assert.Equal(t, "", entries[1].Role)
		})
	}
}

func TestGetAllEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":null}`))
	}))
	defer server.Close()

	entries, err := NewClient("secret", server.URL).GetAll(context.Background(), "s1")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestErrorsIncludeStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid API key"}`))
	}))
	defer server.Close()

	client := NewClient("bad", server.URL)

	_, err := client.GetAll(context.Background(), "s1")
	assert.EqualError(t, err, `mem0 returned HTTP 401: {"detail":"Invalid API key"}`)

	err = client.Add(context.Background(), "s1", "", []models.Message{{Role: models.RoleUser, Content: "hi"}})
	assert.ErrorContains(t, err, "HTTP 401")

	server.Close()
	_, err = client.GetAll(context.Background(), "s1")
	assert.ErrorContains(t, err, "failed to call mem0")
}

func TestDecodeRecordsRejectsGarbage(t *testing.T) {
	_, err := decodeRecords([]byte("not json"))
	assert.ErrorContains(t, err, "failed to decode mem0 memories")
}
