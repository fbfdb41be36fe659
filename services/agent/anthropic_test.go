package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"prepwise/models"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const anthropicToolUseResponse = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-test",
  "content": [
    {"type": "tool_use", "id": "toolu_1", "name": "get_current_time", "input": {}}
  ],
  "stop_reason": "tool_use",
  "usage": {"input_tokens": 10, "output_tokens": 5}
}`

const anthropicTextResponse = `{
  "id": "msg_2",
  "type": "message",
  "role": "assistant",
  "model": "claude-test",
  "content": [
    {"type": "text", "text": "Your exam is in spring."}
  ],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 20, "output_tokens": 8}
}`

func newAnthropicTestServer(t *testing.T, responses ...string) (*httptest.Server, *[]map[string]any) {
	t.Helper()

	requests := []map[string]any{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		requests = append(requests, payload)

		index := len(requests) - 1
		if index >= len(responses) {
			index = len(responses) - 1
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(responses[index]))
	}))
	t.Cleanup(server.Close)

	return server, &requests
}

func TestAnthropicRunExecutesToolCalls(t *testing.T) {
	server, requests := newAnthropicTestServer(t, anthropicToolUseResponse, anthropicTextResponse)
	service := NewAnthropicService("test-key", "claude-test", NewToolbox(NewGetCurrentTimeTool()),
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)

	result, err := service.Run(context.Background(), models.RunRequest{
		SessionID:    "s1",
		Instructions: []string{"You are a tutor."},
		Prompt:       "When is my exam?",
		Tools:        []string{GetCurrentTimeToolName},
	})
	require.NoError(t, err)

	assert.Equal(t, "Your exam is in spring.", result.Content)
	require.Len(t, result.Messages, 4)
	assert.Equal(t, "toolu_1", result.Messages[1].ToolCalls[0].ID)
	assert.Equal(t, "tool", result.Messages[2].Role)
	assert.Equal(t, models.AgentMessage{Role: models.RoleAssistant, Content: "Your exam is in spring."}, result.Messages[3])

	require.Len(t, *requests, 2)
	first := (*requests)[0]
	assert.Equal(t, "claude-test", first["model"])
	tools, ok := first["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	assert.Equal(t, GetCurrentTimeToolName, tools[0].(map[string]any)["name"])

	second := (*requests)[1]
	messages := second["messages"].([]any)
	require.Len(t, messages, 3)
	toolResult := messages[2].(map[string]any)
	assert.Equal(t, "user", toolResult["role"])
	block := toolResult["content"].([]any)[0].(map[string]any)
	assert.Equal(t, "tool_result", block["type"])
	assert.Equal(t, "toolu_1", block["tool_use_id"])
}

func TestAnthropicRunWithoutTools(t *testing.T) {
	server, requests := newAnthropicTestServer(t, anthropicTextResponse)
	service := NewAnthropicService("test-key", "claude-test", NewToolbox(NewGetCurrentTimeTool()),
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)

	result, err := service.Run(context.Background(), models.RunRequest{SessionID: "s1", Prompt: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "Your exam is in spring.", result.Content)
	require.Len(t, *requests, 1)
	_, hasTools := (*requests)[0]["tools"]
	assert.False(t, hasTools)
}

func TestAnthropicRunSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))
	defer server.Close()

	service := NewAnthropicService("test-key", "claude-test", NewToolbox(),
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)

	result, err := service.Run(context.Background(), models.RunRequest{SessionID: "s1", Prompt: "hi"})
	assert.Nil(t, result)
	assert.ErrorContains(t, err, "failed to call Anthropic API")
}
