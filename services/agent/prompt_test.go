package agent

import (
	"testing"

	"prepwise/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemPrompt(t *testing.T) {
	prompt, err := systemPrompt(models.RunRequest{
		Instructions: []string{"You are a tutor.", "Answer briefly."},
	})
	require.NoError(t, err)
	assert.Equal(t, "You are a tutor.\nAnswer briefly.\n", prompt)

	prompt, err = systemPrompt(models.RunRequest{
		Instructions: []string{"You are a tutor."},
		Context:      map[string]any{"memory": []string{"likes physics"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "You are a tutor.\n\n<context>\n{\n  \"memory\": [\n    \"likes physics\"\n  ]\n}\n</context>\n", prompt)
}

func TestSystemPromptRejectsUnmarshalableContext(t *testing.T) {
	_, err := systemPrompt(models.RunRequest{Context: map[string]any{"bad": make(chan int)}})
	assert.ErrorContains(t, err, "failed to marshal agent context")
}
