package services

import (
	"context"
	"errors"
	"testing"

	"prepwise/models"
	"prepwise/services/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePlan(t *testing.T) {
	store := &fakeStore{entries: memories("Exam is NEET", "Subjects are Biology, Physics")}
	gateway := &fakeGateway{result: textResult("```json\n{\"topics\": [{\"id\": \"1\", \"title\": \"Laws of Motion\", \"subject\": \"Physics\"}]}\n```")}
	service := NewPlanService(NewMemoryService(store), gateway)

	plan := service.GeneratePlan(context.Background(), "s1")

	assert.Equal(t, map[string]any{
		"topics": []any{
			map[string]any{"id": "1", "title": "Laws of Motion", "subject": "Physics"},
		},
	}, plan)

	require.Len(t, gateway.requests, 1)
	assert.Equal(t, prompt.PlanPrompt, gateway.requests[0].Prompt)
	assert.Equal(t, prompt.PlanInstructions(store.entries), gateway.requests[0].Instructions)
}

func TestGeneratePlanFailuresReturnEmptyTopics(t *testing.T) {
	tests := []struct {
		name    string
		gateway *fakeGateway
	}{
		{name: "gateway error", gateway: &fakeGateway{err: errors.New("upstream 500")}},
		{name: "invalid json", gateway: &fakeGateway{result: textResult("I could not build a plan.")}},
		{name: "panic", gateway: &fakeGateway{panicMsg: "nil pointer in provider client"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewPlanService(NewMemoryService(&fakeStore{}), tt.gateway)

			plan := service.GeneratePlan(context.Background(), "s1")

			assert.Equal(t, models.EmptyPlan(), plan)
			assert.Equal(t, models.Plan{Topics: []models.Topic{}}, plan)
		})
	}
}
