package services

import (
	"context"

	"prepwise/models"
	"prepwise/services/normalizer"
	"prepwise/services/prompt"

	"github.com/rs/zerolog/log"
)

type PlanService struct {
	memoryService *MemoryService
	gateway       ModelGateway
}

func NewPlanService(memoryService *MemoryService, gateway ModelGateway) *PlanService {
	return &PlanService{
		memoryService: memoryService,
		gateway:       gateway,
	}
}

// GeneratePlan returns the parsed plan JSON, or models.EmptyPlan() when
// anything goes wrong, including a panic further down.
func (s *PlanService) GeneratePlan(ctx context.Context, sessionID string) (plan any) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("[ERROR] Plan generation panicked: %v", r)
			plan = models.EmptyPlan()
		}
	}()

	log.Info().Msgf("[INFO] Starting learning plan generation for session %s", sessionID)

	memories := s.memoryService.GetMemories(ctx, sessionID)

	result, err := s.gateway.Run(ctx, models.RunRequest{
		SessionID:    sessionID,
		Instructions: prompt.PlanInstructions(memories),
		Context:      memoryContext(memories),
		Prompt:       prompt.PlanPrompt,
	})
	if err != nil {
		log.Error().Err(err).Msg("[ERROR] Plan agent run failed")
		return models.EmptyPlan()
	}

	parsed, err := normalizer.Parse(result.Content)
	if err != nil {
		log.Error().Err(err).Msg("[ERROR] Plan response was not valid JSON")
		return models.EmptyPlan()
	}

	log.Info().Msg("[INFO] Successfully generated learning plan")
	return parsed
}
