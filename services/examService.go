package services

import (
	"context"
	"fmt"
	"strings"

	"prepwise/models"
	"prepwise/services/prompt"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	ExamAgentID = "exam-agent-v1"

	AskMissingFieldsMessage = "Both 'message' and 'session_id' are required"
)

// ExamService answers free-form study questions with the tool-enabled exam
// agent and remembers the exchange.
type ExamService struct {
	memoryService *MemoryService
	gateway       ModelGateway
	tools         []string
	webTools      bool
}

func NewExamService(memoryService *MemoryService, gateway ModelGateway, tools []string, webTools bool) *ExamService {
	return &ExamService{
		memoryService: memoryService,
		gateway:       gateway,
		tools:         tools,
		webTools:      webTools,
	}
}

func (s *ExamService) Ask(ctx context.Context, req *models.AskRequest) (*models.AskResponse, error) {
	log.Info().Msg("[INFO] Starting exam agent ask")

	if req == nil || strings.TrimSpace(req.Message) == "" || strings.TrimSpace(req.SessionID) == "" {
		log.Error().Msg("[ERROR] Ask request is missing message or session_id")
		return nil, &ValidationError{Message: AskMissingFieldsMessage}
	}

	memories := s.memoryService.GetMemories(ctx, req.SessionID)

	result, err := s.gateway.Run(ctx, models.RunRequest{
		SessionID:    req.SessionID,
		Instructions: prompt.ExamInstructions(s.webTools),
		Context:      memoryContext(memories),
		Prompt:       req.Message,
		Tools:        s.tools,
	})
	if err != nil {
		log.Error().Err(err).Msg("[ERROR] Exam agent run failed")
		return nil, fmt.Errorf("exam agent failed: %w", err)
	}

	s.memoryService.SaveQuietly(ctx, req.SessionID, ExamAgentID, exchangeMessages(req.Message, result))

	log.Info().Msgf("[INFO] Exam agent replied with %d characters", len(result.Content))
	return &models.AskResponse{Reply: result.Content}, nil
}

// exchangeMessages keeps the user prompt and every assistant message with
// text. Tool traffic is not remembered.
func exchangeMessages(userMessage string, result *models.RunResult) []models.Message {
	messages := lo.FilterMap(result.Messages, func(msg models.AgentMessage, _ int) (models.Message, bool) {
		keep := (msg.Role == models.RoleUser || msg.Role == models.RoleAssistant) && msg.Content != ""
		return models.Message{Role: msg.Role, Content: msg.Content}, keep
	})

	if len(messages) == 0 {
		messages = []models.Message{{Role: models.RoleUser, Content: userMessage}}
		if result.Content != "" {
			messages = append(messages, models.Message{Role: models.RoleAssistant, Content: result.Content})
		}
	}

	return messages
}
