package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"prepwise/models"
	"prepwise/services/normalizer"
	"prepwise/services/prompt"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	QuizTopicRequiredMessage = "Topic is required"

	minQuizQuestions = 10
	maxQuizQuestions = 20
	quizOptionCount  = 4
)

type QuizService struct {
	memoryService *MemoryService
	gateway       ModelGateway
}

func NewQuizService(memoryService *MemoryService, gateway ModelGateway) *QuizService {
	return &QuizService{
		memoryService: memoryService,
		gateway:       gateway,
	}
}

// GenerateQuiz returns the parsed quiz JSON exactly as the model produced
// it. Unparseable output comes back as a *normalizer.ParseError.
func (s *QuizService) GenerateQuiz(ctx context.Context, req *models.QuizRequest) (any, error) {
	log.Info().Msg("[INFO] Starting quiz generation")

	if req == nil || strings.TrimSpace(req.Message) == "" {
		log.Error().Msg("[ERROR] Quiz request is missing a topic")
		return nil, &ValidationError{Message: QuizTopicRequiredMessage}
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = models.DefaultQuizSessionID
	}

	memories := s.memoryService.GetMemories(ctx, sessionID)

	log.Info().Msgf("[INFO] Calling quiz agent for topic %q", req.Message)
	result, err := s.gateway.Run(ctx, models.RunRequest{
		SessionID:    sessionID,
		Instructions: prompt.QuizInstructions(memories),
		Context:      memoryContext(memories),
		Prompt:       prompt.QuizPrompt(req.Message, memories),
	})
	if err != nil {
		log.Error().Err(err).Msg("[ERROR] Quiz agent run failed")
		return nil, fmt.Errorf("quiz agent failed: %w", err)
	}

	quiz, err := normalizer.Parse(result.Content)
	if err != nil {
		log.Error().Err(err).Msg("[ERROR] Quiz response was not valid JSON")
		return nil, err
	}

	for _, problem := range quizShapeProblems(result.Content) {
		log.Warn().Msgf("[WARN] Quiz for topic %q: %s", req.Message, problem)
	}

	log.Info().Msg("[INFO] Successfully generated quiz")
	return quiz, nil
}

// quizShapeProblems decodes the output into models.Quiz and lists the ways
// it departs from the requested shape. It only feeds logging; the parsed
// output is returned unchanged.
func quizShapeProblems(raw string) []string {
	var quiz models.Quiz
	if err := json.Unmarshal([]byte(normalizer.StripFences(raw)), &quiz); err != nil {
		return []string{fmt.Sprintf("does not decode as a quiz: %v", err)}
	}

	problems := []string{}
	if strings.TrimSpace(quiz.Topic) == "" {
		problems = append(problems, "topic is empty")
	}
	if n := len(quiz.Questions); n < minQuizQuestions || n > maxQuizQuestions {
		problems = append(problems, fmt.Sprintf("has %d questions, want %d to %d", n, minQuizQuestions, maxQuizQuestions))
	}

	for i, question := range quiz.Questions {
		if len(question.Options) != quizOptionCount {
			problems = append(problems, fmt.Sprintf("question %d has %d options", i+1, len(question.Options)))
		}
		if !lo.Contains(question.Options, question.CorrectAnswer) {
			problems = append(problems, fmt.Sprintf("question %d answer %q is not one of its options", i+1, question.CorrectAnswer))
		}
	}

	return problems
}
