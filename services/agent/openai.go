package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"prepwise/models"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIService runs agents on any langchaingo model, OpenAI by default.
type OpenAIService struct {
	llm     llms.Model
	toolbox *Toolbox
}

func NewOpenAIService(apiKey, model string, toolbox *Toolbox) (*OpenAIService, error) {
	llm, err := openai.New(
		openai.WithModel(model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	return NewModelService(llm, toolbox), nil
}

func NewModelService(llm llms.Model, toolbox *Toolbox) *OpenAIService {
	return &OpenAIService{
		llm:     llm,
		toolbox: toolbox,
	}
}

func (s *OpenAIService) Run(ctx context.Context, req models.RunRequest) (*models.RunResult, error) {
	log.Info().Msgf("[INFO] Starting OpenAI agent run for session %s", req.SessionID)

	ctx = WithSessionID(ctx, req.SessionID)

	system, err := systemPrompt(req)
	if err != nil {
		return nil, err
	}

	tools := s.toolbox.Select(req.Tools)

	options := []llms.CallOption{llms.WithTemperature(0.7)}
	if len(tools) > 0 {
		options = append(options, llms.WithTools(langchainTools(tools)))
	}

	messageHistory := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}
	messages := []models.AgentMessage{{Role: models.RoleUser, Content: req.Prompt}}
	content := ""

	for round := 1; round <= maxToolRounds; round++ {
		log.Debug().Msgf("[DEBUG] OpenAI request round %d: %d messages, %d tools", round, len(messageHistory), len(tools))

		resp, err := s.llm.GenerateContent(ctx, messageHistory, options...)
		if err != nil {
			log.Error().Err(err).Msg("[ERROR] Failed to generate LLM response")
			return nil, fmt.Errorf("failed to generate LLM response: %w", err)
		}

		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("no choices in LLM response")
		}

		choice := resp.Choices[0]
		assistantMsg := models.AgentMessage{
			Role:    models.RoleAssistant,
			Content: choice.Content,
		}
		if choice.Content != "" {
			content = choice.Content
		}

		toolCalls := lo.Filter(choice.ToolCalls, func(toolCall llms.ToolCall, _ int) bool {
			return toolCall.FunctionCall != nil
		})

		if len(toolCalls) == 0 {
			messages = append(messages, assistantMsg)
			log.Info().Msgf("[INFO] OpenAI agent run finished after %d round(s)", round)
			return &models.RunResult{Content: content, Messages: messages}, nil
		}

		assistantParts := []llms.ContentPart{}
		if choice.Content != "" {
			assistantParts = append(assistantParts, llms.TextPart(choice.Content))
		}
		for _, toolCall := range toolCalls {
			assistantParts = append(assistantParts, toolCall)

			arguments := map[string]any{}
			if err := json.Unmarshal([]byte(toolCall.FunctionCall.Arguments), &arguments); err != nil {
				log.Warn().Err(err).Msgf("[WARN] Tool call %s for %s has malformed arguments", toolCall.ID, toolCall.FunctionCall.Name)
				arguments = map[string]any{}
			}
			assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, models.ToolCall{
				ID:        toolCall.ID,
				Name:      toolCall.FunctionCall.Name,
				Arguments: arguments,
			})
		}
		messageHistory = append(messageHistory, llms.MessageContent{
			Role:  llms.ChatMessageTypeAI,
			Parts: assistantParts,
		})
		messages = append(messages, assistantMsg)

		for _, toolCall := range toolCalls {
			log.Info().Msgf("[INFO] Executing tool: %s", toolCall.FunctionCall.Name)

			result, err := s.toolbox.Execute(ctx, tools, toolCall.FunctionCall.Name, toolCall.FunctionCall.Arguments)
			if err != nil {
				log.Error().Err(err).Msg("[ERROR] Tool execution failed")
				result = fmt.Sprintf("Error: %v", err)
			}

			messageHistory = append(messageHistory, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: toolCall.ID,
						Name:       toolCall.FunctionCall.Name,
						Content:    result,
					},
				},
			})
			messages = append(messages, models.AgentMessage{
				Role:        "tool",
				ToolResults: []models.ToolResult{{ToolCallID: toolCall.ID, Content: result}},
			})
		}
	}

	log.Warn().Msgf("[WARN] OpenAI agent hit the %d round tool limit", maxToolRounds)
	return &models.RunResult{Content: content, Messages: messages}, nil
}

func langchainTools(tools []AgentTool) []llms.Tool {
	return lo.Map(tools, func(tool AgentTool, _ int) llms.Tool {
		schema := tool.Schema()
		required := schema.Required
		if required == nil {
			required = []string{}
		}

		return llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters: map[string]any{
					"type":       "object",
					"properties": schema.Properties,
					"required":   required,
				},
			},
		}
	})
}
