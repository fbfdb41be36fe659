package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"prepwise/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"
)

// AnthropicService runs agents on Claude through the Messages API, looping
// over tool calls until the model answers in text.
type AnthropicService struct {
	client  *anthropic.Client
	model   string
	toolbox *Toolbox
}

func NewAnthropicService(apiKey, model string, toolbox *Toolbox, opts ...option.RequestOption) *AnthropicService {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := anthropic.NewClient(opts...)

	return &AnthropicService{
		client:  &client,
		model:   model,
		toolbox: toolbox,
	}
}

func (s *AnthropicService) Run(ctx context.Context, req models.RunRequest) (*models.RunResult, error) {
	log.Info().Msgf("[INFO] Starting Anthropic agent run for session %s", req.SessionID)

	ctx = WithSessionID(ctx, req.SessionID)

	system, err := systemPrompt(req)
	if err != nil {
		return nil, err
	}

	tools := s.toolbox.Select(req.Tools)
	toolSpecs := s.buildAnthropicToolSpecs(tools)

	messages := []models.AgentMessage{{Role: models.RoleUser, Content: req.Prompt}}
	content := ""

	for round := 1; round <= maxToolRounds; round++ {
		anthropicMessages := s.convertToAnthropicMessages(messages)
		s.logAnthropicRequest(round, anthropicMessages, toolSpecs)

		response, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(s.model),
			MaxTokens: 4096,
			System:    []anthropic.TextBlockParam{{Text: system}},
			Messages:  anthropicMessages,
			Tools:     toolSpecs,
		})
		if err != nil {
			log.Error().Err(err).Msg("[ERROR] Failed to call Anthropic API")
			return nil, fmt.Errorf("failed to call Anthropic API: %w", err)
		}

		s.logAnthropicResponse(round, response)

		toolUses := []anthropic.ToolUseBlock{}
		assistantContent := ""

		for _, block := range response.Content {
			switch block := block.AsAny().(type) {
			case anthropic.TextBlock:
				assistantContent += block.Text
			case anthropic.ToolUseBlock:
				toolUses = append(toolUses, block)
			}
		}

		assistantMsg := models.AgentMessage{
			Role:    models.RoleAssistant,
			Content: assistantContent,
		}

		toolInputs := make([]string, len(toolUses))
		for i, toolUse := range toolUses {
			inputJSON, _ := json.Marshal(toolUse.Input)
			toolInputs[i] = string(inputJSON)

			inputMap := map[string]any{}
			if err := json.Unmarshal(inputJSON, &inputMap); err != nil {
				log.Warn().Err(err).Msgf("[WARN] Tool use %s for %s has malformed input", toolUse.ID, toolUse.Name)
				inputMap = map[string]any{}
			}

			assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, models.ToolCall{
				ID:        toolUse.ID,
				Name:      toolUse.Name,
				Arguments: inputMap,
			})
		}

		messages = append(messages, assistantMsg)
		if assistantContent != "" {
			content = assistantContent
		}

		if len(toolUses) == 0 {
			log.Info().Msgf("[INFO] Anthropic agent run finished after %d round(s)", round)
			return &models.RunResult{Content: content, Messages: messages}, nil
		}

		for i, toolUse := range toolUses {
			log.Info().Msgf("[INFO] Executing tool: %s", toolUse.Name)

			result, err := s.toolbox.Execute(ctx, tools, toolUse.Name, toolInputs[i])
			if err != nil {
				log.Error().Err(err).Msg("[ERROR] Tool execution failed")
				result = fmt.Sprintf("Error: %v", err)
			}

			messages = append(messages, models.AgentMessage{
				Role: "tool",
				ToolResults: []models.ToolResult{
					{
						ToolCallID: toolUse.ID,
						Content:    result,
					},
				},
			})
		}
	}

	log.Warn().Msgf("[WARN] Anthropic agent hit the %d round tool limit", maxToolRounds)
	return &models.RunResult{Content: content, Messages: messages}, nil
}

func (s *AnthropicService) convertToAnthropicMessages(messages []models.AgentMessage) []anthropic.MessageParam {
	var anthropicMessages []anthropic.MessageParam

	for _, msg := range messages {
		switch msg.Role {
		case models.RoleUser:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case models.RoleAssistant:
			contentBlocks := []anthropic.ContentBlockParamUnion{}

			if msg.Content != "" {
				contentBlocks = append(contentBlocks, anthropic.ContentBlockParamUnion{
					OfText: &anthropic.TextBlockParam{Text: msg.Content},
				})
			}

			for _, toolCall := range msg.ToolCalls {
				contentBlocks = append(contentBlocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    toolCall.ID,
						Name:  toolCall.Name,
						Input: toolCall.Arguments,
					},
				})
			}

			anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(contentBlocks...))
		case "tool":
			toolResultBlocks := []anthropic.ContentBlockParamUnion{}
			for _, result := range msg.ToolResults {
				toolResultBlocks = append(toolResultBlocks, anthropic.ContentBlockParamUnion{
					OfToolResult: &anthropic.ToolResultBlockParam{
						ToolUseID: result.ToolCallID,
						Content: []anthropic.ToolResultBlockParamContentUnion{
							{OfText: &anthropic.TextBlockParam{Text: result.Content}},
						},
					},
				})
			}
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(toolResultBlocks...))
		}
	}

	return anthropicMessages
}

func (s *AnthropicService) buildAnthropicToolSpecs(tools []AgentTool) []anthropic.ToolUnionParam {
	var toolSpecs []anthropic.ToolUnionParam

	for _, tool := range tools {
		toolSpecs = append(toolSpecs, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name(),
				Description: anthropic.String(tool.Description()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: tool.Schema().Properties,
				},
			},
		})
	}

	return toolSpecs
}

func (s *AnthropicService) logAnthropicRequest(round int, messages []anthropic.MessageParam, tools []anthropic.ToolUnionParam) {
	toolNames := make([]string, 0, len(tools))
	for _, tool := range tools {
		if tool.OfTool != nil {
			toolNames = append(toolNames, tool.OfTool.Name)
		}
	}

	log.Debug().Msgf("[DEBUG] Anthropic request round %d: %d messages, tools [%s]", round, len(messages), strings.Join(toolNames, ", "))
}

func (s *AnthropicService) logAnthropicResponse(round int, response *anthropic.Message) {
	log.Debug().Msgf("[DEBUG] Anthropic response round %d: model=%s stop_reason=%s blocks=%d", round, response.Model, response.StopReason, len(response.Content))

	for i, block := range response.Content {
		switch block := block.AsAny().(type) {
		case anthropic.TextBlock:
			log.Debug().Msgf("[DEBUG]   [%d] Text: %.200s", i, block.Text)
		case anthropic.ToolUseBlock:
			log.Debug().Msgf("[DEBUG]   [%d] Tool Use: ID=%s, Name=%s", i, block.ID, block.Name)
		}
	}
}
