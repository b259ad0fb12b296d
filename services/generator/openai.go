// Package generator implements the ContentGenerator used by the generate node.
package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"automation-platform/api/services/workflow"
)

const DefaultModel = openai.GPT4oMini

var ErrEmptyResponse = errors.New("model returned no choices")

// OpenAIGenerator produces text with the OpenAI chat completions API or any
// endpoint compatible with it.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// Config holds the settings of an OpenAIGenerator.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewOpenAI creates a generator from cfg.
func NewOpenAI(cfg Config) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req workflow.GenerateRequest) (workflow.GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	log.Debug().Str("model", model).Int("prompt_length", len(req.Prompt)).Msg("Requesting completion")

	resp, err := g.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return workflow.GenerateResponse{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return workflow.GenerateResponse{}, ErrEmptyResponse
	}

	return workflow.GenerateResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
	}, nil
}
