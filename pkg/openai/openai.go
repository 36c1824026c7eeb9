package openai

import (
	"PanicButton/pkg/llm"
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const ProviderName = "openai"

type IChatGPT interface {
	llm.Provider
}

type chatGPTService struct {
	client *openai.Client
	model  string
}

// NewChatGPT builds a client for the chat completions API. An empty baseURL
// keeps the public endpoint.
func NewChatGPT(apiKey, model, baseURL string) IChatGPT {
	if model == "" {
		model = openai.GPT4oMini
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &chatGPTService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *chatGPTService) Name() string {
	return ProviderName
}

func (c *chatGPTService) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.2,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		return "", toUpstreamError(err)
	}

	return firstChoice(resp)
}

func (c *chatGPTService) Converse(
	ctx context.Context,
	system string,
	history []llm.Message,
	userMessage string,
) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == llm.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMessage,
	})

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: 0.7,
			MaxTokens:   150,
		},
	)
	if err != nil {
		return "", toUpstreamError(err)
	}

	return firstChoice(resp)
}

func firstChoice(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &llm.InvalidResponseError{
			Provider: ProviderName,
			Raw:      fmt.Sprintf("id=%s choices=%d", resp.ID, len(resp.Choices)),
		}
	}

	return resp.Choices[0].Message.Content, nil
}

func toUpstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &llm.UpstreamError{Provider: ProviderName, Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &llm.UpstreamError{Provider: ProviderName, Status: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}

	return &llm.UpstreamError{Provider: ProviderName, Message: err.Error()}
}
