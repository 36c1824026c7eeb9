package gemini

import (
	"PanicButton/pkg/llm"
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	ProviderName     = "gemini"
	DefaultModelName = "gemini-1.5-flash"
)

type IGemini interface {
	llm.Provider
	Close() error
}

type geminiClient struct {
	modelName string
	client    *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (IGemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	if modelName == "" {
		modelName = DefaultModelName
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiClient{
		modelName: modelName,
		client:    client,
	}, nil
}

func (g *geminiClient) Name() string {
	return ProviderName
}

func (g *geminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.modelName)

	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", toUpstreamError(err)
	}

	return firstText(res)
}

func (g *geminiClient) Converse(ctx context.Context, system string, history []llm.Message, userMessage string) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := model.StartChat()
	for _, msg := range history {
		role := "user"
		if msg.Role == llm.RoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	res, err := cs.SendMessage(ctx, genai.Text(userMessage))
	if err != nil {
		return "", toUpstreamError(err)
	}

	return firstText(res)
}

func (g *geminiClient) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func firstText(res *genai.GenerateContentResponse) (string, error) {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil ||
		len(res.Candidates[0].Content.Parts) == 0 {
		return "", &llm.InvalidResponseError{Provider: ProviderName, Raw: rawResponse(res)}
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	if sb.Len() == 0 {
		return "", &llm.InvalidResponseError{Provider: ProviderName, Raw: rawResponse(res)}
	}

	return sb.String(), nil
}

func toUpstreamError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Body
		}
		return &llm.UpstreamError{Provider: ProviderName, Status: apiErr.Code, Message: message}
	}
	return &llm.UpstreamError{Provider: ProviderName, Message: err.Error()}
}

func rawResponse(res *genai.GenerateContentResponse) string {
	if res == nil {
		return "null"
	}
	raw, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(res)
	if err != nil {
		return err.Error()
	}
	return raw
}
