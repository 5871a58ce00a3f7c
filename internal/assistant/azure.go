package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nerrad567/smartaura-core/internal/command"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/config"
)

var (
	// ErrNotConfigured is returned when the Azure endpoint, key or
	// deployment is missing.
	ErrNotConfigured = errors.New("assistant: azure openai not configured")

	// ErrEmptyReply is returned when a completion has no content.
	ErrEmptyReply = errors.New("assistant: empty completion")
)

const defaultAPIVersion = "2024-05-01-preview"

// Azure classifies and answers text with Azure OpenAI chat completions.
type Azure struct {
	client      *openai.Client
	deployment  string
	maxTokens   int
	temperature float32
	command     string
}

// NewAzure creates an Azure OpenAI client for the given devices.
func NewAzure(cfg config.AssistantConfig, devices []Device) (*Azure, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" || cfg.Deployment == "" {
		return nil, ErrNotConfigured
	}
	version := cfg.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}
	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	oc := openai.DefaultAzureConfig(cfg.APIKey, strings.TrimRight(cfg.Endpoint, "/"))
	oc.APIVersion = version
	oc.AzureModelMapperFunc = func(string) string { return cfg.Deployment }
	oc.HTTPClient = &http.Client{Timeout: timeout}

	return &Azure{
		client:      openai.NewClientWithConfig(oc),
		deployment:  cfg.Deployment,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		command:     commandPrompt(devices),
	}, nil
}

// Classify implements command.Classifier.
func (a *Azure) Classify(ctx context.Context, task command.Task, text string) (string, error) {
	switch task {
	case command.TaskIntent:
		return a.complete(ctx, intentPrompt, text)
	case command.TaskCommand:
		return a.complete(ctx, a.command, text)
	default:
		return "", fmt.Errorf("assistant: unknown task %q", task)
	}
}

// Answer replies to a general question.
func (a *Azure) Answer(ctx context.Context, question string) (string, error) {
	return a.complete(ctx, generalPrompt, question)
}

func (a *Azure) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.deployment,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyReply
	}
	return content, nil
}
