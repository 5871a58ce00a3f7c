package assistant

import (
	"context"
	"fmt"

	"github.com/nerrad567/smartaura-core/internal/command"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/config"
)

// Provider classifies utterances and answers general questions.
type Provider interface {
	command.Classifier
	Answer(ctx context.Context, question string) (string, error)
}

// New returns the provider selected by cfg.Provider.
func New(cfg config.AssistantConfig, devices []Device) (Provider, error) {
	switch cfg.Provider {
	case "azure":
		return NewAzure(cfg, devices)
	case "keyword", "":
		return NewKeyword(devices), nil
	default:
		return nil, fmt.Errorf("assistant: unknown provider %q", cfg.Provider)
	}
}
