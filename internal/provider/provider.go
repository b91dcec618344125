// Package provider selects a hosted model backend from the model name.
package provider

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
)

// New creates a model client for the given model name. Selection is by
// name prefix: gpt*/o1* go to OpenAI, claude* to Anthropic. API keys come
// from the providers' standard environment variables.
func New(modelName string) (llms.Model, error) {
	name := strings.ToLower(modelName)
	switch {
	case strings.HasPrefix(name, "gpt") || strings.HasPrefix(name, "o1"):
		model, err := openai.New(openai.WithModel(modelName))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create openai client for %s", modelName)
		}
		return model, nil
	case strings.HasPrefix(name, "claude"):
		model, err := anthropic.New(anthropic.WithModel(modelName))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create anthropic client for %s", modelName)
		}
		return model, nil
	default:
		return nil, errors.Errorf("unsupported model: %s", modelName)
	}
}
