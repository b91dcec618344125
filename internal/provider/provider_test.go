package provider

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownModel(t *testing.T) {
	t.Parallel()

	_, err := New("llama-3-70b")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported model")
}

func TestNewOpenAI(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	model, err := New("gpt-4o-mini")
	require.NoError(t, err)
	require.NotNil(t, model)
}

func TestNewAnthropic(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	model, err := New("claude-3-sonnet")
	require.NoError(t, err)
	require.NotNil(t, model)
}
