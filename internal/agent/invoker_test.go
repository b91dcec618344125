package agent

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// fakeModel scripts model responses and records calls.
type fakeModel struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	i := m.calls
	m.calls++
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.responses[i]}},
	}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(schema.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func testSpec(structured bool) Spec {
	return Spec{
		Name:           "triage",
		PromptTemplate: "Triage the following report: {input}",
		Structured:     structured,
	}
}

func TestInvokeStructuredOutput(t *testing.T) {
	t.Parallel()

	model := &fakeModel{responses: []string{
		"Here you go:\n```json\n{\"tasks\": [{\"title\": \"inspect\"}]}\n```",
	}}
	inv := NewInvoker(model, ModelParams{Model: "gpt-4", Temperature: 0.1})

	out, err := inv.Invoke(context.Background(), testSpec(true), map[string]string{"input": "dryer 12 down"})
	require.NoError(t, err)
	require.Contains(t, out, "tasks")
	require.Equal(t, 1, model.calls)

	// The rendered prompt carries the substituted input text.
	require.Contains(t, model.prompts[0], "dryer 12 down")
}

func TestInvokeFreeformOutput(t *testing.T) {
	t.Parallel()

	model := &fakeModel{responses: []string{"belt replaced, downtime two hours"}}
	inv := NewInvoker(model, ModelParams{Model: "gpt-4"})

	out, err := inv.Invoke(context.Background(), testSpec(false), map[string]string{"input": "closing comment"})
	require.NoError(t, err)
	require.Equal(t, "belt replaced, downtime two hours", out["text"])
}

func TestInvokeMalformedJSONIsPermanent(t *testing.T) {
	t.Parallel()

	model := &fakeModel{responses: []string{"sorry, I cannot help with that"}}
	inv := NewInvoker(model, ModelParams{Model: "gpt-4"})

	_, err := inv.Invoke(context.Background(), testSpec(true), map[string]string{"input": "x"})

	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	require.False(t, invErr.Transient)
	require.Equal(t, 1, model.calls, "permanent failures must not be retried")
}

func TestInvokeRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	model := &fakeModel{
		responses: []string{"", "", `{"ok": true}`},
		errs:      []error{errors.New("429 too many requests"), errors.New("connection reset by peer"), nil},
	}
	inv := NewInvoker(model, ModelParams{Model: "gpt-4"}, WithRetryDelay(time.Millisecond))

	out, err := inv.Invoke(context.Background(), testSpec(true), map[string]string{"input": "x"})
	require.NoError(t, err)
	require.Equal(t, true, out["ok"])
	require.Equal(t, 3, model.calls)
}

func TestInvokeExhaustsRetryBudget(t *testing.T) {
	t.Parallel()

	model := &fakeModel{
		responses: []string{"", "", ""},
		errs: []error{
			errors.New("rate limit exceeded"),
			errors.New("rate limit exceeded"),
			errors.New("rate limit exceeded"),
		},
	}
	inv := NewInvoker(model, ModelParams{Model: "gpt-4"}, WithRetryDelay(time.Millisecond))

	_, err := inv.Invoke(context.Background(), testSpec(true), map[string]string{"input": "x"})

	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	require.True(t, invErr.Transient)
	require.Equal(t, 3, model.calls)
}

func TestInvokePermanentProviderError(t *testing.T) {
	t.Parallel()

	model := &fakeModel{
		responses: []string{""},
		errs:      []error{errors.New("invalid api key")},
	}
	inv := NewInvoker(model, ModelParams{Model: "gpt-4"})

	_, err := inv.Invoke(context.Background(), testSpec(false), map[string]string{"input": "x"})

	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	require.False(t, invErr.Transient)
	require.Equal(t, 1, model.calls)
}
