package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts  = 3
	defaultInitialDelay = time.Second
)

// ModelParams are the caller-supplied generation parameters. They live in
// runner configuration, not in the agent spec.
type ModelParams struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// InvocationError reports a failed agent call. Transient failures (network,
// rate limiting) may be retried; permanent ones (malformed model output)
// fail the dataset item immediately.
type InvocationError struct {
	Agent     string
	Transient bool
	Err       error
}

func (e *InvocationError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("invocation error (%s): agent %q: %v", kind, e.Agent, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Invoker renders agent prompts and dispatches them to a text-generation
// model. One invoker is shared by all nodes of a workflow; it holds no
// per-item state.
type Invoker struct {
	model       llms.Model
	params      ModelParams
	maxAttempts int
	delay       time.Duration
	logger      *zap.Logger
}

type InvokerOption func(*Invoker)

// WithMaxAttempts caps the retry budget for transient failures.
func WithMaxAttempts(n int) InvokerOption {
	return func(inv *Invoker) {
		if n > 0 {
			inv.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the initial backoff delay.
func WithRetryDelay(d time.Duration) InvokerOption {
	return func(inv *Invoker) {
		inv.delay = d
	}
}

// WithLogger sets the invoker logger.
func WithLogger(logger *zap.Logger) InvokerOption {
	return func(inv *Invoker) {
		inv.logger = logger
	}
}

// NewInvoker creates an invoker bound to a model and generation parameters.
func NewInvoker(model llms.Model, params ModelParams, opt ...InvokerOption) *Invoker {
	inv := &Invoker{
		model:       model,
		params:      params,
		maxAttempts: defaultMaxAttempts,
		delay:       defaultInitialDelay,
		logger:      zap.NewNop(),
	}
	for _, o := range opt {
		o(inv)
	}
	return inv
}

// Invoke renders the agent's prompt template with the given state values and calls
// the model. Structured agents return the parsed JSON payload; freeform
// agents return the raw text under the "text" key.
func (inv *Invoker) Invoke(ctx context.Context, spec Spec, vars map[string]string) (map[string]any, error) {
	prompt := Render(spec.PromptTemplate, vars)

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, prompt),
		llms.TextParts(schema.ChatMessageTypeHuman, vars["input"]),
	}
	opts := []llms.CallOption{
		llms.WithTemperature(inv.params.Temperature),
	}
	if inv.params.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(inv.params.MaxTokens))
	}

	text, err := inv.generate(ctx, spec.Name, messages, opts)
	if err != nil {
		return nil, err
	}

	if !spec.Structured {
		return map[string]any{"text": text}, nil
	}

	payload, err := extractJSON(text)
	if err != nil {
		// The same prompt and model are assumed deterministic enough that a
		// blind retry rarely fixes malformed output.
		return nil, &InvocationError{Agent: spec.Name, Transient: false, Err: err}
	}
	return payload, nil
}

func (inv *Invoker) generate(ctx context.Context, agentName string, messages []llms.MessageContent, opts []llms.CallOption) (string, error) {
	var lastErr error
	delay := inv.delay

	for attempt := 1; attempt <= inv.maxAttempts; attempt++ {
		if attempt > 1 {
			inv.logger.Warn("retrying agent invocation",
				zap.String("agent", agentName),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", &InvocationError{Agent: agentName, Transient: true, Err: ctx.Err()}
			case <-time.After(delay):
			}
			delay *= 2
		}

		resp, err := inv.model.GenerateContent(ctx, messages, opts...)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", &InvocationError{Agent: agentName, Transient: false, Err: errors.New("model returned no choices")}
			}
			return resp.Choices[0].Content, nil
		}

		if !isTransient(err) {
			return "", &InvocationError{Agent: agentName, Transient: false, Err: err}
		}
		lastErr = err
	}

	return "", &InvocationError{Agent: agentName, Transient: true, Err: lastErr}
}

// isTransient classifies provider failures worth retrying.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"rate limit", "429", "502", "503", "timeout", "connection reset", "overloaded"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// extractJSON pulls a JSON object out of model output, tolerating markdown
// fences and surrounding prose.
func extractJSON(text string) (map[string]any, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON object in model output")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return nil, errors.Wrap(err, "malformed JSON in model output")
	}
	return payload, nil
}
