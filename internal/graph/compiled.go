package graph

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultMaxSteps = 20
	defaultTimeout  = 60
)

// Config represents runtime configuration for graph execution
type Config struct {
	ThreadID     string         // Unique identifier for this execution thread
	MaxSteps     int            // Maximum number of steps to execute
	Timeout      int            // Timeout in seconds, 0 disables the deadline
	Configurable map[string]any // Additional configuration parameters
	Logger       *zap.Logger
}

type CompilationOption func(*Config)

// WithMaxSteps sets the maximum number of steps to execute
func WithMaxSteps(steps int) CompilationOption {
	return func(c *Config) {
		c.MaxSteps = steps
	}
}

// WithTimeout sets the execution timeout in seconds
func WithTimeout(timeout int) CompilationOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithLogger sets the execution logger
func WithLogger(logger *zap.Logger) CompilationOption {
	return func(c *Config) {
		c.Logger = logger
	}
}

type ExecutionOption func(*Config)

// WithThreadID sets the unique thread identifier for one run
func WithThreadID(id string) ExecutionOption {
	return func(c *Config) {
		c.ThreadID = id
	}
}

// WithConfigurable sets additional configuration parameters
func WithConfigurable(config map[string]any) ExecutionOption {
	return func(c *Config) {
		c.Configurable = config
	}
}

// CompiledGraph is the immutable, executable form of a graph. It is built
// once per workflow and reused across all dataset items.
type CompiledGraph[T GraphState[T]] struct {
	graph  *Graph[T]
	config Config
	order  []string
	next   map[string]string
}

// Compile validates the graph and freezes it for execution.
func (g *Graph[T]) Compile(opt ...CompilationOption) (*CompiledGraph[T], error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.compiled = true

	config := Config{
		MaxSteps: defaultMaxSteps,
		Timeout:  defaultTimeout,
		Logger:   zap.NewNop(),
	}
	for _, o := range opt {
		o(&config)
	}

	next := make(map[string]string, len(g.edges))
	for _, edge := range g.edges {
		next[edge.From] = edge.To
	}

	return &CompiledGraph[T]{
		graph:  g,
		config: config,
		order:  g.path(),
		next:   next,
	}, nil
}

// Path returns the node names in execution order.
func (cg *CompiledGraph[T]) Path() []string {
	return append([]string{}, cg.order...)
}

// EntryPoint returns the first node on the path.
func (cg *CompiledGraph[T]) EntryPoint() string {
	return cg.graph.entryPoint
}

// Run executes the compiled graph from the given initial state, following
// the unique entry→END path and merging each node's response into the
// threaded state.
func (cg *CompiledGraph[T]) Run(ctx context.Context, initialState T, opt ...ExecutionOption) (T, error) {
	config := cg.config
	config.ThreadID = uuid.New().String()
	for _, o := range opt {
		o(&config)
	}
	logger := config.Logger.With(
		zap.String("graph", cg.graph.name),
		zap.String("thread_id", config.ThreadID),
	)

	st := initialState
	if err := st.Validate(); err != nil {
		return st, NewExecutionError(START, err)
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(config.Timeout)*time.Second)
		defer cancel()
	}

	current := cg.graph.entryPoint
	steps := 0

	for current != END {
		select {
		case <-ctx.Done():
			return st, NewExecutionError(current, ctx.Err())
		default:
		}

		if config.MaxSteps > 0 && steps >= config.MaxSteps {
			return st, NewExecutionError(current, errMaxSteps(config.MaxSteps))
		}

		node, exists := cg.graph.nodes[current]
		if !exists {
			return st, NewExecutionError(current, ErrNodeNotFound)
		}

		logger.Debug("executing node", zap.String("node", current), zap.Int("step", steps))

		resp, err := cg.executeNode(ctx, node, st, config)
		if err != nil {
			return st, NewExecutionError(current, err)
		}
		st = st.Merge(resp)

		current = cg.next[current]
		steps++
	}

	return st, nil
}

func (cg *CompiledGraph[T]) executeNode(ctx context.Context, node NodeSpec[T], st T, config Config) (T, error) {
	maxAttempts := 1
	if node.RetryPolicy != nil && node.RetryPolicy.MaxAttempts > 1 {
		maxAttempts = node.RetryPolicy.MaxAttempts
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(node.RetryPolicy.Delay) * time.Second
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := node.Function(ctx, st, config)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return zero, lastErr
}
