package workflow

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/flowbench/flowbench/internal/agent"
	"github.com/flowbench/flowbench/internal/graph"
	"github.com/flowbench/flowbench/internal/schema"
	"github.com/flowbench/flowbench/internal/state"
)

const (
	graphFile  = "graph.json"
	schemaFile = "schema.json"
	agentsDir  = "agents"
)

// graphConfig is the on-disk graph definition. Edges reference agent names
// plus the START and END sentinels; the entry point is the target of the
// single START edge.
type graphConfig struct {
	Name    string      `json:"name"`
	Agents  []string    `json:"agents"`
	Edges   [][2]string `json:"edges"`
	Metrics []string    `json:"metrics,omitempty"`
}

func loadGraphConfig(dir string) (*graphConfig, error) {
	path := filepath.Join(dir, graphFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read graph config %s", path)
	}
	var cfg graphConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse graph config %s", path)
	}
	if cfg.Name == "" {
		cfg.Name = filepath.Base(dir)
	}
	if len(cfg.Agents) == 0 {
		return nil, errors.Errorf("graph config %s declares no agents", path)
	}
	return &cfg, nil
}

// Load reads a workflow bundle from a directory and compiles it. All
// validation happens here: agent templates, graph topology, schema
// definition and metric names. Nothing is re-parsed per dataset item.
func Load(dir string, inv AgentInvoker, logger *zap.Logger, opts ...graph.CompilationOption) (*Workflow, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := loadGraphConfig(dir)
	if err != nil {
		return nil, err
	}

	specs, err := agent.LoadDir(filepath.Join(dir, agentsDir))
	if err != nil {
		return nil, err
	}

	sch, err := schema.LoadFile(filepath.Join(dir, schemaFile))
	if err != nil {
		return nil, err
	}

	g := graph.NewGraph[state.WorkflowState](cfg.Name)
	for _, name := range cfg.Agents {
		spec, ok := specs[name]
		if !ok {
			return nil, errors.Errorf("graph references agent %q with no spec in %s", name, filepath.Join(dir, agentsDir))
		}
		if err := g.AddNode(name, agentNode(inv, spec), map[string]any{"description": spec.Description}); err != nil {
			return nil, err
		}
	}

	entrySet := false
	for _, edge := range cfg.Edges {
		from, to := edge[0], edge[1]
		if from == graph.START {
			if entrySet {
				return nil, graph.NewLoadError("Load", to, errors.New("multiple START edges"))
			}
			if err := g.SetEntryPoint(to); err != nil {
				return nil, err
			}
			entrySet = true
			continue
		}
		if err := g.AddEdge(from, to, nil); err != nil {
			return nil, err
		}
	}

	compiled, err := g.Compile(append([]graph.CompilationOption{graph.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, err
	}

	registry, err := buildRegistry(cfg.Metrics, sch, logger)
	if err != nil {
		return nil, err
	}

	return &Workflow{
		Name:    cfg.Name,
		Agents:  specs,
		Graph:   compiled,
		Schema:  sch,
		Metrics: registry,
	}, nil
}
