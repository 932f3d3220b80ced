package debate

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Stage identifiers. New stages may be added but existing ids never change
// meaning, so saved configurations stay valid across versions.
const (
	StageQuantitative = "quantitative"
	StageTimeDecay    = "time-decay"
	StageTraderFlow   = "trader-flow"
	StageNews         = "news"
	StageMacro        = "macro"
	StageContrarian   = "contrarian"
	StageSynthesis    = "synthesis"
)

// canonicalOrder fixes the relative ordering of the analysis stages. The
// contrarian stage stays last so it can challenge everything said before it;
// synthesis is not listed because it is appended to every plan.
var canonicalOrder = []string{
	StageQuantitative,
	StageTimeDecay,
	StageTraderFlow,
	StageNews,
	StageMacro,
	StageContrarian,
}

// Stage produces one contribution from the accumulated state. Run returns the
// contribution content; the executor attributes it to Name().
type Stage interface {
	ID() string
	Name() string
	Run(ctx context.Context, state *State) (string, error)
}

// Registry maps stage ids to their implementations and derives execution
// plans from a StageConfig.
type Registry struct {
	stages map[string]Stage
}

// NewRegistry builds a registry from the given stages. A duplicate id is a
// programming error and fails immediately.
func NewRegistry(stages ...Stage) (*Registry, error) {
	r := &Registry{stages: make(map[string]Stage, len(stages))}
	for _, s := range stages {
		if _, dup := r.stages[s.ID()]; dup {
			return nil, fmt.Errorf("duplicate stage id %q", s.ID())
		}
		r.stages[s.ID()] = s
	}
	return r, nil
}

// DefaultRegistry wires the full expert panel against the given LLM and
// search dependencies.
func DefaultRegistry(llm Completer, searcher Searcher, log *logrus.Logger) (*Registry, error) {
	return NewRegistry(
		&quantStage{llm: llm},
		&timeDecayStage{llm: llm},
		&traderFlowStage{llm: llm},
		&newsStage{llm: llm, searcher: searcher, log: log},
		&macroStage{llm: llm},
		&contrarianStage{llm: llm},
		&synthesisStage{llm: llm},
	)
}

// BuildPlan filters the canonical order down to the enabled stages and
// appends the mandatory synthesis stage. The same config always yields the
// same plan; an enabled stage with no registered implementation fails fast.
func (r *Registry) BuildPlan(cfg StageConfig) ([]string, error) {
	plan := make([]string, 0, len(canonicalOrder)+1)
	for _, id := range canonicalOrder {
		if !cfg.Enabled(id) {
			continue
		}
		if _, ok := r.stages[id]; !ok {
			return nil, fmt.Errorf("stage %q is enabled but not registered", id)
		}
		plan = append(plan, id)
	}

	if _, ok := r.stages[StageSynthesis]; !ok {
		return nil, fmt.Errorf("synthesis stage is not registered")
	}
	return append(plan, StageSynthesis), nil
}

func (r *Registry) stage(id string) Stage {
	return r.stages[id]
}
