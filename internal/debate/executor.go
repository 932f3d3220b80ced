package debate

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"debatefloor/internal/metrics"
)

// Executor runs a deliberation plan strictly in order. Each stage sees every
// contribution made before it; a failing stage is recorded as a degraded
// contribution and never aborts the run.
type Executor struct {
	registry *Registry
	log      *logrus.Logger
}

// NewExecutor creates an executor over the given registry.
func NewExecutor(registry *Registry, log *logrus.Logger) *Executor {
	return &Executor{registry: registry, log: log}
}

// Run builds the plan for cfg and executes it against state. It returns an
// error only for plan-level problems; stage failures surface as degraded
// contributions in the state. After Run returns, state.Verdict is always
// non-empty.
func (e *Executor) Run(ctx context.Context, state *State, cfg StageConfig) error {
	plan, err := e.registry.BuildPlan(cfg)
	if err != nil {
		return fmt.Errorf("build plan: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"market": state.Market.ID,
		"plan":   plan,
	}).Info("Starting deliberation")

	for _, id := range plan {
		stage := e.registry.stage(id)

		start := time.Now()
		content, err := runStage(ctx, stage, state)
		metrics.RecordStage(id, time.Since(start), err)

		if err != nil {
			e.log.WithError(err).WithFields(logrus.Fields{
				"stage":  id,
				"market": state.Market.ID,
			}).Error("Stage failed")

			if id == StageSynthesis {
				state.Verdict = FallbackVerdict
				state.append(stage.Name(), fmt.Sprintf("(Failed to reach verdict) %v", err))
			} else {
				state.append(stage.Name(), fmt.Sprintf("(Failed to analyze) %v", err))
			}
			continue
		}

		state.append(stage.Name(), content)
		e.log.WithFields(logrus.Fields{
			"stage":    id,
			"duration": time.Since(start).String(),
		}).Debug("Stage completed")
	}

	return nil
}

// runStage converts a stage panic into an ordinary error so one broken stage
// cannot take down the whole deliberation.
func runStage(ctx context.Context, stage Stage, state *State) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panic: %v", r)
		}
	}()
	return stage.Run(ctx, state)
}
