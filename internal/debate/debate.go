// Package debate runs the deliberation pipeline: a fixed-order panel of
// analysis stages that each append one contribution to a shared state,
// followed by a mandatory synthesis stage that reduces the transcript to a
// verdict.
package debate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"debatefloor/internal/flow"
)

// FallbackVerdict is returned when the synthesis stage itself fails. Callers
// always receive a verdict string, degraded or not.
const FallbackVerdict = "Verdict generation failed."

// Completer generates a text completion for a prompt. Stages format their own
// prompts from computed figures and prior contributions.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// MarketSnapshot is the immutable market view a deliberation runs against.
// YesPrice is on the 0-100 scale.
type MarketSnapshot struct {
	ID        string
	Question  string
	YesPrice  float64
	Volume24h float64
	Volume7d  float64
	Liquidity float64
	EndDate   string
}

// Contribution is one expert's entry in the deliberation transcript.
type Contribution struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// State is the shared accumulator for a single deliberation run. It is owned
// by exactly one run: stages only ever append contributions, and the
// synthesis stage sets the verdict once.
type State struct {
	Market        MarketSnapshot
	Prices24h     []float64
	Prices7d      []float64
	Traders       []flow.TraderSnapshot
	Contributions []Contribution
	Verdict       string
}

func (s *State) append(author, content string) {
	s.Contributions = append(s.Contributions, Contribution{Author: author, Content: content})
}

// Transcript renders every contribution so far in the "**Author**: content"
// form later stages quote each other with.
func (s *State) Transcript() string {
	parts := make([]string, 0, len(s.Contributions))
	for _, c := range s.Contributions {
		parts = append(parts, fmt.Sprintf("**%s**: %s", c.Author, c.Content))
	}
	return strings.Join(parts, "\n")
}

// StageConfig selects which analysis stages take part in a run. A nil field
// means enabled. Synthesis always runs and has no flag.
type StageConfig struct {
	Quantitative *bool
	TimeDecay    *bool
	TraderFlow   *bool
	News         *bool
	Macro        *bool
	Contrarian   *bool
}

// Enabled reports whether the given stage id should run. Unknown ids default
// to enabled; ParseStageConfig rejects them before they can reach a plan.
func (c StageConfig) Enabled(id string) bool {
	var flag *bool
	switch id {
	case StageQuantitative:
		flag = c.Quantitative
	case StageTimeDecay:
		flag = c.TimeDecay
	case StageTraderFlow:
		flag = c.TraderFlow
	case StageNews:
		flag = c.News
	case StageMacro:
		flag = c.Macro
	case StageContrarian:
		flag = c.Contrarian
	}
	return flag == nil || *flag
}

// EnabledIDs returns the analysis stage ids this config allows, in canonical
// order.
func (c StageConfig) EnabledIDs() []string {
	ids := make([]string, 0, len(canonicalOrder))
	for _, id := range canonicalOrder {
		if c.Enabled(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// ParseStageConfig builds a StageConfig from a loose id-to-flag mapping, as
// received over the API. An unknown stage id is a caller error and fails
// immediately rather than being ignored.
func ParseStageConfig(flags map[string]bool) (StageConfig, error) {
	var cfg StageConfig
	for id, enabled := range flags {
		v := enabled
		switch id {
		case StageQuantitative:
			cfg.Quantitative = &v
		case StageTimeDecay:
			cfg.TimeDecay = &v
		case StageTraderFlow:
			cfg.TraderFlow = &v
		case StageNews:
			cfg.News = &v
		case StageMacro:
			cfg.Macro = &v
		case StageContrarian:
			cfg.Contrarian = &v
		default:
			return StageConfig{}, fmt.Errorf("unknown stage id %q", id)
		}
	}
	return cfg, nil
}

// today is the date stamp every prompt carries so the model reasons against
// the right "now".
func today() string {
	return time.Now().Format("2006-01-02")
}
