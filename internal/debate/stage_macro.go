package debate

import (
	"context"
	"fmt"
)

// macroStage looks at the market from a structural and macroeconomic angle.
type macroStage struct {
	llm Completer
}

func (s *macroStage) ID() string   { return StageMacro }
func (s *macroStage) Name() string { return "Crypto/Macro Analyst" }

func (s *macroStage) Run(ctx context.Context, state *State) (string, error) {
	prompt := fmt.Sprintf(`You are a Crypto and Macroeconomics Analyst.
Today's date is: %s

Analyze the market "%s" from a structural, macro, or crypto-native perspective.

Does general market sentiment, crypto correlation, or macro events (Fed rates, elections, etc.) impact this?`,
		today(), state.Market.Question)

	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("macro analysis: %w", err)
	}
	return reply, nil
}
