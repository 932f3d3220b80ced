package debate

import (
	"context"
	"fmt"

	"debatefloor/internal/quant"
)

// timeDecayStage profiles how much time the market has left and what that
// implies for entries at the current price.
type timeDecayStage struct {
	llm Completer
}

func (s *timeDecayStage) ID() string   { return StageTimeDecay }
func (s *timeDecayStage) Name() string { return "Time Decay Analyst" }

func (s *timeDecayStage) Run(ctx context.Context, state *State) (string, error) {
	decay := quant.TimeDecay(state.Market.EndDate, state.Market.YesPrice)

	endDate := state.Market.EndDate
	if endDate == "" {
		endDate = "Unknown"
	}

	report := fmt.Sprintf(`## Time Decay Analysis

- **End Date**: %s
- **Time Remaining**: %.1f days (%.1f hours)
- **Urgency**: %s
- **Theta (decay factor)**: %.3f
- **Resolution Volatility Risk**: %.3f (%s)

### Strategic Guidance
%s`,
		endDate,
		decay.DaysRemaining, decay.HoursRemaining,
		decay.Urgency,
		decay.Theta,
		decay.VolatilityRisk, decay.RiskLevel,
		decay.Advice,
	)

	prompt := fmt.Sprintf(`You are a Time Decay & Resolution Analyst for prediction markets.
Today's date is: %s

Market Question: "%s"
Current YES price: %.1f%%

I have computed the following time-decay profile:

%s

Based on these figures:
1. How does the time remaining change the risk/reward of entering at the current price?
2. Is this a market to position in now, or closer to resolution?
3. Does time decay currently favor YES holders or NO holders?

Be specific and reference the computed urgency and risk values.`,
		today(), state.Market.Question, state.Market.YesPrice, report)

	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("interpret time-decay profile: %w", err)
	}

	return report + "\n\n---\n\n### Expert Interpretation\n\n" + reply, nil
}
