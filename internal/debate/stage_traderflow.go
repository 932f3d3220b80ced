package debate

import (
	"context"
	"fmt"
	"strings"
)

// traderFlowStage reads the pre-aggregated wallet activity and asks the LLM
// what the order flow says about where informed money is leaning.
type traderFlowStage struct {
	llm Completer
}

func (s *traderFlowStage) ID() string   { return StageTraderFlow }
func (s *traderFlowStage) Name() string { return "Trader Flow Analyst" }

func (s *traderFlowStage) Run(ctx context.Context, state *State) (string, error) {
	if len(state.Traders) == 0 {
		return "No trader flow data available for this market.", nil
	}

	var sb strings.Builder
	sb.WriteString("## Trader Flow Analysis\n\n### Top Wallets by Volume\n")

	var bullishVol, bearishVol float64
	for i, t := range state.Traders {
		label := t.Name
		if label == "" {
			label = shortenAddress(t.Address)
		}

		sb.WriteString(fmt.Sprintf("%d. **%s** | bias: %s | volume: %s | trades: %d\n",
			i+1, label, t.Bias, usd.Sprintf("$%.0f", t.Volume), t.TradeCount))
		sb.WriteString(fmt.Sprintf("   - Bullish volume: %s | Bearish volume: %s\n",
			usd.Sprintf("$%.0f", t.BullishVol), usd.Sprintf("$%.0f", t.BearishVol)))
		if t.GlobalPnL != 0 || t.Balance != 0 {
			sb.WriteString(fmt.Sprintf("   - Global PnL: %s | ROI: %.1f%% | Balance: %s\n",
				usd.Sprintf("$%.0f", t.GlobalPnL), t.GlobalROI, usd.Sprintf("$%.0f", t.Balance)))
		}

		bullishVol += t.BullishVol
		bearishVol += t.BearishVol
	}

	sb.WriteString(fmt.Sprintf("\n### Aggregate Flow\n- Total bullish volume: %s\n- Total bearish volume: %s\n",
		usd.Sprintf("$%.0f", bullishVol), usd.Sprintf("$%.0f", bearishVol)))

	report := strings.TrimRight(sb.String(), "\n")

	prompt := fmt.Sprintf(`You are a Trader Flow Analyst tracking smart money on prediction markets.
Today's date is: %s

Market Question: "%s"

I have aggregated the most active wallets on this market:

%s

Based on this order flow:
1. Is notable money accumulating YES or NO exposure?
2. Do the wallets with strong global PnL agree with each other, or is the flow split?
3. What is your read on where informed traders think this market resolves?

Reference specific wallets and volumes from the data.`,
		today(), state.Market.Question, report)

	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("interpret trader flow: %w", err)
	}

	return report + "\n\n---\n\n### Expert Interpretation\n\n" + reply, nil
}

func shortenAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
