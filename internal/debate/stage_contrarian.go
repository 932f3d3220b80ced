package debate

import (
	"context"
	"fmt"
)

// contrarianStage challenges everything argued so far. It runs last among the
// analysis stages so the full transcript is available to attack.
type contrarianStage struct {
	llm Completer
}

func (s *contrarianStage) ID() string   { return StageContrarian }
func (s *contrarianStage) Name() string { return "Devil's Advocate" }

func (s *contrarianStage) Run(ctx context.Context, state *State) (string, error) {
	transcript := state.Transcript()
	if transcript == "" {
		transcript = "No previous arguments provided."
	}

	prompt := fmt.Sprintf(`You are the Devil's Advocate.
Today's date is: %s

Your job is to challenge the consensus or find logical fallacies in the arguments presented so far.

Market: "%s"
Previous Arguments:
%s

Identify risks, alternative interpretations, or missing data points. If everyone says YES, argue why NO might happen, and vice versa.`,
		today(), state.Market.Question, transcript)

	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("contrarian analysis: %w", err)
	}
	return reply, nil
}
