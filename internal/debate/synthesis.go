package debate

import (
	"context"
	"fmt"
)

// synthesisStage is the mandatory final stage. It weighs the whole transcript
// and writes the verdict into the state; its full response text is both the
// closing contribution and the verdict.
type synthesisStage struct {
	llm Completer
}

func (s *synthesisStage) ID() string   { return StageSynthesis }
func (s *synthesisStage) Name() string { return "Moderator" }

func (s *synthesisStage) Run(ctx context.Context, state *State) (string, error) {
	transcript := state.Transcript()
	if transcript == "" {
		transcript = "No arguments presented."
	}

	prompt := fmt.Sprintf(`You are the Moderator of the Debate Floor.
Today's date is: %s

Review the arguments from the experts:

%s

Market: "%s"

1. Summarize the key points for YES and NO.
2. Weigh the evidence.
3. Provide a Final Verdict: "Buy YES", "Buy NO", or "Stay Neutral".
4. Provide a confidence score (0-100%%).

Format nicely with Markdown.`,
		today(), transcript, state.Market.Question)

	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("synthesize verdict: %w", err)
	}

	state.Verdict = reply
	return reply, nil
}
