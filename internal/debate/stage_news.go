package debate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"debatefloor/internal/search"
)

// Searcher runs one web search query and returns ranked results.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

const maxSearchQueries = 3
const maxSearchResults = 5

// newsStage brainstorms search queries for the market question, runs them,
// and analyzes how the findings move the odds.
type newsStage struct {
	llm      Completer
	searcher Searcher
	log      *logrus.Logger
}

func (s *newsStage) ID() string   { return StageNews }
func (s *newsStage) Name() string { return "Generalist Expert" }

func (s *newsStage) Run(ctx context.Context, state *State) (string, error) {
	question := state.Market.Question
	if question == "" {
		return "No market question provided.", nil
	}

	queries := s.brainstormQueries(ctx, question)

	var results []search.Result
	for _, q := range queries {
		found, err := s.searcher.Search(ctx, q)
		if err != nil {
			s.log.WithError(err).WithField("query", q).Error("Search failed")
			continue
		}
		results = append(results, found...)
	}

	// Dedupe by stringified content, keeping first occurrence.
	seen := make(map[string]struct{}, len(results))
	var snippets []string
	for _, r := range results {
		key := r.Snippet()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		snippets = append(snippets, key)
		if len(snippets) == maxSearchResults {
			break
		}
	}

	searchContext := strings.Join(snippets, "\n\n")
	if searchContext == "" {
		searchContext = "No relevant search results found."
	}

	prompt := fmt.Sprintf(`You are a Generalist Expert / News Analyst.
Today's date is: %s

Your goal is to find the latest real-world events that impact this market: "%s"

You performed these searches: %s

Search Results:
%s

Analyze how these recent news stories affect the likelihood of the event resolving YES or NO.
Cite specific articles or events found (e.g. "According to reports on [Topic]...").`,
		today(), question, strings.Join(queries, "; "), searchContext)

	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("analyze search results: %w", err)
	}
	return reply, nil
}

// brainstormQueries asks the LLM for distinct search angles on the question,
// falling back to a single generic query when that fails.
func (s *newsStage) brainstormQueries(ctx context.Context, question string) []string {
	prompt := fmt.Sprintf(`You are a smart News Researcher.
Today's date is: %s

To answer this prediction market: "%s"
Generate 3 distinct search queries to find the most relevant and up-to-date information.

1. Query 1: The exact market terms.
2. Query 2: Related entities, specific locations, or people involved.
3. Query 3: Broader context or recent breaking news affecting this topic.

Output ONLY the 3 queries, one per line.`, today(), question)

	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		s.log.WithError(err).Warn("Failed to generate search queries, falling back to default")
		return []string{"latest news " + question}
	}

	var queries []string
	for _, line := range strings.Split(reply, "\n") {
		if q := strings.TrimSpace(line); q != "" {
			queries = append(queries, q)
		}
		if len(queries) == maxSearchQueries {
			break
		}
	}
	if len(queries) == 0 {
		return []string{"latest news " + question}
	}

	s.log.WithField("queries", queries).Debug("Generated search queries")
	return queries
}
