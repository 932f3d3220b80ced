// Package llm wraps the Gemini API behind a plain text-in/text-out client.
package llm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// Config holds the Gemini connection settings.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
}

// Gemini generates text completions via the Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	log         *logrus.Logger
}

// NewGemini creates a Gemini client. The model name and temperature come from
// config; the API key is required.
func NewGemini(ctx context.Context, cfg Config, log *logrus.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Gemini{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		log:         log,
	}, nil
}

// Complete sends a single-turn prompt and returns the generated text.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("model %s returned an empty completion", g.model)
	}

	g.log.WithFields(logrus.Fields{
		"model":      g.model,
		"prompt_len": len(prompt),
		"reply_len":  len(text),
	}).Debug("LLM completion")

	return text, nil
}
