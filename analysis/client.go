// Package analysis implements the batch comment analyzer backed by an
// external text-analysis model.
package analysis

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/researchaccelerator-hub/comment-insights/common"
)

// ChatClient is the boundary to the external text-analysis capability.
// The core treats it as a black box whose output may be partial or
// garbled; nothing above this interface assumes a well-formed response.
type ChatClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClient implements ChatClient against the Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiClient creates a Gemini-backed chat client. Every call carries
// a per-call timeout so a stuck request cannot stall a worker pool.
func NewGeminiClient(ctx context.Context, cfg common.Config) (*GeminiClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   cfg.AnalysisModel,
		timeout: cfg.RequestTimeout,
	}, nil
}

// Generate sends one prompt and returns the raw response text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("model returned an empty response")
	}

	return text, nil
}
