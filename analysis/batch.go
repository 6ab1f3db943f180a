package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/researchaccelerator-hub/comment-insights/common"
	"github.com/researchaccelerator-hub/comment-insights/model"
)

// jsonArrayPattern extracts the first JSON array from a model response
// that may be wrapped in prose or code fences.
var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// BatchAnalyzer analyzes one bounded batch of comment texts with a single
// model call, falling back to per-comment degraded analysis when the
// response cannot be used.
type BatchAnalyzer struct {
	client         ChatClient
	minLength      int
	enableFallback bool
}

// NewBatchAnalyzer creates a batch analyzer for the given configuration.
func NewBatchAnalyzer(client ChatClient, cfg common.Config) *BatchAnalyzer {
	return &BatchAnalyzer{
		client:         client,
		minLength:      cfg.MinLength,
		enableFallback: cfg.EnableFallback,
	}
}

// ordinalComment pairs a comment text with its position in the batch.
type ordinalComment struct {
	index int // position in the input batch
	text  string
}

// batchEntry is one element of the model's JSON array response. The
// ordinal echoed by the model is 1-based over the comments that were
// actually sent.
type batchEntry struct {
	CommentIndex int `json:"comment_index"`
	model.CommentAnalysis
}

// AnalyzeBatch returns exactly one CommentAnalysis per input text, in
// input order. Texts below the minimum length receive the neutral default
// without a model call. A failed or unparsable batch call degrades to the
// fallback analysis, or to explicit error markers when fallback is
// disabled; comments are never dropped or duplicated.
func (b *BatchAnalyzer) AnalyzeBatch(ctx context.Context, texts []string) []model.CommentAnalysis {
	results := make([]model.CommentAnalysis, len(texts))

	var valid []ordinalComment
	for i, text := range texts {
		// Length is measured in runes, matching the pre-analysis filter.
		if utf8.RuneCountInString(strings.TrimSpace(text)) < b.minLength {
			results[i] = model.NeutralAnalysis()
			continue
		}
		valid = append(valid, ordinalComment{index: i, text: text})
	}

	if len(valid) == 0 {
		return results
	}

	analyses, err := b.analyzeValid(ctx, valid)
	if err != nil {
		log.Warn().Err(err).Int("batch_size", len(valid)).Msg("Batch analysis failed")
		analyses = b.recoverBatch(valid, err)
	}

	for i, vc := range valid {
		results[vc.index] = analyses[i]
	}

	return results
}

// analyzeValid runs the single batch model call and maps the response
// back by ordinal.
func (b *BatchAnalyzer) analyzeValid(ctx context.Context, valid []ordinalComment) ([]model.CommentAnalysis, error) {
	prompt := buildBatchPrompt(valid)

	response, err := b.client.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("batch call failed: %w", err)
	}

	return parseBatchResponse(response, len(valid))
}

// recoverBatch applies the failure policy after the single batch attempt:
// one fallback pass of degraded per-comment analyses, or explicit error
// markers when fallback is disabled.
func (b *BatchAnalyzer) recoverBatch(valid []ordinalComment, cause error) []model.CommentAnalysis {
	analyses := make([]model.CommentAnalysis, len(valid))

	if b.enableFallback {
		log.Info().Int("comment_count", len(valid)).Msg("Using fallback per-comment analysis")
		for i := range valid {
			analyses[i] = model.DegradedAnalysis()
		}
		return analyses
	}

	reason := fmt.Sprintf("batch analysis failed: %v", cause)
	for i := range valid {
		analyses[i] = model.ErrorAnalysis(reason)
	}
	return analyses
}

// buildBatchPrompt labels each comment with its 1-based ordinal and
// fences the text so comment content cannot masquerade as instructions.
func buildBatchPrompt(valid []ordinalComment) string {
	labeled := make([]string, len(valid))
	for i, vc := range valid {
		labeled[i] = fmt.Sprintf("COMMENT %d:\n```\n%s\n```", i+1, vc.text)
	}
	return fmt.Sprintf(batchAnalysisPrompt, len(valid), strings.Join(labeled, "\n\n"), len(valid))
}

// parseBatchResponse parses the model output into exactly expected
// analyses, ordered by ordinal. The response is untrusted: entries may be
// missing, duplicated, or reordered, so ordinals are validated rather
// than positions assumed. Positional mapping is accepted only when no
// entry carries an ordinal and the cardinality matches exactly.
func parseBatchResponse(response string, expected int) ([]model.CommentAnalysis, error) {
	raw := jsonArrayPattern.FindString(response)
	if raw == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var entries []batchEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("failed to parse response array: %w", err)
	}

	if len(entries) != expected {
		return nil, fmt.Errorf("expected %d analyses, got %d", expected, len(entries))
	}

	withOrdinals := 0
	for _, e := range entries {
		if e.CommentIndex != 0 {
			withOrdinals++
		}
	}

	analyses := make([]model.CommentAnalysis, expected)
	switch withOrdinals {
	case expected:
		seen := make([]bool, expected)
		for _, e := range entries {
			ord := e.CommentIndex - 1
			if ord < 0 || ord >= expected {
				return nil, fmt.Errorf("comment_index %d out of range 1..%d", e.CommentIndex, expected)
			}
			if seen[ord] {
				return nil, fmt.Errorf("duplicate comment_index %d", e.CommentIndex)
			}
			seen[ord] = true
			analyses[ord] = sanitizeAnalysis(e.CommentAnalysis)
		}
	case 0:
		for i, e := range entries {
			analyses[i] = sanitizeAnalysis(e.CommentAnalysis)
		}
	default:
		return nil, fmt.Errorf("response mixes labeled and unlabeled entries (%d of %d labeled)", withOrdinals, expected)
	}

	return analyses, nil
}

// sanitizeAnalysis normalizes a model-produced analysis: unknown
// sentiments become neutral, nil lists become empty, and the error field
// is reserved for the engine itself.
func sanitizeAnalysis(a model.CommentAnalysis) model.CommentAnalysis {
	switch a.Sentiment {
	case model.SentimentPositive, model.SentimentNeutral, model.SentimentNegative:
	default:
		a.Sentiment = model.SentimentNeutral
	}

	if a.Topics == nil {
		a.Topics = []string{}
	}
	if a.PainPoints == nil {
		a.PainPoints = []string{}
	}
	if a.Advantages == nil {
		a.Advantages = []string{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}

	a.Error = ""
	return a
}
