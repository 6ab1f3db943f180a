package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchaccelerator-hub/comment-insights/common"
	"github.com/researchaccelerator-hub/comment-insights/model"
)

// stubClient returns canned responses or errors and records prompts.
type stubClient struct {
	response string
	err      error
	prompts  []string
}

func (s *stubClient) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testConfig() common.Config {
	cfg := common.DefaultConfig()
	cfg.MinLength = 10
	return cfg
}

func entryJSON(index int, sentiment string) string {
	return fmt.Sprintf(`{
        "comment_index": %d,
        "sentiment": %q,
        "topics": ["audio"],
        "pain_points": [],
        "advantages": [],
        "recommendations_for_creator": [],
        "is_relevant_feedback": true
    }`, index, sentiment)
}

func TestAnalyzeBatch_ShortCommentsGetNeutralDefault(t *testing.T) {
	client := &stubClient{}
	analyzer := NewBatchAnalyzer(client, testConfig())

	results := analyzer.AnalyzeBatch(context.Background(), []string{"hi", "  ok  ", ""})

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, model.NeutralAnalysis(), r)
	}
	// No model call is made when every comment is below the threshold.
	assert.Empty(t, client.prompts)
}

func TestAnalyzeBatch_ThresholdCountsRunesNotBytes(t *testing.T) {
	client := &stubClient{}
	analyzer := NewBatchAnalyzer(client, testConfig())

	// Five CJK runes span fifteen bytes; the threshold of ten applies to
	// runes, so this is still a short comment.
	results := analyzer.AnalyzeBatch(context.Background(), []string{"良い動画だ"})

	require.Len(t, results, 1)
	assert.Equal(t, model.NeutralAnalysis(), results[0])
	assert.Empty(t, client.prompts)
}

func TestAnalyzeBatch_MapsByOrdinal(t *testing.T) {
	// Entries arrive reordered; the ordinals must win over positions.
	client := &stubClient{
		response: fmt.Sprintf("Here you go:\n[%s,%s]",
			entryJSON(2, model.SentimentNegative),
			entryJSON(1, model.SentimentPositive)),
	}
	analyzer := NewBatchAnalyzer(client, testConfig())

	results := analyzer.AnalyzeBatch(context.Background(), []string{
		"this video was truly great",
		"the audio was far too quiet",
	})

	require.Len(t, results, 2)
	assert.Equal(t, model.SentimentPositive, results[0].Sentiment)
	assert.Equal(t, model.SentimentNegative, results[1].Sentiment)
}

func TestAnalyzeBatch_MixedLengths(t *testing.T) {
	client := &stubClient{
		response: "[" + entryJSON(1, model.SentimentPositive) + "]",
	}
	analyzer := NewBatchAnalyzer(client, testConfig())

	results := analyzer.AnalyzeBatch(context.Background(), []string{
		"hi",
		"this explanation finally made it click for me",
		"ok",
	})

	require.Len(t, results, 3)
	assert.False(t, results[0].IsRelevantFeedback)
	assert.Equal(t, model.SentimentPositive, results[1].Sentiment)
	assert.True(t, results[1].IsRelevantFeedback)
	assert.False(t, results[2].IsRelevantFeedback)

	// The prompt carries only the one analyzable comment, labeled.
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "COMMENT 1:")
	assert.NotContains(t, client.prompts[0], "COMMENT 2:")
}

func TestAnalyzeBatch_UnparsableResponseFallsBack(t *testing.T) {
	client := &stubClient{response: "I cannot help with that."}
	analyzer := NewBatchAnalyzer(client, testConfig())

	texts := []string{
		"comment one is long enough",
		"comment two is long enough",
		"comment three is long enough",
		"comment four is long enough",
		"comment five is long enough",
	}
	results := analyzer.AnalyzeBatch(context.Background(), texts)

	// Degraded, not dropped, not duplicated.
	require.Len(t, results, 5)
	for _, r := range results {
		assert.Equal(t, model.DegradedAnalysis(), r)
	}
	// The single fallback pass makes no further model calls.
	assert.Len(t, client.prompts, 1)
}

func TestAnalyzeBatch_CallErrorFallsBack(t *testing.T) {
	client := &stubClient{err: errors.New("rate limited")}
	analyzer := NewBatchAnalyzer(client, testConfig())

	results := analyzer.AnalyzeBatch(context.Background(), []string{"a sufficiently long comment"})

	require.Len(t, results, 1)
	assert.Equal(t, model.DegradedAnalysis(), results[0])
}

func TestAnalyzeBatch_FallbackDisabledYieldsErrorMarkers(t *testing.T) {
	client := &stubClient{err: errors.New("rate limited")}
	cfg := testConfig()
	cfg.EnableFallback = false
	analyzer := NewBatchAnalyzer(client, cfg)

	results := analyzer.AnalyzeBatch(context.Background(), []string{
		"first long enough comment",
		"second long enough comment",
	})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.IsError())
		assert.Contains(t, r.Error, "rate limited")
	}
}

func TestParseBatchResponse_Validation(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected int
		wantErr  string
	}{
		{
			name:     "no array",
			response: "nothing structured here",
			expected: 1,
			wantErr:  "no JSON array",
		},
		{
			name:     "wrong cardinality",
			response: "[" + entryJSON(1, "positive") + "]",
			expected: 2,
			wantErr:  "expected 2 analyses, got 1",
		},
		{
			name:     "duplicate ordinal",
			response: "[" + entryJSON(1, "positive") + "," + entryJSON(1, "negative") + "]",
			expected: 2,
			wantErr:  "duplicate comment_index",
		},
		{
			name:     "ordinal out of range",
			response: "[" + entryJSON(7, "positive") + "]",
			expected: 1,
			wantErr:  "out of range",
		},
		{
			name:     "malformed json",
			response: `[{"comment_index": }]`,
			expected: 1,
			wantErr:  "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseBatchResponse(tt.response, tt.expected)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseBatchResponse_PositionalWhenUnlabeled(t *testing.T) {
	response := `[
        {"sentiment": "positive", "topics": [], "is_relevant_feedback": true},
        {"sentiment": "negative", "topics": [], "is_relevant_feedback": true}
    ]`

	analyses, err := parseBatchResponse(response, 2)
	require.NoError(t, err)
	assert.Equal(t, model.SentimentPositive, analyses[0].Sentiment)
	assert.Equal(t, model.SentimentNegative, analyses[1].Sentiment)
}

func TestParseBatchResponse_SanitizesAnalyses(t *testing.T) {
	response := `[{"comment_index": 1, "sentiment": "ecstatic", "is_relevant_feedback": true, "error": "spoofed"}]`

	analyses, err := parseBatchResponse(response, 1)
	require.NoError(t, err)

	a := analyses[0]
	assert.Equal(t, model.SentimentNeutral, a.Sentiment)
	assert.NotNil(t, a.Topics)
	assert.NotNil(t, a.PainPoints)
	assert.NotNil(t, a.Advantages)
	assert.NotNil(t, a.Recommendations)
	// The model cannot inject error markers.
	assert.False(t, a.IsError())
}
