package audience

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchaccelerator-hub/comment-insights/model"
)

// mapDetector classifies by substring match so tests control detection
// without loading real language models.
type mapDetector struct {
	byMarker map[string]string
}

func (d *mapDetector) Detect(text string) (string, bool) {
	for marker, code := range d.byMarker {
		if strings.Contains(text, marker) {
			return code, true
		}
	}
	return "", false
}

// stubProfileClient returns a canned profile or an error.
type stubProfileClient struct {
	response string
	err      error
	prompts  []string
}

func (c *stubProfileClient) Generate(_ context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func czechEnglishComments() []model.RawComment {
	return []model.RawComment{
		{Text: "cesky komentar ktery je dostatecne dlouhy"},
		{Text: "cesky komentar jeste jeden dlouhy text"},
		{Text: "english comment that is long enough to detect"},
		{Text: "hi"},
	}
}

func czechEnglishDetector() *mapDetector {
	return &mapDetector{byMarker: map[string]string{"cesky": "cs", "english": "en"}}
}

func TestLanguageDistribution(t *testing.T) {
	analyzer := NewAnalyzer(czechEnglishDetector(), nil)

	codes := analyzer.detectAll(czechEnglishComments())
	dist := buildDistribution(codes)

	require.Equal(t, 4, dist.TotalComments)
	assert.Equal(t, 2, dist.DetectedCount)
	assert.Equal(t, "Czech", dist.PrimaryLanguage)

	assert.Equal(t, 2, dist.Languages["cs"].Count)
	assert.Equal(t, 50.0, dist.Languages["cs"].Percentage)
	assert.Equal(t, 1, dist.Languages["en"].Count)
	assert.Equal(t, "English", dist.Languages["en"].Name)
}

func TestShortTextsCountAsUnknown(t *testing.T) {
	analyzer := NewAnalyzer(czechEnglishDetector(), nil)

	codes := analyzer.detectAll([]model.RawComment{
		{Text: "cesky"},
		{Text: "  hi  "},
	})

	assert.Equal(t, []string{"unknown", "unknown"}, codes)
}

func TestUndetectableTextCountsAsUnknown(t *testing.T) {
	analyzer := NewAnalyzer(czechEnglishDetector(), nil)

	codes := analyzer.detectAll([]model.RawComment{
		{Text: "1234567890 1234567890 no marker here at all"},
	})

	assert.Equal(t, []string{"unknown"}, codes)
}

func TestUnknownNeverPrimaryWhenAnythingDetected(t *testing.T) {
	dist := buildDistribution([]string{"unknown", "unknown", "unknown", "en"})

	assert.Equal(t, "English", dist.PrimaryLanguage)
	assert.Equal(t, 1, dist.DetectedCount)
}

func TestUnknownDisplayNameFallsBackToCode(t *testing.T) {
	dist := buildDistribution([]string{"xx"})
	assert.Equal(t, "XX", dist.Languages["xx"].Name)
}

func TestSentimentByLanguage(t *testing.T) {
	codes := []string{"cs", "cs", "en", "en"}
	analyses := []model.CommentAnalysis{
		{Sentiment: model.SentimentPositive},
		{Sentiment: model.SentimentNegative},
		{Sentiment: model.SentimentPositive},
		model.ErrorAnalysis("model call failed"),
	}

	byLang := sentimentByLanguage(codes, analyses)
	require.Len(t, byLang, 2)

	cs := byLang["cs"]
	assert.Equal(t, "Czech", cs.Name)
	assert.Equal(t, 2, cs.TotalComments)
	assert.Equal(t, 1, cs.Positive)
	assert.Equal(t, 1, cs.Negative)
	assert.Equal(t, 50.0, cs.PositivePercentage)

	en := byLang["en"]
	assert.Equal(t, 1, en.TotalComments)
	assert.Equal(t, 100.0, en.PositivePercentage)
	assert.Equal(t, 0.0, en.NegativePercentage)
}

func TestEngagementPatterns(t *testing.T) {
	analyses := []model.CommentAnalysis{
		{Sentiment: model.SentimentPositive, Topics: []string{"editing"}, Advantages: []string{"clear"}, IsRelevantFeedback: true},
		{Sentiment: model.SentimentNegative, Topics: []string{"editing"}, PainPoints: []string{"too long"}, Recommendations: []string{"cut intro"}, IsRelevantFeedback: true},
		{Sentiment: model.SentimentNeutral, Topics: []string{"music"}},
		model.ErrorAnalysis("model call failed"),
	}

	p := engagementPatterns(analyses)

	assert.Equal(t, 3, p.TotalAnalyzed)
	assert.Equal(t, 2, p.RelevantCount)
	assert.Equal(t, 66.67, p.RelevantPercentage)
	assert.Equal(t, 1, p.Feedback.ConstructiveCriticism)
	assert.Equal(t, 1, p.Feedback.PositiveFeedback)
	assert.Equal(t, 1, p.Feedback.SuggestionsProvided)
	assert.Equal(t, 33.33, p.Feedback.CriticismPercentage)

	require.NotEmpty(t, p.TopDiscussionTopics)
	assert.Equal(t, model.LabelCount{Label: "editing", Count: 2}, p.TopDiscussionTopics[0])
}

func TestEngagementPraiseCountsAdvantagesPresence(t *testing.T) {
	// Praise is the presence of concrete advantages, not a positive
	// sentiment label.
	analyses := []model.CommentAnalysis{
		{Sentiment: model.SentimentNeutral, Advantages: []string{"clear visuals"}},
		{Sentiment: model.SentimentPositive},
	}

	p := engagementPatterns(analyses)

	assert.Equal(t, 1, p.Feedback.PositiveFeedback)
	assert.Equal(t, 50.0, p.Feedback.PraisePercentage)
}

func TestAnalyzeWithProfile(t *testing.T) {
	client := &stubProfileClient{response: "An engaged bilingual audience."}
	analyzer := NewAnalyzer(czechEnglishDetector(), client)

	analyses := []model.CommentAnalysis{
		{Sentiment: model.SentimentPositive, IsRelevantFeedback: true},
		{Sentiment: model.SentimentNeutral},
		{Sentiment: model.SentimentPositive, IsRelevantFeedback: true},
		{Sentiment: model.SentimentNeutral},
	}

	result := analyzer.Analyze(context.Background(), "vid1", czechEnglishComments(), czechEnglishComments(), analyses)

	require.NotNil(t, result)
	assert.Equal(t, "vid1", result.VideoID)
	assert.Equal(t, "An engaged bilingual audience.", result.Profile)
	assert.False(t, result.AnalyzedAt.IsZero())

	// The prompt carries the serialized statistics.
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "language_analysis")
}

func TestProfileFailureDegradesToPlaceholder(t *testing.T) {
	client := &stubProfileClient{err: errors.New("quota exceeded")}
	analyzer := NewAnalyzer(czechEnglishDetector(), client)

	result := analyzer.Analyze(context.Background(), "vid1", czechEnglishComments(), czechEnglishComments(), make([]model.CommentAnalysis, 4))

	require.NotNil(t, result)
	assert.Equal(t, profileUnavailable, result.Profile)
	assert.Equal(t, 4, result.Languages.TotalComments)
}

func TestAnalyzeWithoutClientSkipsProfile(t *testing.T) {
	analyzer := NewAnalyzer(czechEnglishDetector(), nil)

	result := analyzer.Analyze(context.Background(), "vid1", czechEnglishComments(), czechEnglishComments(), make([]model.CommentAnalysis, 4))

	require.NotNil(t, result)
	assert.Empty(t, result.Profile)
}

func TestAnalyzeDistributionCoversAllLoadedComments(t *testing.T) {
	analyzer := NewAnalyzer(czechEnglishDetector(), nil)

	// Two of the loaded comments were dropped before analysis; language
	// distribution still covers them, sentiment splits do not.
	comments := czechEnglishComments()
	analyzed := comments[:2]
	analyses := []model.CommentAnalysis{
		{Sentiment: model.SentimentPositive},
		{Sentiment: model.SentimentNegative},
	}

	result := analyzer.Analyze(context.Background(), "vid1", comments, analyzed, analyses)

	assert.Equal(t, 4, result.Languages.TotalComments)
	assert.Equal(t, 2, result.Engagement.TotalAnalyzed)

	cs := result.SentimentByLanguage["cs"]
	assert.Equal(t, 2, cs.TotalComments)
	assert.Equal(t, 1, cs.Positive)
	assert.Equal(t, 1, cs.Negative)
	assert.NotContains(t, result.SentimentByLanguage, "en")
}

func TestAggregateAudience(t *testing.T) {
	a := &model.AudienceAnalysis{Languages: buildDistribution([]string{"cs", "cs", "en"})}
	b := &model.AudienceAnalysis{Languages: buildDistribution([]string{"en", "en", "unknown"})}

	merged := AggregateAudience([]*model.AudienceAnalysis{a, nil, b})

	require.Equal(t, 6, merged.TotalComments)
	assert.Equal(t, 3, merged.Languages["en"].Count)
	assert.Equal(t, 50.0, merged.Languages["en"].Percentage)
	assert.Equal(t, 2, merged.Languages["cs"].Count)
	assert.Equal(t, "English", merged.PrimaryLanguage)
	assert.Equal(t, 2, merged.DetectedCount)
}

func TestAggregateAudienceEmpty(t *testing.T) {
	merged := AggregateAudience(nil)

	assert.Equal(t, 0, merged.TotalComments)
	assert.Equal(t, "Unknown", merged.PrimaryLanguage)
	assert.Empty(t, merged.Languages)
}
