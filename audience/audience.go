// Package audience derives audience-level insight from a video's comments
// and their analyses: which languages the audience writes in, how sentiment
// splits per language, and how substantively viewers engage. The statistics
// are pure functions of their inputs; only the optional AI profile reaches
// out to the analysis model.
package audience

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/researchaccelerator-hub/comment-insights/aggregate"
	"github.com/researchaccelerator-hub/comment-insights/analysis"
	"github.com/researchaccelerator-hub/comment-insights/model"
)

// minDetectableLength is the shortest text, in runes, worth running
// language detection on. Shorter texts count as unknown.
const minDetectableLength = 10

// unknownLanguage is the bucket for texts too short to detect or that the
// detector could not classify.
const unknownLanguage = "unknown"

// profileUnavailable is the placeholder recorded when the AI profile call
// fails. The rest of the audience analysis is still returned.
const profileUnavailable = "Audience profile generation failed; statistical analysis above is unaffected."

// discussionTopicsLimit caps the topic list inside engagement patterns.
const discussionTopicsLimit = 10

// Analyzer computes the optional per-video audience analysis.
type Analyzer struct {
	detector LanguageDetector
	client   analysis.ChatClient
}

// NewAnalyzer builds an audience analyzer. client may be nil, in which
// case no AI profile is generated.
func NewAnalyzer(detector LanguageDetector, client analysis.ChatClient) *Analyzer {
	return &Analyzer{detector: detector, client: client}
}

// Analyze produces the audience analysis for one video. The language
// distribution covers every loaded comment; sentiment-by-language covers
// only the analyzed subset, whose entries are index-aligned with
// analyses.
func (a *Analyzer) Analyze(ctx context.Context, videoID string, comments, analyzed []model.RawComment, analyses []model.CommentAnalysis) *model.AudienceAnalysis {
	result := &model.AudienceAnalysis{
		VideoID:             videoID,
		Languages:           buildDistribution(a.detectAll(comments)),
		SentimentByLanguage: sentimentByLanguage(a.detectAll(analyzed), analyses),
		Engagement:          engagementPatterns(analyses),
		AnalyzedAt:          time.Now().UTC(),
	}

	if a.client != nil {
		result.Profile = a.generateProfile(ctx, videoID, result)
	}
	return result
}

// detectAll returns a language code per comment. Texts below the
// detectable length and detection failures map to the unknown bucket.
func (a *Analyzer) detectAll(comments []model.RawComment) []string {
	codes := make([]string, len(comments))
	for i, c := range comments {
		text := strings.TrimSpace(c.Text)
		if utf8.RuneCountInString(text) < minDetectableLength {
			codes[i] = unknownLanguage
			continue
		}
		code, ok := a.detector.Detect(text)
		if !ok {
			codes[i] = unknownLanguage
			continue
		}
		codes[i] = code
	}
	return codes
}

// buildDistribution counts language codes into the reported distribution.
// The primary language is the most frequent detected one; unknown wins
// only when nothing was detected at all.
func buildDistribution(codes []string) model.LanguageDistribution {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, code := range codes {
		if counts[code] == 0 {
			firstSeen[code] = i
		}
		counts[code]++
	}

	dist := model.LanguageDistribution{
		Languages:     make(map[string]model.LanguageStat, len(counts)),
		TotalComments: len(codes),
	}

	primary := unknownLanguage
	bestCount := -1
	for code, count := range counts {
		dist.Languages[code] = model.LanguageStat{
			Name:       languageName(code),
			Count:      count,
			Percentage: percentage(count, len(codes)),
		}
		if code != unknownLanguage {
			dist.DetectedCount++
			if count > bestCount || (count == bestCount && firstSeen[code] < firstSeen[primary]) {
				primary = code
				bestCount = count
			}
		}
	}

	dist.PrimaryLanguage = languageName(primary)
	return dist
}

// sentimentByLanguage splits sentiment counts by the language of the
// underlying comment. Error markers carry no sentiment and are skipped.
func sentimentByLanguage(codes []string, analyses []model.CommentAnalysis) map[string]model.LanguageSentiment {
	n := len(codes)
	if len(analyses) < n {
		n = len(analyses)
	}

	byLang := make(map[string]model.LanguageSentiment)
	for i := 0; i < n; i++ {
		if analyses[i].IsError() {
			continue
		}
		ls := byLang[codes[i]]
		ls.Name = languageName(codes[i])
		ls.TotalComments++
		switch analyses[i].Sentiment {
		case model.SentimentPositive:
			ls.Positive++
		case model.SentimentNegative:
			ls.Negative++
		default:
			ls.Neutral++
		}
		byLang[codes[i]] = ls
	}

	for code, ls := range byLang {
		ls.PositivePercentage = percentage(ls.Positive, ls.TotalComments)
		ls.NegativePercentage = percentage(ls.Negative, ls.TotalComments)
		ls.NeutralPercentage = percentage(ls.Neutral, ls.TotalComments)
		byLang[code] = ls
	}
	return byLang
}

// engagementPatterns measures how substantively the audience engages:
// how much of the feedback is relevant, and how often comments carry
// criticism, praise, or suggestions. Percentages are relative to the
// non-error analyses.
func engagementPatterns(analyses []model.CommentAnalysis) model.EngagementPatterns {
	var valid []model.CommentAnalysis
	for _, a := range analyses {
		if !a.IsError() {
			valid = append(valid, a)
		}
	}

	p := model.EngagementPatterns{TotalAnalyzed: len(valid)}
	for _, a := range valid {
		if a.IsRelevantFeedback {
			p.RelevantCount++
		}
		if len(a.PainPoints) > 0 {
			p.Feedback.ConstructiveCriticism++
		}
		if len(a.Advantages) > 0 {
			p.Feedback.PositiveFeedback++
		}
		if len(a.Recommendations) > 0 {
			p.Feedback.SuggestionsProvided++
		}
	}

	p.RelevantPercentage = percentage(p.RelevantCount, len(valid))
	p.Feedback.CriticismPercentage = percentage(p.Feedback.ConstructiveCriticism, len(valid))
	p.Feedback.PraisePercentage = percentage(p.Feedback.PositiveFeedback, len(valid))
	p.Feedback.SuggestionsPercentage = percentage(p.Feedback.SuggestionsProvided, len(valid))
	p.TopDiscussionTopics = aggregate.TopLabels(valid, discussionTopicsLimit, func(a model.CommentAnalysis) []string { return a.Topics })
	return p
}

// generateProfile asks the model for a free-form audience profile. A
// failed call degrades to a placeholder so the statistical analysis is
// never lost to a flaky profile request.
func (a *Analyzer) generateProfile(ctx context.Context, videoID string, result *model.AudienceAnalysis) string {
	data := struct {
		Languages  model.LanguageDistribution           `json:"language_analysis"`
		Sentiment  map[string]model.LanguageSentiment   `json:"sentiment_by_language"`
		Engagement model.EngagementPatterns             `json:"engagement_patterns"`
	}{result.Languages, result.SentimentByLanguage, result.Engagement}

	blob, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Warn().Err(err).Str("videoID", videoID).Msg("Failed to serialize audience data for profile prompt")
		return profileUnavailable
	}

	profile, err := a.client.Generate(ctx, analysis.BuildAudienceProfilePrompt(string(blob)))
	if err != nil {
		log.Warn().Err(err).Str("videoID", videoID).Msg("Audience profile generation failed, keeping statistical analysis")
		return profileUnavailable
	}
	return profile
}

// AggregateAudience merges per-video language counts into one channel-wide
// distribution. Percentages are recomputed from the summed counts.
func AggregateAudience(audiences []*model.AudienceAnalysis) model.LanguageDistribution {
	counts := make(map[string]int)
	total := 0
	for _, a := range audiences {
		if a == nil {
			continue
		}
		for code, stat := range a.Languages.Languages {
			counts[code] += stat.Count
			total += stat.Count
		}
	}

	dist := model.LanguageDistribution{
		Languages:     make(map[string]model.LanguageStat, len(counts)),
		TotalComments: total,
	}

	primary := unknownLanguage
	bestCount := -1
	for code, count := range counts {
		dist.Languages[code] = model.LanguageStat{
			Name:       languageName(code),
			Count:      count,
			Percentage: percentage(count, total),
		}
		if code != unknownLanguage {
			dist.DetectedCount++
			if count > bestCount || (count == bestCount && code < primary) {
				primary = code
				bestCount = count
			}
		}
	}

	dist.PrimaryLanguage = languageName(primary)
	return dist
}

// percentage rounds count/total to two decimal places, zero when total
// is zero.
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*100*100) / 100
}
