// Package model defines the shared data structures for comment analysis
package model

import "time"

// Sentiment classes assigned by the analysis model. Every non-error
// analysis carries exactly one of these.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Sentiments lists the three classes in their canonical reporting order.
var Sentiments = []string{SentimentPositive, SentimentNeutral, SentimentNegative}

// RawComment is a single user comment as supplied by the comment source.
// The core never mutates it.
type RawComment struct {
	Text     string                 `json:"text"`
	Author   string                 `json:"author,omitempty"`
	Votes    int                    `json:"votes,omitempty"`
	Time     string                 `json:"time,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// VideoTask identifies one video whose comments should be analyzed.
type VideoTask struct {
	VideoID     string `json:"video_id"`
	VideoURL    string `json:"video_url"`
	CommentFile string `json:"comment_file,omitempty"`
}

// CommentAnalysis is the outcome of analyzing a single comment. Exactly one
// of these exists per raw comment after scheduling completes: a model
// result, the neutral default for short comments, the degraded fallback, or
// an error marker.
type CommentAnalysis struct {
	Sentiment          string   `json:"sentiment,omitempty"`
	Topics             []string `json:"topics,omitempty"`
	PainPoints         []string `json:"pain_points,omitempty"`
	Advantages         []string `json:"advantages,omitempty"`
	Recommendations    []string `json:"recommendations_for_creator,omitempty"`
	IsRelevantFeedback bool     `json:"is_relevant_feedback"`
	Error              string   `json:"error,omitempty"`
}

// IsError reports whether this entry is an error marker rather than an
// analysis outcome.
func (a CommentAnalysis) IsError() bool {
	return a.Error != ""
}

// NeutralAnalysis returns the default assigned to comments below the
// minimum length threshold. No model call is made for these.
func NeutralAnalysis() CommentAnalysis {
	return CommentAnalysis{
		Sentiment:          SentimentNeutral,
		Topics:             []string{},
		PainPoints:         []string{},
		Advantages:         []string{},
		Recommendations:    []string{},
		IsRelevantFeedback: false,
	}
}

// DegradedAnalysis returns the minimal locally computed result used when a
// batch call fails and fallback is enabled.
func DegradedAnalysis() CommentAnalysis {
	return CommentAnalysis{
		Sentiment:          SentimentNeutral,
		Topics:             []string{"general"},
		PainPoints:         []string{},
		Advantages:         []string{},
		Recommendations:    []string{},
		IsRelevantFeedback: true,
	}
}

// ErrorAnalysis returns an error marker preserving the comment's slot in
// the ordered result sequence.
func ErrorAnalysis(reason string) CommentAnalysis {
	return CommentAnalysis{Error: reason}
}

// SentimentSummary holds counts and percentages for the three sentiment
// classes. All keys are always present; percentages are zero-filled when
// there are no analyzable comments.
type SentimentSummary struct {
	PositiveCount      int     `json:"positive_count"`
	NeutralCount       int     `json:"neutral_count"`
	NegativeCount      int     `json:"negative_count"`
	PositivePercentage float64 `json:"positive_percentage"`
	NeutralPercentage  float64 `json:"neutral_percentage"`
	NegativePercentage float64 `json:"negative_percentage"`
}

// Count returns the count for the given sentiment class.
func (s SentimentSummary) Count(sentiment string) int {
	switch sentiment {
	case SentimentPositive:
		return s.PositiveCount
	case SentimentNegative:
		return s.NegativeCount
	default:
		return s.NeutralCount
	}
}

// Total returns the number of comments counted across all classes.
func (s SentimentSummary) Total() int {
	return s.PositiveCount + s.NeutralCount + s.NegativeCount
}

// LabelCount is a ranked (label, count) pair in a top-N list.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AggregatedSummary is the per-video reduction of the ordered comment
// analysis sequence.
type AggregatedSummary struct {
	VideoID                string           `json:"video_url_or_id"`
	TotalProcessed         int              `json:"total_comments_processed"`
	RelevantCount          int              `json:"relevant_comments_count"`
	Sentiment              SentimentSummary `json:"sentiment_summary"`
	TopTopics              []LabelCount     `json:"top_topics"`
	CommonPainPoints       []LabelCount     `json:"common_pain_points"`
	HighlightedAdvantages  []LabelCount     `json:"highlighted_advantages"`
	CreatorRecommendations []string         `json:"creator_recommendations"`
}

// LanguageStat describes one detected language within a video's comments.
type LanguageStat struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// LanguageDistribution summarizes which languages a video's audience
// writes in.
type LanguageDistribution struct {
	Languages       map[string]LanguageStat `json:"languages"`
	TotalComments   int                     `json:"total_comments"`
	DetectedCount   int                     `json:"detected_languages"`
	PrimaryLanguage string                  `json:"primary_language"`
}

// LanguageSentiment holds per-language sentiment counts and percentages.
type LanguageSentiment struct {
	Name               string  `json:"name"`
	TotalComments      int     `json:"total_comments"`
	Positive           int     `json:"positive"`
	Negative           int     `json:"negative"`
	Neutral            int     `json:"neutral"`
	PositivePercentage float64 `json:"positive_percentage"`
	NegativePercentage float64 `json:"negative_percentage"`
	NeutralPercentage  float64 `json:"neutral_percentage"`
}

// FeedbackPatterns counts how many analyzed comments carried each kind of
// substantive feedback.
type FeedbackPatterns struct {
	ConstructiveCriticism  int     `json:"constructive_criticism"`
	PositiveFeedback       int     `json:"positive_feedback"`
	SuggestionsProvided    int     `json:"suggestions_provided"`
	CriticismPercentage    float64 `json:"criticism_percentage"`
	PraisePercentage       float64 `json:"praise_percentage"`
	SuggestionsPercentage  float64 `json:"suggestions_percentage"`
}

// EngagementPatterns summarizes how substantively a video's audience
// engages.
type EngagementPatterns struct {
	TotalAnalyzed       int              `json:"total_analyzed"`
	RelevantCount       int              `json:"relevant_feedback_count"`
	RelevantPercentage  float64          `json:"relevant_feedback_percentage"`
	Feedback            FeedbackPatterns `json:"feedback_patterns"`
	TopDiscussionTopics []LabelCount     `json:"top_discussion_topics"`
}

// AudienceAnalysis is the optional per-video audience profile.
type AudienceAnalysis struct {
	VideoID             string                       `json:"video_id"`
	Languages           LanguageDistribution         `json:"language_analysis"`
	SentimentByLanguage map[string]LanguageSentiment `json:"sentiment_by_language"`
	Engagement          EngagementPatterns           `json:"engagement_patterns"`
	Profile             string                       `json:"audience_profile,omitempty"`
	AnalyzedAt          time.Time                    `json:"analysis_timestamp"`
}

// ConfigSnapshot records the configuration a cached analysis was computed
// under. It mirrors the fingerprinted subset so cached entries are
// self-describing.
type ConfigSnapshot struct {
	AnalysisModel  string `json:"analysis_model"`
	FilterLanguage string `json:"filter_language,omitempty"`
	MinLength      int    `json:"min_length"`
	MaxComments    int    `json:"max_comments"`
	BatchSize      int    `json:"batch_size"`
}

// VideoAnalysisResult is the complete output for one video. It is produced
// exactly once per (video, fingerprint) pair and is immutable once written
// to the cache.
type VideoAnalysisResult struct {
	VideoID    string            `json:"video_id"`
	VideoURL   string            `json:"video_url"`
	Summary    AggregatedSummary `json:"analysis_summary"`
	Comments   []CommentAnalysis `json:"analyzed_comments"`
	Audience   *AudienceAnalysis `json:"audience_analysis,omitempty"`
	ConfigUsed ConfigSnapshot    `json:"config_used"`
	AnalyzedAt time.Time         `json:"analysis_timestamp"`
}

// ChannelSummary aggregates sentiment and engagement across all videos
// processed in one run. Percentages are recomputed from summed counts,
// never averaged across videos.
type ChannelSummary struct {
	VideosAnalyzed     int              `json:"videos_analyzed"`
	TotalProcessed     int              `json:"total_comments_processed"`
	TotalRelevant      int              `json:"total_relevant_comments"`
	RelevantPercentage float64          `json:"relevant_percentage"`
	Sentiment          SentimentSummary `json:"sentiment_summary"`
}
