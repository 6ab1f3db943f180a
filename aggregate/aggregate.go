// Package aggregate reduces ordered comment analyses into summary
// statistics. Everything in this package is a pure function: fixed inputs
// produce byte-identical outputs across runs.
package aggregate

import (
	"math"
	"sort"
	"strings"

	"github.com/researchaccelerator-hub/comment-insights/model"
)

// labelStat tracks a normalized label's count and the position of its
// first occurrence scanning analyses in original order. The first-seen
// position is the tie-break for equal counts; ranking is never
// alphabetical.
type labelStat struct {
	label     string
	count     int
	firstSeen int
}

// Summarize reduces a video's ordered analysis sequence into its
// aggregated summary. Error markers are excluded from all statistics but
// still count toward total processed. Sentiment is computed over all
// non-error analyses; topic, pain-point, and advantage rankings are
// computed over relevant analyses only.
func Summarize(videoID string, analyses []model.CommentAnalysis, topN int) model.AggregatedSummary {
	var valid, relevant []model.CommentAnalysis
	for _, a := range analyses {
		if a.IsError() {
			continue
		}
		valid = append(valid, a)
		if a.IsRelevantFeedback {
			relevant = append(relevant, a)
		}
	}

	return model.AggregatedSummary{
		VideoID:                videoID,
		TotalProcessed:         len(analyses),
		RelevantCount:          len(relevant),
		Sentiment:              summarizeSentiment(valid),
		TopTopics:              rankLabels(relevant, topN, func(a model.CommentAnalysis) []string { return a.Topics }),
		CommonPainPoints:       rankLabels(relevant, topN, func(a model.CommentAnalysis) []string { return a.PainPoints }),
		HighlightedAdvantages:  rankLabels(relevant, topN, func(a model.CommentAnalysis) []string { return a.Advantages }),
		CreatorRecommendations: dedupeRecommendations(relevant),
	}
}

// summarizeSentiment counts the three classes and derives percentages.
// All keys are always present; a zero denominator yields zero percentages
// rather than undefined values.
func summarizeSentiment(valid []model.CommentAnalysis) model.SentimentSummary {
	var s model.SentimentSummary
	for _, a := range valid {
		switch a.Sentiment {
		case model.SentimentPositive:
			s.PositiveCount++
		case model.SentimentNegative:
			s.NegativeCount++
		default:
			s.NeutralCount++
		}
	}

	total := len(valid)
	s.PositivePercentage = percentage(s.PositiveCount, total)
	s.NeutralPercentage = percentage(s.NeutralCount, total)
	s.NegativePercentage = percentage(s.NegativeCount, total)
	return s
}

// percentage returns count/total as a percentage rounded to two decimal
// places, or zero when total is zero.
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*100*100) / 100
}

// TopLabels ranks the labels produced by extract across the given
// analyses and returns the top N. It shares the ranking rules used for
// per-video summaries so every top-N list in the system orders the same
// way.
func TopLabels(analyses []model.CommentAnalysis, topN int, extract func(model.CommentAnalysis) []string) []model.LabelCount {
	return rankLabels(analyses, topN, extract)
}

// rankLabels counts normalized labels across the given analyses and
// returns the top N, ranked by descending count with ties broken by
// first-occurrence position in the original comment order. The sort is
// stable by construction of the tie-break.
func rankLabels(analyses []model.CommentAnalysis, topN int, extract func(model.CommentAnalysis) []string) []model.LabelCount {
	stats := make(map[string]*labelStat)
	position := 0

	for _, a := range analyses {
		for _, raw := range extract(a) {
			label := normalizeLabel(raw)
			if label == "" {
				continue
			}
			if st, ok := stats[label]; ok {
				st.count++
			} else {
				stats[label] = &labelStat{label: label, count: 1, firstSeen: position}
			}
			position++
		}
	}

	ranked := make([]*labelStat, 0, len(stats))
	for _, st := range stats {
		ranked = append(ranked, st)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].firstSeen < ranked[j].firstSeen
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	top := make([]model.LabelCount, len(ranked))
	for i, st := range ranked {
		top[i] = model.LabelCount{Label: st.label, Count: st.count}
	}
	return top
}

// dedupeRecommendations returns distinct recommendations in first-seen
// order. Deduplication is by normalized string; no counting or ranking.
func dedupeRecommendations(analyses []model.CommentAnalysis) []string {
	seen := make(map[string]bool)
	unique := []string{}

	for _, a := range analyses {
		for _, raw := range a.Recommendations {
			rec := strings.TrimSpace(raw)
			if rec == "" {
				continue
			}
			key := strings.ToLower(rec)
			if seen[key] {
				continue
			}
			seen[key] = true
			unique = append(unique, rec)
		}
	}
	return unique
}

// normalizeLabel case-folds and trims a label so spelling variants count
// together.
func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
