package aggregate

import (
	"github.com/researchaccelerator-hub/comment-insights/model"
)

// AggregateChannel merges per-video summaries into channel-level
// statistics. Raw counts are summed and percentages recomputed from the
// sums; averaging per-video percentages directly is disallowed because it
// misweights small videos.
func AggregateChannel(summaries []model.AggregatedSummary) model.ChannelSummary {
	ch := model.ChannelSummary{VideosAnalyzed: len(summaries)}

	for _, s := range summaries {
		ch.TotalProcessed += s.TotalProcessed
		ch.TotalRelevant += s.RelevantCount
		ch.Sentiment.PositiveCount += s.Sentiment.PositiveCount
		ch.Sentiment.NeutralCount += s.Sentiment.NeutralCount
		ch.Sentiment.NegativeCount += s.Sentiment.NegativeCount
	}

	total := ch.Sentiment.Total()
	ch.Sentiment.PositivePercentage = percentage(ch.Sentiment.PositiveCount, total)
	ch.Sentiment.NeutralPercentage = percentage(ch.Sentiment.NeutralCount, total)
	ch.Sentiment.NegativePercentage = percentage(ch.Sentiment.NegativeCount, total)
	ch.RelevantPercentage = percentage(ch.TotalRelevant, ch.TotalProcessed)

	return ch
}
