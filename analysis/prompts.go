package analysis

import "fmt"

// Prompt templates for every model call the pipeline makes. Keeping them
// in one place keeps the calling code free of prose.

// BuildAudienceProfilePrompt formats the audience-profile prompt around
// the serialized audience statistics.
func BuildAudienceProfilePrompt(data string) string {
	return fmt.Sprintf(audienceProfilePrompt, data)
}

// BuildKeyInsightsPrompt formats the final-report prompt around the
// per-video summaries and channel statistics.
func BuildKeyInsightsPrompt(videoSummaries, channelStats, language string) string {
	return fmt.Sprintf(keyInsightsPrompt, videoSummaries, channelStats, language)
}

// batchAnalysisPrompt asks for a JSON array with one object per comment,
// each echoing its ordinal so responses can be validated against the
// request rather than trusted positionally.
const batchAnalysisPrompt = `You are an expert YouTube comment analyst. Analyze the following %d YouTube comments.
For each comment, provide a JSON analysis with these fields:
- comment_index: the number of the comment being analyzed (as labeled below)
- sentiment: "positive", "negative", or "neutral"
- topics: list of 1-3 main topics (concise strings)
- pain_points: list of specific criticisms (empty list if none)
- advantages: list of specific praises (empty list if none)
- recommendations_for_creator: list of actionable suggestions (empty list if none)
- is_relevant_feedback: boolean (true if substantive feedback, false if simple greeting/spam)

Comments to analyze:
%s

Respond with a JSON array containing exactly %d objects, one for each comment in order.
Each object must have all the required fields. Example format:
[
    {
        "comment_index": 1,
        "sentiment": "positive",
        "topics": ["content quality"],
        "pain_points": [],
        "advantages": ["great explanation"],
        "recommendations_for_creator": [],
        "is_relevant_feedback": true
    },
    ...
]`

// audienceProfilePrompt generates the free-form audience profile from the
// aggregated audience statistics.
const audienceProfilePrompt = `You are an expert audience analyst for YouTube channels. Based on the following comment analysis data,
provide insights about the channel's audience demographics, behavior patterns, and engagement characteristics.

Analysis Data:
%s

Please provide a comprehensive audience profile that includes:

1. **Geographic/Cultural Audience**: Based on language distribution, what can we infer about the audience's geographic spread and cultural background?
2. **Engagement Quality**: How engaged and constructive is this audience? What does their feedback behavior tell us?
3. **Audience Characteristics**: What personality traits, interests, or demographics can we infer from comment patterns?
4. **Content Preferences**: What topics or content types seem to resonate most with this audience?
5. **Community Health**: How healthy and constructive is the comment community?
6. **Growth Opportunities**: What insights for channel growth can be derived from this audience analysis?

Provide specific, actionable insights based on the data. Be concrete rather than generic.
Respond in English with clear headings and bullet points.`

// keyInsightsPrompt turns the per-video summaries into the final report.
const keyInsightsPrompt = `You are an expert content strategist. Based on the following per-video comment analysis
summaries and the channel-level statistics, write a focused key-insights report for the channel creator.

Per-video summaries:
%s

Channel-level statistics:
%s

Structure the report with clear headings covering: overall audience sentiment, the most discussed topics,
the most common pain points, the strongest advantages viewers highlight, and the most actionable
recommendations. Be specific and cite counts where useful.
Respond in %s.`
