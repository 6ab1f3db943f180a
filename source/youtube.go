package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"github.com/researchaccelerator-hub/comment-insights/model"
)

// commentPageSize is the YouTube Data API maximum per page.
const commentPageSize = 100

// YouTubeSource fetches top-level comment threads from the YouTube Data
// API.
type YouTubeSource struct {
	service *ytapi.Service
	apiKey  string
}

// NewYouTubeSource creates a YouTube-backed comment source. Connect must
// be called before fetching.
func NewYouTubeSource(apiKey string) (*YouTubeSource, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}
	return &YouTubeSource{apiKey: apiKey}, nil
}

// Connect establishes the YouTube API service.
func (s *YouTubeSource) Connect(ctx context.Context) error {
	log.Info().Msg("Connecting to YouTube API")

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	service, err := ytapi.NewService(ctx, option.WithAPIKey(s.apiKey), option.WithHTTPClient(httpClient))
	if err != nil {
		log.Error().Err(err).Msg("Failed to create YouTube service")
		return fmt.Errorf("failed to create YouTube service: %w", err)
	}

	s.service = service
	log.Info().Msg("Connected to YouTube API successfully")
	return nil
}

// Disconnect releases the YouTube API service.
func (s *YouTubeSource) Disconnect(ctx context.Context) error {
	s.service = nil
	return nil
}

// FetchComments pages through the video's top-level comment threads until
// the limit is reached or no pages remain.
func (s *YouTubeSource) FetchComments(ctx context.Context, task model.VideoTask, limit int) ([]model.RawComment, error) {
	if s.service == nil {
		return nil, fmt.Errorf("YouTube client not connected")
	}

	log.Info().Str("videoID", task.VideoID).Msg("Fetching comments from YouTube API")

	var comments []model.RawComment
	pageToken := ""

	for {
		call := s.service.CommentThreads.List([]string{"snippet"}).
			VideoId(task.VideoID).
			TextFormat("plainText").
			Order("relevance").
			MaxResults(commentPageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		response, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch comments for video %s: %w", task.VideoID, err)
		}

		for _, item := range response.Items {
			if item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
				continue
			}
			snippet := item.Snippet.TopLevelComment.Snippet
			comments = append(comments, model.RawComment{
				Text:   snippet.TextDisplay,
				Author: snippet.AuthorDisplayName,
				Votes:  int(snippet.LikeCount),
				Time:   snippet.PublishedAt,
			})
			if limit > 0 && len(comments) >= limit {
				log.Info().Int("comments", len(comments)).Str("videoID", task.VideoID).Msg("Reached comment limit")
				return comments, nil
			}
		}

		pageToken = response.NextPageToken
		if pageToken == "" {
			break
		}
	}

	log.Info().Int("comments", len(comments)).Str("videoID", task.VideoID).Msg("Fetched all comments")
	return comments, nil
}
