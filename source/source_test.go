package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchaccelerator-hub/comment-insights/model"
)

func writeJSONL(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "comments.json")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestFileSourceReadsJSONL(t *testing.T) {
	path := writeJSONL(t,
		`{"text": "first comment", "author": "alice", "votes": 3}`,
		`{"text": "second comment"}`,
	)

	comments, err := NewFileSource().FetchComments(context.Background(), model.VideoTask{VideoID: "vid1", CommentFile: path}, 0)
	require.NoError(t, err)

	require.Len(t, comments, 2)
	assert.Equal(t, "first comment", comments[0].Text)
	assert.Equal(t, "alice", comments[0].Author)
	assert.Equal(t, 3, comments[0].Votes)
	assert.Equal(t, "second comment", comments[1].Text)
}

func TestFileSourceSkipsMalformedLines(t *testing.T) {
	path := writeJSONL(t,
		`{"text": "good"}`,
		`{not json at all`,
		``,
		`{"text": "also good"}`,
	)

	comments, err := NewFileSource().FetchComments(context.Background(), model.VideoTask{VideoID: "vid1", CommentFile: path}, 0)
	require.NoError(t, err)

	require.Len(t, comments, 2)
	assert.Equal(t, "good", comments[0].Text)
	assert.Equal(t, "also good", comments[1].Text)
}

func TestFileSourceHonorsLimit(t *testing.T) {
	path := writeJSONL(t,
		`{"text": "one"}`,
		`{"text": "two"}`,
		`{"text": "three"}`,
	)

	comments, err := NewFileSource().FetchComments(context.Background(), model.VideoTask{VideoID: "vid1", CommentFile: path}, 2)
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}

func TestFileSourceMissingFile(t *testing.T) {
	_, err := NewFileSource().FetchComments(context.Background(), model.VideoTask{VideoID: "vid1", CommentFile: "/nonexistent/file.json"}, 0)
	assert.Error(t, err)

	_, err = NewFileSource().FetchComments(context.Background(), model.VideoTask{VideoID: "vid1"}, 0)
	assert.Error(t, err)
}

func TestSaveCommentsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments", "vid1_comments.json")
	original := []model.RawComment{
		{Text: "hello world", Author: "bob"},
		{Text: "multi\nline comment"},
	}

	require.NoError(t, SaveComments(path, original))

	loaded, err := NewFileSource().FetchComments(context.Background(), model.VideoTask{VideoID: "vid1", CommentFile: path}, 0)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)

	// No temp file left behind.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestVideoIndexRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos_index.json")
	tasks := []model.VideoTask{
		{VideoID: "abc123", VideoURL: "https://www.youtube.com/watch?v=abc123", CommentFile: "/data/abc123_comments.json"},
		{VideoID: "def456", VideoURL: "https://www.youtube.com/watch?v=def456", CommentFile: "/data/def456_comments.json"},
	}

	require.NoError(t, WriteVideoIndex(path, tasks))

	loaded, err := LoadVideoIndex(path)
	require.NoError(t, err)
	assert.Equal(t, tasks, loaded)
}

func TestLoadVideoIndexSkipsEntriesWithoutCommentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos_index.json")
	tasks := []model.VideoTask{
		{VideoID: "abc123", VideoURL: "https://www.youtube.com/watch?v=abc123", CommentFile: "/data/abc123_comments.json"},
		{VideoID: "broken", VideoURL: "https://www.youtube.com/watch?v=broken"},
	}
	require.NoError(t, WriteVideoIndex(path, tasks))

	loaded, err := LoadVideoIndex(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "abc123", loaded[0].VideoID)
}

func TestLoadVideoIndexDerivesMissingVideoID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos_index.json")
	data := `{"created_at": "2025-01-01T00:00:00Z", "videos": [
		{"video_url": "https://www.youtube.com/watch?v=xyz789&t=10", "comment_file": "/data/c.json"}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	loaded, err := LoadVideoIndex(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "xyz789", loaded[0].VideoID)
}

func TestLoadVideoIndexErrors(t *testing.T) {
	_, err := LoadVideoIndex("/nonexistent/index.json")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	_, err = LoadVideoIndex(path)
	assert.Error(t, err)
}

func TestNewYouTubeSourceRequiresAPIKey(t *testing.T) {
	_, err := NewYouTubeSource("")
	assert.Error(t, err)
}

func TestYouTubeSourceRequiresConnect(t *testing.T) {
	src, err := NewYouTubeSource("test-key")
	require.NoError(t, err)

	_, err = src.FetchComments(context.Background(), model.VideoTask{VideoID: "vid1"}, 0)
	assert.ErrorContains(t, err, "not connected")
}

// stubSource serves canned comments per video and fails for listed IDs.
type stubSource struct {
	comments map[string][]model.RawComment
	failFor  map[string]bool
}

func (s *stubSource) FetchComments(_ context.Context, task model.VideoTask, limit int) ([]model.RawComment, error) {
	if s.failFor[task.VideoID] {
		return nil, errors.New("quota exceeded")
	}
	return s.comments[task.VideoID], nil
}

func TestDownloadAllWritesFilesAndIndex(t *testing.T) {
	root := t.TempDir()
	src := &stubSource{
		comments: map[string][]model.RawComment{
			"aaa": {{Text: "comment for aaa"}},
			"bbb": {{Text: "comment for bbb"}},
		},
		failFor: map[string]bool{"ccc": true},
	}
	urls := []string{
		"https://www.youtube.com/watch?v=aaa",
		"https://www.youtube.com/watch?v=bbb",
		"https://www.youtube.com/watch?v=ccc",
	}

	indexPath, err := DownloadAll(context.Background(), src, urls, root, 0, false)
	require.NoError(t, err)

	// The failed video is indexed without a comment file and LoadVideoIndex
	// drops it.
	tasks, err := LoadVideoIndex(indexPath)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	comments, err := NewFileSource().FetchComments(context.Background(), tasks[0], 0)
	require.NoError(t, err)
	assert.Equal(t, "comment for aaa", comments[0].Text)
}

func TestDownloadAllSkipsExistingFiles(t *testing.T) {
	root := t.TempDir()
	path := CommentFilePath(root, "aaa")
	require.NoError(t, SaveComments(path, []model.RawComment{{Text: "already here"}}))

	// The source would fail, but the existing file short-circuits it.
	src := &stubSource{failFor: map[string]bool{"aaa": true}}

	indexPath, err := DownloadAll(context.Background(), src, []string{"https://www.youtube.com/watch?v=aaa"}, root, 0, false)
	require.NoError(t, err)

	tasks, err := LoadVideoIndex(indexPath)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, path, tasks[0].CommentFile)
}

func TestDownloadAllNoURLs(t *testing.T) {
	_, err := DownloadAll(context.Background(), &stubSource{}, nil, t.TempDir(), 0, false)
	assert.Error(t, err)
}
