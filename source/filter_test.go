package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchaccelerator-hub/comment-insights/model"
)

func comments(texts ...string) []model.RawComment {
	out := make([]model.RawComment, len(texts))
	for i, t := range texts {
		out[i] = model.RawComment{Text: t}
	}
	return out
}

func TestFilterCommentsMinLength(t *testing.T) {
	kept := FilterComments(comments("hi", "this one is long enough"), 10, "", nil)

	require.Len(t, kept, 1)
	assert.Equal(t, "this one is long enough", kept[0].Text)
}

func TestFilterCommentsDropsURLOnly(t *testing.T) {
	kept := FilterComments(comments(
		"https://example.com/watch-this-video",
		"https://a.example https://b.example",
		"check out https://example.com it is great",
	), 5, "", nil)

	require.Len(t, kept, 1)
	assert.Equal(t, "check out https://example.com it is great", kept[0].Text)
}

func TestFilterCommentsLanguage(t *testing.T) {
	detector := &mapDetectorSource{byMarker: map[string]string{"cesky": "cs", "english": "en"}}

	kept := FilterComments(comments(
		"cesky komentar dostatecne dlouhy",
		"english comment long enough here",
		"no marker so detection fails completely",
	), 5, "cs", detector)

	require.Len(t, kept, 1)
	assert.Equal(t, "cesky komentar dostatecne dlouhy", kept[0].Text)
}

func TestFilterCommentsNoDetectorSkipsLanguageFilter(t *testing.T) {
	kept := FilterComments(comments("english comment long enough here"), 5, "cs", nil)
	assert.Len(t, kept, 1)
}

func TestFilterCommentsPreservesOrder(t *testing.T) {
	kept := FilterComments(comments(
		"first surviving comment",
		"x",
		"second surviving comment",
	), 5, "", nil)

	require.Len(t, kept, 2)
	assert.Equal(t, "first surviving comment", kept[0].Text)
	assert.Equal(t, "second surviving comment", kept[1].Text)
}

func TestIsURLOnly(t *testing.T) {
	assert.True(t, isURLOnly("https://example.com"))
	assert.True(t, isURLOnly("  https://example.com  "))
	assert.False(t, isURLOnly("plain text without links"))
	assert.False(t, isURLOnly("text and https://example.com"))
	assert.False(t, isURLOnly(""))
}

// mapDetectorSource mirrors the audience test detector: substring match
// stands in for real language detection.
type mapDetectorSource struct {
	byMarker map[string]string
}

func (d *mapDetectorSource) Detect(text string) (string, bool) {
	for marker, code := range d.byMarker {
		if strings.Contains(text, marker) {
			return code, true
		}
	}
	return "", false
}
