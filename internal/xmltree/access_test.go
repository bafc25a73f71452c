package xmltree_test

import (
	"testing"

	"podfeed/internal/xmltree"

	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	testCases := []struct {
		name string
		node any
		want string
	}{
		{"string", "hello", "hello"},
		{"mapping with text", map[string]any{"@_type": "html", "#text": "hi"}, "hi"},
		{"mapping without text", map[string]any{"@_type": "html"}, ""},
		{"number", int64(42), "42"},
		{"absent", nil, ""},
		{"sequence", []any{"a"}, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, xmltree.Text(tc.node))
		})
	}
}

func TestList(t *testing.T) {
	require.Empty(t, xmltree.List(nil))
	require.NotNil(t, xmltree.List(nil))

	single := map[string]any{"title": "x"}
	require.Equal(t, []any{single}, xmltree.List(single))

	many := []any{"a", "b"}
	require.Equal(t, many, xmltree.List(many))
}

func TestImageURL(t *testing.T) {
	testCases := []struct {
		name string
		node any
		want string
	}{
		{"itunes href", map[string]any{"@_href": "http://i/1.jpg"}, "http://i/1.jpg"},
		{"rss url child", map[string]any{"url": "http://i/2.jpg", "title": "x"}, "http://i/2.jpg"},
		{"text content", map[string]any{"@_rel": "logo", "#text": "http://i/3.jpg"}, "http://i/3.jpg"},
		{"plain string", "http://i/4.jpg", "http://i/4.jpg"},
		{"href wins over url", map[string]any{"@_href": "h", "url": "u"}, "h"},
		{"first of many", []any{map[string]any{"url": "a"}, map[string]any{"url": "b"}}, "a"},
		{"absent", nil, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, xmltree.ImageURL(tc.node))
		})
	}
}

func TestAudioURLFromEnclosures(t *testing.T) {
	video := map[string]any{"@_url": "http://a/v.mp4", "@_type": "video/mp4"}
	audio := map[string]any{"@_url": "http://a/a.mp3", "@_type": "audio/mpeg"}

	require.Equal(t, "http://a/a.mp3", xmltree.AudioURLFromEnclosures([]any{video, audio}))
	require.Equal(t, "", xmltree.AudioURLFromEnclosures([]any{video}))
	// Одиночный enclosure принимается без фильтра по типу.
	require.Equal(t, "http://a/v.mp4", xmltree.AudioURLFromEnclosures(video))
	require.Equal(t, "", xmltree.AudioURLFromEnclosures(map[string]any{"@_type": "audio/mpeg"}))
	require.Equal(t, "", xmltree.AudioURLFromEnclosures(nil))
}

func TestAudioURLFromLinks(t *testing.T) {
	alternate := map[string]any{"@_rel": "alternate", "@_href": "http://a/page"}
	enclosure := map[string]any{"@_rel": "enclosure", "@_type": "audio/mp4", "@_href": "http://a/1.m4a"}

	require.Equal(t, "http://a/1.m4a", xmltree.AudioURLFromLinks([]any{alternate, enclosure}))
	require.Equal(t, "http://a/1.m4a", xmltree.AudioURLFromLinks(enclosure))
	require.Equal(t, "", xmltree.AudioURLFromLinks(alternate))
	require.Equal(t, "", xmltree.AudioURLFromLinks(nil))
}
