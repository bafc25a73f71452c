package normalize_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"podfeed/internal/models"
	"podfeed/internal/normalize"
	"podfeed/internal/xmltree"

	"github.com/stretchr/testify/require"
)

const rssDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
	<channel>
		<title>Show</title>
		<description>About the show</description>
		<link>http://show.example/</link>
		<language>zh-cn</language>
		<copyright>(c) Show</copyright>
		<itunes:author>Host</itunes:author>
		<image><url>http://show.example/cover.jpg</url><title>Show</title></image>
		<item>
			<title>Ep2</title>
			<itunes:summary>Second</itunes:summary>
			<pubDate>Tue, 06 Jun 2023 10:00:00 +0000</pubDate>
			<enclosure url="http://show.example/2.mp3" type="audio/mpeg" length="100"/>
			<itunes:duration>00:42:00</itunes:duration>
			<itunes:image href="http://show.example/2.jpg"/>
			<guid isPermaLink="false">ep-2</guid>
		</item>
		<item>
			<title>Ep1</title>
			<description>First</description>
			<pubDate>Sun, 01 Jan 2023 10:00:00 +0000</pubDate>
			<enclosure url="http://show.example/1.mp3" type="audio/mpeg"/>
			<guid>ep-1</guid>
		</item>
	</channel>
</rss>`

const atomDoc = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xml:lang="en">
	<title type="text">Atom Show</title>
	<subtitle type="html">Atom subtitle</subtitle>
	<link rel="self" href="http://atom.example/feed.xml"/>
	<link rel="alternate" href="http://atom.example/"/>
	<author><name>Writer</name></author>
	<rights>CC-BY</rights>
	<logo>http://atom.example/logo.png</logo>
	<entry>
		<title>Later</title>
		<summary type="text">B</summary>
		<updated>2023-06-01T00:00:00Z</updated>
		<id>urn:b</id>
		<link rel="alternate" href="http://atom.example/b"/>
		<link rel="enclosure" type="audio/mpeg" href="http://atom.example/b.mp3"/>
	</entry>
	<entry>
		<title>Earlier</title>
		<published>2023-01-01T00:00:00Z</published>
		<updated>2023-02-01T00:00:00Z</updated>
		<id>urn:a</id>
	</entry>
</feed>`

func decode(t *testing.T, doc string) map[string]any {
	t.Helper()
	tree, err := xmltree.NewDecoder(xmltree.DefaultOptions()).Decode(strings.NewReader(doc))
	require.NoError(t, err)
	return tree
}

func TestNormalize_RSS(t *testing.T) {
	feed, err := normalize.Normalize(decode(t, rssDoc), "http://show.example/rss")
	require.NoError(t, err)

	require.Equal(t, "http://show.example/rss", feed.URL)
	require.Equal(t, models.FeedInfo{
		Title:       "Show",
		Description: "About the show",
		Link:        "http://show.example/",
		Image:       "http://show.example/cover.jpg",
		Author:      "Host",
		Language:    "zh-cn",
		Copyright:   "(c) Show",
	}, feed.Info)

	require.Equal(t, []models.Episode{
		{
			Title:       "Ep2",
			Description: "Second",
			PubDate:     "Tue, 06 Jun 2023 10:00:00 +0000",
			AudioURL:    "http://show.example/2.mp3",
			Duration:    "00:42:00",
			Image:       "http://show.example/2.jpg",
			GUID:        "ep-2",
		},
		{
			Title:       "Ep1",
			Description: "First",
			PubDate:     "Sun, 01 Jan 2023 10:00:00 +0000",
			AudioURL:    "http://show.example/1.mp3",
			Image:       "http://show.example/cover.jpg",
			GUID:        "ep-1",
		},
	}, feed.Episodes)
}

func TestNormalize_RSSManagingEditorWins(t *testing.T) {
	tree := map[string]any{"rss": map[string]any{"channel": map[string]any{
		"managingEditor": "editor@example.com",
		"itunes:author":  "Host",
	}}}

	feed, err := normalize.Normalize(tree, "u")
	require.NoError(t, err)
	require.Equal(t, "editor@example.com", feed.Info.Author)
}

func TestNormalize_RSSITunesImageFallback(t *testing.T) {
	tree := map[string]any{"rss": map[string]any{"channel": map[string]any{
		"itunes:image": map[string]any{"@_href": "http://i/cover.jpg"},
		"item":         map[string]any{"title": "Ep"},
	}}}

	feed, err := normalize.Normalize(tree, "u")
	require.NoError(t, err)
	require.Equal(t, "http://i/cover.jpg", feed.Info.Image)
	require.Equal(t, "http://i/cover.jpg", feed.Episodes[0].Image)
}

func TestNormalize_SingleRSSItemExample(t *testing.T) {
	tree := map[string]any{"rss": map[string]any{"channel": map[string]any{
		"title": "Show",
		"item": map[string]any{
			"title":     "Ep1",
			"enclosure": map[string]any{"@_url": "http://a/1.mp3", "@_type": "audio/mpeg"},
		},
	}}}

	feed, err := normalize.Normalize(tree, "http://a/feed")
	require.NoError(t, err)
	require.Equal(t, []models.Episode{{Title: "Ep1", AudioURL: "http://a/1.mp3"}}, feed.Episodes)
}

func TestNormalize_Atom(t *testing.T) {
	feed, err := normalize.Normalize(decode(t, atomDoc), "http://atom.example/feed.xml")
	require.NoError(t, err)

	require.Equal(t, models.FeedInfo{
		Title:       "Atom Show",
		Description: "Atom subtitle",
		Link:        "http://atom.example/feed.xml",
		Image:       "http://atom.example/logo.png",
		Author:      "Writer",
		Language:    "en",
		Copyright:   "CC-BY",
	}, feed.Info)

	require.Equal(t, []models.Episode{
		{
			Title:       "Later",
			Description: "B",
			PubDate:     "2023-06-01T00:00:00Z",
			AudioURL:    "http://atom.example/b.mp3",
			Image:       "http://atom.example/logo.png",
			GUID:        "urn:b",
		},
		{
			Title:   "Earlier",
			PubDate: "2023-01-01T00:00:00Z",
			Image:   "http://atom.example/logo.png",
			GUID:    "urn:a",
		},
	}, feed.Episodes)
}

func TestNormalize_EpisodeCountMatchesDocument(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7} {
		t.Run(fmt.Sprintf("rss %d", n), func(t *testing.T) {
			var b strings.Builder
			b.WriteString("<rss><channel><title>S</title>")
			for i := 0; i < n; i++ {
				fmt.Fprintf(&b, "<item><title>ep%d</title></item>", i)
			}
			b.WriteString("</channel></rss>")

			feed, err := normalize.Normalize(decode(t, b.String()), "u")
			require.NoError(t, err)
			require.Len(t, feed.Episodes, n)
			require.NotNil(t, feed.Episodes)
			for i, ep := range feed.Episodes {
				require.Equal(t, fmt.Sprintf("ep%d", i), ep.Title)
			}
		})

		t.Run(fmt.Sprintf("atom %d", n), func(t *testing.T) {
			var b strings.Builder
			b.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom"><title>S</title>`)
			for i := 0; i < n; i++ {
				fmt.Fprintf(&b, "<entry><title>ep%d</title></entry>", i)
			}
			b.WriteString("</feed>")

			feed, err := normalize.Normalize(decode(t, b.String()), "u")
			require.NoError(t, err)
			require.Len(t, feed.Episodes, n)
			for i, ep := range feed.Episodes {
				require.Equal(t, fmt.Sprintf("ep%d", i), ep.Title)
			}
		})
	}
}

func TestNormalize_PromotionSymmetry(t *testing.T) {
	item := map[string]any{"title": "Ep", "guid": map[string]any{"#text": "g", "@_isPermaLink": false}}
	entry := map[string]any{"title": "Entry", "id": "urn:x"}

	single, err := normalize.Normalize(map[string]any{"rss": map[string]any{"channel": map[string]any{"item": item}}}, "u")
	require.NoError(t, err)
	wrapped, err := normalize.Normalize(map[string]any{"rss": map[string]any{"channel": map[string]any{"item": []any{item}}}}, "u")
	require.NoError(t, err)
	require.Equal(t, wrapped, single)

	single, err = normalize.Normalize(map[string]any{"feed": map[string]any{"entry": entry}}, "u")
	require.NoError(t, err)
	wrapped, err = normalize.Normalize(map[string]any{"feed": map[string]any{"entry": []any{entry}}}, "u")
	require.NoError(t, err)
	require.Equal(t, wrapped, single)
}

func TestNormalize_AbsentFieldsAreEmpty(t *testing.T) {
	feed, err := normalize.Normalize(decode(t, `<rss><channel><item/></channel></rss>`), "u")
	require.NoError(t, err)
	require.Equal(t, models.FeedInfo{}, feed.Info)
	require.Equal(t, []models.Episode{{}}, feed.Episodes)

	feed, err = normalize.Normalize(decode(t, `<feed><entry/></feed>`), "u")
	require.NoError(t, err)
	require.Equal(t, models.FeedInfo{}, feed.Info)
	require.Equal(t, []models.Episode{{}}, feed.Episodes)
}

func TestNormalize_Unsupported(t *testing.T) {
	testCases := map[string]map[string]any{
		"empty":          {},
		"html":           {"html": map[string]any{"body": "x"}},
		"rss no channel": {"rss": map[string]any{"@_version": 2.0}},
	}

	for name, tree := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := normalize.Normalize(tree, "u")
			require.True(t, errors.Is(err, normalize.ErrUnsupportedFormat))
		})
	}
}

func TestDetect(t *testing.T) {
	format, _ := normalize.Detect(map[string]any{"rss": map[string]any{"channel": ""}})
	require.Equal(t, normalize.FormatRSS, format)

	// rss без channel не мешает распознать Atom.
	format, _ = normalize.Detect(map[string]any{"rss": "x", "feed": map[string]any{}})
	require.Equal(t, normalize.FormatAtom, format)
}
