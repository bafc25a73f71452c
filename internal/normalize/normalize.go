// Package normalize определяет формат разобранного документа (RSS или Atom)
// и приводит его к models.Feed.
package normalize

import (
	"errors"

	"podfeed/internal/models"
	"podfeed/internal/xmltree"
)

// ErrUnsupportedFormat означает, что дерево не похоже ни на RSS, ни на Atom.
var ErrUnsupportedFormat = errors.New("Unsupported feed format")

// Format - распознанный формат документа.
type Format string

const (
	FormatUnknown Format = ""
	FormatRSS     Format = "rss"
	FormatAtom    Format = "atom"
)

// Detect проверяет сначала rss.channel, затем feed. Вторым значением
// возвращается узел, с которого начинается нормализация.
func Detect(tree map[string]any) (Format, any) {
	if channel := xmltree.Child(tree["rss"], "channel"); channel != nil {
		return FormatRSS, xmltree.First(channel)
	}
	if feed, ok := tree["feed"]; ok && feed != nil {
		return FormatAtom, xmltree.First(feed)
	}
	return FormatUnknown, nil
}

// Normalize строит Feed из дерева документа, полученного по адресу sourceURL.
func Normalize(tree map[string]any, sourceURL string) (*models.Feed, error) {
	format, node := Detect(tree)
	switch format {
	case FormatRSS:
		return normalizeRSS(node, sourceURL), nil
	case FormatAtom:
		return normalizeAtom(node, sourceURL), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

func normalizeRSS(channel any, sourceURL string) *models.Feed {
	info := models.FeedInfo{
		Title:       text(channel, "title"),
		Description: text(channel, "description"),
		Link:        text(channel, "link"),
		Image:       xmltree.ImageURL(xmltree.Child(channel, "image")),
		Author:      firstNonEmpty(text(channel, "managingEditor"), text(channel, "itunes:author")),
		Language:    text(channel, "language"),
		Copyright:   text(channel, "copyright"),
	}
	if info.Image == "" {
		info.Image = xmltree.ImageURL(xmltree.Child(channel, "itunes:image"))
	}

	items := xmltree.List(xmltree.Child(channel, "item"))
	episodes := make([]models.Episode, 0, len(items))
	for _, item := range items {
		episodes = append(episodes, models.Episode{
			Title:       text(item, "title"),
			Description: firstNonEmpty(text(item, "description"), text(item, "itunes:summary")),
			PubDate:     text(item, "pubDate"),
			AudioURL:    xmltree.AudioURLFromEnclosures(xmltree.Child(item, "enclosure")),
			Duration:    text(item, "itunes:duration"),
			Image:       firstNonEmpty(xmltree.ImageURL(xmltree.Child(item, "itunes:image")), info.Image),
			GUID:        text(item, "guid"),
		})
	}

	return &models.Feed{URL: sourceURL, Info: info, Episodes: episodes}
}

func normalizeAtom(feed any, sourceURL string) *models.Feed {
	info := models.FeedInfo{
		Title:       text(feed, "title"),
		Description: text(feed, "subtitle"),
		// Берётся первая ссылка независимо от rel.
		Link:      xmltree.Attr(xmltree.First(xmltree.Child(feed, "link")), "href"),
		Image:     firstNonEmpty(xmltree.ImageURL(xmltree.Child(feed, "logo")), xmltree.ImageURL(xmltree.Child(feed, "icon"))),
		Author:    text(xmltree.First(xmltree.Child(feed, "author")), "name"),
		Language:  xmltree.Attr(feed, "xml:lang"),
		Copyright: text(feed, "rights"),
	}

	entries := xmltree.List(xmltree.Child(feed, "entry"))
	episodes := make([]models.Episode, 0, len(entries))
	for _, entry := range entries {
		episodes = append(episodes, models.Episode{
			Title:       text(entry, "title"),
			Description: text(entry, "summary"),
			PubDate:     firstNonEmpty(text(entry, "published"), text(entry, "updated")),
			AudioURL:    xmltree.AudioURLFromLinks(xmltree.Child(entry, "link")),
			Image:       info.Image,
			GUID:        text(entry, "id"),
		})
	}

	return &models.Feed{URL: sourceURL, Info: info, Episodes: episodes}
}

// text читает текст дочернего элемента key; из повторяющихся берётся первый.
func text(node any, key string) string {
	return xmltree.Text(xmltree.First(xmltree.Child(node, key)))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
