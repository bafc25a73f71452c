package models

import "encoding/json"

// FeedInfo содержит метаданные шоу. Отсутствующие поля всегда "".
type FeedInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Image       string `json:"image"`
	Author      string `json:"author"`
	Language    string `json:"language"`
	Copyright   string `json:"copyright"`
}

// Episode представляет один item (RSS) или entry (Atom).
// PubDate хранится в исходном текстовом виде.
type Episode struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PubDate     string `json:"pubDate"`
	AudioURL    string `json:"audioUrl"`
	Duration    string `json:"duration"`
	Image       string `json:"image"`
	GUID        string `json:"guid"`
}

// Feed - нормализованное представление ленты, не зависящее от формата.
type Feed struct {
	URL      string    `json:"url"`
	Info     FeedInfo  `json:"info"`
	Episodes []Episode `json:"episodes"`
}

// FeedError занимает место ленты в пакетном ответе, если её не удалось получить.
type FeedError struct {
	URL      string    `json:"url"`
	Error    string    `json:"error"`
	Info     *FeedInfo `json:"info"`
	Episodes []Episode `json:"episodes"`
}

// NewFeedError строит FeedError с пустым списком эпизодов и info=null.
func NewFeedError(url string, err error) *FeedError {
	return &FeedError{
		URL:      url,
		Error:    err.Error(),
		Episodes: []Episode{},
	}
}

// FeedResult - элемент пакетного ответа: либо Feed, либо FeedError.
type FeedResult struct {
	Feed *Feed
	Err  *FeedError
}

// URL возвращает адрес ленты независимо от исхода.
func (r FeedResult) URL() string {
	if r.Err != nil {
		return r.Err.URL
	}
	if r.Feed != nil {
		return r.Feed.URL
	}
	return ""
}

// OK сообщает, что лента получена успешно.
func (r FeedResult) OK() bool {
	return r.Feed != nil && r.Err == nil
}

func (r FeedResult) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(r.Err)
	}
	return json.Marshal(r.Feed)
}

// Page - страница пакетной выборки по встроенному списку лент.
type Page struct {
	CurrentPage int          `json:"currentPage"`
	PageSize    int          `json:"pageSize"`
	Total       int          `json:"total"`
	TotalPages  int          `json:"totalPages"`
	Data        []FeedResult `json:"data"`
}
