package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"podfeed/internal/logger"
	"podfeed/internal/models"
	"podfeed/internal/normalize"
	"podfeed/internal/xmltree"

	"github.com/mmcdole/gofeed"
)

// ResolveError - единственная ошибка, которую отдаёт Resolver. Error()
// возвращает сообщение исходной ошибки без изменений.
type ResolveError struct {
	URL string
	Err error
}

func (e *ResolveError) Error() string {
	return e.Err.Error()
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Resolver получает документ, разбирает его в дерево и нормализует в Feed.
// Повторных попыток не делает.
type Resolver struct {
	fetcher *Fetcher
	decoder *xmltree.Decoder
}

// NewResolver создаёт Resolver поверх f.
func NewResolver(f *Fetcher) *Resolver {
	return &Resolver{
		fetcher: f,
		decoder: xmltree.NewDecoder(xmltree.DefaultOptions()),
	}
}

// Resolve загружает и нормализует ленту по url.
func (r *Resolver) Resolve(ctx context.Context, url string) (*models.Feed, error) {
	log := logger.Log.WithField("url", url)
	start := time.Now()
	defer func() {
		resolveDuration.Observe(time.Since(start).Seconds())
	}()

	log.Debug("Fetching feed")
	raw, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		resolveTotal.WithLabelValues(resultFetchError).Inc()
		log.WithError(err).Warn("Failed to fetch feed")
		return nil, &ResolveError{URL: url, Err: err}
	}

	tree, err := r.decoder.Decode(bytes.NewReader(raw))
	if err != nil {
		resolveTotal.WithLabelValues(resultDecodeError).Inc()
		log.WithError(err).Warn("Failed to decode feed")
		return nil, &ResolveError{URL: url, Err: err}
	}

	feed, err := normalize.Normalize(tree, url)
	if err != nil {
		if errors.Is(err, normalize.ErrUnsupportedFormat) {
			if kind := sniff(raw); kind != "" {
				err = fmt.Errorf("%w (%s)", err, kind)
			}
		}
		resolveTotal.WithLabelValues(resultUnsupported).Inc()
		log.WithError(err).Warn("Failed to normalize feed")
		return nil, &ResolveError{URL: url, Err: err}
	}

	resolveTotal.WithLabelValues(resultOK).Inc()
	log.WithField("episodes", len(feed.Episodes)).Debug("Feed resolved")
	return feed, nil
}

// sniff называет тип документа, который gofeed распознаёт, а normalize нет.
func sniff(raw []byte) string {
	switch gofeed.DetectFeedType(bytes.NewReader(raw)) {
	case gofeed.FeedTypeJSON:
		return "json feed"
	case gofeed.FeedTypeRSS:
		return "rdf"
	case gofeed.FeedTypeAtom:
		return "atom"
	default:
		return ""
	}
}
