// Package aggregator собирает несколько лент в один ответ: пакетно,
// постранично и в виде рекомендаций. Ошибка одной ленты не прерывает выборку.
package aggregator

import (
	"context"
	"slices"
	"time"

	"podfeed/internal/logger"
	"podfeed/internal/models"

	"github.com/araddon/dateparse"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPage        = 1
	DefaultPageSize    = 5
	DefaultSampleSize  = 3
	DefaultConcurrency = 4
)

// Resolver получает нормализованную ленту по адресу.
type Resolver interface {
	Resolve(ctx context.Context, url string) (*models.Feed, error)
}

// Aggregator выполняет пакетные операции над лентами.
type Aggregator struct {
	resolver    Resolver
	concurrency int
	sample      func(urls []string, n int) []string
}

// Option настраивает Aggregator.
type Option func(*Aggregator)

// WithConcurrency ограничивает число одновременных загрузок.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithSampler подменяет случайную выборку адресов для рекомендаций.
func WithSampler(sample func(urls []string, n int) []string) Option {
	return func(a *Aggregator) {
		if sample != nil {
			a.sample = sample
		}
	}
}

// New создаёт Aggregator поверх resolver.
func New(resolver Resolver, opts ...Option) *Aggregator {
	a := &Aggregator{
		resolver:    resolver,
		concurrency: DefaultConcurrency,
		sample: func(urls []string, n int) []string {
			return lo.Samples(urls, n)
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FetchAll получает все ленты. Результат i соответствует urls[i]; неудачная
// лента представлена FeedError.
func (a *Aggregator) FetchAll(ctx context.Context, urls []string) []models.FeedResult {
	results := make([]models.FeedResult, len(urls))

	// Ошибки не возвращаются в группу, чтобы одна лента не отменила остальные.
	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, url := range urls {
		g.Go(func() error {
			feed, err := a.resolver.Resolve(ctx, url)
			if err != nil {
				logger.Log.WithField("url", url).WithError(err).Warn("Feed failed in batch")
				results[i] = models.FeedResult{Err: models.NewFeedError(url, err)}
				return nil
			}
			results[i] = models.FeedResult{Feed: feed}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// FetchPage получает только ленты страницы page из urls. Непозитивные page и
// pageSize заменяются значениями по умолчанию.
func (a *Aggregator) FetchPage(ctx context.Context, urls []string, page, pageSize int) models.Page {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	total := len(urls)
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	// page сравнивается с totalPages до умножения: огромные page и pageSize
	// из запроса не должны переполнять смещение.
	window := []string{}
	if page <= totalPages {
		offset := (page - 1) * pageSize
		window = lo.Subset(urls, offset, uint(pageSize))
	}

	return models.Page{
		CurrentPage: page,
		PageSize:    pageSize,
		Total:       total,
		TotalPages:  totalPages,
		Data:        a.FetchAll(ctx, window),
	}
}

type candidate struct {
	episode models.Episode
	at      time.Time
}

// Recommend берёт sampleSize случайных лент и возвращает самый свежий эпизод
// каждой, от новых к старым. Неудачные ленты молча отбрасываются.
func (a *Aggregator) Recommend(ctx context.Context, urls []string, sampleSize int) []models.Episode {
	if sampleSize < 1 {
		sampleSize = DefaultSampleSize
	}
	sampled := a.sample(urls, min(sampleSize, len(urls)))

	candidates := make([]candidate, 0, len(sampled))
	for _, res := range a.FetchAll(ctx, sampled) {
		if !res.OK() || len(res.Feed.Episodes) == 0 {
			continue
		}
		candidates = append(candidates, latest(res.Feed.Episodes))
	}

	slices.SortStableFunc(candidates, func(x, y candidate) int {
		return y.at.Compare(x.at)
	})

	return lo.Map(candidates, func(c candidate, _ int) models.Episode {
		return c.episode
	})
}

// latest выбирает эпизод с наибольшей датой; при равенстве - более ранний в документе.
func latest(episodes []models.Episode) candidate {
	best := candidate{episode: episodes[0], at: ParseDate(episodes[0].PubDate)}
	for _, ep := range episodes[1:] {
		if at := ParseDate(ep.PubDate); at.After(best.at) {
			best = candidate{episode: ep, at: at}
		}
	}
	return best
}

// ParseDate разбирает дату публикации в любом распространённом формате.
// Нераспознанная дата считается самой старой.
func ParseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}
