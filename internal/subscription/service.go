package subscription

import (
	"context"
	"time"

	"podfeed/internal/logger"
	"podfeed/internal/models"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var subscriptionsAdded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "podfeed_subscriptions_added_total",
	Help: "Subscriptions created",
})

// Resolver получает ленту, чтобы заполнить название и картинку подписки.
type Resolver interface {
	Resolve(ctx context.Context, url string) (*models.Feed, error)
}

// AddResult - результат AddIfAbsent. Feed заполнен, если лента была
// получена во время вызова.
type AddResult struct {
	Created      bool
	Subscription models.Subscription
	Feed         *models.Feed
}

// Service реализует операции над подписками поверх Store.
type Service struct {
	store    Store
	resolver Resolver
	now      func() time.Time
	newID    func() (string, error)
}

// NewService создаёт Service. Идентификаторы - UUIDv7, упорядоченные по времени.
func NewService(store Store, resolver Resolver) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		now:      time.Now,
		newID: func() (string, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}
}

// List возвращает все подписки.
func (s *Service) List(ctx context.Context) ([]models.Subscription, error) {
	return s.store.List(ctx)
}

// FindByURL возвращает подписку с данным URL или nil.
func (s *Service) FindByURL(ctx context.Context, url string) (*models.Subscription, error) {
	return s.store.FindByURL(ctx, url)
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// AddIfAbsent возвращает существующую подписку без изменений или создаёт новую,
// предварительно получив ленту. Ошибка получения ленты возвращается как есть,
// и ничего не сохраняется.
func (s *Service) AddIfAbsent(ctx context.Context, url string) (AddResult, error) {
	log := logger.Log.WithField("url", url)

	existing, err := s.store.FindByURL(ctx, url)
	if err != nil {
		return AddResult{}, err
	}
	if existing != nil {
		log.Debug("Subscription already exists")
		return AddResult{Subscription: *existing}, nil
	}

	feed, err := s.resolver.Resolve(ctx, url)
	if err != nil {
		return AddResult{}, err
	}

	id, err := s.newID()
	if err != nil {
		return AddResult{}, err
	}
	sub := models.Subscription{
		ID:          id,
		Title:       feed.Info.Title,
		URL:         url,
		Image:       feed.Info.Image,
		LastUpdated: s.now().UTC(),
	}

	// Insert повторно проверяет URL под блокировкой хранилища: параллельный
	// вызов с тем же URL получит запись победителя.
	saved, created, err := s.store.Insert(ctx, sub)
	if err != nil {
		return AddResult{}, err
	}
	if created {
		subscriptionsAdded.Inc()
		log.WithField("id", saved.ID).Info("Subscription added")
	}

	return AddResult{Created: created, Subscription: saved, Feed: feed}, nil
}
