// Package subscription хранит запомненные адреса лент без дубликатов по URL.
package subscription

import (
	"context"
	"fmt"

	"podfeed/internal/config"
	"podfeed/internal/db"
	"podfeed/internal/models"
)

// Store - хранилище подписок. Insert должен проверять URL и добавлять запись
// в одной критической секции: при существующем URL возвращается уже
// сохранённая запись и false.
type Store interface {
	List(ctx context.Context) ([]models.Subscription, error)
	FindByURL(ctx context.Context, url string) (*models.Subscription, error)
	Insert(ctx context.Context, sub models.Subscription) (models.Subscription, bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// StoreError - ошибка записи или недоступности хранилища.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("subscription store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Open создаёт хранилище согласно cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverFile, "":
		return NewFileStore(cfg.Path)
	case config.DriverSQLite:
		return NewSQLiteStore(ctx, cfg.Path)
	case config.DriverPostgres:
		database, err := db.NewDB(ctx, cfg.DSN)
		if err != nil {
			return nil, &StoreError{Op: "connect", Err: err}
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, &StoreError{Op: "migrate", Err: err}
		}
		return postgresStore{database}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// postgresStore приводит db.Database к интерфейсу Store.
type postgresStore struct {
	*db.Database
}

func (s postgresStore) List(ctx context.Context) ([]models.Subscription, error) {
	return s.ListSubscriptions(ctx)
}

func (s postgresStore) FindByURL(ctx context.Context, url string) (*models.Subscription, error) {
	return s.FindSubscription(ctx, url)
}

func (s postgresStore) Insert(ctx context.Context, sub models.Subscription) (models.Subscription, bool, error) {
	saved, created, err := s.InsertSubscription(ctx, sub)
	if err != nil {
		return models.Subscription{}, false, &StoreError{Op: "insert", Err: err}
	}
	return saved, created, nil
}

func (s postgresStore) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s postgresStore) Close() error {
	s.Database.Close()
	return nil
}
