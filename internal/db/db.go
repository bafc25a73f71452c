package db

import (
	"context"
	"errors"
	"fmt"

	"podfeed/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database инкапсулирует пул соединений к PostgreSQL.
type Database struct {
	Pool *pgxpool.Pool
}

// NewDB создаёт новый пул соединений по connString и возвращает Database.
func NewDB(ctx context.Context, connString string) (*Database, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return &Database{Pool: pool}, nil
}

// Close закрывает пул соединений.
func (db *Database) Close() {
	db.Pool.Close()
}

// Migrate создаёт таблицу subscriptions, если её ещё нет.
func (db *Database) Migrate(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS subscriptions (
            seq BIGSERIAL PRIMARY KEY,
            id TEXT NOT NULL UNIQUE,
            title TEXT NOT NULL DEFAULT '',
            url VARCHAR(2048) NOT NULL UNIQUE,
            image TEXT NOT NULL DEFAULT '',
            last_updated TIMESTAMP WITH TIME ZONE NOT NULL
        )
    `)
	return err
}

// ListSubscriptions возвращает все подписки в порядке добавления.
func (db *Database) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, title, url, image, last_updated
        FROM subscriptions
        ORDER BY seq
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []models.Subscription{}
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.ID, &sub.Title, &sub.URL, &sub.Image, &sub.LastUpdated); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// FindSubscription ищет подписку по URL; nil, если её нет.
func (db *Database) FindSubscription(ctx context.Context, url string) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.Pool.QueryRow(ctx, `
        SELECT id, title, url, image, last_updated
        FROM subscriptions
        WHERE url = $1
    `, url).Scan(&sub.ID, &sub.Title, &sub.URL, &sub.Image, &sub.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// InsertSubscription сохраняет подписку. Если запись с таким URL уже есть,
// операция игнорируется и возвращается существующая запись.
func (db *Database) InsertSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, bool, error) {
	tag, err := db.Pool.Exec(ctx, `
        INSERT INTO subscriptions (id, title, url, image, last_updated)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (url) DO NOTHING
    `, sub.ID, sub.Title, sub.URL, sub.Image, sub.LastUpdated)
	if err != nil {
		return models.Subscription{}, false, err
	}
	if tag.RowsAffected() > 0 {
		return sub, true, nil
	}

	existing, err := db.FindSubscription(ctx, sub.URL)
	if err != nil {
		return models.Subscription{}, false, err
	}
	if existing == nil {
		return models.Subscription{}, false, errors.New("conflicting subscription disappeared")
	}
	return *existing, false, nil
}
