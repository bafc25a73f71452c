package subscription

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"podfeed/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteStore хранит подписки в таблице с UNIQUE(url).
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore открывает или создаёт базу по пути path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &StoreError{Op: "create directory", Err: err}
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}
	// Одно соединение: запись в SQLite всё равно сериализуется.
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, &StoreError{Op: "migrate", Err: err}
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS subscriptions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL UNIQUE,
		image TEXT NOT NULL DEFAULT '',
		last_updated DATETIME NOT NULL
	);`)
	return err
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.Subscription, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT id, title, url, image, last_updated FROM subscriptions ORDER BY seq")
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	defer rows.Close()

	subs := []models.Subscription{}
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.ID, &sub.Title, &sub.URL, &sub.Image, &sub.LastUpdated); err != nil {
			return nil, &StoreError{Op: "list", Err: err}
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return subs, nil
}

func (s *SQLiteStore) FindByURL(ctx context.Context, url string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.conn.QueryRowContext(ctx,
		"SELECT id, title, url, image, last_updated FROM subscriptions WHERE url = ?", url,
	).Scan(&sub.ID, &sub.Title, &sub.URL, &sub.Image, &sub.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "find", Err: err}
	}
	return &sub, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, sub models.Subscription) (models.Subscription, bool, error) {
	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO subscriptions (id, title, url, image, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING`,
		sub.ID, sub.Title, sub.URL, sub.Image, sub.LastUpdated.UTC())
	if err != nil {
		return models.Subscription{}, false, &StoreError{Op: "insert", Err: err}
	}
	if affected, _ := res.RowsAffected(); affected > 0 {
		return sub, true, nil
	}

	existing, err := s.FindByURL(ctx, sub.URL)
	if err != nil {
		return models.Subscription{}, false, err
	}
	if existing == nil {
		return models.Subscription{}, false, &StoreError{Op: "insert", Err: errors.New("conflicting row disappeared")}
	}
	return *existing, false, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
