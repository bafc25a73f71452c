package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"podfeed/internal/logger"
	"podfeed/internal/models"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// FileStore хранит подписки одним JSON-документом {subscriptions: [...]}.
// Документ заменяется целиком через временный файл и rename, поэтому
// читатель никогда не видит его частично записанным. Изменения
// сериализуются мьютексом внутри процесса и flock-файлом между процессами.
type FileStore struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFileStore создаёт каталог для path, сам файл появится при первой записи.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("subscription file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &StoreError{Op: "create directory", Err: err}
	}
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

func (s *FileStore) List(ctx context.Context) ([]models.Subscription, error) {
	return s.load().Subscriptions, nil
}

func (s *FileStore) FindByURL(ctx context.Context, url string) (*models.Subscription, error) {
	return find(s.load().Subscriptions, url), nil
}

func (s *FileStore) Insert(ctx context.Context, sub models.Subscription) (models.Subscription, bool, error) {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return models.Subscription{}, false, err
	}
	defer unlock()

	doc := s.load()
	if existing := find(doc.Subscriptions, sub.URL); existing != nil {
		return *existing, false, nil
	}

	doc.Subscriptions = append(doc.Subscriptions, sub)
	if err := s.save(doc); err != nil {
		return models.Subscription{}, false, err
	}
	return sub, true, nil
}

func (s *FileStore) Ping(ctx context.Context) error {
	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		return &StoreError{Op: "stat", Err: err}
	}
	return nil
}

func (s *FileStore) Close() error {
	return s.lock.Close()
}

func (s *FileStore) acquire(ctx context.Context) (func(), error) {
	s.mu.Lock()
	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !ok {
		s.mu.Unlock()
		if err == nil {
			err = errors.New("lock not acquired")
		}
		return nil, &StoreError{Op: "lock", Err: err}
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			logger.Log.WithError(err).WithField("path", s.path).Warn("Failed to release store lock")
		}
		s.mu.Unlock()
	}, nil
}

// load читает документ. Отсутствующий или испорченный файл - пустое хранилище.
func (s *FileStore) load() models.SubscriptionDocument {
	empty := models.SubscriptionDocument{Subscriptions: []models.Subscription{}}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Log.WithError(err).WithField("path", s.path).Warn("Subscription file unreadable, treating as empty")
		}
		return empty
	}
	if len(data) == 0 {
		return empty
	}

	var doc models.SubscriptionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.Log.WithError(err).WithField("path", s.path).Warn("Subscription file corrupt, treating as empty")
		return empty
	}
	if doc.Subscriptions == nil {
		doc.Subscriptions = []models.Subscription{}
	}
	return doc
}

// save записывает документ атомарно через временный файл.
func (s *FileStore) save(doc models.SubscriptionDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &StoreError{Op: "marshal", Err: err}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return &StoreError{Op: "write", Err: fmt.Errorf("write temp file: %w", err)}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return &StoreError{Op: "write", Err: fmt.Errorf("rename temp file: %w", err)}
	}
	return nil
}

func find(subs []models.Subscription, url string) *models.Subscription {
	for i := range subs {
		if subs[i].URL == url {
			sub := subs[i]
			return &sub
		}
	}
	return nil
}
