// Package localdb persists confirmed library snapshots and the active job
// ids in a SQLite file under the cache directory. One process owns the
// directory at a time; others get ErrLocked and run without persistence.
package localdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// ErrLocked is returned by Open when another process holds the cache dir.
var ErrLocked = errors.New("cache directory is in use by another yum process")

const (
	dbFile   = "yum.db"
	lockFile = "yum.lock"

	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store is the local cache database.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	path string
	now  func() time.Time
}

// Open creates dir if needed, locks it and opens the database.
func Open(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("cache dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	path := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if err := initSchema(context.Background(), db); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return &Store{db: db, lock: lock, path: path, now: time.Now}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database and releases the directory lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.lock != nil {
		err = errors.Join(err, s.lock.Unlock())
	}
	return err
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// SaveCollection replaces every entry of collection with entries.
func (s *Store) SaveCollection(ctx context.Context, collection string, entries map[string][]byte) error {
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE collection = ?`, collection); err != nil {
			return fmt.Errorf("clear %s: %w", collection, err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO entities (collection, key, payload, updated_at) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()
		now := s.stamp()
		for key, payload := range entries {
			if _, err := stmt.ExecContext(ctx, collection, key, payload, now); err != nil {
				return fmt.Errorf("insert %s/%s: %w", collection, key, err)
			}
		}
		return tx.Commit()
	})
}

// LoadCollection returns every entry of collection.
func (s *Store) LoadCollection(ctx context.Context, collection string) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, payload FROM entities WHERE collection = ?`, collection)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer func() { _ = rows.Close() }()

	out := map[string][]byte{}
	for rows.Next() {
		var (
			key     string
			payload []byte
		)
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		out[key] = payload
	}
	return out, rows.Err()
}

// SaveActiveJob remembers the job id being tracked for kind.
func (s *Store) SaveActiveJob(kind, jobID string) error {
	ctx := context.Background()
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO jobs (kind, job_id, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(kind) DO UPDATE SET job_id = excluded.job_id, updated_at = excluded.updated_at`,
			kind, jobID, s.stamp())
		return err
	})
}

// ActiveJob returns the remembered job id for kind.
func (s *Store) ActiveJob(kind string) (string, bool, error) {
	var id string
	err := s.db.QueryRow(`SELECT job_id FROM jobs WHERE kind = ?`, kind).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query active job: %w", err)
	}
	return id, true, nil
}

// ClearActiveJob forgets the job id for kind.
func (s *Store) ClearActiveJob(kind string) error {
	ctx := context.Background()
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE kind = ?`, kind)
		return err
	})
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
