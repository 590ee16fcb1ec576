package store

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	// DefaultDeltaWindow is how many delta records are retained per world.
	// Clients further behind than this fall back to a full snapshot.
	DefaultDeltaWindow = 200

	// DefaultBulletinRetention is how many bulletin lines are kept per world.
	DefaultBulletinRetention = 100

	DefaultMaxRetries     = 2
	DefaultRetryBaseDelay = 25 * time.Millisecond
)

// Store owns the durable world state: the world row, its per-generation
// trooper history, the append-only delta log, and the bulletin feed. It also
// owns the per-player lock table; all mutations go through WithWorldLock.
type Store struct {
	db    *sqlx.DB
	locks *lockTable

	deltaWindow  int
	bulletinKeep int

	maxRetries  int
	retryBase   time.Duration
	classifiers []Classifier
}

type StoreOpt func(*Store)

func WithDeltaWindow(n int) StoreOpt {
	return func(s *Store) {
		s.deltaWindow = n
	}
}

func WithBulletinRetention(n int) StoreOpt {
	return func(s *Store) {
		s.bulletinKeep = n
	}
}

func WithMaxRetries(n int) StoreOpt {
	return func(s *Store) {
		s.maxRetries = n
	}
}

func WithRetryBaseDelay(d time.Duration) StoreOpt {
	return func(s *Store) {
		s.retryBase = d
	}
}

func WithRetryClassifiers(cs ...Classifier) StoreOpt {
	return func(s *Store) {
		s.classifiers = cs
	}
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists. WAL mode keeps readers unblocked during commits;
// _txlock=immediate makes every transaction take the write lock up front so
// conflicts surface as retryable SQLITE_BUSY instead of late upgrades.
func Open(path string, opts ...StoreOpt) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:           db,
		locks:        newLockTable(),
		deltaWindow:  DefaultDeltaWindow,
		bulletinKeep: DefaultBulletinRetention,
		maxRetries:   DefaultMaxRetries,
		retryBase:    DefaultRetryBaseDelay,
		classifiers:  DefaultClassifiers(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
