package noncestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/vitalvas/oauth1/oauth1"
)

// Supported database drivers for Open.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var (
	// ErrNoDatabase is returned by NewSQL when db is nil.
	ErrNoDatabase = errors.New("noncestore: bun db is required")

	// ErrUnsupportedDriver is returned by Open for unknown drivers.
	ErrUnsupportedDriver = errors.New("noncestore: unsupported driver")
)

type nonceRecord struct {
	bun.BaseModel `bun:"table:oauth_nonces,alias:n"`

	ConsumerKey      string    `bun:"consumer_key,pk"`
	TokenKey         string    `bun:"token_key,pk"`
	Nonce            string    `bun:"nonce,pk"`
	RequestTimestamp int64     `bun:"request_timestamp,pk"`
	CreatedAt        time.Time `bun:"created_at,notnull"`
}

// SQL is a nonce store backed by a bun database. The composite primary key
// on (consumer_key, token_key, nonce, request_timestamp) makes concurrent
// inserts of the same tuple resolve to exactly one winner.
type SQL struct {
	db *bun.DB

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Open connects to a database and wraps it with the matching bun dialect.
// SQLite connections are limited to one open connection.
func Open(driver, dsn string) (*bun.DB, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	sqldb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("noncestore: open %s: %w", driver, err)
	}

	if driver == DriverPostgres {
		return bun.NewDB(sqldb, pgdialect.New()), nil
	}

	sqldb.SetMaxOpenConns(1)

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// NewSQL creates a store on db. Call CreateSchema before first use unless
// the table is managed by migrations.
func NewSQL(db *bun.DB) (*SQL, error) {
	if db == nil {
		return nil, ErrNoDatabase
	}

	return &SQL{db: db, Now: time.Now}, nil
}

// CreateSchema creates the nonce table if it does not exist.
func (s *SQL) CreateSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*nonceRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("noncestore: create schema: %w", err)
	}

	return nil
}

// CheckAndRecord implements oauth1.NonceStore.
func (s *SQL) CheckAndRecord(ctx context.Context, consumer oauth1.Consumer, token *oauth1.Token, nonce string, timestamp int64) (bool, error) {
	record := &nonceRecord{
		ConsumerKey:      consumer.Key,
		TokenKey:         tokenKey(token),
		Nonce:            nonce,
		RequestTimestamp: timestamp,
		CreatedAt:        s.now().UTC(),
	}

	res, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("noncestore: record nonce: %w", err)
	}

	affected, err := rowsAffected(res, "record nonce")
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

// Prune deletes records whose request timestamp is before the given time
// and returns how many were removed.
func (s *SQL) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.NewDelete().
		Model((*nonceRecord)(nil)).
		Where("request_timestamp < ?", before.Unix()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("noncestore: prune: %w", err)
	}

	affected, err := rowsAffected(res, "prune")
	if err != nil {
		return 0, err
	}

	return int(affected), nil
}

func rowsAffected(res sql.Result, op string) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("noncestore: %s: %w", op, err)
	}

	return n, nil
}

func (s *SQL) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}

	return time.Now()
}

var _ oauth1.NonceStore = (*SQL)(nil)
