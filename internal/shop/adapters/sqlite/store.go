// Package sqlite implements the shop repositories on SQLite.
//
// The store keeps a single open connection, so transactions are serialized
// and a member name check followed by an insert cannot interleave with
// another join. Every statement goes through an instrumented querier that
// counts it, opens a client span and logs the SQL at debug level.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/jpashop-orders/internal/shop/adapters/sqlite/migrations"
	"github.com/jcmexdev/jpashop-orders/internal/shop/app"

	// Pure-Go driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

const tracerName = "github.com/jcmexdev/jpashop-orders/internal/shop/adapters/sqlite"

// Store is the SQLite unit of work.
type Store struct {
	db         *sql.DB
	tracer     trace.Tracer
	statements atomic.Int64
}

var _ app.UnitOfWork = (*Store)(nil)

// Open opens (or creates) the database at path and applies pending
// migrations. Use ":memory:" for a throwaway database.
//
//	store, err := sqlite.Open(ctx, "./data/shop.db")
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// One connection: an in-memory database lives exactly as long as it, and
	// writers never contend for the lock.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, tracer: otel.Tracer(tracerName)}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Repositories returns repositories bound to the plain connection. Each
// statement runs in its own implicit transaction.
func (s *Store) Repositories() app.Repositories {
	return s.repositories(&tracedQuerier{q: s.db, store: s})
}

// ExecTx runs fn inside one transaction. It commits when fn returns nil and
// rolls back on error or panic.
func (s *Store) ExecTx(ctx context.Context, fn func(repos app.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(s.repositories(&tracedQuerier{q: tx, store: s})); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (sqlite: rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit tx: %w", err)
	}
	return nil
}

// QueryCount is the number of statements issued since the store was opened
// or since the last ResetQueryCount.
func (s *Store) QueryCount() int64 {
	return s.statements.Load()
}

func (s *Store) ResetQueryCount() {
	s.statements.Store(0)
}

func (s *Store) repositories(q querier) app.Repositories {
	return app.Repositories{
		Members:      &memberRepository{q: q},
		Items:        &itemRepository{q: q},
		Orders:       &orderRepository{q: q},
		OrderQueries: &orderQueryRepository{q: q},
	}
}

// inIDs is the IN operand for a set of ids bound as one JSON array, so a
// statement needs a single variable however many ids it filters on.
const inIDs = `(SELECT value FROM json_each(?))`

// idArray encodes ids as the JSON array bound to inIDs.
func idArray(ids []int64) string {
	b := make([]byte, 0, 2+len(ids)*8)
	b = append(b, '[')
	for i, id := range ids {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendInt(b, id, 10)
	}
	return string(append(b, ']'))
}

// nullableString returns nil for empty strings so SQLite stores NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
