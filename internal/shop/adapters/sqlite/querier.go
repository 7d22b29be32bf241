package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// dbtx is the subset of *sql.DB and *sql.Tx the querier wraps.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// querier is what the repositories run statements through.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*tracedRows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type tracedQuerier struct {
	q     dbtx
	store *Store
}

var _ querier = (*tracedQuerier)(nil)

func (t *tracedQuerier) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, end := t.start(ctx, query)
	res, err := t.q.ExecContext(ctx, query, args...)
	end(err)
	return res, err
}

// QueryContext keeps the span open until the rows are closed, so it covers
// reading the result set as well.
func (t *tracedQuerier) QueryContext(ctx context.Context, query string, args ...any) (*tracedRows, error) {
	ctx, end := t.start(ctx, query)
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		end(err)
		return nil, err
	}
	return &tracedRows{Rows: rows, end: end}, nil
}

func (t *tracedQuerier) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	ctx, end := t.start(ctx, query)
	row := t.q.QueryRowContext(ctx, query, args...)
	end(row.Err())
	return row
}

func (t *tracedQuerier) start(ctx context.Context, query string) (context.Context, func(error)) {
	t.store.statements.Add(1)
	stmt := compactSQL(query)

	ctx, span := t.store.tracer.Start(ctx, "sqlite.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "sqlite"),
			attribute.String("db.statement", stmt),
		),
	)
	slog.DebugContext(ctx, "sql", "statement", stmt)

	return ctx, func(err error) {
		if err != nil && err != sql.ErrNoRows {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// tracedRows ends its statement span on the first Close.
type tracedRows struct {
	*sql.Rows
	end  func(error)
	once sync.Once
}

func (r *tracedRows) Close() error {
	err := r.Rows.Close()
	r.once.Do(func() {
		if rowsErr := r.Rows.Err(); rowsErr != nil {
			r.end(rowsErr)
			return
		}
		r.end(err)
	})
	return err
}

// compactSQL collapses the indentation of multi-line query constants.
func compactSQL(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
