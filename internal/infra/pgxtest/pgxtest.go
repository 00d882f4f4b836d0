// Package pgxtest provides in-memory SQLExecutor doubles for store tests.
package pgxtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Row scans with a function; a nil function reports no rows.
type Row struct {
	scan func(dest ...any) error
}

func NewRow(scanner func(dest ...any) error) Row {
	return Row{scan: scanner}
}

func (r Row) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

// StringRows yields one string column per row.
type StringRows struct {
	values []string
	pos    int
}

func NewStringRows(values ...string) *StringRows {
	return &StringRows{values: values, pos: -1}
}

func (r *StringRows) Next() bool {
	r.pos++
	return r.pos < len(r.values)
}

func (r *StringRows) Scan(dest ...any) error {
	if len(dest) != 1 {
		return fmt.Errorf("pgxtest: want 1 destination, got %d", len(dest))
	}
	ptr, ok := dest[0].(*string)
	if !ok {
		return fmt.Errorf("pgxtest: unsupported destination %T", dest[0])
	}
	*ptr = r.values[r.pos]
	return nil
}

func (r *StringRows) Close()                                       {}
func (r *StringRows) Err() error                                   { return nil }
func (r *StringRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *StringRows) Conn() *pgx.Conn                              { return nil }
func (r *StringRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *StringRows) RawValues() [][]byte                          { return nil }

func (r *StringRows) Values() ([]any, error) {
	return nil, fmt.Errorf("pgxtest: values not supported")
}

// Call records one statement.
type Call struct {
	Query string
	Args  []any
}

// Executor is a scripted SQLExecutor.
type Executor struct {
	mu sync.Mutex

	Calls    []Call
	ExecTag  pgconn.CommandTag
	ExecErr  error
	Row      pgx.Row
	Rows     func(query string, args []any) (pgx.Rows, error)
	QueryErr error
}

func (e *Executor) record(query string, args []any) {
	e.mu.Lock()
	e.Calls = append(e.Calls, Call{Query: query, Args: args})
	e.mu.Unlock()
}

func (e *Executor) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	e.record(query, args)
	return e.ExecTag, e.ExecErr
}

func (e *Executor) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	e.record(query, args)
	if e.Row == nil {
		return Row{}
	}
	return e.Row
}

func (e *Executor) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	e.record(query, args)
	if e.QueryErr != nil {
		return nil, e.QueryErr
	}
	if e.Rows == nil {
		return NewStringRows(), nil
	}
	return e.Rows(query, args)
}

// Last returns the most recent call.
func (e *Executor) Last() Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Calls) == 0 {
		return Call{}
	}
	return e.Calls[len(e.Calls)-1]
}
