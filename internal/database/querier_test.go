package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

type nopQuerier struct {
	statements []string
}

func (n *nopQuerier) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	n.statements = append(n.statements, query)
	return nil, nil
}

func (n *nopQuerier) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	n.statements = append(n.statements, query)
	return nil, nil
}

func (n *nopQuerier) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	n.statements = append(n.statements, query)
	return nil
}

func TestCountingQuerier(t *testing.T) {
	ctx := context.Background()
	inner := &nopQuerier{}
	q := NewCountingQuerier(inner)

	assert.Zero(t, q.Queries())

	_, _ = q.ExecContext(ctx, "UPDATE a")
	_, _ = q.QueryContext(ctx, "SELECT b")
	_ = q.QueryRowContext(ctx, "SELECT c")

	assert.Equal(t, 3, q.Queries())
	assert.Equal(t, []string{"UPDATE a", "SELECT b", "SELECT c"}, inner.statements)
}
