package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/KaramelBytes/datasmith-cli/internal/dataset"
	"github.com/KaramelBytes/datasmith-cli/internal/schema"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is empty (set pg_dsn or --pg-dsn)")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// Query runs a SELECT and returns its rows as a table. A positive limit wraps
// the statement in an outer LIMIT. Driver values are normalised and columns
// coerced the same way file inputs are.
func Query(ctx context.Context, q Querier, query string, limit int, opt schema.Options) (*dataset.Table, error) {
	stmt, args := limited(query, limit)
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	t := &dataset.Table{Name: "postgres", Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(t.Records)+1, err)
		}
		rec := make(dataset.Record, len(columns))
		for i, c := range columns {
			rec[c] = normalizeValue(values[i])
		}
		t.Records = append(t.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	dataset.Coerce(t.Records, t.Columns, opt)
	return t, nil
}

func limited(query string, limit int) (string, []any) {
	q := strings.TrimRight(strings.TrimSpace(query), "; \n\t")
	if limit <= 0 {
		return q, nil
	}
	return fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT $1", q), []any{limit}
}

// normalizeValue maps driver values onto record scalars. NUMERIC arrives as
// bytes and is left as text for coercion.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case int64, float64, bool, string:
		return x
	}
	return fmt.Sprint(v)
}
