package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	contractx "github.com/pattadon/shoppilot/agent/contract"
)

// Config holds product catalog database settings.
type Config struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Store executes read-only analytic queries against the product catalog.
// Every query passes ValidateReadOnly before it reaches the database.
type Store struct {
	db      *bun.DB
	timeout time.Duration
}

func NewStore(cfg Config) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("catalog dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &Store{db: db, timeout: timeout}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Query validates and executes one read-only statement, returning rows as
// field-value maps in the backend's column order.
func (s *Store) Query(ctx context.Context, query string) (contractx.QueryResult, error) {
	if err := ValidateReadOnly(query); err != nil {
		return contractx.QueryResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return contractx.QueryResult{}, fmt.Errorf("execute catalog query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return contractx.QueryResult{}, fmt.Errorf("read catalog columns: %w", err)
	}

	result := contractx.QueryResult{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return contractx.QueryResult{}, fmt.Errorf("scan catalog row: %w", err)
		}

		record := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}
		result.Rows = append(result.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return contractx.QueryResult{}, fmt.Errorf("iterate catalog rows: %w", err)
	}

	return result, nil
}

// Accepts a single SELECT statement; anything else is rejected before
// execution.
var writeKeywordPattern = regexp.MustCompile(`(?i)\b(drop|delete|update|insert|alter|create|truncate|replace|grant|revoke|exec|execute)\b`)

func ValidateReadOnly(query string) error {
	trimmed := strings.TrimSpace(query)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if trimmed == "" {
		return fmt.Errorf("%w: empty query", contractx.ErrQueryRejected)
	}
	if !strings.HasPrefix(strings.ToLower(trimmed), "select") {
		return fmt.Errorf("%w: not a select statement", contractx.ErrQueryRejected)
	}
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("%w: multiple statements", contractx.ErrQueryRejected)
	}
	if match := writeKeywordPattern.FindString(trimmed); match != "" {
		return fmt.Errorf("%w: contains %q", contractx.ErrQueryRejected, strings.ToLower(match))
	}
	return nil
}
