package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"donationfeed/internal/infra"
	"donationfeed/internal/sqlinline"
)

// PostgresKV stores values in a single two-column table. Statements go through
// the supplied executor, normally an infra.SQLRunner so every call is audited.
type PostgresKV struct {
	sql     infra.SQLExecutor
	qSelect string
	qUpsert string
	qDelete string
	qCreate string
}

// NewPostgresKV binds the cache statements to table, which may be schema-qualified
// ("cache.client_kv").
func NewPostgresKV(sql infra.SQLExecutor, table string) (*PostgresKV, error) {
	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}
	return &PostgresKV{
		sql:     sql,
		qSelect: sqlinline.ForTable(sqlinline.QSelectKV, quoted),
		qUpsert: sqlinline.ForTable(sqlinline.QUpsertKV, quoted),
		qDelete: sqlinline.ForTable(sqlinline.QDeleteKV, quoted),
		qCreate: sqlinline.ForTable(sqlinline.QCreateKVTable, quoted),
	}, nil
}

// EnsureSchema creates the cache table when it does not exist yet.
func (p *PostgresKV) EnsureSchema(ctx context.Context) error {
	if _, err := p.sql.Exec(ctx, p.qCreate); err != nil {
		return fmt.Errorf("storage: create cache table: %w", err)
	}
	return nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) (string, error) {
	var value string
	if err := p.sql.QueryRow(ctx, p.qSelect, key).Scan(&value); err != nil {
		if infra.IsNoRows(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("storage: select %q: %w", key, err)
	}
	return value, nil
}

func (p *PostgresKV) Set(ctx context.Context, key, value string) error {
	if _, err := p.sql.Exec(ctx, p.qUpsert, key, value); err != nil {
		return fmt.Errorf("storage: upsert %q: %w", key, err)
	}
	return nil
}

func (p *PostgresKV) Remove(ctx context.Context, key string) error {
	if _, err := p.sql.Exec(ctx, p.qDelete, key); err != nil {
		return fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return nil
}

func quoteTable(table string) (string, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return "", errors.New("storage: table name is required")
	}
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("storage: invalid table name %q", table)
	}
	for i, part := range parts {
		if strings.TrimSpace(part) == "" {
			return "", fmt.Errorf("storage: invalid table name %q", table)
		}
		parts[i] = pq.QuoteIdentifier(strings.TrimSpace(part))
	}
	return strings.Join(parts, "."), nil
}
