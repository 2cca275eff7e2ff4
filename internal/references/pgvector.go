package references

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"text2sql/internal/prompt"
)

type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgVectorStore searches a table (query text, sql text, embedding vector)
// ordered by cosine distance.
type PgVectorStore struct {
	q          pgQuerier
	close      func()
	collection string
}

func OpenPgVectorStore(ctx context.Context, dsn, collection string) (*PgVectorStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PgVectorStore{q: pool, close: pool.Close, collection: collection}, nil
}

func (p *PgVectorStore) searchSQL() string {
	return fmt.Sprintf(`SELECT query, sql FROM %s ORDER BY embedding <=> $1::vector LIMIT $2`,
		pgx.Identifier{p.collection}.Sanitize())
}

func (p *PgVectorStore) Search(ctx context.Context, vector []float64, limit int) ([]prompt.Reference, error) {
	rows, err := p.q.Query(ctx, p.searchSQL(), vectorLiteral(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("query references: %w", err)
	}
	defer rows.Close()

	var refs []prompt.Reference
	for rows.Next() {
		var ref prompt.Reference
		if err := rows.Scan(&ref.Query, &ref.SQL); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (p *PgVectorStore) Close() error {
	if p.close != nil {
		p.close()
	}
	return nil
}

// vectorLiteral renders v in pgvector's text input format, e.g. [0.1,0.2].
func vectorLiteral(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
