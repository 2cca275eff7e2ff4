package tablectx

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
)

var (
	//go:embed sql/comments_postgres.sql
	postgresCommentQuery string

	//go:embed sql/comments_mysql.sql
	mysqlCommentQuery string
)

// CommentQueries holds the raw per-dialect column comment queries. Each takes
// (table, schema) positional parameters and returns (column, comment) rows.
type CommentQueries struct {
	Postgres string
	MySQL    string
}

func DefaultCommentQueries() CommentQueries {
	return CommentQueries{
		Postgres: postgresCommentQuery,
		MySQL:    mysqlCommentQuery,
	}
}

// LoadCommentQueries returns the embedded queries with any non-empty path
// replaced by that file's contents.
func LoadCommentQueries(postgresPath, mysqlPath string) (CommentQueries, error) {
	q := DefaultCommentQueries()
	if postgresPath != "" {
		b, err := os.ReadFile(postgresPath)
		if err != nil {
			return CommentQueries{}, fmt.Errorf("read postgres comment query: %w", err)
		}
		q.Postgres = string(b)
	}
	if mysqlPath != "" {
		b, err := os.ReadFile(mysqlPath)
		if err != nil {
			return CommentQueries{}, fmt.Errorf("read mysql comment query: %w", err)
		}
		q.MySQL = string(b)
	}
	return q, nil
}

// CommentFetcher retrieves per-column comments for one dialect.
type CommentFetcher interface {
	FetchComments(ctx context.Context, q Queryer, table, schemaName string) (map[string]string, error)
}

type postgresComments struct {
	query string
}

func (p postgresComments) FetchComments(ctx context.Context, q Queryer, table, schemaName string) (map[string]string, error) {
	if schemaName == "" {
		schemaName = "public"
	}
	rows, err := q.QueryContext(ctx, p.query, table, schemaName)
	if err != nil {
		return nil, err
	}
	return scanComments(rows)
}

type mysqlComments struct {
	query string
}

func (m mysqlComments) FetchComments(ctx context.Context, q Queryer, table, schemaName string) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, m.query, table, schemaName)
	if err != nil {
		return nil, err
	}
	return scanComments(rows)
}

func scanComments(rows *sql.Rows) (map[string]string, error) {
	defer rows.Close()

	comments := make(map[string]string)
	for rows.Next() {
		var name string
		var comment sql.NullString
		if err := rows.Scan(&name, &comment); err != nil {
			return nil, err
		}
		if comment.Valid && comment.String != "" {
			comments[name] = comment.String
		}
	}
	return comments, rows.Err()
}
