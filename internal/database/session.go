package database

import (
	"context"
	"database/sql"

	"text2sql/internal/schema"
)

// Inspector is the generic catalog introspection capability of one dialect.
type Inspector interface {
	TableNames(ctx context.Context, schemaName string) ([]string, error)
	Columns(ctx context.Context, table, schemaName string) ([]schema.Column, error)
	PrimaryKey(ctx context.Context, table, schemaName string) (schema.PrimaryKey, error)
	ForeignKeys(ctx context.Context, table, schemaName string) ([]schema.ForeignKey, error)
	TableComment(ctx context.Context, table, schemaName string) (string, error)
}

// Session is one reserved connection plus the inspector for its dialect.
type Session struct {
	Inspector
	conn    *sql.Conn
	dialect string
}

func newSession(conn *sql.Conn, dialect string) *Session {
	return &Session{
		Inspector: NewInspector(dialect, conn),
		conn:      conn,
		dialect:   dialect,
	}
}

// NewInspector returns the catalog inspector for dialect. Dialects without a
// catalog implementation get an inspector that fails every lookup with
// schema.UnsupportedDialectError.
func NewInspector(dialect string, q Queryer) Inspector {
	switch dialect {
	case DialectPostgres:
		return &PostgreSQLInspector{q: q}
	case DialectMySQL:
		return &MySQLInspector{q: q}
	case DialectSQLite:
		return &SQLiteInspector{q: q}
	default:
		return unsupportedInspector{dialect: dialect}
	}
}

func (s *Session) Dialect() string {
	return s.dialect
}

func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.conn.QueryContext(ctx, query, args...)
}

// Close returns the connection to the pool.
func (s *Session) Close() error {
	return s.conn.Close()
}

type unsupportedInspector struct {
	dialect string
}

func (u unsupportedInspector) err() error {
	return &schema.UnsupportedDialectError{Dialect: u.dialect}
}

func (u unsupportedInspector) TableNames(context.Context, string) ([]string, error) {
	return nil, u.err()
}

func (u unsupportedInspector) Columns(context.Context, string, string) ([]schema.Column, error) {
	return nil, u.err()
}

func (u unsupportedInspector) PrimaryKey(context.Context, string, string) (schema.PrimaryKey, error) {
	return schema.PrimaryKey{}, u.err()
}

func (u unsupportedInspector) ForeignKeys(context.Context, string, string) ([]schema.ForeignKey, error) {
	return nil, u.err()
}

func (u unsupportedInspector) TableComment(context.Context, string, string) (string, error) {
	return "", u.err()
}
