// Package tablectx turns catalog metadata and sampled rows into the
// per-table text units that make up a prompt's database context.
package tablectx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"text2sql/internal/schema"
)

type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn is a live database connection with catalog introspection.
type Conn interface {
	Queryer
	Dialect() string
	Columns(ctx context.Context, table, schemaName string) ([]schema.Column, error)
	PrimaryKey(ctx context.Context, table, schemaName string) (schema.PrimaryKey, error)
	ForeignKeys(ctx context.Context, table, schemaName string) ([]schema.ForeignKey, error)
	TableComment(ctx context.Context, table, schemaName string) (string, error)
}

// Synthesizer renders CREATE TABLE statements with inline column comments.
// The comment strategies are fixed at construction.
type Synthesizer struct {
	comments map[string]CommentFetcher
}

func NewSynthesizer(queries CommentQueries) *Synthesizer {
	return &Synthesizer{
		comments: map[string]CommentFetcher{
			"postgres": postgresComments{query: queries.Postgres},
			"mysql":    mysqlComments{query: queries.MySQL},
		},
	}
}

func (s *Synthesizer) DDL(ctx context.Context, conn Conn, table, schemaName string) (string, error) {
	dialect := conn.Dialect()
	fetcher, ok := s.comments[dialect]
	if !ok {
		return "", &schema.UnsupportedDialectError{Dialect: dialect}
	}

	columns, err := conn.Columns(ctx, table, schemaName)
	if err != nil {
		return "", &schema.SchemaIntrospectionError{Table: table, Err: fmt.Errorf("columns: %w", err)}
	}
	pk, err := conn.PrimaryKey(ctx, table, schemaName)
	if err != nil {
		return "", &schema.SchemaIntrospectionError{Table: table, Err: fmt.Errorf("primary key: %w", err)}
	}
	fks, err := conn.ForeignKeys(ctx, table, schemaName)
	if err != nil {
		return "", &schema.SchemaIntrospectionError{Table: table, Err: fmt.Errorf("foreign keys: %w", err)}
	}
	comments, err := fetcher.FetchComments(ctx, conn, table, schemaName)
	if err != nil {
		return "", &schema.SchemaIntrospectionError{Table: table, Err: fmt.Errorf("column comments: %w", err)}
	}

	annotated := make([]schema.Column, len(columns))
	for i, col := range columns {
		if c, ok := comments[col.Name]; ok {
			col.Comment = c
		}
		annotated[i] = col
	}

	return RenderDDL(table, annotated, pk, fks), nil
}

var commentNewlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

type ddlLine struct {
	body    string
	comment string
}

// RenderDDL builds the canonical CREATE TABLE text. Every body line ends with
// a comma except the last one before the closing ");".
func RenderDDL(table string, columns []schema.Column, pk schema.PrimaryKey, fks []schema.ForeignKey) string {
	var lines []ddlLine

	for _, col := range columns {
		var b strings.Builder
		fmt.Fprintf(&b, "    %s %s", col.Name, col.Type)
		if col.DefaultValue != nil {
			fmt.Fprintf(&b, " DEFAULT %s", *col.DefaultValue)
		}
		if !col.IsNullable {
			b.WriteString(" NOT NULL")
		}
		lines = append(lines, ddlLine{body: b.String(), comment: commentNewlines.Replace(col.Comment)})
	}

	if len(pk.Columns) > 0 {
		lines = append(lines, ddlLine{
			body: fmt.Sprintf("    PRIMARY KEY (%s)", strings.Join(pk.Columns, ", ")),
		})
	}

	for _, fk := range fks {
		lines = append(lines, ddlLine{
			body: fmt.Sprintf("    FOREIGN KEY (%s) REFERENCES %s (%s)",
				strings.Join(fk.Columns, ", "),
				fk.ReferencedTable,
				strings.Join(fk.ReferencedColumns, ", ")),
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", table)
	for i, line := range lines {
		b.WriteString(line.body)
		if i < len(lines)-1 {
			b.WriteString(",")
		}
		if line.comment != "" {
			b.WriteString(" -- ")
			b.WriteString(line.comment)
		}
		b.WriteString("\n")
	}
	b.WriteString(");")

	return b.String()
}
