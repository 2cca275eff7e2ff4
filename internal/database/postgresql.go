package database

import (
	"context"
	"database/sql"
	"fmt"

	"text2sql/internal/schema"
)

const defaultPostgresSchema = "public"

type PostgreSQLInspector struct {
	q Queryer
}

func postgresSchema(schemaName string) string {
	if schemaName == "" {
		return defaultPostgresSchema
	}
	return schemaName
}

func (p *PostgreSQLInspector) TableNames(ctx context.Context, schemaName string) ([]string, error) {
	query := `
        SELECT table_name
        FROM information_schema.tables
        WHERE table_schema = $1 AND table_type = 'BASE TABLE'
        ORDER BY table_name
    `

	rows, err := p.q.QueryContext(ctx, query, postgresSchema(schemaName))
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func (p *PostgreSQLInspector) Columns(ctx context.Context, table, schemaName string) ([]schema.Column, error) {
	query := `
        SELECT
            a.attname,
            format_type(a.atttypid, a.atttypmod),
            NOT a.attnotnull,
            pg_get_expr(d.adbin, d.adrelid)
        FROM pg_attribute a
        JOIN pg_class c ON c.oid = a.attrelid
        JOIN pg_namespace n ON n.oid = c.relnamespace
        LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
        WHERE n.nspname = $1
            AND c.relname = $2
            AND a.attnum > 0
            AND NOT a.attisdropped
        ORDER BY a.attnum
    `

	rows, err := p.q.QueryContext(ctx, query, postgresSchema(schemaName), table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var defaultValue sql.NullString
		if err := rows.Scan(&col.Name, &col.Type, &col.IsNullable, &defaultValue); err != nil {
			return nil, err
		}
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s.%s", schema.ErrTableNotFound, postgresSchema(schemaName), table)
	}

	return columns, nil
}

func (p *PostgreSQLInspector) PrimaryKey(ctx context.Context, table, schemaName string) (schema.PrimaryKey, error) {
	query := `
        SELECT a.attname
        FROM pg_constraint con
        JOIN pg_class c ON c.oid = con.conrelid
        JOIN pg_namespace n ON n.oid = c.relnamespace
        CROSS JOIN LATERAL unnest(con.conkey) WITH ORDINALITY AS u(attnum, ord)
        JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = u.attnum
        WHERE con.contype = 'p'
            AND n.nspname = $1
            AND c.relname = $2
        ORDER BY u.ord
    `

	rows, err := p.q.QueryContext(ctx, query, postgresSchema(schemaName), table)
	if err != nil {
		return schema.PrimaryKey{}, err
	}
	columns, err := scanStrings(rows)
	if err != nil {
		return schema.PrimaryKey{}, err
	}
	return schema.PrimaryKey{Columns: columns}, nil
}

func (p *PostgreSQLInspector) ForeignKeys(ctx context.Context, table, schemaName string) ([]schema.ForeignKey, error) {
	query := `
        SELECT
            con.conname,
            ca.attname,
            pc.relname,
            pa.attname
        FROM pg_constraint con
        JOIN pg_class cc ON cc.oid = con.conrelid
        JOIN pg_namespace cn ON cn.oid = cc.relnamespace
        JOIN pg_class pc ON pc.oid = con.confrelid
        CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS u(child_attnum, parent_attnum, ord)
        JOIN pg_attribute ca ON ca.attrelid = cc.oid AND ca.attnum = u.child_attnum
        JOIN pg_attribute pa ON pa.attrelid = pc.oid AND pa.attnum = u.parent_attnum
        WHERE con.contype = 'f'
            AND cn.nspname = $1
            AND cc.relname = $2
        ORDER BY con.conname, u.ord
    `

	rows, err := p.q.QueryContext(ctx, query, postgresSchema(schemaName), table)
	if err != nil {
		return nil, err
	}
	return scanForeignKeys(rows)
}

func (p *PostgreSQLInspector) TableComment(ctx context.Context, table, schemaName string) (string, error) {
	query := `
        SELECT COALESCE(obj_description(c.oid, 'pg_class'), '')
        FROM pg_class c
        JOIN pg_namespace n ON n.oid = c.relnamespace
        WHERE n.nspname = $1 AND c.relname = $2
    `

	rows, err := p.q.QueryContext(ctx, query, postgresSchema(schemaName), table)
	if err != nil {
		return "", err
	}
	comments, err := scanStrings(rows)
	if err != nil {
		return "", err
	}
	if len(comments) == 0 {
		return "", nil
	}
	return comments[0], nil
}
