package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"text2sql/internal/schema"
)

// MySQLInspector reads information_schema. An empty schema name means the
// connection's current database.
type MySQLInspector struct {
	q Queryer
}

func (m *MySQLInspector) TableNames(ctx context.Context, schemaName string) ([]string, error) {
	query := `
        SELECT TABLE_NAME
        FROM information_schema.TABLES
        WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
            AND TABLE_TYPE = 'BASE TABLE'
        ORDER BY TABLE_NAME
    `

	rows, err := m.q.QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func (m *MySQLInspector) Columns(ctx context.Context, table, schemaName string) ([]schema.Column, error) {
	query := `
        SELECT COLUMN_NAME, COLUMN_TYPE, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT, EXTRA
        FROM information_schema.COLUMNS
        WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
            AND TABLE_NAME = ?
        ORDER BY ORDINAL_POSITION
    `

	rows, err := m.q.QueryContext(ctx, query, schemaName, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var dataType, nullable, extra string
		var defaultValue sql.NullString
		if err := rows.Scan(&col.Name, &col.Type, &dataType, &nullable, &defaultValue, &extra); err != nil {
			return nil, err
		}
		col.IsNullable = nullable == "YES"
		if defaultValue.Valid {
			def := mysqlDefault(defaultValue.String, dataType, extra)
			col.DefaultValue = &def
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", schema.ErrTableNotFound, table)
	}

	return columns, nil
}

var mysqlNumericTypes = map[string]bool{
	"tinyint": true, "smallint": true, "mediumint": true, "int": true, "integer": true, "bigint": true,
	"decimal": true, "numeric": true, "float": true, "double": true, "real": true,
	"bit": true, "year": true, "bool": true, "boolean": true,
}

// mysqlDefault turns information_schema.COLUMNS.COLUMN_DEFAULT into a DDL
// expression. MySQL 8 reports string literals unquoted and flags expression
// defaults with DEFAULT_GENERATED in EXTRA.
func mysqlDefault(value, dataType, extra string) string {
	upper := strings.ToUpper(value)
	switch {
	case strings.Contains(strings.ToUpper(extra), "DEFAULT_GENERATED"),
		strings.HasPrefix(upper, "CURRENT_TIMESTAMP"),
		upper == "NULL",
		strings.HasPrefix(value, "'"),
		mysqlNumericTypes[strings.ToLower(dataType)]:
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (m *MySQLInspector) PrimaryKey(ctx context.Context, table, schemaName string) (schema.PrimaryKey, error) {
	query := `
        SELECT COLUMN_NAME
        FROM information_schema.KEY_COLUMN_USAGE
        WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
            AND TABLE_NAME = ?
            AND CONSTRAINT_NAME = 'PRIMARY'
        ORDER BY ORDINAL_POSITION
    `

	rows, err := m.q.QueryContext(ctx, query, schemaName, table)
	if err != nil {
		return schema.PrimaryKey{}, err
	}
	columns, err := scanStrings(rows)
	if err != nil {
		return schema.PrimaryKey{}, err
	}
	return schema.PrimaryKey{Columns: columns}, nil
}

func (m *MySQLInspector) ForeignKeys(ctx context.Context, table, schemaName string) ([]schema.ForeignKey, error) {
	query := `
        SELECT CONSTRAINT_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
        FROM information_schema.KEY_COLUMN_USAGE
        WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
            AND TABLE_NAME = ?
            AND REFERENCED_TABLE_NAME IS NOT NULL
        ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION
    `

	rows, err := m.q.QueryContext(ctx, query, schemaName, table)
	if err != nil {
		return nil, err
	}
	return scanForeignKeys(rows)
}

func (m *MySQLInspector) TableComment(ctx context.Context, table, schemaName string) (string, error) {
	query := `
        SELECT COALESCE(TABLE_COMMENT, '')
        FROM information_schema.TABLES
        WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
            AND TABLE_NAME = ?
    `

	rows, err := m.q.QueryContext(ctx, query, schemaName, table)
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
