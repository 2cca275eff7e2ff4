package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"text2sql/internal/schema"
)

// SQLiteInspector supports catalog listing for SQLite files. SQLite has no
// comment catalog, so TableComment is always empty.
type SQLiteInspector struct {
	q Queryer
}

func (s *SQLiteInspector) TableNames(ctx context.Context, _ string) ([]string, error) {
	query := `
        SELECT name
        FROM sqlite_master
        WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
        ORDER BY name
    `

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

type sqliteColumn struct {
	col schema.Column
	pk  int
}

func (s *SQLiteInspector) tableInfo(ctx context.Context, table string) ([]sqliteColumn, error) {
	query := `SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?)`

	rows, err := s.q.QueryContext(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []sqliteColumn
	for rows.Next() {
		var c sqliteColumn
		var cid, notNull int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &c.col.Name, &c.col.Type, &notNull, &defaultValue, &c.pk); err != nil {
			return nil, err
		}

		c.col.IsNullable = notNull == 0
		if defaultValue.Valid {
			c.col.DefaultValue = &defaultValue.String
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", schema.ErrTableNotFound, table)
	}

	return columns, nil
}

func (s *SQLiteInspector) Columns(ctx context.Context, table, _ string) ([]schema.Column, error) {
	info, err := s.tableInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	columns := make([]schema.Column, len(info))
	for i, c := range info {
		columns[i] = c.col
	}
	return columns, nil
}

func (s *SQLiteInspector) PrimaryKey(ctx context.Context, table, _ string) (schema.PrimaryKey, error) {
	info, err := s.tableInfo(ctx, table)
	if err != nil {
		return schema.PrimaryKey{}, err
	}

	var keyed []sqliteColumn
	for _, c := range info {
		if c.pk > 0 {
			keyed = append(keyed, c)
		}
	}
	sort.SliceStable(keyed, func(i, j int) bool { return keyed[i].pk < keyed[j].pk })

	var pk schema.PrimaryKey
	for _, c := range keyed {
		pk.Columns = append(pk.Columns, c.col.Name)
	}
	return pk, nil
}

func (s *SQLiteInspector) ForeignKeys(ctx context.Context, table, _ string) ([]schema.ForeignKey, error) {
	query := `
        SELECT CAST(id AS TEXT), "from", "table", "to"
        FROM pragma_foreign_key_list(?)
        ORDER BY id, seq
    `

	rows, err := s.q.QueryContext(ctx, query, table)
	if err != nil {
		return nil, err
	}
	foreignKeys, err := scanForeignKeys(rows)
	if err != nil {
		return nil, err
	}
	for i := range foreignKeys {
		foreignKeys[i].Name = fmt.Sprintf("fk_%s_%s", table, foreignKeys[i].Columns[0])
	}
	return foreignKeys, nil
}

func (s *SQLiteInspector) TableComment(context.Context, string, string) (string, error) {
	return "", nil
}
