package database

import (
	"database/sql"

	"text2sql/internal/schema"
)

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// scanForeignKeys groups (constraint, column, referenced table, referenced
// column) rows into one ForeignKey per constraint, keeping first-seen order.
func scanForeignKeys(rows *sql.Rows) ([]schema.ForeignKey, error) {
	defer rows.Close()

	var foreignKeys []schema.ForeignKey
	index := make(map[string]int)
	for rows.Next() {
		var name, column, refTable, refColumn string
		if err := rows.Scan(&name, &column, &refTable, &refColumn); err != nil {
			return nil, err
		}

		i, ok := index[name]
		if !ok {
			i = len(foreignKeys)
			index[name] = i
			foreignKeys = append(foreignKeys, schema.ForeignKey{
				Name:            name,
				ReferencedTable: refTable,
			})
		}
		foreignKeys[i].Columns = append(foreignKeys[i].Columns, column)
		foreignKeys[i].ReferencedColumns = append(foreignKeys[i].ReferencedColumns, refColumn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return foreignKeys, nil
}
