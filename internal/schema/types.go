package schema

import (
	"fmt"
	"strings"
)

type Column struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	IsNullable   bool    `json:"is_nullable"`
	DefaultValue *string `json:"default_value,omitempty"`
	Comment      string  `json:"comment"`
}

type PrimaryKey struct {
	Columns []string `json:"columns"`
}

type ForeignKey struct {
	Name              string   `json:"name"`
	Columns           []string `json:"columns"`
	ReferencedTable   string   `json:"referenced_table"`
	ReferencedColumns []string `json:"referenced_columns"`
}

// TableContext is the per-table unit of schema context handed to the model.
type TableContext struct {
	TableName   string   `json:"table_name"`
	Description string   `json:"description"`
	DDL         string   `json:"ddl"`
	Samples     []string `json:"samples"`
}

func (t TableContext) String() string {
	header := fmt.Sprintf("-- %s: %s", t.TableName, t.Description)
	footer := ""
	if len(t.Samples) > 0 {
		footer = "-- Example Values:\n" + strings.Join(t.Samples, "\n")
	}
	return header + "\n" + t.DDL + "\n" + footer
}
