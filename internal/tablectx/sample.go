package tablectx

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"text2sql/internal/schema"
)

const DefaultSampleLimit = 3

type sampleDialect struct {
	random string
	quote  string
	// defaultSchema is the schema the catalog and comment queries fall back to.
	defaultSchema string
}

var sampleDialects = map[string]sampleDialect{
	"postgres": {random: "RANDOM()", quote: `"`, defaultSchema: "public"},
	"mysql":    {random: "RAND()", quote: "`"},
}

func (d sampleDialect) ident(name string) string {
	return d.quote + strings.ReplaceAll(name, d.quote, d.quote+d.quote) + d.quote
}

// SampleQuery returns the random-sample statement for table in dialect.
func SampleQuery(dialect, table, schemaName string, limit int) (string, error) {
	d, ok := sampleDialects[dialect]
	if !ok {
		return "", &schema.UnsupportedDialectError{Dialect: dialect}
	}
	if limit < 0 {
		return "", fmt.Errorf("sample limit must be >= 0, got %d", limit)
	}

	if schemaName == "" {
		schemaName = d.defaultSchema
	}
	target := d.ident(table)
	if schemaName != "" {
		target = d.ident(schemaName) + "." + target
	}
	return fmt.Sprintf("SELECT * FROM %s ORDER BY %s LIMIT %s", target, d.random, strconv.Itoa(limit)), nil
}

// SampleTable returns up to limit rows chosen by the engine's random ordering.
func SampleTable(ctx context.Context, conn Conn, table, schemaName string, limit int) ([][]any, error) {
	query, err := SampleQuery(conn.Dialect(), table, schemaName, limit)
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var samples [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		samples = append(samples, values)
	}

	return samples, rows.Err()
}

// FormatRow renders a sampled row as a tuple literal, e.g. (1, 'alice', NULL).
func FormatRow(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = formatValue(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatValue(val any) string {
	switch v := val.(type) {
	case nil:
		return "NULL"
	case bool:
		return strconv.FormatBool(v)
	case []byte:
		if utf8.Valid(v) {
			return quote(string(v))
		}
		return `'\x` + hex.EncodeToString(v) + `'`
	case string:
		return quote(v)
	case time.Time:
		return quote(v.Format("2006-01-02 15:04:05.999999Z07:00"))
	case int64, int32, int, float64, float32:
		return fmt.Sprintf("%v", v)
	case fmt.Stringer:
		return quote(v.String())
	default:
		return quote(fmt.Sprintf("%v", v))
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
