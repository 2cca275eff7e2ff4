package tablectx

import (
	"context"
	"fmt"

	"text2sql/internal/schema"
)

type Builder struct {
	Synthesizer *Synthesizer
	SampleLimit int
	Schema      string
}

func NewBuilder(synth *Synthesizer, sampleLimit int, schemaName string) *Builder {
	return &Builder{
		Synthesizer: synth,
		SampleLimit: sampleLimit,
		Schema:      schemaName,
	}
}

// Build assembles the description, DDL and samples for one table. DDL is
// synthesized first so an unsupported dialect fails before anything else runs.
func (b *Builder) Build(ctx context.Context, conn Conn, table string) (schema.TableContext, error) {
	ddl, err := b.Synthesizer.DDL(ctx, conn, table, b.Schema)
	if err != nil {
		return schema.TableContext{}, err
	}

	description, err := conn.TableComment(ctx, table, b.Schema)
	if err != nil {
		return schema.TableContext{}, &schema.SchemaIntrospectionError{Table: table, Err: fmt.Errorf("table comment: %w", err)}
	}

	rows, err := SampleTable(ctx, conn, table, b.Schema, b.SampleLimit)
	if err != nil {
		return schema.TableContext{}, fmt.Errorf("sample table %s: %w", table, err)
	}

	samples := make([]string, 0, len(rows))
	for _, row := range rows {
		samples = append(samples, FormatRow(row))
	}

	return schema.TableContext{
		TableName:   table,
		Description: description,
		DDL:         ddl,
		Samples:     samples,
	}, nil
}
