package render

import (
	"fmt"
	"strings"

	"text2sql/internal/text2sql"
)

func GenerateMarkdown(pc text2sql.Context) string {
	var builder strings.Builder

	builder.WriteString("# Prompt Context\n\n")
	builder.WriteString(fmt.Sprintf("Dialect: %s\n\n", text2sql.DialectName(pc.Dialect)))

	builder.WriteString("## Database\n\n")
	builder.WriteString("```sql\n")
	builder.WriteString(strings.TrimRight(pc.DBContext, "\n"))
	builder.WriteString("\n```\n\n")

	if pc.RefsContext != "" {
		builder.WriteString("## References\n\n")
		builder.WriteString(pc.RefReq + "\n\n")
		builder.WriteString("```\n")
		builder.WriteString(strings.TrimRight(strings.TrimPrefix(pc.RefsContext, "# References\n"), "\n"))
		builder.WriteString("\n```\n\n")
	}

	if len(pc.Errors) > 0 {
		builder.WriteString("## Skipped Tables\n\n")
		for _, table := range pc.Tables {
			if msg, ok := pc.Errors[table]; ok {
				builder.WriteString(fmt.Sprintf("- `%s`: %s\n", table, msg))
			}
		}
		builder.WriteString("\n")
	}

	builder.WriteString(fmt.Sprintf("Total Tables: %d\n", len(pc.Tables)))
	builder.WriteString(fmt.Sprintf("Failed Tables: %d\n", len(pc.Errors)))

	return builder.String()
}
