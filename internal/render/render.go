// Package render prints prompt contexts for the CLI.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"text2sql/internal/text2sql"
)

var Formats = []string{"text", "markdown", "json"}

// Context writes pc to w in the named format.
func Context(w io.Writer, pc text2sql.Context, format string) error {
	switch format {
	case "", "text":
		_, err := io.WriteString(w, GenerateText(pc))
		return err
	case "markdown", "md":
		_, err := io.WriteString(w, GenerateMarkdown(pc))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(pc)
	default:
		return fmt.Errorf("invalid format '%s'. Valid formats: %s", format, strings.Join(Formats, ", "))
	}
}

// GenerateText is the context exactly as the model sees it.
func GenerateText(pc text2sql.Context) string {
	var b strings.Builder
	b.WriteString(pc.DBContext)
	if !strings.HasSuffix(pc.DBContext, "\n") {
		b.WriteString("\n")
	}
	if pc.RefsContext != "" {
		b.WriteString("\n")
		b.WriteString(pc.RefReq)
		b.WriteString("\n\n")
		b.WriteString(pc.RefsContext)
	}
	return b.String()
}
