package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"text2sql/internal/text2sql"
)

// StatusTable writes one row per resolved table showing whether its context
// was built.
func StatusTable(w io.Writer, pc text2sql.Context) {
	if len(pc.Tables) == 0 {
		_, _ = fmt.Fprintln(w, "(0 tables)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Status", "Detail"})

	for _, name := range pc.Tables {
		if msg, failed := pc.Errors[name]; failed {
			t.AppendRow(table.Row{name, "failed", msg})
			continue
		}
		t.AppendRow(table.Row{name, "ok", ""})
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d tables, %d failed)\n", len(pc.Tables), len(pc.Errors))
}
