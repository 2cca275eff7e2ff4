// Package prompt assembles the database context, retrieved references and
// system prompt handed to the model for one question.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"text2sql/internal/observability"
	"text2sql/internal/schema"
	"text2sql/internal/tablectx"
)

// Reference is a previously answered question and its SQL.
type Reference struct {
	Query string `json:"query"`
	SQL   string `json:"sql"`
}

// ReferenceSearcher returns up to limit references ranked by similarity to query.
type ReferenceSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]Reference, error)
}

// Catalog is a connection that can also list its tables.
type Catalog interface {
	tablectx.Conn
	TableNames(ctx context.Context, schemaName string) ([]string, error)
}

type PromptInfo struct {
	Tables      []string          `json:"tables"`
	DBContext   string            `json:"db_context"`
	RefReq      string            `json:"ref_req"`
	RefsContext string            `json:"refs_context"`
	Errors      map[string]string `json:"errors,omitempty"`
}

type Assembler struct {
	builder   *tablectx.Builder
	refs      ReferenceSearcher
	directive string
	logger    *slog.Logger
}

// NewAssembler wires the pieces of a prompt context build. refs may be nil, in
// which case prompts never carry references.
func NewAssembler(builder *tablectx.Builder, refs ReferenceSearcher, directive string, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		builder:   builder,
		refs:      refs,
		directive: directive,
		logger:    logger,
	}
}

// Assemble builds the context for every table in tables, or for every table in
// the catalog when tables is empty. A table that fails is recorded in
// PromptInfo.Errors and left out of DBContext. Only table resolution failures
// and unsupported dialects fail the call.
func (a *Assembler) Assemble(ctx context.Context, catalog Catalog, query string, tables []string, refLimit int) (PromptInfo, error) {
	start := time.Now()
	defer func() { observability.ObserveContextBuild(time.Since(start)) }()

	resolved := tables
	if len(resolved) == 0 {
		names, err := catalog.TableNames(ctx, a.builder.Schema)
		if err != nil {
			return PromptInfo{}, fmt.Errorf("list tables: %w", err)
		}
		resolved = names
	}

	info := PromptInfo{
		Tables: resolved,
		Errors: map[string]string{},
	}

	var parts []string
	for _, table := range resolved {
		tc, err := a.builder.Build(ctx, catalog, table)
		observability.ObserveTableContext(err)
		if err != nil {
			var dialectErr *schema.UnsupportedDialectError
			if errors.As(err, &dialectErr) {
				return PromptInfo{}, err
			}
			a.logger.WarnContext(ctx, "table context failed",
				slog.String("table", table),
				slog.String("error", err.Error()),
			)
			info.Errors[table] = tableError(table, err)
			continue
		}
		a.logger.DebugContext(ctx, "table context built",
			slog.String("table", table),
			slog.Int("samples", len(tc.Samples)),
		)
		parts = append(parts, tc.String())
	}
	info.DBContext = strings.Join(parts, "\n")

	refs := a.references(ctx, query, refLimit)
	if len(refs) > 0 {
		info.RefReq = a.directive
		info.RefsContext = FormatReferences(refs)
	}

	return info, nil
}

func tableError(table string, err error) string {
	var introErr *schema.SchemaIntrospectionError
	if errors.As(err, &introErr) {
		return introErr.Error()
	}
	return fmt.Sprintf("can't get schema info for table %s: %v", table, err)
}

func (a *Assembler) references(ctx context.Context, query string, limit int) []Reference {
	if a.refs == nil || limit <= 0 {
		return nil
	}

	found, err := a.refs.Search(ctx, query, limit)
	observability.ObserveReferenceLookup(len(found), err)
	if err != nil {
		a.logger.WarnContext(ctx, "reference search failed, continuing without references",
			slog.String("error", err.Error()),
		)
		return nil
	}

	seen := make(map[string]struct{}, len(found))
	refs := make([]Reference, 0, len(found))
	for _, ref := range found {
		if _, ok := seen[ref.Query]; ok {
			continue
		}
		seen[ref.Query] = struct{}{}
		refs = append(refs, ref)
		if len(refs) == limit {
			break
		}
	}
	return refs
}

// FormatReferences renders references under a "# References" heading, or
// returns "" when there are none.
func FormatReferences(refs []Reference) string {
	if len(refs) == 0 {
		return ""
	}
	blocks := make([]string, len(refs))
	for i, ref := range refs {
		blocks[i] = fmt.Sprintf("Query: %s\nSQL: %s\n", ref.Query, ref.SQL)
	}
	return "# References\n" + strings.Join(blocks, "\n")
}
