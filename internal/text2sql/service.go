// Package text2sql answers a natural-language question with SQL: it builds
// the prompt context from a live connection, renders the system prompt and
// asks the model.
package text2sql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"text2sql/internal/llm"
	"text2sql/internal/observability"
	"text2sql/internal/prompt"
)

var ErrNoTranslator = errors.New("llm is not configured")

// Session is one connection scoped to a single prompt context build.
type Session interface {
	prompt.Catalog
	Close() error
}

type SessionFunc func(ctx context.Context) (Session, error)

type Options struct {
	Tables   []string
	RefLimit int
}

type Service struct {
	sessions   SessionFunc
	assembler  *prompt.Assembler
	templates  *prompt.Templates
	translator llm.Translator
	opts       Options
	logger     *slog.Logger
}

// NewService wires the pipeline. translator may be nil when only prompt
// context is needed.
func NewService(sessions SessionFunc, assembler *prompt.Assembler, templates *prompt.Templates, translator llm.Translator, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sessions:   sessions,
		assembler:  assembler,
		templates:  templates,
		translator: translator,
		opts:       opts,
		logger:     logger,
	}
}

// Context is a prompt context together with the dialect it was built for.
type Context struct {
	prompt.PromptInfo
	Dialect string `json:"dialect"`
}

// PromptInfo builds the prompt context for query. An empty tables list falls
// back to the configured default tables, then to every table.
func (s *Service) PromptInfo(ctx context.Context, query string, tables []string) (Context, error) {
	if len(tables) == 0 {
		tables = s.opts.Tables
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return Context{}, err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			s.logger.WarnContext(ctx, "close session", slog.String("error", err.Error()))
		}
	}()

	info, err := s.assembler.Assemble(ctx, sess, query, tables, s.opts.RefLimit)
	if err != nil {
		return Context{}, err
	}
	return Context{PromptInfo: info, Dialect: sess.Dialect()}, nil
}

type Result struct {
	Query  string            `json:"query"`
	Tables []string          `json:"tables"`
	Prompt string            `json:"prompt"`
	SQL    string            `json:"sql"`
	Errors map[string]string `json:"errors,omitempty"`
}

func (r Result) String() string {
	rule := strings.Repeat("=", 37)
	return fmt.Sprintf("%s\nQuery: %s\nTables: [%s]\nSQL: %s\n\nPrompt:\n%s\n%s\n",
		rule, r.Query, strings.Join(r.Tables, ", "), r.SQL, r.Prompt, rule)
}

// Run generates SQL for query.
func (s *Service) Run(ctx context.Context, query string, tables []string) (Result, error) {
	if s.translator == nil {
		return Result{}, ErrNoTranslator
	}

	pc, err := s.PromptInfo(ctx, query, tables)
	if err != nil {
		return Result{}, err
	}

	systemPrompt, err := s.templates.SystemPrompt(prompt.SystemPromptData{
		Dialect:    DialectName(pc.Dialect),
		DBContext:  pc.DBContext,
		RefReq:     pc.RefReq,
		References: pc.RefsContext,
	})
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	sql, err := s.translator.Generate(ctx, systemPrompt, query)
	observability.ObserveTranslation(time.Since(start), err)
	if err != nil {
		return Result{}, fmt.Errorf("generate sql: %w", err)
	}
	s.logger.InfoContext(ctx, "sql generated",
		slog.Int("tables", len(pc.Tables)),
		slog.Int("failed_tables", len(pc.Errors)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return Result{
		Query:  query,
		Tables: pc.Tables,
		Prompt: systemPrompt,
		SQL:    sql,
		Errors: pc.Errors,
	}, nil
}

// DialectName is the name a model is most likely to recognise.
func DialectName(dialect string) string {
	switch dialect {
	case "postgres":
		return "PostgreSQL"
	case "mysql":
		return "MySQL"
	case "sqlite":
		return "SQLite"
	default:
		return dialect
	}
}
