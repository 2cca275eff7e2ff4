package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"text2sql/internal/database"
	"text2sql/internal/llm"
	"text2sql/internal/observability"
	"text2sql/internal/prompt"
	"text2sql/internal/references"
	"text2sql/internal/tablectx"
	"text2sql/internal/text2sql"
	"text2sql/pkg/config"
)

// app owns every long-lived resource a command needs.
type app struct {
	connector *database.Connector
	searcher  *references.Searcher
	service   *text2sql.Service
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, withLLM bool) (*app, error) {
	queries, err := tablectx.LoadCommentQueries(cfg.Context.PostgresCommentQuery, cfg.Context.MySQLCommentQuery)
	if err != nil {
		return nil, err
	}
	templates, err := prompt.LoadTemplates(cfg.Context.PromptTemplate, cfg.Context.ReferencesTemplate)
	if err != nil {
		return nil, err
	}

	var translator llm.Translator
	if withLLM {
		if cfg.LLM.URI == "" {
			return nil, fmt.Errorf("llm.uri is required (flag --llm or TEXT2SQL_LLM_URI)")
		}
		api, err := config.ParseAIURI(cfg.LLM.URI)
		if err != nil {
			return nil, fmt.Errorf("llm.uri: %w", err)
		}
		translator, err = llm.NewTranslator(api, cfg.LLM.Timeout, cfg.LLM.Temperature)
		if err != nil {
			return nil, err
		}
	}

	connector, err := database.NewConnector(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connector: %w", err)
	}

	searcher, err := references.New(ctx, cfg)
	if err != nil {
		observability.ObserveReferenceLookup(0, err)
		logger.Warn("reference store unavailable, continuing without references",
			slog.String("uri", redactURI(cfg.References.URI)),
			slog.String("error", err.Error()),
		)
		searcher = nil
	}
	var refs prompt.ReferenceSearcher
	if searcher != nil {
		refs = searcher
		logger.Debug("reference search enabled", slog.String("collection", cfg.References.Collection))
	}

	builder := tablectx.NewBuilder(tablectx.NewSynthesizer(queries), cfg.Context.SampleLimit, cfg.Database.Schema)
	assembler := prompt.NewAssembler(builder, refs, templates.ReferenceDirective(), logger)

	sessions := func(ctx context.Context) (text2sql.Session, error) {
		sess, err := connector.Session(ctx)
		if err != nil {
			return nil, err
		}
		return sess, nil
	}

	service := text2sql.NewService(sessions, assembler, templates, translator, text2sql.Options{
		Tables:   cfg.Context.Tables,
		RefLimit: cfg.References.Limit,
	}, logger)

	return &app{connector: connector, searcher: searcher, service: service}, nil
}

// redactURI drops the password from uri for logging.
func redactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return u.Redacted()
}

func (a *app) Close() {
	if a.searcher != nil {
		_ = a.searcher.Close()
	}
	_ = a.connector.Close()
}
