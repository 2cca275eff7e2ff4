// Package references finds previously answered questions similar to a new
// one. Stores are searched read-only; populating them is out of scope.
package references

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"text2sql/internal/embedding"
	"text2sql/internal/prompt"
	"text2sql/pkg/config"
)

// Store runs a nearest-neighbour search over stored (query, sql) pairs.
type Store interface {
	Search(ctx context.Context, vector []float64, limit int) ([]prompt.Reference, error)
	Close() error
}

// Searcher embeds the question and asks the store for its neighbours.
type Searcher struct {
	embedder embedding.Provider
	store    Store
}

func NewSearcher(embedder embedding.Provider, store Store) *Searcher {
	return &Searcher{embedder: embedder, store: store}
}

func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]prompt.Reference, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	refs, err := s.store.Search(ctx, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.embedder.ProviderName(), err)
	}
	return refs, nil
}

func (s *Searcher) Close() error {
	return s.store.Close()
}

// New returns a Searcher for the configured backend, or nil when reference
// search is not fully configured.
func New(ctx context.Context, cfg config.Config) (*Searcher, error) {
	if !cfg.References.Enabled(cfg.Embedding) {
		return nil, nil
	}

	api, err := config.ParseAIURI(cfg.Embedding.URI)
	if err != nil {
		return nil, fmt.Errorf("embedding.uri: %w", err)
	}
	embedder, err := embedding.NewProvider(api)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg.References.URI, cfg.References.Collection)
	if err != nil {
		return nil, err
	}
	return NewSearcher(embedder, store), nil
}

var collectionPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// OpenStore selects the backend by URI scheme: http(s) for Milvus, sqlite for
// a local file and postgres for a pgvector table.
func OpenStore(ctx context.Context, uri, collection string) (Store, error) {
	if !collectionPattern.MatchString(collection) {
		return nil, fmt.Errorf("invalid reference collection name %q", collection)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse references.uri: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return NewMilvusStore(u, collection), nil
	case "sqlite", "sqlite3":
		return OpenSQLiteStore(ctx, strings.TrimPrefix(uri, u.Scheme+"://"), collection)
	case "postgres", "postgresql":
		return OpenPgVectorStore(ctx, uri, collection)
	default:
		return nil, fmt.Errorf("unsupported references scheme: %s", u.Scheme)
	}
}
