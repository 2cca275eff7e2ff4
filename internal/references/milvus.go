package references

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"text2sql/internal/prompt"
)

const milvusTimeout = 30 * time.Second

// MilvusStore searches a Milvus collection through the v2 REST API. The
// collection must expose "query" and "sql" output fields.
type MilvusStore struct {
	baseURL    string
	token      string
	database   string
	collection string
	client     *http.Client
}

// NewMilvusStore takes credentials from the URI user info ("user:password"
// or a bare API key) and an optional database name from its path.
func NewMilvusStore(u *url.URL, collection string) *MilvusStore {
	var token string
	if u.User != nil {
		token = u.User.Username()
		if password, ok := u.User.Password(); ok {
			token += ":" + password
		}
	}
	return &MilvusStore{
		baseURL:    fmt.Sprintf("%s://%s", u.Scheme, u.Host),
		token:      token,
		database:   strings.Trim(u.Path, "/"),
		collection: collection,
		client:     &http.Client{Timeout: milvusTimeout},
	}
}

type milvusSearchRequest struct {
	DBName         string      `json:"dbName,omitempty"`
	CollectionName string      `json:"collectionName"`
	Data           [][]float64 `json:"data"`
	Limit          int         `json:"limit"`
	OutputFields   []string    `json:"outputFields"`
}

type milvusSearchResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    []struct {
		Distance float64 `json:"distance"`
		Query    string  `json:"query"`
		SQL      string  `json:"sql"`
	} `json:"data"`
}

func (m *MilvusStore) Search(ctx context.Context, vector []float64, limit int) ([]prompt.Reference, error) {
	body, err := json.Marshal(milvusSearchRequest{
		DBName:         m.database,
		CollectionName: m.collection,
		Data:           [][]float64{vector},
		Limit:          limit,
		OutputFields:   []string{"query", "sql"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v2/vectordb/entities/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request milvus search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read milvus response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("milvus search failed status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed milvusSearchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode milvus response: %w", err)
	}
	// Milvus reports application errors with HTTP 200 and a non-zero code.
	if parsed.Code != 0 {
		return nil, fmt.Errorf("milvus search failed code=%d: %s", parsed.Code, parsed.Message)
	}

	refs := make([]prompt.Reference, 0, len(parsed.Data))
	for _, hit := range parsed.Data {
		refs = append(refs, prompt.Reference{Query: hit.Query, SQL: hit.SQL})
	}
	return refs, nil
}

func (m *MilvusStore) Close() error {
	m.client.CloseIdleConnections()
	return nil
}
