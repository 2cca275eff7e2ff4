package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"text2sql/internal/prompt"
	"text2sql/internal/schema"
	"text2sql/internal/text2sql"
)

type fakeGenerator struct {
	query  string
	tables []string
	result text2sql.Result
	pc     text2sql.Context
	err    error
}

func (f *fakeGenerator) PromptInfo(_ context.Context, query string, tables []string) (text2sql.Context, error) {
	f.query, f.tables = query, tables
	return f.pc, f.err
}

func (f *fakeGenerator) Run(_ context.Context, query string, tables []string) (text2sql.Result, error) {
	f.query, f.tables = query, tables
	return f.result, f.err
}

func newTestHandler(gen *fakeGenerator, ready func(context.Context) error) http.Handler {
	return NewHandler(Dependencies{
		Generator: gen,
		Readiness: ready,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rr, req)
	return rr
}

func TestSQLEndpoint(t *testing.T) {
	gen := &fakeGenerator{result: text2sql.Result{Query: "how many users", SQL: "SELECT count(*) FROM users", Tables: []string{"users"}}}
	rr := post(newTestHandler(gen, nil), "/v1/sql", `{"query":" how many users ","tables":["users"]}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "how many users", gen.query)
	assert.Equal(t, []string{"users"}, gen.tables)

	var res text2sql.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, "SELECT count(*) FROM users", res.SQL)
}

func TestContextEndpoint(t *testing.T) {
	gen := &fakeGenerator{pc: text2sql.Context{
		Dialect:    "mysql",
		PromptInfo: prompt.PromptInfo{Tables: []string{"t"}, DBContext: "-- t: \nCREATE TABLE t (\n    id int NOT NULL\n);\n"},
	}}
	rr := post(newTestHandler(gen, nil), "/v1/context", `{"query":"q"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "mysql", body["dialect"])
	assert.Contains(t, body["db_context"], "CREATE TABLE t (")
	assert.Nil(t, gen.tables)
}

func TestRequestValidation(t *testing.T) {
	h := newTestHandler(&fakeGenerator{}, nil)

	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "malformed", body: `{"query":`, code: "invalid_json"},
		{name: "unknown field", body: `{"question":"q"}`, code: "invalid_json"},
		{name: "empty query", body: `{"query":"  "}`, code: "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := post(h, "/v1/sql", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.code)
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "no llm", err: text2sql.ErrNoTranslator, status: http.StatusNotImplemented},
		{name: "unsupported dialect", err: &schema.UnsupportedDialectError{Dialect: "sqlite"}, status: http.StatusUnprocessableEntity},
		{name: "other", err: errors.New("connection refused"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := post(newTestHandler(&fakeGenerator{err: tt.err}, nil), "/v1/sql", `{"query":"q"}`)
			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.err.Error())
		})
	}
}

func TestHealthz(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(&fakeGenerator{}, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	down := func(context.Context) error { return errors.New("db down") }
	newTestHandler(&fakeGenerator{}, down).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "db down")
}

func TestMetricsEndpoint(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(&fakeGenerator{}, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "text2sql_context_build_seconds")
}
