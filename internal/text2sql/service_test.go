package text2sql

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"text2sql/internal/llm"
	"text2sql/internal/prompt"
	"text2sql/internal/schema"
	"text2sql/internal/tablectx"
)

type fakeSession struct {
	*sql.DB
	columns map[string][]schema.Column
	closed  int
}

func (f *fakeSession) Dialect() string { return "postgres" }

func (f *fakeSession) TableNames(context.Context, string) ([]string, error) {
	return []string{"users"}, nil
}

func (f *fakeSession) Columns(_ context.Context, table, _ string) ([]schema.Column, error) {
	cols, ok := f.columns[table]
	if !ok {
		return nil, schema.ErrTableNotFound
	}
	return cols, nil
}

func (f *fakeSession) PrimaryKey(context.Context, string, string) (schema.PrimaryKey, error) {
	return schema.PrimaryKey{}, nil
}

func (f *fakeSession) ForeignKeys(context.Context, string, string) ([]schema.ForeignKey, error) {
	return nil, nil
}

func (f *fakeSession) TableComment(context.Context, string, string) (string, error) {
	return "", nil
}

func (f *fakeSession) Close() error {
	f.closed++
	return nil
}

type fakeTranslator struct {
	system string
	query  string
	sql    string
	err    error
}

func (f *fakeTranslator) Generate(_ context.Context, systemPrompt, query string) (string, error) {
	f.system = systemPrompt
	f.query = query
	return f.sql, f.err
}

func newTestService(t *testing.T, translator *fakeTranslator, opts Options) (*Service, *fakeSession, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	sess := &fakeSession{DB: db, columns: map[string][]schema.Column{
		"users": {{Name: "id", Type: "integer"}},
	}}
	templates, err := prompt.LoadTemplates("", "")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	builder := tablectx.NewBuilder(tablectx.NewSynthesizer(tablectx.DefaultCommentQueries()), tablectx.DefaultSampleLimit, "")
	assembler := prompt.NewAssembler(builder, nil, templates.ReferenceDirective(), logger)

	var tr llm.Translator
	if translator != nil {
		tr = translator
	}
	svc := NewService(func(context.Context) (Session, error) { return sess, nil }, assembler, templates, tr, opts, logger)
	return svc, sess, mock
}

func expectUsers(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("col_description").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "column_comment"}))
	mock.ExpectQuery("ORDER BY RANDOM").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
}

func TestServiceRun(t *testing.T) {
	tr := &fakeTranslator{sql: "SELECT count(*) FROM users"}
	svc, sess, mock := newTestService(t, tr, Options{RefLimit: 3})
	expectUsers(mock)

	res, err := svc.Run(context.Background(), "how many users?", nil)
	require.NoError(t, err)

	assert.Equal(t, "SELECT count(*) FROM users", res.SQL)
	assert.Equal(t, []string{"users"}, res.Tables)
	assert.Equal(t, "how many users?", tr.query)
	assert.Contains(t, tr.system, "PostgreSQL")
	assert.Contains(t, tr.system, "CREATE TABLE users (")
	assert.Contains(t, tr.system, "(7)")
	assert.Equal(t, res.Prompt, tr.system)
	assert.Equal(t, 1, sess.closed)
}

func TestServiceClosesSessionWhenTablesFail(t *testing.T) {
	svc, sess, _ := newTestService(t, nil, Options{})

	pc, err := svc.PromptInfo(context.Background(), "q", []string{"missing"})
	require.NoError(t, err)
	assert.Contains(t, pc.Errors, "missing")
	assert.Empty(t, pc.DBContext)
	assert.Equal(t, "postgres", pc.Dialect)
	assert.Equal(t, 1, sess.closed)
}

func TestServiceDefaultTables(t *testing.T) {
	svc, _, mock := newTestService(t, nil, Options{Tables: []string{"users"}})
	expectUsers(mock)

	pc, err := svc.PromptInfo(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, pc.Tables)
}

func TestServiceRunWithoutTranslator(t *testing.T) {
	svc, sess, _ := newTestService(t, nil, Options{})
	_, err := svc.Run(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrNoTranslator)
	assert.Zero(t, sess.closed)
}

func TestServiceRunTranslatorFailure(t *testing.T) {
	tr := &fakeTranslator{err: errors.New("rate limited")}
	svc, sess, mock := newTestService(t, tr, Options{})
	expectUsers(mock)

	_, err := svc.Run(context.Background(), "q", nil)
	assert.ErrorContains(t, err, "generate sql: rate limited")
	assert.Equal(t, 1, sess.closed)
}

func TestResultString(t *testing.T) {
	res := Result{Query: "q", Tables: []string{"a", "b"}, SQL: "SELECT 1", Prompt: "p"}
	rule := strings.Repeat("=", 37)
	assert.Equal(t, rule+"\nQuery: q\nTables: [a, b]\nSQL: SELECT 1\n\nPrompt:\np\n"+rule+"\n", res.String())
}
