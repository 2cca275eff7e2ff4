package prompt

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"text2sql/internal/schema"
	"text2sql/internal/tablectx"
)

type fakeCatalog struct {
	*sql.DB
	dialect  string
	tables   []string
	tableErr error
	columns  map[string][]schema.Column
}

func newFakeCatalog(t *testing.T, dialect string) (*fakeCatalog, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return &fakeCatalog{DB: db, dialect: dialect, columns: map[string][]schema.Column{}}, mock
}

func (f *fakeCatalog) Dialect() string { return f.dialect }

func (f *fakeCatalog) TableNames(context.Context, string) ([]string, error) {
	return f.tables, f.tableErr
}

func (f *fakeCatalog) Columns(_ context.Context, table, _ string) ([]schema.Column, error) {
	cols, ok := f.columns[table]
	if !ok {
		return nil, schema.ErrTableNotFound
	}
	return cols, nil
}

func (f *fakeCatalog) PrimaryKey(context.Context, string, string) (schema.PrimaryKey, error) {
	return schema.PrimaryKey{}, nil
}

func (f *fakeCatalog) ForeignKeys(context.Context, string, string) ([]schema.ForeignKey, error) {
	return nil, nil
}

func (f *fakeCatalog) TableComment(context.Context, string, string) (string, error) {
	return "", nil
}

type fakeSearcher struct {
	refs  []Reference
	err   error
	calls int
	limit int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, limit int) ([]Reference, error) {
	f.calls++
	f.limit = limit
	return f.refs, f.err
}

func expectTable(mock sqlmock.Sqlmock, table string) {
	mock.ExpectQuery("col_description").WithArgs(table, "public").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "column_comment"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "public"."` + table + `" ORDER BY RANDOM() LIMIT 3`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
}

func newTestAssembler(refs ReferenceSearcher) *Assembler {
	builder := tablectx.NewBuilder(tablectx.NewSynthesizer(tablectx.DefaultCommentQueries()), tablectx.DefaultSampleLimit, "")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAssembler(builder, refs, "Use these references.", logger)
}

func TestAssembleIsolatesTableFailures(t *testing.T) {
	catalog, mock := newFakeCatalog(t, "postgres")
	catalog.columns["a"] = []schema.Column{{Name: "id", Type: "integer"}}
	catalog.columns["c"] = []schema.Column{{Name: "id", Type: "integer"}}
	expectTable(mock, "a")
	expectTable(mock, "c")

	info, err := newTestAssembler(nil).Assemble(context.Background(), catalog, "how many?", []string{"a", "b", "c"}, 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, info.Tables)
	assert.Contains(t, info.DBContext, "CREATE TABLE a (")
	assert.Contains(t, info.DBContext, "CREATE TABLE c (")
	assert.NotContains(t, info.DBContext, "CREATE TABLE b (")
	assert.Less(t, strings.Index(info.DBContext, "-- a: "), strings.Index(info.DBContext, "-- c: "))

	require.Len(t, info.Errors, 1)
	assert.Contains(t, info.Errors["b"], "can't get schema info for table b")
	assert.Empty(t, info.RefReq)
	assert.Empty(t, info.RefsContext)
}

func TestAssembleJoinsTablesWithNewline(t *testing.T) {
	catalog, mock := newFakeCatalog(t, "postgres")
	catalog.columns["a"] = []schema.Column{{Name: "id", Type: "integer"}}
	catalog.columns["c"] = []schema.Column{{Name: "id", Type: "integer"}}
	expectTable(mock, "a")
	expectTable(mock, "c")

	info, err := newTestAssembler(nil).Assemble(context.Background(), catalog, "q", []string{"a", "c"}, 0)
	require.NoError(t, err)

	unit := func(name string) string {
		return schema.TableContext{
			TableName: name,
			DDL:       "CREATE TABLE " + name + " (\n    id integer NOT NULL\n);",
			Samples:   []string{"(1)"},
		}.String()
	}
	assert.Equal(t, unit("a")+"\n"+unit("c"), info.DBContext)
}

func TestAssembleResolvesAllTables(t *testing.T) {
	catalog, mock := newFakeCatalog(t, "postgres")
	catalog.tables = []string{"orders"}
	catalog.columns["orders"] = []schema.Column{{Name: "id", Type: "integer"}}
	expectTable(mock, "orders")

	info, err := newTestAssembler(nil).Assemble(context.Background(), catalog, "q", nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, info.Tables)
	assert.Empty(t, info.Errors)
}

func TestAssembleResolutionFailure(t *testing.T) {
	catalog, _ := newFakeCatalog(t, "postgres")
	catalog.tableErr = errors.New("connection reset")

	_, err := newTestAssembler(nil).Assemble(context.Background(), catalog, "q", nil, 3)
	assert.ErrorContains(t, err, "list tables: connection reset")
}

func TestAssembleUnsupportedDialectPropagates(t *testing.T) {
	catalog, _ := newFakeCatalog(t, "sqlite")
	catalog.columns["a"] = []schema.Column{{Name: "id", Type: "INTEGER"}}

	_, err := newTestAssembler(nil).Assemble(context.Background(), catalog, "q", []string{"a"}, 3)

	var dialectErr *schema.UnsupportedDialectError
	require.True(t, errors.As(err, &dialectErr))
	assert.Equal(t, "sqlite", dialectErr.Dialect)
}

func TestAssembleReferences(t *testing.T) {
	catalog, mock := newFakeCatalog(t, "postgres")
	catalog.columns["a"] = []schema.Column{{Name: "id", Type: "integer"}}
	expectTable(mock, "a")

	searcher := &fakeSearcher{refs: []Reference{
		{Query: "count users", SQL: "SELECT count(*) FROM users"},
		{Query: "list users", SQL: "SELECT * FROM users"},
	}}

	info, err := newTestAssembler(searcher).Assemble(context.Background(), catalog, "how many users", []string{"a"}, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, searcher.limit)
	assert.Equal(t, "Use these references.", info.RefReq)
	assert.Equal(t,
		"# References\nQuery: count users\nSQL: SELECT count(*) FROM users\n\nQuery: list users\nSQL: SELECT * FROM users\n",
		info.RefsContext)
}

func TestAssembleNoReferences(t *testing.T) {
	catalog, mock := newFakeCatalog(t, "postgres")
	catalog.columns["a"] = []schema.Column{{Name: "id", Type: "integer"}}
	expectTable(mock, "a")

	searcher := &fakeSearcher{}
	info, err := newTestAssembler(searcher).Assemble(context.Background(), catalog, "q", []string{"a"}, 3)
	require.NoError(t, err)

	assert.Equal(t, 1, searcher.calls)
	assert.Empty(t, info.RefReq)
	assert.Empty(t, info.RefsContext)
}

func TestAssembleReferenceFailureDegrades(t *testing.T) {
	catalog, mock := newFakeCatalog(t, "postgres")
	catalog.columns["a"] = []schema.Column{{Name: "id", Type: "integer"}}
	expectTable(mock, "a")

	searcher := &fakeSearcher{err: errors.New("milvus unavailable")}
	info, err := newTestAssembler(searcher).Assemble(context.Background(), catalog, "q", []string{"a"}, 3)
	require.NoError(t, err)
	assert.Empty(t, info.RefReq)
	assert.Empty(t, info.RefsContext)
	assert.NotEmpty(t, info.DBContext)
}

func TestAssembleDeduplicatesReferences(t *testing.T) {
	catalog, mock := newFakeCatalog(t, "postgres")
	catalog.columns["a"] = []schema.Column{{Name: "id", Type: "integer"}}
	expectTable(mock, "a")

	searcher := &fakeSearcher{refs: []Reference{
		{Query: "q1", SQL: "SELECT 1"},
		{Query: "q1", SQL: "SELECT 2"},
		{Query: "q2", SQL: "SELECT 3"},
	}}
	info, err := newTestAssembler(searcher).Assemble(context.Background(), catalog, "q", []string{"a"}, 3)
	require.NoError(t, err)

	assert.Contains(t, info.RefsContext, "SQL: SELECT 1")
	assert.NotContains(t, info.RefsContext, "SELECT 2")
	assert.Contains(t, info.RefsContext, "SQL: SELECT 3")
}

func TestFormatReferencesEmpty(t *testing.T) {
	assert.Equal(t, "", FormatReferences(nil))
}
