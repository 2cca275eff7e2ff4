package tablectx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"text2sql/internal/schema"
)

// fakeConn serves catalog metadata from memory and raw queries from sqlmock.
type fakeConn struct {
	*sql.DB
	dialect     string
	columns     map[string][]schema.Column
	pks         map[string]schema.PrimaryKey
	fks         map[string][]schema.ForeignKey
	comments    map[string]string
	columnErr   map[string]error
	columnCalls int
}

func newFakeConn(t *testing.T, dialect string) (*fakeConn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return &fakeConn{
		DB:        db,
		dialect:   dialect,
		columns:   map[string][]schema.Column{},
		pks:       map[string]schema.PrimaryKey{},
		fks:       map[string][]schema.ForeignKey{},
		comments:  map[string]string{},
		columnErr: map[string]error{},
	}, mock
}

func (f *fakeConn) Dialect() string { return f.dialect }

func (f *fakeConn) Columns(_ context.Context, table, _ string) ([]schema.Column, error) {
	f.columnCalls++
	if err := f.columnErr[table]; err != nil {
		return nil, err
	}
	cols, ok := f.columns[table]
	if !ok {
		return nil, schema.ErrTableNotFound
	}
	return cols, nil
}

func (f *fakeConn) PrimaryKey(_ context.Context, table, _ string) (schema.PrimaryKey, error) {
	return f.pks[table], nil
}

func (f *fakeConn) ForeignKeys(_ context.Context, table, _ string) ([]schema.ForeignKey, error) {
	return f.fks[table], nil
}

func (f *fakeConn) TableComment(_ context.Context, table, _ string) (string, error) {
	return f.comments[table], nil
}

func strPtr(s string) *string { return &s }
