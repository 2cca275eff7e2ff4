package schema

import (
	"errors"
	"fmt"
)

// ErrTableNotFound is reported when the catalog has no columns for a table.
var ErrTableNotFound = errors.New("table not found")

// UnsupportedDialectError is returned for any dialect outside the supported
// set. It is connection-level and never retried.
type UnsupportedDialectError struct {
	Dialect string
}

func (e *UnsupportedDialectError) Error() string {
	return fmt.Sprintf("unsupported dialect: %s", e.Dialect)
}

// SchemaIntrospectionError wraps a catalog lookup failure for one table.
type SchemaIntrospectionError struct {
	Table string
	Err   error
}

func (e *SchemaIntrospectionError) Error() string {
	return fmt.Sprintf("can't get schema info for table %s: %v", e.Table, e.Err)
}

func (e *SchemaIntrospectionError) Unwrap() error {
	return e.Err
}
