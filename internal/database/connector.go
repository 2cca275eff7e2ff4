package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

type Connector struct {
	db      *sql.DB
	driver  string
	dialect string
}

// Queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func NewConnector(ctx context.Context, databaseURL string) (*Connector, error) {
	driver, dsn, err := ParseDatabaseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return newConnector(db, driver), nil
}

func newConnector(db *sql.DB, driver string) *Connector {
	return &Connector{
		db:      db,
		driver:  driver,
		dialect: dialectForDriver(driver),
	}
}

func (c *Connector) Dialect() string {
	return c.dialect
}

// Ping checks that the database is still reachable.
func (c *Connector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Connector) Close() error {
	return c.db.Close()
}

// Session reserves one connection from the pool. Callers must Close it.
func (c *Connector) Session(ctx context.Context) (*Session, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return newSession(conn, c.dialect), nil
}

func dialectForDriver(driver string) string {
	switch driver {
	case "postgres":
		return DialectPostgres
	case "mysql":
		return DialectMySQL
	case "sqlite3":
		return DialectSQLite
	default:
		return driver
	}
}

// ParseDatabaseURL maps a database URL onto a database/sql driver name and
// DSN. SQLAlchemy-style "+driver" suffixes on the scheme are ignored.
func ParseDatabaseURL(databaseURL string) (driver, dsn string, err error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", "", err
	}

	scheme, _, _ := strings.Cut(u.Scheme, "+")
	switch scheme {
	case "postgres", "postgresql":
		u.Scheme = "postgres"
		return "postgres", u.String(), nil
	case "mysql":
		return "mysql", mysqlDSN(u), nil
	case "sqlite", "sqlite3":
		path := strings.TrimPrefix(databaseURL, u.Scheme+"://")
		if path == "" {
			return "", "", fmt.Errorf("sqlite URL has no path")
		}
		return "sqlite3", path, nil
	default:
		return "", "", fmt.Errorf("unsupported database scheme: %s", u.Scheme)
	}
}

func mysqlDSN(u *url.URL) string {
	cfg := mysql.NewConfig()
	cfg.User = u.User.Username()
	cfg.Passwd, _ = u.User.Password()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = net.JoinHostPort(u.Hostname(), "3306")
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if q := u.Query(); len(q) > 0 {
		cfg.Params = make(map[string]string, len(q))
		for k := range q {
			cfg.Params[k] = q.Get(k)
		}
	}
	return cfg.FormatDSN()
}
