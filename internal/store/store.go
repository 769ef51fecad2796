// Package store persists users, vacancies and interview turns in SQLite or
// MySQL and serves the analytics read models.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// ErrNotFound is returned when a looked-up row does not exist
var ErrNotFound = errors.New("record not found")

// QueryError wraps a failed database operation. Retrying the whole turn is
// safe because every write is idempotent on its natural key.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the operation may succeed
func (e *QueryError) Retryable() bool {
	return !errors.Is(e.Err, ErrNotFound)
}

// MySQLConfig holds the MYSQL_* connection settings
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Config selects the backend. MySQL is used when MySQL.Host is set unless
// Driver says otherwise.
type Config struct {
	Driver     string
	SQLitePath string
	MySQL      MySQLConfig
	Logger     *slog.Logger
}

func (c Config) driver() string {
	if c.Driver != "" {
		return c.Driver
	}
	if c.MySQL.Host != "" {
		return DriverMySQL
	}
	return DriverSQLite
}

func (c Config) sqlitePath() string {
	if c.SQLitePath == "" {
		return filepath.Join(".data", "interviewcoach.sqlite3")
	}
	return c.SQLitePath
}

// DSN builds the data source name for the selected driver
func (c Config) DSN() (string, error) {
	switch c.driver() {
	case DriverSQLite:
		return "file:" + c.sqlitePath() + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
	case DriverMySQL:
		m := c.MySQL
		if m.Host == "" || m.User == "" || m.Password == "" || m.Database == "" {
			return "", errors.New("MYSQL_HOST is set but MYSQL_DATABASE/MYSQL_USER/MYSQL_PASSWORD are missing")
		}
		port := m.Port
		if port == 0 {
			port = 3306
		}
		cfg := mysql.NewConfig()
		cfg.User = m.User
		cfg.Passwd = m.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(m.Host, strconv.Itoa(port))
		cfg.DBName = m.Database
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		return cfg.FormatDSN(), nil
	default:
		return "", fmt.Errorf("unsupported DB driver %q", c.Driver)
	}
}

// Store is the relational persistence layer
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
	now     func() time.Time
}

// Open connects, applies the schema and returns a ready store
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	driver := cfg.driver()
	if driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.sqlitePath()), 0o755); err != nil {
			return nil, &QueryError{Op: "open", Err: err}
		}
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, &QueryError{Op: "open", Err: err}
	}

	d := dialectFor(driver)
	if driver == DriverSQLite {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	s := &Store{db: db, dialect: d, logger: logger, now: time.Now}
	if err := s.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.InfoContext(ctx, "database ready", "driver", driver)
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &QueryError{Op: "migrate", Err: err}
		}
	}
	return nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &QueryError{Op: "ping", Err: err}
	}
	return nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver names the backend in use
func (s *Store) Driver() string {
	return s.dialect.name
}

func (s *Store) timestamp() any {
	return s.dialect.timestamp(s.now())
}

// selectID runs a single-column id lookup
func (s *Store) selectID(ctx context.Context, op, query string, args ...any) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &QueryError{Op: op, Err: ErrNotFound}
	}
	if err != nil {
		return 0, &QueryError{Op: op, Err: err}
	}
	return id, nil
}
