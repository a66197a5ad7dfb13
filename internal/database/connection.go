// Package database connects to the supported SQL backends and reads table
// data from them in consistent snapshots.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Options configures the connection pool of a backend.
type Options struct {
	MaxConns int
	MinConns int
	// AcquireTimeout bounds how long a snapshot waits for a pooled
	// connection. Only applied to networked backends.
	AcquireTimeout time.Duration
	// BusyTimeout is the SQLite busy timeout in milliseconds.
	BusyTimeout int
	Logger      *slog.Logger
}

// DefaultOptions returns sensible defaults for opening a backend.
func DefaultOptions() Options {
	return Options{
		MaxConns:       5,
		MinConns:       1,
		AcquireTimeout: time.Second,
		BusyTimeout:    5000, // 5 seconds
	}
}

// ServerParams are the connection parameters of a networked backend.
type ServerParams struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

func (p ServerParams) addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

const dialTimeout = 10 * time.Second

// OpenSQLite opens a SQLite file read-only. file comes from ResolveSQLiteFile.
func OpenSQLite(ctx context.Context, file DataFile, opts Options) (*Backend, error) {
	db, err := sql.Open("sqlite", sqliteDSN(file.Path, opts.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxConns)
	db.SetMaxIdleConns(opts.MaxConns)
	db.SetConnMaxLifetime(0) // Don't close idle connections

	// Local files never wait on a remote pool.
	opts.AcquireTimeout = 0
	return finishOpen(ctx, KindSQLite, db, nil, opts, file.Path)
}

// sqliteDSN builds a read-only URI filename. The path is escaped so that
// '?', '#' and '%' in file names cannot end the path early.
func sqliteDSN(path string, busyTimeout int) string {
	u := url.URL{Path: path}
	return fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(%d)", u.EscapedPath(), busyTimeout)
}

// OpenMySQL connects to a MySQL or MariaDB server.
func OpenMySQL(ctx context.Context, params ServerParams, opts Options) (*Backend, error) {
	cfg := mysql.NewConfig()
	cfg.User = params.User
	cfg.Passwd = params.Password
	cfg.Net = "tcp"
	cfg.Addr = params.addr()
	cfg.DBName = params.Database
	cfg.ParseTime = true
	cfg.Timeout = dialTimeout

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure mysql connection: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(opts.MaxConns)
	db.SetMaxIdleConns(opts.MaxConns)
	db.SetConnMaxLifetime(time.Hour)

	return finishOpen(ctx, KindMySQL, db, nil, opts, cfg.Addr+"/"+params.Database)
}

// OpenPostgres connects to a PostgreSQL server through a pgx pool.
func OpenPostgres(ctx context.Context, params ServerParams, opts Options) (*Backend, error) {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(params.User, params.Password),
		Host:   params.addr(),
		Path:   "/" + params.Database,
	}

	poolConfig, err := pgxpool.ParseConfig(u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	poolConfig.MaxConns = int32(opts.MaxConns)
	poolConfig.MinConns = int32(opts.MinConns)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.ConnConfig.ConnectTimeout = dialTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// pgxpool keeps the idle connections, database/sql only borrows them.
	db := stdlib.OpenDBFromPool(pool)
	opts.MinConns = 0
	return finishOpen(ctx, KindPostgres, db, pool.Close, opts, params.addr()+"/"+params.Database)
}

func finishOpen(ctx context.Context, kind Kind, db *sql.DB, closeFn func(), opts Options, target string) (*Backend, error) {
	b := newBackend(kind, db, opts)
	b.closeFn = closeFn

	if err := db.PingContext(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := warmPool(ctx, db, opts.MinConns); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to open minimum connections: %w", err)
	}

	b.logger.Info("connected", "backend", kind.String(), "target", target,
		"max_conns", opts.MaxConns, "min_conns", opts.MinConns)
	return b, nil
}

// warmPool opens n connections and returns them to the idle pool, so that
// the first refreshes do not pay for connection setup.
func warmPool(ctx context.Context, db *sql.DB, n int) error {
	conns := make([]*sql.Conn, 0, n)
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()

	for i := 0; i < n; i++ {
		c, err := db.Conn(ctx)
		if err != nil {
			return err
		}
		conns = append(conns, c)
	}
	return nil
}
