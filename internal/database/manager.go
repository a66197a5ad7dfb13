package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Backend owns the connection pool of exactly one database and hands out
// snapshots for reading from it.
type Backend struct {
	kind           Kind
	db             *sql.DB
	d              *dialect
	acquireTimeout time.Duration
	closeFn        func()
	logger         *slog.Logger
	closeOnce      sync.Once
}

func newBackend(kind Kind, db *sql.DB, opts Options) *Backend {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{
		kind:           kind,
		db:             db,
		d:              dialectFor(kind),
		acquireTimeout: opts.AcquireTimeout,
		logger:         logger,
	}
}

// Kind returns the backend family.
func (b *Backend) Kind() Kind {
	return b.kind
}

// Begin acquires a pooled connection and starts a transaction on it.
// The caller must Close the snapshot.
func (b *Backend) Begin(ctx context.Context) (*Snapshot, error) {
	conn, err := b.acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	tx, err := conn.BeginTx(ctx, &sql.TxOptions{Isolation: b.d.isolation, ReadOnly: b.d.readOnlyTx})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &Snapshot{conn: conn, tx: tx, d: b.d}, nil
}

func (b *Backend) acquire(ctx context.Context) (*sql.Conn, error) {
	if b.acquireTimeout <= 0 {
		return b.db.Conn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, b.acquireTimeout)
	defer cancel()
	return b.db.Conn(actx)
}

// Close closes the pool. It is safe to call more than once.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = b.db.Close()
		if b.closeFn != nil {
			b.closeFn()
		}
		b.logger.Info("disconnected", "backend", b.kind.String())
	})
	return err
}
