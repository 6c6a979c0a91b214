// Package db opens the Postgres connection pool through the pgx stdlib driver.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Pool tunes database/sql pooling. Zero fields fall back to DefaultPool.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	PingTimeout time.Duration
}

var DefaultPool = Pool{
	MaxOpen:     10,
	MaxIdle:     10,
	MaxLifetime: 30 * time.Minute,
	PingTimeout: 5 * time.Second,
}

func (p Pool) withDefaults() Pool {
	if p.MaxOpen <= 0 {
		p.MaxOpen = DefaultPool.MaxOpen
	}
	if p.MaxIdle <= 0 {
		p.MaxIdle = min(DefaultPool.MaxIdle, p.MaxOpen)
	}
	if p.MaxLifetime <= 0 {
		p.MaxLifetime = DefaultPool.MaxLifetime
	}
	if p.PingTimeout <= 0 {
		p.PingTimeout = DefaultPool.PingTimeout
	}
	return p
}

// Open connects to databaseURL and pings it before handing the pool back.
// The pool is closed if the ping fails.
func Open(ctx context.Context, databaseURL string, pool Pool) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("db.Open: empty database url")
	}
	pool = pool.withDefaults()

	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("db.Open: %w", err)
	}
	conn.SetMaxOpenConns(pool.MaxOpen)
	conn.SetMaxIdleConns(pool.MaxIdle)
	conn.SetConnMaxLifetime(pool.MaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pool.PingTimeout)
	defer cancel()

	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db.Open: ping: %w", err)
	}
	return conn, nil
}
