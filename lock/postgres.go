package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Postgres is a Locker backed by PostgreSQL session advisory locks, for deployments running more
// than one instance against the same worksheet. Each held lock pins a pooled connection until it
// is released.
type Postgres struct {
	pool *pgxpool.Pool
}

const (
	lockSQL   = "SELECT pg_advisory_lock(hashtext($1))"
	unlockSQL = "SELECT pg_advisory_unlock(hashtext($1))"
)

func Connect(ctx context.Context, dsn string) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("error creating lock database pool (%w)", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error connecting to lock database (%w)", err)
	}

	return &Postgres{
		pool: pool,
	}, nil
}

func (p *Postgres) Lock(ctx context.Context, key string) (func(), error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("error acquiring lock connection (%w)", err)
	}

	if _, err := conn.Exec(ctx, lockSQL, key); err != nil {
		conn.Release()
		return nil, fmt.Errorf("error locking '%v' (%w)", key, err)
	}

	var once sync.Once

	unlock := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := conn.Exec(ctx, unlockSQL, key); err != nil {
			// closing the session is the only other way to release a session lock
			log.Warnf("error unlocking '%v' (%v)", key, err)
			if err := conn.Hijack().Close(ctx); err != nil {
				log.Warnf("error closing lock connection (%v)", err)
			}
			return
		}

		conn.Release()
	}

	return func() { once.Do(unlock) }, nil
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
