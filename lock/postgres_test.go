package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real database: CHECKIN_TEST_DATABASE_URL=postgres://... go test ./lock
func connect(t *testing.T) *Postgres {
	dsn := os.Getenv("CHECKIN_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CHECKIN_TEST_DATABASE_URL not set")
	}

	p, err := Connect(context.Background(), dsn)
	require.NoError(t, err)

	t.Cleanup(p.Close)

	return p
}

func TestPostgresLock(t *testing.T) {
	p := connect(t)
	q := connect(t)

	unlock, err := p.Lock(context.Background(), "checkin-test")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	_, err = q.Lock(ctx, "checkin-test")
	assert.Error(t, err)

	unlock()

	again, err := q.Lock(context.Background(), "checkin-test")
	require.NoError(t, err)
	again()
}
