package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	a := NewLock(client, nil, "migrations", time.Minute)
	b := NewLock(client, nil, "migrations", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	// b does not own the lock, so its release is a no-op
	require.NoError(t, b.Release(ctx))
	assert.True(t, mr.Exists("lock:migrations"))

	require.NoError(t, a.Release(ctx))
	assert.False(t, mr.Exists("lock:migrations"))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_Expires(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	ok, err := NewRedisLock(client, "k", time.Second).Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	ok, err = NewRedisLock(client, "k", time.Second).Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPGAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	lock := NewLock(nil, db, "migrations", time.Minute)
	id := lock.(*PGAdvisoryLock).lockID

	mock.ExpectQuery(`SELECT pg_try_advisory_lock\(\$1\)`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectExec(`SELECT pg_advisory_unlock\(\$1\)`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = lock.Acquire(ctx)
	assert.Error(t, err, "re-entrant acquire is refused")

	require.NoError(t, lock.Release(ctx))
	require.NoError(t, lock.Release(ctx), "second release is a no-op")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGAdvisoryLock_Busy(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`pg_try_advisory_lock`).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	ok, err := NewPGAdvisoryLock(db, "migrations").Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockIDDeterministic(t *testing.T) {
	assert.Equal(t, NewPGAdvisoryLock(nil, "a").lockID, NewPGAdvisoryLock(nil, "a").lockID)
	assert.NotEqual(t, NewPGAdvisoryLock(nil, "a").lockID, NewPGAdvisoryLock(nil, "b").lockID)
}
