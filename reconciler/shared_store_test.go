package reconciler

import (
	"context"
	"testing"
	"time"

	"Gin_postgres_redis_robe_tracker/db"
	"Gin_postgres_redis_robe_tracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// processLocker stands in for the redis lock shared by several instances.
type processLocker struct{ k *keyedMutex }

func (l processLocker) Lock(ctx context.Context, code string) (func(), error) {
	return l.k.Lock(code), nil
}

func newSharedRepo(t *testing.T) *db.Repo {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := db.NewRepo(gdb,
		db.WithLogger(zaptest.NewLogger(t)),
		db.WithReadyTimeout(2*time.Second),
		db.WithPollInterval(10*time.Millisecond),
	)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestInstancesWithLockerSeeEachOther(t *testing.T) {
	ctx := context.Background()
	repo := newSharedRepo(t)
	l := processLocker{k: newKeyedMutex()}
	r1 := newReconciler(t, repo, WithLocker(l))
	r2 := newReconciler(t, repo, WithLocker(l))

	require.Equal(t, KindBorrowed, r1.HandleBorrowScan(ctx, "A1").Kind)
	assert.Equal(t, KindRejectedAlreadyBorrowed, r2.HandleBorrowScan(ctx, "A1").Kind)

	o := r2.HandleReturnScan(ctx, "A1")
	require.Equal(t, KindReturned, o.Kind)
	assert.Equal(t, KindRejectedAlreadyReturned, r1.HandleReturnScan(ctx, "A1").Kind)

	require.Equal(t, KindBorrowed, r1.HandleBorrowScan(ctx, "A1").Kind)

	require.NoError(t, r1.Sync(ctx))
	require.NoError(t, r2.Sync(ctx))
	want := models.Counts{Borrowed: 1, Returned: 1}
	assert.Equal(t, want, r1.Stats())
	assert.Equal(t, want, r2.Stats())
}

func TestStaleInstanceRecoversFromOpenLoan(t *testing.T) {
	ctx := context.Background()
	repo := newSharedRepo(t)
	r1 := newReconciler(t, repo)
	r2 := newReconciler(t, repo)

	require.Equal(t, KindBorrowed, r1.HandleBorrowScan(ctx, "A1").Kind)

	// r2 的集合是旧的，存储的唯一索引拒绝后重新加载
	o := r2.HandleBorrowScan(ctx, "A1")
	assert.Equal(t, KindRejectedAlreadyBorrowed, o.Kind)
	assert.True(t, o.StopScan())
	assert.Equal(t, models.Counts{Borrowed: 1}, r2.Stats())

	assert.Equal(t, KindRejectedAlreadyBorrowed, r2.HandleBorrowScan(ctx, "A1").Kind)
	assert.Equal(t, KindReturned, r2.HandleReturnScan(ctx, "A1").Kind)
}

func TestSyncWithoutLockerKeepsSet(t *testing.T) {
	ctx := context.Background()
	repo := newSharedRepo(t)
	r1 := newReconciler(t, repo)
	r2 := newReconciler(t, repo)

	require.Equal(t, KindBorrowed, r1.HandleBorrowScan(ctx, "A1").Kind)
	require.NoError(t, r2.Sync(ctx))
	assert.Empty(t, r2.Snapshot())
}
