package db

import (
	"context"
	"testing"
	"time"

	"Gin_postgres_redis_robe_tracker/models"
	"Gin_postgres_redis_robe_tracker/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type RepoSuite struct {
	suite.Suite
	db   *gorm.DB
	repo *Repo
	ctx  context.Context
}

func (s *RepoSuite) SetupTest() {
	var err error
	s.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	s.Require().NoError(err)
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	// :memory: 每个连接是独立的库
	sqlDB.SetMaxOpenConns(1)

	s.repo = NewRepo(s.db,
		WithLogger(zaptest.NewLogger(s.T())),
		WithReadyTimeout(2*time.Second),
		WithPollInterval(10*time.Millisecond),
	)
	s.ctx = context.Background()
}

func (s *RepoSuite) TearDownTest() {
	_ = s.repo.Close()
}

func (s *RepoSuite) TestLoadAllEmpty() {
	rs, err := s.repo.LoadAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(rs)
}

func (s *RepoSuite) TestAppendAssignsKey() {
	now := time.Now().UTC()
	rec, err := s.repo.Append(s.ctx, models.NewBorrow("A1", now))
	s.Require().NoError(err)
	s.NotEmpty(rec.Key)
	s.Equal("A1", rec.ExternalID)
	s.Equal(models.StatusBorrowed, rec.Status)
	s.Nil(rec.ReturnedAt)

	rs, err := s.repo.LoadAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rs, 1)
	s.Equal(rec.Key, rs[0].Key)
	s.WithinDuration(now, rs[0].BorrowedAt, time.Second)
}

func (s *RepoSuite) TestSecondOpenLoanRejectedByIndex() {
	_, err := s.repo.Append(s.ctx, models.NewBorrow("A1", time.Now().UTC()))
	s.Require().NoError(err)

	_, err = s.repo.Append(s.ctx, models.NewBorrow("A1", time.Now().UTC()))
	s.Require().Error(err)
	s.ErrorIs(err, store.ErrOpenLoanExists)
}

func (s *RepoSuite) TestUpdateStatusThenReborrow() {
	rec, err := s.repo.Append(s.ctx, models.NewBorrow("A1", time.Now().UTC()))
	s.Require().NoError(err)

	at := time.Now().UTC()
	s.Require().NoError(s.repo.UpdateStatus(s.ctx, rec.Key, models.StatusReturned, &at))

	// 归还后可再次借出
	again, err := s.repo.Append(s.ctx, models.NewBorrow("A1", time.Now().UTC()))
	s.Require().NoError(err)
	s.NotEqual(rec.Key, again.Key)

	rs, err := s.repo.LoadAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rs, 2)
	s.Equal(models.StatusReturned, rs[0].Status)
	s.Require().NotNil(rs[0].ReturnedAt)
	s.True(rs[0].Consistent())
	s.Equal(models.StatusBorrowed, rs[1].Status)
}

func (s *RepoSuite) TestUpdateStatusUnknownKey() {
	at := time.Now().UTC()
	err := s.repo.UpdateStatus(s.ctx, "00000000-0000-0000-0000-000000000000", models.StatusReturned, &at)
	s.ErrorIs(err, store.ErrRecordNotFound)
}

func TestRepoSuite(t *testing.T) {
	suite.Run(t, new(RepoSuite))
}

func TestReadyTimesOutWhenClosed(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	repo := NewRepo(gdb, WithReadyTimeout(50*time.Millisecond), WithPollInterval(10*time.Millisecond))
	defer repo.stopOnce.Do(func() { close(repo.stop) })

	_, err = repo.LoadAll(context.Background())
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
}

func TestReadyHonoursContext(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	repo := NewRepo(gdb, WithReadyTimeout(time.Minute), WithPollInterval(10*time.Millisecond))
	defer repo.stopOnce.Do(func() { close(repo.stop) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = repo.Ready(ctx)
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
}
