//go:build integration

package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"veris/internal/ledger"
	"veris/pkg/testutil/containers"
)

type RedisSourceSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisSourceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisSourceSuite))
}

func (s *RedisSourceSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisSourceSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisSourceSuite) TestStartsAtZero() {
	source := ledger.NewRedisSource(s.redis.Client)

	current, err := source.Current(context.Background())
	s.Require().NoError(err)
	s.Equal(uint64(0), current)
}

func (s *RedisSourceSuite) TestNextAdvances() {
	ctx := context.Background()
	source := ledger.NewRedisSource(s.redis.Client)

	first, err := source.Next(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), first)

	second, err := source.Next(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(2), second)

	current, err := source.Current(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(2), current)
}

func (s *RedisSourceSuite) TestSharedSourcesObserveOneClock() {
	ctx := context.Background()
	a := ledger.NewRedisSource(s.redis.Client)
	b := ledger.NewRedisSource(s.redis.Client)

	_, err := a.Next(ctx)
	s.Require().NoError(err)

	current, err := b.Current(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), current)
}

func (s *RedisSourceSuite) TestConcurrentNextIsMonotonic() {
	ctx := context.Background()
	source := ledger.NewRedisSource(s.redis.Client)

	const goroutines = 50
	heights := make(chan uint64, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := source.Next(ctx)
			if err == nil {
				heights <- h
			}
		}()
	}
	wg.Wait()
	close(heights)

	seen := make(map[uint64]bool)
	for h := range heights {
		s.False(seen[h], "height %d issued twice", h)
		seen[h] = true
	}
	s.Len(seen, goroutines)
}

func (s *RedisSourceSuite) TestCustomKey() {
	ctx := context.Background()
	source := ledger.NewRedisSource(s.redis.Client, ledger.WithHeightKey("other:clock"))

	_, err := source.Next(ctx)
	s.Require().NoError(err)

	shared := ledger.NewRedisSource(s.redis.Client)
	current, err := shared.Current(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(0), current, "default key clock must be untouched")
}
