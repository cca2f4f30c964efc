//go:build integration

package directory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"beacon/internal/collaborators/directory"
	id "beacon/pkg/domain"
	"beacon/pkg/platform/sentinel"
	"beacon/pkg/testutil/containers"
)

type countingDirectory struct {
	*directory.InMemory
	lookups int
}

func (c *countingDirectory) DisplayName(ctx context.Context, userID id.UserID) (string, error) {
	c.lookups++
	return c.InMemory.DisplayName(ctx, userID)
}

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestDisplayNameReadThrough() {
	ctx := context.Background()
	source := &countingDirectory{InMemory: directory.NewInMemory()}
	alice := id.UserID(uuid.New())
	source.AddUser(alice, "Alice")
	cache := directory.NewRedisCache(source, s.redis.Client, directory.WithCacheTTL(time.Minute))

	name, err := cache.DisplayName(ctx, alice)
	s.Require().NoError(err)
	s.Equal("Alice", name)

	name, err = cache.DisplayName(ctx, alice)
	s.Require().NoError(err)
	s.Equal("Alice", name)
	s.Equal(1, source.lookups, "second lookup should be served from redis")
}

func (s *RedisCacheSuite) TestUnknownUserIsNotCached() {
	ctx := context.Background()
	source := &countingDirectory{InMemory: directory.NewInMemory()}
	cache := directory.NewRedisCache(source, s.redis.Client)
	ghost := id.UserID(uuid.New())

	_, err := cache.DisplayName(ctx, ghost)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	_, err = cache.DisplayName(ctx, ghost)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	s.Equal(2, source.lookups)
}

func (s *RedisCacheSuite) TestExistenceChecksBypassCache() {
	ctx := context.Background()
	source := directory.NewInMemory()
	cache := directory.NewRedisCache(source, s.redis.Client)
	bob := id.UserID(uuid.New())

	ok, err := cache.UserExists(ctx, bob)
	s.Require().NoError(err)
	s.False(ok)

	source.AddUser(bob, "Bob")
	ok, err = cache.UserExists(ctx, bob)
	s.Require().NoError(err)
	s.True(ok)
}
