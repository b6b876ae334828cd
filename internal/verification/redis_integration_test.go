//go:build integration

package verification_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"membergate/internal/verification"
	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
	"membergate/pkg/platform/sentinel"
	"membergate/pkg/testutil/containers"
)

type RedisUsedStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *verification.RedisUsedStore
}

func TestRedisUsedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisUsedStoreSuite))
}

func (s *RedisUsedStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = verification.NewRedisUsedStore(s.redis.Client)
}

func (s *RedisUsedStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisUsedStoreSuite) TestMarkUsedBurnsExactlyOnce() {
	ctx := context.Background()
	codeID := uuid.NewString()

	s.Require().NoError(s.store.MarkUsed(ctx, codeID, time.Hour))
	s.ErrorIs(s.store.MarkUsed(ctx, codeID, time.Hour), sentinel.ErrAlreadyUsed)
}

// Concurrent consumers of the same code: SET NX admits exactly one.
func (s *RedisUsedStoreSuite) TestConcurrentConsumption() {
	ctx := context.Background()
	codeID := uuid.NewString()
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.MarkUsed(ctx, codeID, time.Hour); err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one consumer should win")
}

func (s *RedisUsedStoreSuite) TestKeyExpiresWithTTL() {
	ctx := context.Background()
	codeID := uuid.NewString()

	s.Require().NoError(s.store.MarkUsed(ctx, codeID, 200*time.Millisecond))
	time.Sleep(400 * time.Millisecond)

	// Key gone: the code id can be burned again. Issuer TTLs guarantee the
	// signed code itself expired before the key did.
	s.Require().NoError(s.store.MarkUsed(ctx, codeID, time.Hour))
}

// Full issue/consume path against real Redis.
func (s *RedisUsedStoreSuite) TestIssuerSingleUseAcrossInstances() {
	ctx := context.Background()
	memberID := id.NewMemberID()
	now := time.Now()

	issuerA := verification.NewIssuer("shared-key", time.Hour, s.store)
	issuerB := verification.NewIssuer("shared-key", time.Hour, s.store)

	code, err := issuerA.Issue(memberID, "shared@example.com", now)
	s.Require().NoError(err)

	s.Require().NoError(issuerA.Consume(ctx, code, memberID, "shared@example.com"))

	err = issuerB.Consume(ctx, code, memberID, "shared@example.com")
	s.Require().Error(err, "second consumption through another instance must fail")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
