package service

import (
	"context"
	"sync"
	"time"

	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
)

// StoreTx is the transactional boundary for member orchestration. The
// Postgres implementation wraps a database transaction carried in the
// context; the in-memory one serializes writers per member with sharded
// locks.
type StoreTx interface {
	RunInTx(ctx context.Context, memberID id.MemberID, fn func(ctx context.Context) error) error
}

// Sharding keeps writers for different members independent while writers
// for the same member serialize, which is what closes the read-modify-write
// race on a single member row.
const numTxShards = 128

const defaultTxTimeout = 5 * time.Second

// ShardedTx is the in-memory StoreTx for tests and dev mode.
type ShardedTx struct {
	shards  [numTxShards]sync.Mutex
	timeout time.Duration
}

func NewShardedTx() *ShardedTx {
	return &ShardedTx{}
}

func (t *ShardedTx) RunInTx(ctx context.Context, memberID id.MemberID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := hashMemberID(memberID.String()) % numTxShards
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

// hashMemberID is FNV-1a, chosen for its distribution over uuid strings.
func hashMemberID(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
