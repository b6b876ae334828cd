package main

import (
	"context"
	"database/sql"
	"time"

	memberservice "membergate/internal/member/service"
	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
	txcontext "membergate/pkg/platform/tx"
)

const defaultMemberTxTimeout = 5 * time.Second

// memberPostgresTx runs member orchestration inside one database transaction.
// The transaction rides the context so every store touched by fn joins it.
// Row-level locking makes the member id irrelevant here; it only matters to
// the in-memory sharded implementation.
type memberPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

var _ memberservice.StoreTx = (*memberPostgresTx)(nil)

func newMemberPostgresTx(db *sql.DB) *memberPostgresTx {
	return &memberPostgresTx{db: db}
}

func (t *memberPostgresTx) RunInTx(ctx context.Context, _ id.MemberID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultMemberTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	return tx.Commit()
}
