package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membergate/internal/audit"
	"membergate/internal/audit/store/memory"
	id "membergate/pkg/domain"
	"membergate/pkg/requestcontext"
)

func TestEmit_FillsRequestMetadata(t *testing.T) {
	store := memory.New()
	pub := audit.NewPublisher(store)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.9", "test-agent/1.0")

	memberID := id.NewMemberID()
	require.NoError(t, pub.Emit(ctx, audit.Entry{
		MemberID: memberID,
		Action:   audit.ActionProfileView,
		Details:  "Profile viewed",
	}))

	entries, err := pub.ListByMember(ctx, memberID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, now, e.Timestamp)
	assert.Equal(t, "203.0.113.9", e.IPAddress)
	assert.Equal(t, "test-agent/1.0", e.UserAgent)
	assert.Equal(t, audit.ActionProfileView, e.Action)
}

func TestEmit_KeepsExplicitFields(t *testing.T) {
	store := memory.New()
	pub := audit.NewPublisher(store)

	explicitID := uuid.New()
	at := time.Date(2025, 12, 24, 8, 30, 0, 0, time.UTC)
	memberID := id.NewMemberID()

	ctx := requestcontext.WithClientMetadata(context.Background(), "198.51.100.1", "other")
	require.NoError(t, pub.Emit(ctx, audit.Entry{
		ID:        explicitID,
		MemberID:  memberID,
		Action:    audit.ActionConsentUpdate,
		IPAddress: "192.0.2.55",
		UserAgent: "cli/2.0",
		Timestamp: at,
	}))

	entries, err := pub.ListByMember(ctx, memberID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, explicitID, entries[0].ID)
	assert.Equal(t, "192.0.2.55", entries[0].IPAddress)
	assert.Equal(t, "cli/2.0", entries[0].UserAgent)
	assert.Equal(t, at, entries[0].Timestamp)
}

func TestListByMember_FiltersOtherMembers(t *testing.T) {
	store := memory.New()
	pub := audit.NewPublisher(store)
	ctx := context.Background()

	alice := id.NewMemberID()
	bob := id.NewMemberID()
	require.NoError(t, pub.Emit(ctx, audit.Entry{MemberID: alice, Action: audit.ActionRegistration}))
	require.NoError(t, pub.Emit(ctx, audit.Entry{MemberID: bob, Action: audit.ActionRegistration}))
	require.NoError(t, pub.Emit(ctx, audit.Entry{MemberID: alice, Action: audit.ActionProfileUpdate}))

	entries, err := pub.ListByMember(ctx, alice)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionRegistration, entries[0].Action)
	assert.Equal(t, audit.ActionProfileUpdate, entries[1].Action)
}
