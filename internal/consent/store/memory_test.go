package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"membergate/internal/consent/models"
	id "membergate/pkg/domain"
	"membergate/pkg/platform/sentinel"
)

type ConsentStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *ConsentStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestConsentStoreSuite(t *testing.T) {
	suite.Run(t, new(ConsentStoreSuite))
}

func (s *ConsentStoreSuite) newGranted(memberID id.MemberID, ctype id.ConsentType, at time.Time) *models.Consent {
	c := models.New(memberID, ctype, at)
	c.Grant("purpose", "Web", "text", "ip", "ua",
		id.LegalBasisConsent, id.DataCategoryPersonal, at)
	return c
}

func (s *ConsentStoreSuite) TestSaveAndFind() {
	memberID := id.NewMemberID()
	c := s.newGranted(memberID, id.ConsentTypeDataProcessing, time.Now())
	s.Require().NoError(s.store.Save(s.ctx, c))

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.Type, found.Type)
	s.True(found.Granted)

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.FindByID(s.ctx, id.NewConsentID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate id", func() {
		s.Require().ErrorIs(s.store.Save(s.ctx, c), sentinel.ErrAlreadyUsed)
	})
}

func (s *ConsentStoreSuite) TestListByMember_OrdersMostRecentFirst() {
	memberID := id.NewMemberID()
	base := time.Now()
	older := s.newGranted(memberID, id.ConsentTypeDataProcessing, base.Add(-time.Hour))
	newer := s.newGranted(memberID, id.ConsentTypeMarketing, base)
	s.Require().NoError(s.store.Save(s.ctx, older))
	s.Require().NoError(s.store.Save(s.ctx, newer))

	// Another member's history must not bleed in.
	other := s.newGranted(id.NewMemberID(), id.ConsentTypeCookies, base)
	s.Require().NoError(s.store.Save(s.ctx, other))

	history, err := s.store.ListByMember(s.ctx, memberID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(id.ConsentTypeMarketing, history[0].Type)
	s.Equal(id.ConsentTypeDataProcessing, history[1].Type)
}

func (s *ConsentStoreSuite) TestUpdate() {
	memberID := id.NewMemberID()
	c := s.newGranted(memberID, id.ConsentTypeAnalytics, time.Now())
	s.Require().NoError(s.store.Save(s.ctx, c))

	c.Withdraw("opt out", time.Now())
	s.Require().NoError(s.store.Update(s.ctx, c))

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.False(found.Granted)
	s.Equal("opt out", found.WithdrawnReason)

	s.Run("returns ErrNotFound for unknown record", func() {
		ghost := s.newGranted(memberID, id.ConsentTypeCookies, time.Now())
		s.Require().ErrorIs(s.store.Update(s.ctx, ghost), sentinel.ErrNotFound)
	})
}

func (s *ConsentStoreSuite) TestDeleteByMember() {
	memberID := id.NewMemberID()
	s.Require().NoError(s.store.Save(s.ctx, s.newGranted(memberID, id.ConsentTypeDataProcessing, time.Now())))
	s.Require().NoError(s.store.Save(s.ctx, s.newGranted(memberID, id.ConsentTypeMarketing, time.Now())))

	s.Require().NoError(s.store.DeleteByMember(s.ctx, memberID))

	history, err := s.store.ListByMember(s.ctx, memberID)
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *ConsentStoreSuite) TestStoreReturnsCopies() {
	memberID := id.NewMemberID()
	c := s.newGranted(memberID, id.ConsentTypeDataProcessing, time.Now())
	s.Require().NoError(s.store.Save(s.ctx, c))

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	found.Withdraw("mutation through copy", time.Now())

	again, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.True(again.Granted, "store contents must not change through returned copies")
}
