//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"membergate/internal/customer/models"
	"membergate/internal/customer/store"
	id "membergate/pkg/domain"
	"membergate/pkg/platform/sentinel"
	"membergate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "customers")
	s.Require().NoError(err)
}

func newTestCustomer(email string, at time.Time) *models.Customer {
	return models.New(email, "Jane", "Smith", at)
}

func (s *PostgresStoreSuite) TestJSONBRoundTrip() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	c := newTestCustomer("jsonb@example.com", now)
	c.PhoneNumber = "+4512345678"
	c.Address = &models.Address{
		Street: "Main St 1", City: "Aarhus", PostalCode: "8000", Country: "Denmark",
	}
	c.Preferences = &models.Preferences{
		CommunicationChannels: []id.CommunicationChannel{id.ChannelEmail, id.ChannelSms},
		Language:              "da-DK",
		Timezone:              "Europe/Copenhagen",
		MarketingOptIn:        true,
		NotificationPreferences: models.NotificationPreferences{
			Email: true, SMS: true,
		},
	}
	c.Tags = []string{"vip", "beta"}
	s.Require().NoError(s.store.Create(ctx, c))

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("+4512345678", found.PhoneNumber)
	s.Require().NotNil(found.Address)
	s.Equal("Aarhus", found.Address.City)
	s.Require().NotNil(found.Preferences)
	s.Equal("da-DK", found.Preferences.Language)
	s.Len(found.Preferences.CommunicationChannels, 2)
	s.True(found.Preferences.NotificationPreferences.SMS)
	s.Equal([]string{"vip", "beta"}, found.Tags)
}

func (s *PostgresStoreSuite) TestEmailUniqueness() {
	ctx := context.Background()
	now := time.Now().UTC()

	s.Require().NoError(s.store.Create(ctx, newTestCustomer("unique@example.com", now)))
	err := s.store.Create(ctx, newTestCustomer("UNIQUE@example.com", now))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdate() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	c := newTestCustomer("update@example.com", now)
	s.Require().NoError(s.store.Create(ctx, c))

	c.LastName = "Smith-Jones"
	c.Address = &models.Address{City: "Berlin"}
	c.UpdatedAt = now.Add(time.Hour)
	s.Require().NoError(s.store.Update(ctx, c))

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("Smith-Jones", found.LastName)
	s.Require().NotNil(found.Address)
	s.Equal("Berlin", found.Address.City)

	ghost := newTestCustomer("ghost@example.com", now)
	s.ErrorIs(s.store.Update(ctx, ghost), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	c := newTestCustomer("delete@example.com", time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, c))
	s.Require().NoError(s.store.Delete(ctx, c.ID))

	_, err := s.store.FindByID(ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(ctx, c.ID), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListPagination() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	emails := []string{"a@example.com", "b@example.com", "c@example.com"}
	for i, addr := range emails {
		s.Require().NoError(s.store.Create(ctx, newTestCustomer(addr, base.Add(time.Duration(i)*time.Minute))))
	}

	page, total, err := s.store.List(ctx, 0, 2)
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(page, 2)
	s.Equal("c@example.com", page[0].Email, "newest first")

	rest, total, err := s.store.List(ctx, 2, 2)
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(rest, 1)
	s.Equal("a@example.com", rest[0].Email)
}
