package handler_test

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"membergate/internal/customer/handler"
	"membergate/internal/customer/models"
	"membergate/internal/customer/service"
	"membergate/internal/customer/store"
	id "membergate/pkg/domain"
	"membergate/pkg/testutil"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	svc := service.NewService(store.NewInMemory())
	r := chi.NewRouter()
	handler.New(svc, slog.New(slog.DiscardHandler)).Register(r)
	return r
}

func createBody(email string) handler.CreateRequest {
	return handler.CreateRequest{
		Email:     email,
		FirstName: "Jane",
		LastName:  "Smith",
	}
}

func createCustomer(t *testing.T, r chi.Router, email string) *models.Customer {
	t.Helper()
	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/customers", createBody(email)))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return testutil.UnmarshalResponse[models.Customer](t, rr)
}

func TestCreateEndpoint(t *testing.T) {
	r := newTestRouter(t)

	t.Run("creates customer with defaults", func(t *testing.T) {
		customer := createCustomer(t, r, "jane@example.com")
		assert.Equal(t, "Standard", customer.Segment.String())
		assert.Equal(t, "Active", customer.Status.String())
		assert.NotNil(t, customer.Preferences)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/customers", createBody("jane@example.com")))
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})

	t.Run("unknown segment is rejected", func(t *testing.T) {
		body := createBody("seg@example.com")
		body.Segment = "Platinum"
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/customers", body))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("missing last name is a validation error", func(t *testing.T) {
		body := createBody("name@example.com")
		body.LastName = ""
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/customers", body))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
	})

	t.Run("garbage body is a bad request", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodPost, "/customers"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func TestGetEndpoint(t *testing.T) {
	r := newTestRouter(t)
	customer := createCustomer(t, r, "get@example.com")

	t.Run("returns the customer", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/customers/"+customer.ID.String()))
		testutil.AssertStatus(t, rr, http.StatusOK)
		got := testutil.UnmarshalResponse[models.Customer](t, rr)
		assert.Equal(t, customer.ID, got.ID)
		assert.Equal(t, "Jane Smith", got.FullName())
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/customers/26e8f4f2-6a85-4b52-9b0f-1f9d3e8a6d31"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("malformed id is rejected", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/customers/not-a-uuid"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}

func TestUpdateEndpoint(t *testing.T) {
	r := newTestRouter(t)
	customer := createCustomer(t, r, "update@example.com")

	t.Run("overwrites the profile", func(t *testing.T) {
		body := handler.UpdateRequest{
			Email:     "update@example.com",
			FirstName: "Jane",
			LastName:  "Smith-Jones",
			Address:   &models.Address{City: "Berlin", Country: "Germany"},
			Tags:      []string{"vip"},
		}
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPut, "/customers/"+customer.ID.String(), body))
		testutil.AssertStatus(t, rr, http.StatusOK)

		got := testutil.UnmarshalResponse[models.Customer](t, rr)
		assert.Equal(t, "Smith-Jones", got.LastName)
		if assert.NotNil(t, got.Address) {
			assert.Equal(t, "Berlin", got.Address.City)
		}
		assert.Equal(t, []string{"vip"}, got.Tags)
	})

	t.Run("missing email is a validation error", func(t *testing.T) {
		body := handler.UpdateRequest{FirstName: "Jane", LastName: "Smith"}
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPut, "/customers/"+customer.ID.String(), body))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
	})
}

func TestUpdateStatusEndpoint(t *testing.T) {
	r := newTestRouter(t)
	customer := createCustomer(t, r, "status@example.com")

	t.Run("suspends the account", func(t *testing.T) {
		body := handler.UpdateStatusRequest{Status: "Suspended"}
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPut, "/customers/"+customer.ID.String()+"/status", body))
		testutil.AssertStatus(t, rr, http.StatusOK)
		got := testutil.UnmarshalResponse[models.Customer](t, rr)
		assert.Equal(t, "Suspended", got.Status.String())
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		body := handler.UpdateStatusRequest{Status: "Frozen"}
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPut, "/customers/"+customer.ID.String()+"/status", body))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}

func TestUpdatePreferencesEndpoint(t *testing.T) {
	r := newTestRouter(t)
	customer := createCustomer(t, r, "prefs@example.com")

	body := models.Preferences{
		CommunicationChannels: []id.CommunicationChannel{id.ChannelEmail, id.ChannelSms},
		Language:              "da-DK",
		Timezone:              "Europe/Copenhagen",
		MarketingOptIn:        true,
	}
	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPut, "/customers/"+customer.ID.String()+"/preferences", body))
	testutil.AssertStatus(t, rr, http.StatusOK)

	got := testutil.UnmarshalResponse[models.Customer](t, rr)
	assert.Equal(t, "da-DK", got.Preferences.Language)
	assert.True(t, got.Preferences.MarketingOptIn)
	assert.Len(t, got.Preferences.CommunicationChannels, 2)
}

func TestDeleteEndpoint(t *testing.T) {
	r := newTestRouter(t)
	customer := createCustomer(t, r, "delete@example.com")

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodDelete, "/customers/"+customer.ID.String()))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/customers/"+customer.ID.String()))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestListEndpoint(t *testing.T) {
	r := newTestRouter(t)
	for _, addr := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		createCustomer(t, r, addr)
	}

	t.Run("returns a page with the total", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/customers?offset=0&limit=2"))
		testutil.AssertStatus(t, rr, http.StatusOK)
		got := testutil.UnmarshalResponse[handler.ListResponse](t, rr)
		assert.Equal(t, 3, got.Total)
		assert.Len(t, got.Customers, 2)
		assert.Equal(t, 2, got.Limit)
	})

	t.Run("defaults apply without query params", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/customers"))
		testutil.AssertStatus(t, rr, http.StatusOK)
		got := testutil.UnmarshalResponse[handler.ListResponse](t, rr)
		assert.Equal(t, 20, got.Limit)
		assert.Len(t, got.Customers, 3)
	})

	t.Run("non-numeric paging is rejected", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/customers?limit=lots"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}
