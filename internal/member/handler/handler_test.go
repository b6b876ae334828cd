package handler_test

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membergate/internal/audit"
	auditmemory "membergate/internal/audit/store/memory"
	consentservice "membergate/internal/consent/service"
	consentstore "membergate/internal/consent/store"
	"membergate/internal/member/handler"
	"membergate/internal/member/service"
	memberstore "membergate/internal/member/store"
	"membergate/internal/verification"
	"membergate/pkg/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	verifier := verification.NewIssuer("test-key", time.Hour, verification.NewMemoryUsedStore())
	svc := service.NewService(
		memberstore.NewInMemory(),
		consentservice.NewService(consentstore.NewInMemory()),
		audit.NewPublisher(auditmemory.New()),
		verifier,
		service.NewShardedTx(),
	)

	r := chi.NewRouter()
	handler.New(svc, testLogger()).Register(r)
	return r
}

func registerBody(email string) handler.RegisterRequest {
	dob := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	return handler.RegisterRequest{
		FirstName:                "John",
		LastName:                 "Doe",
		Email:                    email,
		DateOfBirth:              &dob,
		HasDataProcessingConsent: true,
	}
}

func registerMember(t *testing.T, r chi.Router, email string) *handler.MemberResponse {
	t.Helper()
	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/members/register", registerBody(email)))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return testutil.UnmarshalResponse[handler.MemberResponse](t, rr)
}

func TestRegisterEndpoint(t *testing.T) {
	r := newTestRouter(t)

	t.Run("creates member with minor flag", func(t *testing.T) {
		member := registerMember(t, r, "john@x.com")
		assert.True(t, member.IsMinor)
		assert.Equal(t, "John Doe", member.FullName)
		assert.Equal(t, "john@x.com", member.Email)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/members/register", registerBody("john@x.com")))
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})

	t.Run("missing data-processing consent is forbidden", func(t *testing.T) {
		body := registerBody("second@x.com")
		body.HasDataProcessingConsent = false
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/members/register", body))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "compliance")
	})

	t.Run("malformed email is a validation error", func(t *testing.T) {
		body := registerBody("not-an-email")
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/members/register", body))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
	})

	t.Run("garbage body is a bad request", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodPost, "/members/register")
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func TestGetEndpoint(t *testing.T) {
	r := newTestRouter(t)
	member := registerMember(t, r, "get@x.com")

	t.Run("returns the member", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/members/"+member.ID))
		testutil.AssertStatus(t, rr, http.StatusOK)
		got := testutil.UnmarshalResponse[handler.MemberResponse](t, rr)
		assert.Equal(t, member.ID, got.ID)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/members/7b69bdab-96f7-4de8-92a7-ec4df2a0cb33"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("malformed id is rejected", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/members/not-a-uuid"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}

func TestUpdateProfileEndpoint(t *testing.T) {
	r := newTestRouter(t)
	member := registerMember(t, r, "update@x.com")

	body := handler.UpdateProfileRequest{
		FirstName: "John",
		LastName:  "Doe",
		Email:     "update@x.com",
		City:      "Aalborg",
	}
	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPut, "/members/"+member.ID, body))
	testutil.AssertStatus(t, rr, http.StatusOK)
	got := testutil.UnmarshalResponse[handler.MemberResponse](t, rr)
	assert.Equal(t, "Aalborg", got.City)
	assert.False(t, got.IsMinor, "clearing the birth date clears the minor flag")

	t.Run("empty first name is a validation error", func(t *testing.T) {
		body := handler.UpdateProfileRequest{LastName: "Doe", Email: "update@x.com"}
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPut, "/members/"+member.ID, body))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
	})
}

func TestDeleteEndpoint(t *testing.T) {
	r := newTestRouter(t)

	t.Run("anonymize keeps the record", func(t *testing.T) {
		member := registerMember(t, r, "anon@x.com")
		body := handler.DeleteRequest{IsHardDelete: false, Reason: "GDPR request"}
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodDelete, "/members/"+member.ID, body))
		testutil.AssertStatus(t, rr, http.StatusOK)

		rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/members/"+member.ID))
		got := testutil.UnmarshalResponse[handler.MemberResponse](t, rr)
		assert.Equal(t, "Anonymous", got.FirstName)
		assert.False(t, got.IsActive)
	})

	t.Run("hard delete removes the record", func(t *testing.T) {
		member := registerMember(t, r, "hard@x.com")
		body := handler.DeleteRequest{IsHardDelete: true, Reason: "User request"}
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodDelete, "/members/"+member.ID, body))
		testutil.AssertStatus(t, rr, http.StatusOK)

		rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/members/"+member.ID))
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("missing reason is a validation error", func(t *testing.T) {
		member := registerMember(t, r, "noreason@x.com")
		body := handler.DeleteRequest{IsHardDelete: true}
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodDelete, "/members/"+member.ID, body))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
	})
}

func TestEmailVerificationEndpoints(t *testing.T) {
	r := newTestRouter(t)
	member := registerMember(t, r, "verify@x.com")

	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/members/"+member.ID+"/request-verification", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	issued := testutil.UnmarshalResponse[handler.VerificationCodeResponse](t, rr)
	require.NotEmpty(t, issued.VerificationCode)

	t.Run("wrong code is rejected", func(t *testing.T) {
		body := handler.VerifyEmailRequest{VerificationCode: "wrong"}
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/members/"+member.ID+"/verify-email", body))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
	})

	t.Run("valid code verifies the email", func(t *testing.T) {
		body := handler.VerifyEmailRequest{VerificationCode: issued.VerificationCode}
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/members/"+member.ID+"/verify-email", body))
		testutil.AssertStatus(t, rr, http.StatusOK)

		rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/members/"+member.ID))
		got := testutil.UnmarshalResponse[handler.MemberResponse](t, rr)
		assert.True(t, got.IsEmailVerified)
	})
}

func TestConsentEndpoints(t *testing.T) {
	r := newTestRouter(t)
	member := registerMember(t, r, "consent@x.com")

	body := handler.UpdateConsentRequest{
		HasMarketingConsent:    true,
		HasNotificationConsent: true,
	}
	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPut, "/members/"+member.ID+"/consent", body))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/members/"+member.ID+"/consent-history"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	history := testutil.UnmarshalResponse[[]handler.ConsentResponse](t, rr)
	require.Len(t, *history, 2, "data-processing from registration plus the marketing grant")
}

func TestExportEndpoint(t *testing.T) {
	r := newTestRouter(t)
	member := registerMember(t, r, "export@x.com")

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/members/"+member.ID+"/export"))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var bundle struct {
		Member struct {
			Email string `json:"email"`
		} `json:"member"`
		Consents []map[string]any `json:"consents"`
	}
	require.NoError(t, testutil.UnmarshalInto(rr, &bundle))
	assert.Equal(t, "export@x.com", bundle.Member.Email)
	assert.Len(t, bundle.Consents, 1)
}

func TestRetentionEndpoint(t *testing.T) {
	r := newTestRouter(t)
	member := registerMember(t, r, "retention@x.com")

	body := handler.SetRetentionRequest{RetentionDays: 365}
	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/members/"+member.ID+"/retention", body))
	testutil.AssertStatus(t, rr, http.StatusOK)
	got := testutil.UnmarshalResponse[handler.MemberResponse](t, rr)
	require.NotNil(t, got.DataRetentionExpiry)
	assert.True(t, got.DataRetentionExpiry.After(time.Now()))
}

func TestAuditTrailEndpoint(t *testing.T) {
	r := newTestRouter(t)
	member := registerMember(t, r, "trail@x.com")

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/members/"+member.ID+"/audit-trail"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	trail := testutil.UnmarshalResponse[[]handler.AuditEntryResponse](t, rr)
	require.NotEmpty(t, *trail)
	assert.Equal(t, "Member Registration", (*trail)[0].Action)
}

func TestLoginEndpoint(t *testing.T) {
	r := newTestRouter(t)
	member := registerMember(t, r, "login@x.com")

	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/members/"+member.ID+"/login", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/members/"+member.ID))
	got := testutil.UnmarshalResponse[handler.MemberResponse](t, rr)
	require.NotNil(t, got.LastLoginAt)
}
