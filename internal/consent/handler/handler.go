// Package handler exposes the consent lifecycle endpoints that operate on
// individual consent records. Member-level consent preferences live under
// the member endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"membergate/internal/consent/models"
	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
	"membergate/pkg/platform/httputil"
	"membergate/pkg/requestcontext"
)

// Service is the consent lifecycle surface the handler depends on.
type Service interface {
	Withdraw(ctx context.Context, consentID id.ConsentID, reason string) (*models.Consent, error)
	Renew(ctx context.Context, consentID id.ConsentID, newExpiry time.Time) (*models.Consent, error)
	ExpireOutdated(ctx context.Context, memberID id.MemberID) (int, error)
	CurrentByType(ctx context.Context, memberID id.MemberID, consentType id.ConsentType) (*models.Consent, error)
}

// Handler exposes consent record endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the consent routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/consents/{consentID}", func(r chi.Router) {
		r.Post("/withdraw", h.HandleWithdraw)
		r.Post("/renew", h.HandleRenew)
	})
	r.Route("/members/{memberID}/consents", func(r chi.Router) {
		r.Post("/expire", h.HandleExpireOutdated)
		r.Get("/current", h.HandleCurrent)
	})
}

// WithdrawRequest carries the member's withdrawal reason.
type WithdrawRequest struct {
	Reason string `json:"reason"`
}

func (r *WithdrawRequest) Validate() error {
	if strings.TrimSpace(r.Reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "withdrawal reason is required")
	}
	return nil
}

// RenewRequest carries the new expiry for a consent renewal.
type RenewRequest struct {
	NewExpiryDate time.Time `json:"newExpiryDate"`
}

func (r *RenewRequest) Validate() error {
	if r.NewExpiryDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "new expiry date is required")
	}
	return nil
}

// ConsentResponse is one consent record with its derived status.
type ConsentResponse struct {
	ID              string     `json:"id"`
	MemberID        string     `json:"memberId"`
	Type            string     `json:"consentType"`
	Status          string     `json:"status"`
	Granted         bool       `json:"isGranted"`
	Active          bool       `json:"isActive"`
	ConsentDate     time.Time  `json:"consentDate"`
	WithdrawnDate   *time.Time `json:"withdrawnDate,omitempty"`
	WithdrawnReason string     `json:"withdrawnReason,omitempty"`
	ExpiryDate      *time.Time `json:"expiryDate,omitempty"`
}

func fromConsent(c *models.Consent, now time.Time) ConsentResponse {
	return ConsentResponse{
		ID:              c.ID.String(),
		MemberID:        c.MemberID.String(),
		Type:            c.Type.String(),
		Status:          c.Status(now).String(),
		Granted:         c.Granted,
		Active:          c.Active,
		ConsentDate:     c.ConsentDate,
		WithdrawnDate:   c.WithdrawnDate,
		WithdrawnReason: c.WithdrawnReason,
		ExpiryDate:      c.ExpiryDate,
	}
}

func (h *Handler) consentID(w http.ResponseWriter, r *http.Request) (id.ConsentID, bool) {
	consentID, err := id.ParseConsentID(chi.URLParam(r, "consentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ConsentID{}, false
	}
	return consentID, true
}

// HandleWithdraw handles POST /consents/{consentID}/withdraw.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	consentID, ok := h.consentID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[WithdrawRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	consent, err := h.service.Withdraw(ctx, consentID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "consent withdrawn",
		"request_id", requestID,
		"consent_id", consentID,
	)
	httputil.WriteJSON(w, http.StatusOK, fromConsent(consent, requestcontext.Now(ctx)))
}

// HandleRenew handles POST /consents/{consentID}/renew.
func (h *Handler) HandleRenew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	consentID, ok := h.consentID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[RenewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	consent, err := h.service.Renew(ctx, consentID, req.NewExpiryDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromConsent(consent, requestcontext.Now(ctx)))
}

// ExpireResult reports how many consent records were expired.
type ExpireResult struct {
	ExpiredCount int `json:"expiredCount"`
}

// HandleExpireOutdated handles POST /members/{memberID}/consents/expire.
func (h *Handler) HandleExpireOutdated(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, err := id.ParseMemberID(chi.URLParam(r, "memberID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	count, err := h.service.ExpireOutdated(ctx, memberID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ExpireResult{ExpiredCount: count})
}

// HandleCurrent handles GET /members/{memberID}/consents/current?type=X.
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, err := id.ParseMemberID(chi.URLParam(r, "memberID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	consentType, err := id.ParseConsentType(r.URL.Query().Get("type"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	consent, err := h.service.CurrentByType(ctx, memberID, consentType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromConsent(consent, requestcontext.Now(ctx)))
}
