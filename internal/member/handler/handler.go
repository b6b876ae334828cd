// Package handler wires the member endpoints to the member service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"membergate/internal/audit"
	consentmodels "membergate/internal/consent/models"
	"membergate/internal/member/models"
	"membergate/internal/member/service"
	id "membergate/pkg/domain"
	"membergate/pkg/platform/httputil"
	"membergate/pkg/requestcontext"
)

// Service is the member orchestration surface the handler depends on.
type Service interface {
	Register(ctx context.Context, p service.RegisterParams) (*models.Member, error)
	GetByID(ctx context.Context, memberID id.MemberID) (*models.Member, error)
	UpdateProfile(ctx context.Context, memberID id.MemberID, p models.Profile) (*models.Member, error)
	DeleteOrAnonymize(ctx context.Context, memberID id.MemberID, hardDelete bool, reason string) error
	RequestEmailVerification(ctx context.Context, memberID id.MemberID) (string, error)
	VerifyEmail(ctx context.Context, memberID id.MemberID, code string) error
	UpdateConsentPreferences(ctx context.Context, memberID id.MemberID, flags models.ConsentFlags) error
	GetConsentHistory(ctx context.Context, memberID id.MemberID) ([]*consentmodels.Consent, error)
	ExportPersonalData(ctx context.Context, memberID id.MemberID) (*models.ExportBundle, error)
	SetRetention(ctx context.Context, memberID id.MemberID, period time.Duration) (*models.Member, error)
	GetAuditTrail(ctx context.Context, memberID id.MemberID) ([]audit.Entry, error)
	RecordLogin(ctx context.Context, memberID id.MemberID) error
}

// Handler exposes member endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the member routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/members", func(r chi.Router) {
		r.Post("/register", h.HandleRegister)
		r.Route("/{memberID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Put("/", h.HandleUpdateProfile)
			r.Delete("/", h.HandleDelete)
			r.Post("/request-verification", h.HandleRequestVerification)
			r.Post("/verify-email", h.HandleVerifyEmail)
			r.Put("/consent", h.HandleUpdateConsent)
			r.Get("/consent-history", h.HandleConsentHistory)
			r.Get("/export", h.HandleExport)
			r.Post("/retention", h.HandleSetRetention)
			r.Get("/audit-trail", h.HandleAuditTrail)
			r.Post("/login", h.HandleRecordLogin)
		})
	})
}

func (h *Handler) memberID(w http.ResponseWriter, r *http.Request) (id.MemberID, bool) {
	memberID, err := id.ParseMemberID(chi.URLParam(r, "memberID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.MemberID{}, false
	}
	return memberID, true
}

// HandleRegister handles POST /members/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	member, err := h.service.Register(ctx, req.ToParams())
	if err != nil {
		h.logger.WarnContext(ctx, "member registration rejected",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "member registered",
		"request_id", requestID,
		"member_id", member.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromMember(member))
}

// HandleGet handles GET /members/{memberID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}

	member, err := h.service.GetByID(ctx, memberID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromMember(member))
}

// HandleUpdateProfile handles PUT /members/{memberID}.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateProfileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	member, err := h.service.UpdateProfile(ctx, memberID, req.ToProfile())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "member profile updated",
		"request_id", requestID,
		"member_id", memberID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromMember(member))
}

// HandleDelete handles DELETE /members/{memberID}, the right to be
// forgotten.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[DeleteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.DeleteOrAnonymize(ctx, memberID, req.IsHardDelete, req.Reason); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "member account removed",
		"request_id", requestID,
		"member_id", memberID,
		"hard_delete", req.IsHardDelete,
	)
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Account has been successfully deleted"})
}

// HandleRequestVerification handles POST /members/{memberID}/request-verification.
func (h *Handler) HandleRequestVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}

	code, err := h.service.RequestEmailVerification(ctx, memberID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VerificationCodeResponse{VerificationCode: code})
}

// HandleVerifyEmail handles POST /members/{memberID}/verify-email.
func (h *Handler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[VerifyEmailRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.VerifyEmail(ctx, memberID, req.VerificationCode); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Email verified successfully"})
}

// HandleUpdateConsent handles PUT /members/{memberID}/consent.
func (h *Handler) HandleUpdateConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateConsentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.UpdateConsentPreferences(ctx, memberID, req.ToFlags()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Consent preferences updated successfully"})
}

// HandleConsentHistory handles GET /members/{memberID}/consent-history.
func (h *Handler) HandleConsentHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}

	history, err := h.service.GetConsentHistory(ctx, memberID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromConsents(history, requestcontext.Now(ctx)))
}

// HandleExport handles GET /members/{memberID}/export, the right to access.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}

	bundle, err := h.service.ExportPersonalData(ctx, memberID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, bundle)
}

// HandleSetRetention handles POST /members/{memberID}/retention.
func (h *Handler) HandleSetRetention(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetRetentionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	member, err := h.service.SetRetention(ctx, memberID, req.Period())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromMember(member))
}

// HandleAuditTrail handles GET /members/{memberID}/audit-trail.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}

	entries, err := h.service.GetAuditTrail(ctx, memberID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAuditEntries(entries))
}

// HandleRecordLogin handles POST /members/{memberID}/login.
func (h *Handler) HandleRecordLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}

	if err := h.service.RecordLogin(ctx, memberID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Login recorded"})
}
