// Package handler wires the customer profile endpoints to the customer
// service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"membergate/internal/customer/models"
	"membergate/internal/customer/service"
	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
	"membergate/pkg/platform/httputil"
	"membergate/pkg/requestcontext"
)

// Service is the customer surface the handler depends on.
type Service interface {
	Create(ctx context.Context, p service.CreateParams) (*models.Customer, error)
	GetByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error)
	Update(ctx context.Context, customerID id.CustomerID, p service.UpdateParams) (*models.Customer, error)
	UpdateStatus(ctx context.Context, customerID id.CustomerID, status id.CustomerStatus) (*models.Customer, error)
	UpdatePreferences(ctx context.Context, customerID id.CustomerID, p models.Preferences) (*models.Customer, error)
	Delete(ctx context.Context, customerID id.CustomerID) error
	List(ctx context.Context, offset, limit int) (*service.Page, error)
}

// Handler exposes customer endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the customer routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Route("/{customerID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Put("/", h.HandleUpdate)
			r.Delete("/", h.HandleDelete)
			r.Put("/status", h.HandleUpdateStatus)
			r.Put("/preferences", h.HandleUpdatePreferences)
		})
	})
}

func (h *Handler) customerID(w http.ResponseWriter, r *http.Request) (id.CustomerID, bool) {
	customerID, err := id.ParseCustomerID(chi.URLParam(r, "customerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.CustomerID{}, false
	}
	return customerID, true
}

// CreateRequest is the customer creation payload.
type CreateRequest struct {
	Email       string              `json:"email"`
	FirstName   string              `json:"firstName"`
	LastName    string              `json:"lastName"`
	PhoneNumber string              `json:"phoneNumber,omitempty"`
	DateOfBirth *time.Time          `json:"dateOfBirth,omitempty"`
	Address     *models.Address     `json:"address,omitempty"`
	Preferences *models.Preferences `json:"preferences,omitempty"`
	Segment     string              `json:"segment,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
}

func (req *CreateRequest) toParams() (service.CreateParams, error) {
	p := service.CreateParams{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
		Preferences: req.Preferences,
		Tags:        req.Tags,
	}
	if req.Segment != "" {
		segment, err := id.ParseCustomerSegment(req.Segment)
		if err != nil {
			return p, err
		}
		p.Segment = segment
	}
	return p, nil
}

// HandleCreate handles POST /customers.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	params, err := req.toParams()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	customer, err := h.service.Create(ctx, params)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "customer created",
		"request_id", requestID,
		"customer_id", customer.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, customer)
}

// HandleGet handles GET /customers/{customerID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	customer, err := h.service.GetByID(ctx, customerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, customer)
}

// UpdateRequest is the profile update payload.
type UpdateRequest struct {
	Email       string          `json:"email"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	PhoneNumber string          `json:"phoneNumber,omitempty"`
	Address     *models.Address `json:"address,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
}

// HandleUpdate handles PUT /customers/{customerID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	customer, err := h.service.Update(ctx, customerID, service.UpdateParams{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Tags:        req.Tags,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, customer)
}

// UpdateStatusRequest transitions the account status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateStatus handles PUT /customers/{customerID}/status.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	status, err := id.ParseCustomerStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	customer, err := h.service.UpdateStatus(ctx, customerID, status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, customer)
}

// HandleUpdatePreferences handles PUT /customers/{customerID}/preferences.
func (h *Handler) HandleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	prefs, ok := httputil.DecodeAndPrepare[models.Preferences](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	customer, err := h.service.UpdatePreferences(ctx, customerID, prefs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, customer)
}

// HandleDelete handles DELETE /customers/{customerID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, customerID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListResponse is one page of customers.
type ListResponse struct {
	Customers []*models.Customer `json:"customers"`
	Total     int                `json:"total"`
	Offset    int                `json:"offset"`
	Limit     int                `json:"limit"`
}

// HandleList handles GET /customers?offset=N&limit=M.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page, err := h.service.List(ctx, offset, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{
		Customers: page.Customers,
		Total:     page.Total,
		Offset:    page.Offset,
		Limit:     page.Limit,
	})
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, name+" must be an integer")
	}
	return v, nil
}
