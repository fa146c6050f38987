package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"selfreg/internal/platform/metrics"
	"selfreg/internal/platform/middleware"
	"selfreg/internal/selfregister/models"
	"selfreg/pkg/domain"
	"selfreg/pkg/platform/httputil"
	"selfreg/pkg/platform/middleware/metadata"
	"selfreg/pkg/platform/middleware/requesttime"
	"selfreg/pkg/platform/middleware/tenant"
	"selfreg/pkg/requestcontext"
)

// Service runs the registration pipeline for one request.
type Service interface {
	Register(ctx context.Context, req *models.RegistrationRequest, ambientTenant domain.TenantDomain) (models.ResponseBody, error)
}

// Handler serves the lite self-registration endpoints.
type Handler struct {
	service   Service
	logger    *slog.Logger
	metrics   *metrics.Metrics
	rateLimit func(http.Handler) http.Handler
}

type Option func(*Handler)

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithRateLimit installs a limiter in front of the registration routes.
func WithRateLimit(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.rateLimit = mw
	}
}

// New creates a new self-registration Handler.
func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the self-registration routes with the chi router.
// No authentication is applied: self-registration happens before the user
// has an account.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(middleware.Recovery(h.logger))
		r.Use(requesttime.Middleware)
		r.Use(metadata.ClientMetadata)
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.Latency(h.metrics))
		if h.rateLimit != nil {
			r.Use(h.rateLimit)
		}

		r.With(tenant.Middleware).Post("/me-lite", h.handleSelfRegisterLite)
		r.With(tenant.Middleware).Post("/t/{"+tenant.URLParam+"}/me-lite", h.handleSelfRegisterLite)
	})
}

// handleSelfRegisterLite registers a user with only an email address.
func (h *Handler) handleSelfRegisterLite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, err := decodeRequest(r)
	if err != nil {
		// undecodable bodies are treated as absent; the service reports them
		// after the policy check
		h.logger.WarnContext(ctx, "undecodable self registration request",
			"request_id", requestID,
			"error", err.Error(),
		)
	}

	body, err := h.service.Register(ctx, req, requestcontext.TenantDomain(ctx))
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeSuccess(w, body)
}

// decodeRequest returns nil for an empty body, the JSON literal null, or a
// body that is not valid JSON.
func decodeRequest(r *http.Request) (*models.RegistrationRequest, error) {
	var req *models.RegistrationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return req, nil
}

func writeFailure(w http.ResponseWriter, err error) {
	var failure *models.Failure
	if !errors.As(err, &failure) {
		httputil.WriteErrorBody(w, http.StatusInternalServerError, models.CodeUnexpected, models.MsgServerError)
		return
	}
	httputil.WriteErrorBody(w, statusFor(failure.Kind), failure.Code, failure.Message)
}

func statusFor(kind models.FailureKind) int {
	switch kind {
	case models.ClientError:
		return http.StatusBadRequest
	case models.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeSuccess(w http.ResponseWriter, body models.ResponseBody) {
	switch body.Kind {
	case models.ResponseLegacyText:
		httputil.WriteText(w, http.StatusCreated, body.Text)
	case models.ResponseInternalDetailed, models.ResponseExternalDetailed:
		httputil.WriteJSON(w, http.StatusCreated, body.Entity)
	default:
		w.WriteHeader(http.StatusCreated)
	}
}
