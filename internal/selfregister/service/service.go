package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"selfreg/internal/selfregister/metrics"
	"selfreg/internal/selfregister/models"
	"selfreg/pkg/attrs"
	"selfreg/pkg/domain"
	"selfreg/pkg/platform/audit"
	"selfreg/pkg/requestcontext"
)

// Gateway performs the actual registration. It fails with a
// *models.GatewayError; any other error is treated as unexpected.
type Gateway interface {
	Register(ctx context.Context, identity models.ResolvedIdentity, properties []models.Property) (*models.RegistrationOutcome, error)
}

// Settings is the per-request policy view the pipeline reads.
type Settings interface {
	EmailAsUsernameEnabled() bool
	DetailedResponseEnabled() bool
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs the lite self-registration pipeline:
// validate, resolve, delegate to the gateway, then compose or classify.
type Service struct {
	gateway        Gateway
	settings       Settings
	resolver       IdentityResolver
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithResolver overrides the default super tenant / primary domain resolver.
func WithResolver(resolver IdentityResolver) Option {
	return func(s *Service) {
		s.resolver = resolver
	}
}

// New constructs a Service.
func New(gateway Gateway, settings Settings, opts ...Option) *Service {
	s := &Service{
		gateway:  gateway,
		settings: settings,
		resolver: NewIdentityResolver(domain.SuperTenantDomain, domain.PrimaryUserStoreDomain),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("selfreg/selfregister")
	}
	return s
}

// Register handles one registration. The ambient tenant is read-only input
// supplied by the caller; blank means the super tenant. On failure the
// returned error is always a *models.Failure.
func (s *Service) Register(ctx context.Context, req *models.RegistrationRequest, ambientTenant domain.TenantDomain) (models.ResponseBody, error) {
	if failure := Validate(req, s.settings.EmailAsUsernameEnabled()); failure != nil {
		s.logger.WarnContext(ctx, "self registration rejected",
			"code", failure.Code,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.logAudit(ctx, string(audit.EventSelfRegistrationDenied),
			"tenant_domain", ambientTenant.String(),
			"decision", "denied",
			"reason", failure.Code,
		)
		s.incrementResult(failure)
		return models.EmptyResponse(), failure
	}

	identity := s.resolver.Resolve(req, ambientTenant)

	outcome, err := s.delegate(ctx, identity, req.Properties)
	if err != nil {
		failure := Classify(err)
		s.logFailure(ctx, identity, failure, err)
		s.logAudit(ctx, string(audit.EventSelfRegistrationFailed),
			"subject", identity.Username,
			"tenant_domain", identity.TenantDomain.String(),
			"user_store_domain", identity.UserStoreDomain.String(),
			"decision", "failed",
			"reason", failure.Code,
		)
		s.incrementResult(failure)
		return models.EmptyResponse(), failure
	}

	body := Compose(outcome, s.settings.DetailedResponseEnabled())
	s.logAudit(ctx, string(audit.EventUserSelfRegistered),
		"subject", identity.Username,
		"tenant_domain", identity.TenantDomain.String(),
		"user_store_domain", identity.UserStoreDomain.String(),
		"decision", "registered",
		"response_kind", body.Kind.String(),
	)
	s.incrementResult(nil)
	return body, nil
}

// delegate calls the gateway once. A panicking gateway is reported as an
// unexpected failure instead of unwinding the caller.
func (s *Service) delegate(ctx context.Context, identity models.ResolvedIdentity, properties []models.Property) (outcome *models.RegistrationOutcome, err error) {
	ctx, span := s.tracer.Start(ctx, "selfregister.gateway.register",
		trace.WithAttributes(
			attribute.String("selfreg.tenant_domain", identity.TenantDomain.String()),
			attribute.String("selfreg.user_store_domain", identity.UserStoreDomain.String()),
		),
	)
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			outcome = nil
			err = models.NewUnexpectedFailure(fmt.Errorf("gateway panic: %v", rec))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "registration failed")
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveGateway(start)
		}
	}()

	return s.gateway.Register(ctx, identity, properties)
}

func (s *Service) logFailure(ctx context.Context, identity models.ResolvedIdentity, failure *models.Failure, cause error) {
	args := []any{
		"code", failure.Code,
		"kind", failure.Kind.String(),
		"tenant_domain", identity.TenantDomain.String(),
		"request_id", requestcontext.RequestID(ctx),
	}
	if failure.Kind == models.ServerError {
		s.logger.ErrorContext(ctx, "self registration failed", append(args, "error", cause.Error())...)
		return
	}
	s.logger.WarnContext(ctx, "self registration failed", args...)
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Subject:         attrs.ExtractString(attributes, "subject"),
		TenantDomain:    attrs.ExtractString(attributes, "tenant_domain"),
		UserStoreDomain: attrs.ExtractString(attributes, "user_store_domain"),
		Action:          event,
		Decision:        attrs.ExtractString(attributes, "decision"),
		Reason:          attrs.ExtractString(attributes, "reason"),
		RequestID:       requestID,
		ClientIP:        requestcontext.ClientIP(ctx),
		UserAgent:       requestcontext.UserAgent(ctx),
	})
}

func (s *Service) incrementResult(failure *models.Failure) {
	if s.metrics == nil {
		return
	}
	if failure == nil {
		s.metrics.IncrementResult(metrics.ResultSuccess)
		return
	}
	s.metrics.IncrementResult(failure.Kind.String())
}
