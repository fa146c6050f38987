package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	"selfreg/internal/selfregister/models"
	"selfreg/pkg/domain"
	"selfreg/pkg/platform/sentinel"
	platformstrings "selfreg/pkg/platform/strings"
	"selfreg/pkg/requestcontext"
)

// Outcome codes returned on success.
const (
	CodePendingInternal = "USR-02001"
	CodePendingExternal = "USR-02002"

	MsgPendingVerification = "Successful user self registration. Pending account verification."
)

const (
	msgSelfRegistrationOff    = "Self registration is disabled for the tenant."
	msgInvalidEmailUsername   = "Username is not a valid email address."
	msgRegistrationStoreError = "Error while persisting the self registration."
	msgNotificationError      = "Error while sending the account confirmation notification."
)

// Store persists pending registrations.
type Store interface {
	CreateIfAbsent(ctx context.Context, reg *models.PendingRegistration) error
	FindByRecoveryID(ctx context.Context, recoveryID string) (*models.PendingRegistration, error)
	Delete(ctx context.Context, reg *models.PendingRegistration) error
}

// Notifier delivers the confirmation for internally managed notifications.
type Notifier interface {
	SendConfirmation(ctx context.Context, reg *models.PendingRegistration) error
}

// Policy is the deployment-level registration configuration.
type Policy interface {
	SelfRegistrationEnabled() bool
	NotificationsInternallyManaged() bool
}

// Manager is the registration manager: it checks deployment policy, records
// a pending registration and arranges for its confirmation.
type Manager struct {
	store            Store
	notifier         Notifier
	policy           Policy
	userStoreDomains []domain.UserStoreDomain
	logger           *slog.Logger
	newRecoveryID    func() string
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithUserStoreDomains adds realms to the accepted set, which starts with
// PRIMARY.
func WithUserStoreDomains(domains ...string) Option {
	return func(m *Manager) {
		for _, d := range platformstrings.DedupeFold(domains) {
			m.userStoreDomains = append(m.userStoreDomains, domain.UserStoreDomain(d))
		}
	}
}

// WithRecoveryIDs replaces the recovery id generator, for tests.
func WithRecoveryIDs(gen func() string) Option {
	return func(m *Manager) {
		m.newRecoveryID = gen
	}
}

func New(store Store, notifier Notifier, policy Policy, opts ...Option) *Manager {
	m := &Manager{
		store:            store,
		notifier:         notifier,
		policy:           policy,
		userStoreDomains: []domain.UserStoreDomain{domain.PrimaryUserStoreDomain},
		logger:           slog.New(slog.DiscardHandler),
		newRecoveryID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register creates a pending registration for identity. Failures are always
// *models.GatewayError.
func (m *Manager) Register(ctx context.Context, identity models.ResolvedIdentity, properties []models.Property) (*models.RegistrationOutcome, error) {
	if !m.policy.SelfRegistrationEnabled() {
		return nil, models.NewClientFailure(models.CodeSelfRegistrationOff, msgSelfRegistrationOff)
	}
	if !govalidator.IsEmail(identity.Username) {
		return nil, models.NewClientFailure(models.CodeInvalidEmailUsername, msgInvalidEmailUsername)
	}
	if !m.knownUserStore(identity.UserStoreDomain) {
		return nil, models.NewClientFailure(models.CodeInvalidUserStoreDomain,
			fmt.Sprintf("Invalid user store domain: %s", identity.UserStoreDomain))
	}

	channel := models.ChannelExternal
	if m.policy.NotificationsInternallyManaged() {
		channel = models.ChannelInternal
	}

	reg := &models.PendingRegistration{
		Identity:            identity,
		Properties:          append([]models.Property(nil), properties...),
		RecoveryID:          m.newRecoveryID(),
		NotificationChannel: channel,
		CreatedAt:           requestcontext.Now(ctx),
	}

	if err := m.store.CreateIfAbsent(ctx, reg); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, models.NewClientFailure(models.CodeUserAlreadyExists, models.MsgUserAlreadyExists)
		}
		return nil, models.NewDomainFailure(models.CodeRegistrationStoreFailed, msgRegistrationStoreError, err)
	}

	if channel == models.ChannelInternal {
		if err := m.notifier.SendConfirmation(ctx, reg); err != nil {
			// release the identity so the user can retry
			if delErr := m.store.Delete(ctx, reg); delErr != nil {
				m.logger.ErrorContext(ctx, "failed to release pending registration",
					"tenant_domain", identity.TenantDomain.String(),
					"error", delErr,
				)
			}
			return nil, models.NewDomainFailure(models.CodeNotificationFailed, msgNotificationError, err)
		}
		return &models.RegistrationOutcome{
			Code:                CodePendingInternal,
			Message:             MsgPendingVerification,
			NotificationChannel: models.ChannelInternal,
		}, nil
	}

	return &models.RegistrationOutcome{
		Code:                CodePendingExternal,
		Message:             MsgPendingVerification,
		NotificationChannel: models.ChannelExternal,
		RecoveryID:          reg.RecoveryID,
	}, nil
}

// Pending returns the registration awaiting confirmation under recoveryID.
// It fails with sentinel.ErrNotFound when there is none or it has expired.
func (m *Manager) Pending(ctx context.Context, recoveryID string) (*models.PendingRegistration, error) {
	if strings.TrimSpace(recoveryID) == "" {
		return nil, fmt.Errorf("recovery id is required: %w", sentinel.ErrNotFound)
	}
	reg, err := m.store.FindByRecoveryID(ctx, recoveryID)
	if err != nil {
		return nil, fmt.Errorf("find pending registration: %w", err)
	}
	return reg, nil
}

func (m *Manager) knownUserStore(d domain.UserStoreDomain) bool {
	for _, known := range m.userStoreDomains {
		if known.EqualFold(d) {
			return true
		}
	}
	return false
}
