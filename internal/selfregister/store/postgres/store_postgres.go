package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"selfreg/internal/selfregister/models"
	"selfreg/pkg/domain"
	"selfreg/pkg/platform/sentinel"
	"selfreg/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// PostgresStore persists pending registrations in PostgreSQL. Properties are
// stored in their own table keyed by position so their order survives.
type PostgresStore struct {
	db    *sql.DB
	ttl   time.Duration
	clock func() time.Time
}

type Option func(*PostgresStore)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(db *sql.DB, ttl time.Duration, opts ...Option) *PostgresStore {
	s := &PostgresStore{db: db, ttl: ttl, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate pending registrations: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts the registration and its properties in one
// transaction. An expired registration for the same identity is replaced.
func (s *PostgresStore) CreateIfAbsent(ctx context.Context, reg *models.PendingRegistration) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		q := tx.QuerierFrom(ctx, s.db)
		now := s.clock()

		_, err := q.ExecContext(ctx, `
			DELETE FROM pending_registrations
			WHERE tenant_domain = $1 AND UPPER(user_store_domain) = UPPER($2) AND username = $3 AND expires_at <= $4`,
			reg.Identity.TenantDomain.String(), reg.Identity.UserStoreDomain.String(), reg.Identity.Username, now)
		if err != nil {
			return fmt.Errorf("purge expired registration: %w", err)
		}

		_, err = q.ExecContext(ctx, `
			INSERT INTO pending_registrations
				(recovery_id, tenant_domain, user_store_domain, username, notification_channel, created_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			reg.RecoveryID,
			reg.Identity.TenantDomain.String(),
			reg.Identity.UserStoreDomain.String(),
			reg.Identity.Username,
			reg.NotificationChannel.String(),
			reg.CreatedAt,
			s.expiresAt(reg.CreatedAt),
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert pending registration: %w", err)
		}

		for i, prop := range reg.Properties {
			_, err := q.ExecContext(ctx, `
				INSERT INTO pending_registration_properties (recovery_id, position, key, value)
				VALUES ($1, $2, $3, $4)`,
				reg.RecoveryID, i, prop.Key, prop.Value)
			if err != nil {
				return fmt.Errorf("insert registration property: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) FindByRecoveryID(ctx context.Context, recoveryID string) (*models.PendingRegistration, error) {
	q := tx.QuerierFrom(ctx, s.db)

	var (
		reg          models.PendingRegistration
		tenantDomain string
		userStore    string
		channel      string
	)
	err := q.QueryRowContext(ctx, `
		SELECT recovery_id, tenant_domain, user_store_domain, username, notification_channel, created_at
		FROM pending_registrations
		WHERE recovery_id = $1 AND expires_at > $2`,
		recoveryID, s.clock(),
	).Scan(&reg.RecoveryID, &tenantDomain, &userStore, &reg.Identity.Username, &channel, &reg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find pending registration: %w", err)
	}
	reg.Identity.TenantDomain = domain.TenantDomain(tenantDomain)
	reg.Identity.UserStoreDomain = domain.UserStoreDomain(userStore)
	reg.NotificationChannel = models.NotificationChannel(channel)

	rows, err := q.QueryContext(ctx, `
		SELECT key, value FROM pending_registration_properties
		WHERE recovery_id = $1 ORDER BY position`, recoveryID)
	if err != nil {
		return nil, fmt.Errorf("list registration properties: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var prop models.Property
		if err := rows.Scan(&prop.Key, &prop.Value); err != nil {
			return nil, fmt.Errorf("scan registration property: %w", err)
		}
		reg.Properties = append(reg.Properties, prop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registration properties: %w", err)
	}
	return &reg, nil
}

func (s *PostgresStore) Delete(ctx context.Context, reg *models.PendingRegistration) error {
	q := tx.QuerierFrom(ctx, s.db)
	if _, err := q.ExecContext(ctx, `DELETE FROM pending_registrations WHERE recovery_id = $1`, reg.RecoveryID); err != nil {
		return fmt.Errorf("delete pending registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) expiresAt(createdAt time.Time) time.Time {
	if s.ttl <= 0 {
		return createdAt.AddDate(100, 0, 0)
	}
	return createdAt.Add(s.ttl)
}
