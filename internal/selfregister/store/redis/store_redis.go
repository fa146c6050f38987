package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"selfreg/internal/selfregister/models"
	"selfreg/pkg/domain"
	"selfreg/pkg/platform/sentinel"
)

const (
	identityKeyPrefix = "selfreg:pending:identity:"
	recoveryKeyPrefix = "selfreg:pending:recovery:"
)

// RedisStore keeps pending registrations in Redis so every instance sees the
// same set. Both keys expire after the pending TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type record struct {
	TenantDomain        string            `json:"tenant_domain"`
	UserStoreDomain     string            `json:"user_store_domain"`
	Username            string            `json:"username"`
	Properties          []models.Property `json:"properties,omitempty"`
	RecoveryID          string            `json:"recovery_id"`
	NotificationChannel string            `json:"notification_channel"`
	CreatedAt           time.Time         `json:"created_at"`
}

func New(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// CreateIfAbsent claims the identity with SETNX, then writes the record under
// its recovery id. The claim is released if the record cannot be written.
func (s *RedisStore) CreateIfAbsent(ctx context.Context, reg *models.PendingRegistration) error {
	identityKey := identityKeyPrefix + reg.Identity.QualifiedUsername()

	claimed, err := s.client.SetNX(ctx, identityKey, reg.RecoveryID, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("claim pending identity: %w", err)
	}
	if !claimed {
		return sentinel.ErrConflict
	}

	payload, err := json.Marshal(toRecord(reg))
	if err != nil {
		_ = s.client.Del(ctx, identityKey).Err()
		return fmt.Errorf("encode pending registration: %w", err)
	}
	if err := s.client.Set(ctx, recoveryKeyPrefix+reg.RecoveryID, payload, s.ttl).Err(); err != nil {
		_ = s.client.Del(ctx, identityKey).Err()
		return fmt.Errorf("store pending registration: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByRecoveryID(ctx context.Context, recoveryID string) (*models.PendingRegistration, error) {
	payload, err := s.client.Get(ctx, recoveryKeyPrefix+recoveryID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load pending registration: %w", err)
	}
	var rec record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode pending registration: %w", err)
	}
	return rec.toModel(), nil
}

func (s *RedisStore) Delete(ctx context.Context, reg *models.PendingRegistration) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, identityKeyPrefix+reg.Identity.QualifiedUsername())
	pipe.Del(ctx, recoveryKeyPrefix+reg.RecoveryID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete pending registration: %w", err)
	}
	return nil
}

func toRecord(reg *models.PendingRegistration) record {
	return record{
		TenantDomain:        reg.Identity.TenantDomain.String(),
		UserStoreDomain:     reg.Identity.UserStoreDomain.String(),
		Username:            reg.Identity.Username,
		Properties:          reg.Properties,
		RecoveryID:          reg.RecoveryID,
		NotificationChannel: reg.NotificationChannel.String(),
		CreatedAt:           reg.CreatedAt,
	}
}

func (r record) toModel() *models.PendingRegistration {
	return &models.PendingRegistration{
		Identity: models.ResolvedIdentity{
			TenantDomain:    domain.TenantDomain(r.TenantDomain),
			UserStoreDomain: domain.UserStoreDomain(r.UserStoreDomain),
			Username:        r.Username,
		},
		Properties:          r.Properties,
		RecoveryID:          r.RecoveryID,
		NotificationChannel: models.NotificationChannel(r.NotificationChannel),
		CreatedAt:           r.CreatedAt,
	}
}
