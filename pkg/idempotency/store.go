package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/repository"
	"github.com/amirasaad/ledgercore/pkg/repository/idempotency"
	"github.com/redis/go-redis/v9"
)

// Store persists idempotency records. Get returns domain.ErrNotFound for
// unknown ids. Claim stores rec only when no live record exists for its id
// and returns domain.ErrAlreadyExists otherwise, atomically across every
// process sharing the store. Complete overwrites the record for its id.
// Release drops it.
type Store interface {
	Get(ctx context.Context, requestID string) (*idempotency.Record, error)
	Claim(ctx context.Context, rec *idempotency.Record) error
	Complete(ctx context.Context, rec *idempotency.Record) error
	Release(ctx context.Context, requestID string) error
}

// SQLStore keeps records in the relational store through the unit of work.
type SQLStore struct {
	uow repository.UnitOfWork
}

func NewSQLStore(uow repository.UnitOfWork) *SQLStore {
	return &SQLStore{uow: uow}
}

func (s *SQLStore) Get(ctx context.Context, requestID string) (*idempotency.Record, error) {
	var rec *idempotency.Record
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.IdempotencyRepository()
		if err != nil {
			return err
		}
		rec, err = repo.Get(ctx, requestID)
		return err
	})
	return rec, err
}

// Claim inserts rec under the request id primary key. An expired row is
// removed first in the same transaction.
func (s *SQLStore) Claim(ctx context.Context, rec *idempotency.Record) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.IdempotencyRepository()
		if err != nil {
			return err
		}
		existing, err := repo.Get(ctx, rec.RequestID)
		switch {
		case err == nil && !existing.Expired(rec.ProcessedAt):
			return domain.ErrAlreadyExists
		case err == nil:
			if err := repo.Delete(ctx, rec.RequestID); err != nil {
				return err
			}
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		return repo.Create(ctx, rec)
	})
}

func (s *SQLStore) Complete(ctx context.Context, rec *idempotency.Record) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.IdempotencyRepository()
		if err != nil {
			return err
		}
		return repo.Put(ctx, rec)
	})
}

func (s *SQLStore) Release(ctx context.Context, requestID string) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.IdempotencyRepository()
		if err != nil {
			return err
		}
		return repo.Delete(ctx, requestID)
	})
}

// RedisStore keeps records as plain keys that Redis expires on its own.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ledger:idempotency:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

type redisEntry struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
}

func (s *RedisStore) key(requestID string) string {
	return s.prefix + requestID
}

func (s *RedisStore) Get(ctx context.Context, requestID string) (*idempotency.Record, error) {
	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, s.key(requestID))
	ttlCmd := pipe.PTTL(ctx, s.key(requestID))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("idempotency: redis get: %w", err)
	}
	raw, err := getCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency: redis get: %w", err)
	}
	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("idempotency: redis decode: %w", err)
	}
	now := time.Now().UTC()
	rec := &idempotency.Record{
		RequestID:   requestID,
		Status:      entry.Status,
		Result:      entry.Result,
		ProcessedAt: now,
	}
	if ttl := ttlCmd.Val(); ttl > 0 {
		rec.ExpiresAt = now.Add(ttl)
	}
	return rec, nil
}

// Claim uses SET NX so exactly one writer owns the id until it expires.
func (s *RedisStore) Claim(ctx context.Context, rec *idempotency.Record) error {
	raw, ttl, err := s.encode(rec)
	if err != nil || ttl <= 0 {
		return err
	}
	ok, err := s.client.SetNX(ctx, s.key(rec.RequestID), raw, ttl).Result()
	if err != nil {
		return fmt.Errorf("idempotency: redis claim: %w", err)
	}
	if !ok {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (s *RedisStore) Complete(ctx context.Context, rec *idempotency.Record) error {
	raw, ttl, err := s.encode(rec)
	if err != nil || ttl <= 0 {
		return err
	}
	if err := s.client.Set(ctx, s.key(rec.RequestID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("idempotency: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, requestID string) error {
	if err := s.client.Del(ctx, s.key(requestID)).Err(); err != nil {
		return fmt.Errorf("idempotency: redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) encode(rec *idempotency.Record) ([]byte, time.Duration, error) {
	ttl := rec.ExpiresAt.Sub(rec.ProcessedAt)
	raw, err := json.Marshal(redisEntry{Status: rec.Status, Result: rec.Result})
	if err != nil {
		return nil, 0, fmt.Errorf("idempotency: redis encode: %w", err)
	}
	return raw, ttl, nil
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*RedisStore)(nil)
)
