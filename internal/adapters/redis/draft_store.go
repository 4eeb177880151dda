// Package redis provides Redis-based adapters for the nomo driver platform.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
	"github.com/redis/go-redis/v9"
)

var _ core.DraftRepository = (*DraftStore)(nil)

// DefaultDraftTTL is how long an untouched registration draft survives.
const DefaultDraftTTL = 30 * 24 * time.Hour

// DraftStore is a Redis-based registration draft store. Every Save
// overwrites the draft and refreshes its TTL.
type DraftStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewDraftStore creates a Redis draft store with keys "driverFormData:{draftID}".
func NewDraftStore(client redis.UniversalClient, ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &DraftStore{
		client: client,
		prefix: model.DraftKeyPrefix + ":",
		ttl:    ttl,
	}
}

func (s *DraftStore) Save(ctx context.Context, draftID string, draft model.RegistrationDraft) error {
	if draftID == "" {
		return errors.New("draft ID cannot be empty")
	}
	if draft.UpdatedAt.IsZero() {
		draft.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+draftID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *DraftStore) Get(ctx context.Context, draftID string) (*model.RegistrationDraft, error) {
	if draftID == "" {
		return nil, errDraftNotFound
	}
	data, err := s.client.Get(ctx, s.prefix+draftID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errDraftNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var draft model.RegistrationDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("unmarshal draft: %w", err)
	}
	return &draft, nil
}

func (s *DraftStore) Delete(ctx context.Context, draftID string) error {
	if draftID == "" {
		return nil // Nothing to delete
	}
	return s.client.Del(ctx, s.prefix+draftID).Err()
}

var errDraftNotFound = apperrors.NotFound("draft not found")
