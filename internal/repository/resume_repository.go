package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoResumeState is returned when no saved state exists for the client.
var ErrNoResumeState = errors.New("no resume state")

// ErrResumeUnavailable is returned when the service is running without
// Redis; resume state is a degradable feature, not a hard dependency.
var ErrResumeUnavailable = errors.New("resume store unavailable")

// PurchaseDraft is the in-progress purchase form a client saves before
// being sent to the login page, so the flow can resume after
// authentication instead of discarding the user's input.
type PurchaseDraft struct {
	EventID  uint64 `json:"event_id"`
	Quantity uint8  `json:"quantity"`
}

// ResumeRepo stores single-slot client resume state in Redis: the path
// to return to after login and an in-progress purchase draft. Each key
// is scoped to a client-chosen ID and a new write overwrites the
// previous one; there is no queue of pending redirects. Entries expire
// on their own so abandoned drafts do not accumulate.
type ResumeRepo struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewResumeRepo(rdb *redis.Client, ttl time.Duration) *ResumeRepo {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ResumeRepo{RDB: rdb, TTL: ttl}
}

// SavePath stores the path to resume after login for the client.
func (r *ResumeRepo) SavePath(ctx context.Context, clientID, path string) error {
	if r.RDB == nil {
		return ErrResumeUnavailable
	}
	return r.RDB.Set(ctx, "resume:path:"+clientID, path, r.TTL).Err()
}

// LoadPath returns the saved path, consuming it so a stale redirect is
// never replayed on a later login.
func (r *ResumeRepo) LoadPath(ctx context.Context, clientID string) (string, error) {
	if r.RDB == nil {
		return "", ErrResumeUnavailable
	}
	path, err := r.RDB.GetDel(ctx, "resume:path:"+clientID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoResumeState
		}
		return "", err
	}
	return path, nil
}

// SavePurchase stores the in-progress purchase draft for the client.
func (r *ResumeRepo) SavePurchase(ctx context.Context, clientID string, draft PurchaseDraft) error {
	if r.RDB == nil {
		return ErrResumeUnavailable
	}
	body, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return r.RDB.Set(ctx, "resume:purchase:"+clientID, body, r.TTL).Err()
}

// LoadPurchase returns and consumes the saved purchase draft.
func (r *ResumeRepo) LoadPurchase(ctx context.Context, clientID string) (PurchaseDraft, error) {
	if r.RDB == nil {
		return PurchaseDraft{}, ErrResumeUnavailable
	}
	body, err := r.RDB.GetDel(ctx, "resume:purchase:"+clientID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return PurchaseDraft{}, ErrNoResumeState
		}
		return PurchaseDraft{}, err
	}
	var draft PurchaseDraft
	if err := json.Unmarshal(body, &draft); err != nil {
		return PurchaseDraft{}, err
	}
	return draft, nil
}
