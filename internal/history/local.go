package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/mindspend/internal/model"
	"github.com/Veraticus/mindspend/internal/storage"
)

// LocalCap is the maximum number of records kept on the device.
const LocalCap = 50

// LocalStore keeps the history as one JSON array under the purchase_history key,
// newest first.
type LocalStore struct {
	kv     storage.KeyValueStore
	logger *slog.Logger
	now    clock
	newID  func() string
	mu     sync.Mutex
}

// LocalOption configures a LocalStore.
type LocalOption func(*LocalStore)

// WithLocalClock overrides the time source used for timestamps.
func WithLocalClock(now func() time.Time) LocalOption {
	return func(s *LocalStore) { s.now = now }
}

// NewLocalStore returns a store over kv.
func NewLocalStore(kv storage.KeyValueStore, opts ...LocalOption) *LocalStore {
	s := &LocalStore{
		kv:     kv,
		logger: slog.Default().With("component", "history.local"),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create prepends the record and evicts the oldest beyond LocalCap.
func (s *LocalStore) Create(ctx context.Context, rec model.NewPurchaseRecord) (string, error) {
	rec = rec.Normalize()
	if err := rec.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := rec.Materialize(s.newID(), s.now.now())
	err := s.kv.Update(ctx, storage.KeyPurchaseHistory, func(current string, found bool) (string, error) {
		records := s.decode(current, found)
		records = append([]model.PurchaseRecord{stored}, records...)
		if len(records) > LocalCap {
			s.logger.Debug("Evicting oldest records", "count", len(records)-LocalCap)
			records = records[:LocalCap]
		}
		return encode(records)
	})
	if err != nil {
		return "", fmt.Errorf("failed to save purchase: %w", err)
	}
	return stored.ID, nil
}

// List returns up to limit records, newest first.
func (s *LocalStore) List(ctx context.Context, limit int) ([]model.PurchaseRecord, error) {
	raw, err := s.kv.Get(ctx, storage.KeyPurchaseHistory)
	if errors.Is(err, storage.ErrNotFound) {
		return []model.PurchaseRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	records := s.decode(raw, true)
	if limit = normalizeLimit(limit); len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// UpdateDecision sets the decision and optional regret on one record.
func (s *LocalStore) UpdateDecision(ctx context.Context, id string, decision model.Decision, regret *bool) error {
	if err := validateDecision(decision); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now.now()
	return s.kv.Update(ctx, storage.KeyPurchaseHistory, func(current string, found bool) (string, error) {
		records := s.decode(current, found)
		for i := range records {
			if records[i].ID == id {
				records[i].ApplyDecision(decision, regret, now)
				return encode(records)
			}
		}
		return "", fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	})
}

// Delete removes the record. Unknown ids are ignored.
func (s *LocalStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.kv.Update(ctx, storage.KeyPurchaseHistory, func(current string, found bool) (string, error) {
		records := s.decode(current, found)
		kept := records[:0]
		for _, r := range records {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		return encode(kept)
	})
}

// decode parses the stored array. Unreadable data is treated as an empty history.
func (s *LocalStore) decode(raw string, found bool) []model.PurchaseRecord {
	if !found || raw == "" {
		return []model.PurchaseRecord{}
	}
	var records []model.PurchaseRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.logger.Warn("Discarding unreadable purchase history", "error", err)
		return []model.PurchaseRecord{}
	}
	if records == nil {
		records = []model.PurchaseRecord{}
	}
	return records
}

func encode(records []model.PurchaseRecord) (string, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to encode history: %w", err)
	}
	return string(data), nil
}
