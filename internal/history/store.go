// Package history persists purchase checks and profiles behind one contract
// with a device-local and a cloud implementation.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/mindspend/internal/model"
)

// DefaultListLimit is used when List is called with a non-positive limit.
const DefaultListLimit = 50

// ErrRecordNotFound is returned by UpdateDecision for an unknown id.
var ErrRecordNotFound = errors.New("purchase record not found")

// Store is the capability every history backend provides.
// Stores never deduplicate; callers decide when to Create.
type Store interface {
	Create(ctx context.Context, rec model.NewPurchaseRecord) (string, error)
	List(ctx context.Context, limit int) ([]model.PurchaseRecord, error)
	UpdateDecision(ctx context.Context, id string, decision model.Decision, regret *bool) error
	Delete(ctx context.Context, id string) error
}

// Getter is implemented by stores that can load one record directly.
type Getter interface {
	Get(ctx context.Context, id string) (model.PurchaseRecord, error)
}

// Find returns the record with id. Stores without a Getter are searched
// through their default List window, which holds every local record.
func Find(ctx context.Context, s Store, id string) (model.PurchaseRecord, error) {
	if g, ok := s.(Getter); ok {
		return g.Get(ctx, id)
	}
	records, err := s.List(ctx, 0)
	if err != nil {
		return model.PurchaseRecord{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return model.PurchaseRecord{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
}

func validateDecision(decision model.Decision) error {
	if !decision.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidDecision, decision)
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

var (
	_ Store        = (*LocalStore)(nil)
	_ Store        = (*CloudStore)(nil)
	_ Getter       = (*CloudStore)(nil)
	_ ProfileStore = (*LocalProfileStore)(nil)
	_ ProfileStore = (*CloudProfileStore)(nil)
)
