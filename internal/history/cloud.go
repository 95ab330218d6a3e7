package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/mindspend/internal/cloud"
	"github.com/Veraticus/mindspend/internal/model"
)

// PurchaseDB is the part of the cloud document store the CloudStore needs.
type PurchaseDB interface {
	InsertPurchase(ctx context.Context, uid string, r model.PurchaseRecord) error
	ListPurchases(ctx context.Context, uid string, limit int) ([]model.PurchaseRecord, error)
	GetPurchase(ctx context.Context, uid, id string) (model.PurchaseRecord, error)
	UpdatePurchaseDecision(ctx context.Context, uid, id string, decision model.Decision, regret *bool, at time.Time) error
	DeletePurchase(ctx context.Context, uid, id string) error
}

// CloudStore keeps one user's history in the cloud document store. It has no cap.
type CloudStore struct {
	db    PurchaseDB
	now   clock
	newID func() string
	uid   string
}

// NewCloudStore returns a store for uid's purchases.
func NewCloudStore(db PurchaseDB, uid string) *CloudStore {
	return &CloudStore{db: db, uid: uid, newID: uuid.NewString}
}

// Create inserts a new purchase document and returns its key.
func (s *CloudStore) Create(ctx context.Context, rec model.NewPurchaseRecord) (string, error) {
	rec = rec.Normalize()
	if err := rec.Validate(); err != nil {
		return "", err
	}

	stored := rec.Materialize(s.newID(), s.now.now())
	if err := s.db.InsertPurchase(ctx, s.uid, stored); err != nil {
		return "", fmt.Errorf("failed to save purchase: %w", err)
	}
	return stored.ID, nil
}

// List returns up to limit records, newest first.
func (s *CloudStore) List(ctx context.Context, limit int) ([]model.PurchaseRecord, error) {
	records, err := s.db.ListPurchases(ctx, s.uid, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return records, nil
}

// Get loads a single record by id, however old it is.
func (s *CloudStore) Get(ctx context.Context, id string) (model.PurchaseRecord, error) {
	rec, err := s.db.GetPurchase(ctx, s.uid, id)
	if errors.Is(err, cloud.ErrNotFound) {
		return model.PurchaseRecord{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return model.PurchaseRecord{}, fmt.Errorf("failed to load purchase: %w", err)
	}
	return rec, nil
}

// UpdateDecision merges the decision and optional regret into the document.
func (s *CloudStore) UpdateDecision(ctx context.Context, id string, decision model.Decision, regret *bool) error {
	if err := validateDecision(decision); err != nil {
		return err
	}

	err := s.db.UpdatePurchaseDecision(ctx, s.uid, id, decision, regret, s.now.now())
	if errors.Is(err, cloud.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update purchase: %w", err)
	}
	return nil
}

// Delete removes the document. A missing document counts as deleted.
func (s *CloudStore) Delete(ctx context.Context, id string) error {
	err := s.db.DeletePurchase(ctx, s.uid, id)
	if err != nil && !errors.Is(err, cloud.ErrNotFound) {
		return fmt.Errorf("failed to delete purchase: %w", err)
	}
	return nil
}
