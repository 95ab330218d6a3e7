package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Veraticus/mindspend/internal/cloud"
	"github.com/Veraticus/mindspend/internal/model"
)

// FakeCloud is an in-memory stand-in for the cloud document store.
type FakeCloud struct {
	users     map[string]cloud.UserDocument
	purchases map[string]map[string]model.PurchaseRecord
	// Err, when set, is returned by every call.
	Err error
	mu  sync.Mutex
}

// NewFakeCloud returns an empty store.
func NewFakeCloud() *FakeCloud {
	return &FakeCloud{
		users:     make(map[string]cloud.UserDocument),
		purchases: make(map[string]map[string]model.PurchaseRecord),
	}
}

// GetUser returns a copy of the user document.
func (f *FakeCloud) GetUser(_ context.Context, uid string) (*cloud.UserDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	doc, ok := f.users[uid]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", cloud.ErrNotFound, uid)
	}
	if doc.Profile != nil {
		p := doc.Profile.Clone()
		doc.Profile = &p
	}
	return &doc, nil
}

// MergeUser merges the non-nil fields of update.
func (f *FakeCloud) MergeUser(_ context.Context, uid string, update cloud.UserUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	doc := f.users[uid]
	doc.UID = uid
	if update.Email != nil {
		doc.Email = *update.Email
	}
	if update.DisplayName != nil {
		doc.DisplayName = *update.DisplayName
	}
	if update.PhotoURL != nil {
		doc.PhotoURL = *update.PhotoURL
	}
	if update.Profile != nil {
		p := update.Profile.Clone()
		doc.Profile = &p
	}
	doc.UpdatedAt = time.Now()
	f.users[uid] = doc
	return nil
}

// DeleteUser removes the user and their purchases.
func (f *FakeCloud) DeleteUser(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	delete(f.users, uid)
	delete(f.purchases, uid)
	return nil
}

// InsertPurchase stores r under uid.
func (f *FakeCloud) InsertPurchase(_ context.Context, uid string, r model.PurchaseRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if f.purchases[uid] == nil {
		f.purchases[uid] = make(map[string]model.PurchaseRecord)
	}
	f.purchases[uid][r.ID] = r
	return nil
}

// ListPurchases returns up to limit purchases, newest first.
func (f *FakeCloud) ListPurchases(_ context.Context, uid string, limit int) ([]model.PurchaseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	records := make([]model.PurchaseRecord, 0, len(f.purchases[uid]))
	for _, r := range f.purchases[uid] {
		records = append(records, r)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// GetPurchase returns one purchase of uid.
func (f *FakeCloud) GetPurchase(_ context.Context, uid, id string) (model.PurchaseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return model.PurchaseRecord{}, f.Err
	}
	r, ok := f.purchases[uid][id]
	if !ok {
		return model.PurchaseRecord{}, fmt.Errorf("%w: purchase %s", cloud.ErrNotFound, id)
	}
	return r, nil
}

// UpdatePurchaseDecision applies the decision to a stored purchase.
func (f *FakeCloud) UpdatePurchaseDecision(_ context.Context, uid, id string, decision model.Decision, regret *bool, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	r, ok := f.purchases[uid][id]
	if !ok {
		return fmt.Errorf("%w: purchase %s", cloud.ErrNotFound, id)
	}
	r.ApplyDecision(decision, regret, at)
	f.purchases[uid][id] = r
	return nil
}

// DeletePurchase removes a purchase if present.
func (f *FakeCloud) DeletePurchase(_ context.Context, uid, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	delete(f.purchases[uid], id)
	return nil
}

// PurchaseCount returns how many purchases uid owns.
func (f *FakeCloud) PurchaseCount(uid string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.purchases[uid])
}
