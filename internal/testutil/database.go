// Package testutil provides shared fixtures for mindspend tests: a migrated
// in-memory device store, an in-memory cloud document store and profile builders.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/mindspend/internal/model"
	"github.com/Veraticus/mindspend/internal/storage"
)

// DeviceStore is a migrated in-memory device store bound to a test.
type DeviceStore struct {
	*storage.SQLiteStorage
	t *testing.T
}

// SetupDeviceStore creates a new in-memory device store.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	kv := testutil.SetupDeviceStore(t)
//	kv.MustSet(storage.KeyGuestMode, "true")
func SetupDeviceStore(t *testing.T) *DeviceStore {
	t.Helper()

	s, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return &DeviceStore{SQLiteStorage: s, t: t}
}

// MustSet stores value under key or fails the test.
func (d *DeviceStore) MustSet(key, value string) {
	d.t.Helper()
	if err := d.Set(context.Background(), key, value); err != nil {
		d.t.Fatalf("failed to set %s: %v", key, err)
	}
}

// MustGet reads key or fails the test.
func (d *DeviceStore) MustGet(key string) string {
	d.t.Helper()
	v, err := d.Get(context.Background(), key)
	if err != nil {
		d.t.Fatalf("failed to get %s: %v", key, err)
	}
	return v
}

// Has reports whether key holds a value.
func (d *DeviceStore) Has(key string) bool {
	d.t.Helper()
	_, err := d.Get(context.Background(), key)
	return err == nil
}

// ProfileOption adjusts the profile built by Profile.
type ProfileOption func(*model.Profile)

// WithEmergencyGoal sets the emergency fund goal.
func WithEmergencyGoal(v float64) ProfileOption {
	return func(p *model.Profile) { p.EmergencyFundGoal = &v }
}

// WithFreedomGoal sets the freedom fund goal.
func WithFreedomGoal(v float64) ProfileOption {
	return func(p *model.Profile) { p.FreedomGoal = &v }
}

// WithExpenses sets monthly expenses.
func WithExpenses(v float64) ProfileOption {
	return func(p *model.Profile) { p.MonthlyExpenses = v }
}

// Profile returns a valid profile earning 20 an hour with 2000 monthly expenses.
func Profile(opts ...ProfileOption) model.Profile {
	p := model.Profile{
		HourlyWage:         20,
		WorkingDaysPerYear: model.DefaultWorkingDaysPerYear,
		MonthlyExpenses:    2000,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// NewRecord builds a creatable record for price and label against Profile().
func NewRecord(price float64, label string) model.NewPurchaseRecord {
	p := Profile()
	return model.NewPurchaseRecord{
		Price:    price,
		Label:    label,
		Category: model.CategoryOther,
		Profile:  p,
		Calculations: model.DerivedCost{
			TimeInMinutes: int(price / p.HourlyWage * 60),
		},
	}
}
