package cloud

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/mindspend/internal/model"
)

// DefaultListLimit applies when List is called without a positive limit.
const DefaultListLimit = 50

// purchaseDocument is a PurchaseRecord minus the id and timestamp, which live in columns.
type purchaseDocument struct {
	Regret          *bool             `json:"regret,omitempty"`
	RegretCheckedAt *time.Time        `json:"regretCheckedAt,omitempty"`
	Calculations    model.DerivedCost `json:"calculations"`
	Label           string            `json:"label"`
	Category        model.Category    `json:"category"`
	Decision        model.Decision    `json:"decision"`
	Profile         model.Profile     `json:"profile"`
	Price           float64           `json:"price"`
	TimeOfDay       int               `json:"timeOfDay"`
}

func toDocument(r model.PurchaseRecord) purchaseDocument {
	return purchaseDocument{
		Price:           r.Price,
		Label:           r.Label,
		Category:        r.Category,
		Profile:         r.Profile,
		Calculations:    r.Calculations,
		Decision:        r.Decision,
		TimeOfDay:       r.TimeOfDay,
		Regret:          r.Regret,
		RegretCheckedAt: r.RegretCheckedAt,
	}
}

func (doc purchaseDocument) record(id string, ts time.Time) model.PurchaseRecord {
	return model.PurchaseRecord{
		ID:              id,
		Timestamp:       ts,
		Price:           doc.Price,
		Label:           doc.Label,
		Category:        doc.Category,
		Profile:         doc.Profile,
		Calculations:    doc.Calculations,
		Decision:        doc.Decision,
		TimeOfDay:       doc.TimeOfDay,
		Regret:          doc.Regret,
		RegretCheckedAt: doc.RegretCheckedAt,
	}
}

// InsertPurchase stores r under uid. The user document is created if missing.
func (d *DB) InsertPurchase(ctx context.Context, uid string, r model.PurchaseRecord) error {
	data, err := json.Marshal(toDocument(r))
	if err != nil {
		return fmt.Errorf("failed to encode purchase: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO users (uid) VALUES ($1) ON CONFLICT (uid) DO NOTHING`, uid); err != nil {
		return fmt.Errorf("failed to ensure user %s: %w", uid, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO purchases (id, uid, ts, doc) VALUES ($1, $2, $3, $4::jsonb)`,
		r.ID, uid, r.Timestamp, string(data)); err != nil {
		return fmt.Errorf("failed to insert purchase: %w", err)
	}
	return tx.Commit()
}

// ListPurchases returns up to limit purchases for uid, newest first.
func (d *DB) ListPurchases(ctx context.Context, uid string, limit int) ([]model.PurchaseRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, ts, doc FROM purchases
		WHERE uid = $1
		ORDER BY ts DESC
		LIMIT $2`, uid, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]model.PurchaseRecord, 0)
	for rows.Next() {
		var (
			id  string
			ts  time.Time
			raw []byte
			doc purchaseDocument
		)
		if err := rows.Scan(&id, &ts, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			d.logger.Warn("Skipping unreadable purchase document", "id", id, "error", err)
			continue
		}
		records = append(records, doc.record(id, ts))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read purchases: %w", err)
	}
	return records, nil
}

// GetPurchase loads one purchase of uid, or ErrNotFound.
func (d *DB) GetPurchase(ctx context.Context, uid, id string) (model.PurchaseRecord, error) {
	var (
		ts  time.Time
		raw []byte
		doc purchaseDocument
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT ts, doc FROM purchases WHERE uid = $1 AND id = $2`, uid, id).
		Scan(&ts, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PurchaseRecord{}, fmt.Errorf("%w: purchase %s", ErrNotFound, id)
	}
	if err != nil {
		return model.PurchaseRecord{}, fmt.Errorf("failed to load purchase %s: %w", id, err)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.PurchaseRecord{}, fmt.Errorf("failed to decode purchase %s: %w", id, err)
	}
	return doc.record(id, ts), nil
}

// UpdatePurchaseDecision merges the decision, and the regret fields when regret
// is non-nil, into the stored document. Missing documents return ErrNotFound.
func (d *DB) UpdatePurchaseDecision(ctx context.Context, uid, id string, decision model.Decision, regret *bool, at time.Time) error {
	patch := map[string]any{"decision": decision}
	if regret != nil {
		patch["regret"] = *regret
		patch["regretCheckedAt"] = at
	}
	data, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to encode decision: %w", err)
	}

	res, err := d.db.ExecContext(ctx,
		`UPDATE purchases SET doc = doc || $3::jsonb WHERE uid = $1 AND id = $2`,
		uid, id, string(data))
	if err != nil {
		return fmt.Errorf("failed to update purchase %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update purchase %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: purchase %s", ErrNotFound, id)
	}
	return nil
}

// DeletePurchase removes a purchase. Deleting a missing id succeeds.
func (d *DB) DeletePurchase(ctx context.Context, uid, id string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM purchases WHERE uid = $1 AND id = $2`, uid, id); err != nil {
		return fmt.Errorf("failed to delete purchase %s: %w", id, err)
	}
	return nil
}
