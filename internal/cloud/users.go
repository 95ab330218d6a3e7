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

// UserDocument is the per-account document.
type UserDocument struct {
	UpdatedAt   time.Time      `json:"updatedAt"`
	Profile     *model.Profile `json:"profile,omitempty"`
	UID         string         `json:"uid"`
	Email       string         `json:"email,omitempty"`
	DisplayName string         `json:"displayName,omitempty"`
	PhotoURL    string         `json:"photoURL,omitempty"`
}

// UserUpdate lists the top-level fields to merge into a user document.
// Nil fields keep their stored value.
type UserUpdate struct {
	Email       *string
	DisplayName *string
	PhotoURL    *string
	Profile     *model.Profile
}

// GetUser loads the user document, or ErrNotFound.
func (d *DB) GetUser(ctx context.Context, uid string) (*UserDocument, error) {
	var (
		email, name, photo sql.NullString
		profile            []byte
		doc                = UserDocument{UID: uid}
	)

	err := d.db.QueryRowContext(ctx, `
		SELECT email, display_name, photo_url, profile, updated_at
		FROM users WHERE uid = $1`, uid).
		Scan(&email, &name, &photo, &profile, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, uid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", uid, err)
	}

	doc.Email = email.String
	doc.DisplayName = name.String
	doc.PhotoURL = photo.String

	if len(profile) > 0 && string(profile) != "null" {
		var p model.Profile
		if err := json.Unmarshal(profile, &p); err != nil {
			return nil, fmt.Errorf("failed to decode profile for %s: %w", uid, err)
		}
		doc.Profile = &p
	}
	return &doc, nil
}

// MergeUser creates the user document or merges the given fields into it.
func (d *DB) MergeUser(ctx context.Context, uid string, update UserUpdate) error {
	var profile *string
	if update.Profile != nil {
		data, err := json.Marshal(update.Profile)
		if err != nil {
			return fmt.Errorf("failed to encode profile: %w", err)
		}
		s := string(data)
		profile = &s
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO users (uid, email, display_name, photo_url, profile, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, NOW())
		ON CONFLICT (uid) DO UPDATE SET
			email = COALESCE(EXCLUDED.email, users.email),
			display_name = COALESCE(EXCLUDED.display_name, users.display_name),
			photo_url = COALESCE(EXCLUDED.photo_url, users.photo_url),
			profile = COALESCE(EXCLUDED.profile, users.profile),
			updated_at = NOW()`,
		uid, update.Email, update.DisplayName, update.PhotoURL, profile)
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", uid, err)
	}

	d.logger.Debug("Saved user document", "uid", uid, "profile", update.Profile != nil)
	return nil
}

// DeleteUser removes the user document and every purchase it owns.
func (d *DB) DeleteUser(ctx context.Context, uid string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM users WHERE uid = $1`, uid); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", uid, err)
	}
	return nil
}
