package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/mindspend/internal/cloud"
	"github.com/Veraticus/mindspend/internal/model"
	"github.com/Veraticus/mindspend/internal/storage"
)

// ProfileStore loads and saves the session's profile.
// Load returns nil without error when no profile has been saved.
type ProfileStore interface {
	Load(ctx context.Context) (*model.Profile, error)
	Save(ctx context.Context, p model.Profile) error
}

// LocalProfileStore keeps the profile under the device profile key.
type LocalProfileStore struct {
	kv     storage.KeyValueStore
	logger *slog.Logger
}

// NewLocalProfileStore returns a profile store over kv.
func NewLocalProfileStore(kv storage.KeyValueStore) *LocalProfileStore {
	return &LocalProfileStore{
		kv:     kv,
		logger: slog.Default().With("component", "profile.local"),
	}
}

// Load reads the device profile. An unreadable value is treated as absent.
func (s *LocalProfileStore) Load(ctx context.Context) (*model.Profile, error) {
	raw, err := s.kv.Get(ctx, storage.KeyProfile)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var p model.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Warn("Discarding unreadable profile", "error", err)
		return nil, nil
	}
	return &p, nil
}

// Save replaces the device profile.
func (s *LocalProfileStore) Save(ctx context.Context, p model.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyProfile, string(data)); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// UserDB is the part of the cloud document store the CloudProfileStore needs.
type UserDB interface {
	GetUser(ctx context.Context, uid string) (*cloud.UserDocument, error)
	MergeUser(ctx context.Context, uid string, update cloud.UserUpdate) error
}

// ProfileCache fronts profile reads. Cache failures never fail a load or save.
type ProfileCache interface {
	Get(ctx context.Context, uid string) (*model.Profile, bool, error)
	Set(ctx context.Context, uid string, p model.Profile) error
	Invalidate(ctx context.Context, uid string) error
}

// Owner is the identity metadata merged into the user document on every save.
type Owner struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// CloudProfileStore keeps the profile inside the user document.
type CloudProfileStore struct {
	db     UserDB
	cache  ProfileCache
	logger *slog.Logger
	owner  Owner
}

// NewCloudProfileStore returns a store for owner's profile. cache may be nil.
func NewCloudProfileStore(db UserDB, cache ProfileCache, owner Owner) *CloudProfileStore {
	return &CloudProfileStore{
		db:     db,
		cache:  cache,
		owner:  owner,
		logger: slog.Default().With("component", "profile.cloud", "uid", owner.UID),
	}
}

// Load returns the cached profile or reads the user document.
func (s *CloudProfileStore) Load(ctx context.Context) (*model.Profile, error) {
	if s.cache != nil {
		p, ok, err := s.cache.Get(ctx, s.owner.UID)
		if err != nil {
			s.logger.Warn("Profile cache read failed", "error", err)
		} else if ok {
			return p, nil
		}
	}

	doc, err := s.db.GetUser(ctx, s.owner.UID)
	if errors.Is(err, cloud.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if doc.Profile == nil {
		return nil, nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.owner.UID, *doc.Profile); err != nil {
			s.logger.Warn("Profile cache write failed", "error", err)
		}
	}
	return doc.Profile, nil
}

// Save merges the profile and the owner's identity fields into the user document.
func (s *CloudProfileStore) Save(ctx context.Context, p model.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	update := cloud.UserUpdate{
		Email:       optional(s.owner.Email),
		DisplayName: optional(s.owner.DisplayName),
		PhotoURL:    optional(s.owner.PhotoURL),
		Profile:     &p,
	}
	if err := s.db.MergeUser(ctx, s.owner.UID, update); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, s.owner.UID); err != nil {
			s.logger.Warn("Profile cache invalidation failed", "error", err)
		}
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
