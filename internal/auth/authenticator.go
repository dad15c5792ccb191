// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/placementlabs/archivus/internal/cache"
	"github.com/placementlabs/archivus/internal/logging"
	"github.com/placementlabs/archivus/internal/metrics"
	"github.com/placementlabs/archivus/internal/models"
	"github.com/placementlabs/archivus/internal/store"
)

// ErrNameCooldown is returned when a display name change comes too soon
// after the previous one.
var ErrNameCooldown = errors.New("name was changed recently")

// Config holds authenticator settings.
type Config struct {
	// CacheTTL bounds how long a verified principal is served without
	// re-reading the user record.
	CacheTTL     time.Duration
	CacheSize    int
	NameCooldown time.Duration
}

// Authenticator turns bearer tokens into user records, creating the
// record on first sight. Verified principals are cached; the cache key
// is a one-way hash of the token so no secret material enters the key
// space.
type Authenticator struct {
	verifier     TokenVerifier
	store        *store.Store
	cache        *cache.Cache[models.User]
	nameCooldown time.Duration
	now          func() time.Time
}

// NewAuthenticator wires token verification, the user collection, and
// the principal cache.
func NewAuthenticator(verifier TokenVerifier, st *store.Store, cfg Config) *Authenticator {
	return &Authenticator{
		verifier:     verifier,
		store:        st,
		cache:        cache.New[models.User](cfg.CacheTTL, cfg.CacheSize),
		nameCooldown: cfg.NameCooldown,
		now:          time.Now,
	}
}

// Principal resolves a bearer token to a user record. Unknown subjects
// get a viewer record created on the spot.
func (a *Authenticator) Principal(ctx context.Context, token string) (models.User, error) {
	key := cache.Key("principal", token)
	if user, ok := a.cache.Get(key); ok {
		metrics.CacheEvents.WithLabelValues("principal", "hit").Inc()
		return user, nil
	}
	metrics.CacheEvents.WithLabelValues("principal", "miss").Inc()

	id, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return models.User{}, err
	}
	user, err := a.getOrCreate(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	a.cache.Put(key, user)
	return user, nil
}

// InvalidatePrincipals drops every cached principal, forcing fresh user
// reads. Called after role or profile mutations.
func (a *Authenticator) InvalidatePrincipals() {
	a.cache.Clear()
}

// User loads one user record directly, bypassing the principal cache.
func (a *Authenticator) User(ctx context.Context, uid string) (models.User, error) {
	doc, err := a.store.Get(ctx, models.CollectionUsers, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, models.ErrNotFound
		}
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	var user models.User
	if err := store.Decode(doc, &user); err != nil {
		return models.User{}, fmt.Errorf("decode user: %w", err)
	}
	user.UID = uid
	return user, nil
}

// UpdateName changes the user's name and derived display name. At most
// one change per cooldown window.
func (a *Authenticator) UpdateName(ctx context.Context, uid, newName string) (models.User, error) {
	user, err := a.User(ctx, uid)
	if err != nil {
		return models.User{}, err
	}
	display := models.DeriveDisplayName(newName)
	if display == "" {
		return models.User{}, fmt.Errorf("%w: name is empty", models.ErrValidation)
	}

	if user.NameLastUpdatedAt != "" && a.nameCooldown > 0 {
		last, err := time.Parse(time.RFC3339Nano, user.NameLastUpdatedAt)
		if err == nil && a.now().Sub(last) < a.nameCooldown {
			return models.User{}, fmt.Errorf("%w: next change allowed %s",
				ErrNameCooldown, last.Add(a.nameCooldown).Format(time.RFC3339))
		}
	}

	err = a.store.Update(ctx, models.CollectionUsers, uid, map[string]any{
		"name":                 newName,
		"display_name":         display,
		"name_last_updated_at": store.Timestamp(a.now()),
	}, false)
	if err != nil {
		return models.User{}, fmt.Errorf("update name: %w", err)
	}
	a.InvalidatePrincipals()
	return a.User(ctx, uid)
}

func (a *Authenticator) getOrCreate(ctx context.Context, id Identity) (models.User, error) {
	user, err := a.User(ctx, id.UID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return models.User{}, err
	}

	user = models.User{
		UID:         id.UID,
		Name:        id.Name,
		Email:       id.Email,
		Role:        models.RoleViewer,
		DisplayName: models.DeriveDisplayName(id.Name),
		CreatedAt:   store.Timestamp(a.now()),
	}
	fields, err := store.DocumentFrom(user)
	if err != nil {
		return models.User{}, fmt.Errorf("encode user: %w", err)
	}
	if err := a.store.Set(ctx, models.CollectionUsers, id.UID, fields); err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	logging.Info().Str("uid", id.UID).Msg("user record created")
	return user, nil
}
