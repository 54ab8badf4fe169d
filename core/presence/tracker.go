// Package presence keeps the ephemeral who-is-online register. Records are
// refreshed by heartbeats and removed on disconnect; they are never history.
package presence

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/geo"
)

var ErrNotFound = errors.New("active session not found")

// ActiveSession is one logged-in user's liveness record.
type ActiveSession struct {
	UserID      string           `json:"user_id"`
	Name        string           `json:"name"`
	Role        string           `json:"role"`
	LastSeen    int64            `json:"last_seen"` // epoch ms
	Coordinates *geo.Coordinates `json:"coordinates,omitempty"`
	Device      string           `json:"device,omitempty"`
}

// Profile is the identity snapshot carried on a heartbeat.
type Profile struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Device string `json:"device"`
}

type (
	Repository interface {
		UpsertActiveSession(ctx context.Context, rec ActiveSession) error
		GetActiveSession(ctx context.Context, userID string) (ActiveSession, error)
		QueryActiveSessions(ctx context.Context) ([]ActiveSession, error)
		DeleteActiveSession(ctx context.Context, userID string) error
		// RegisterDisconnectCleanup arranges for the record's removal when
		// the owning connection drops, store-side.
		RegisterDisconnectCleanup(ctx context.Context, userID string) error
	}

	Tracker struct {
		repo      Repository
		threshold time.Duration

		nowFunc func() time.Time // mockable
	}
)

func NewTracker(repo Repository, threshold time.Duration) *Tracker {
	return &Tracker{
		repo:      repo,
		threshold: threshold,
		nowFunc:   time.Now,
	}
}

// Heartbeat upserts the user's liveness record with a fresh LastSeen and
// re-registers the disconnect cleanup hook.
func (t *Tracker) Heartbeat(ctx context.Context, userID string, profile Profile, coords *geo.Coordinates) (ActiveSession, error) {
	rec := ActiveSession{
		UserID:      userID,
		Name:        profile.Name,
		Role:        profile.Role,
		Device:      profile.Device,
		LastSeen:    core.TimeToMillis(t.nowFunc()),
		Coordinates: coords,
	}
	if err := t.repo.UpsertActiveSession(ctx, rec); err != nil {
		return ActiveSession{}, errors.Wrap(err, "upserting active session")
	}
	if err := t.repo.RegisterDisconnectCleanup(ctx, userID); err != nil {
		return ActiveSession{}, errors.Wrap(err, "registering disconnect cleanup")
	}
	return rec, nil
}

// Disconnect removes the user's record immediately (explicit logout).
func (t *Tracker) Disconnect(ctx context.Context, userID string) error {
	return t.repo.DeleteActiveSession(ctx, userID)
}

// Online lists the records currently considered online. Staleness is
// recomputed against "now" on every call; there is no push-driven expiry.
func (t *Tracker) Online(ctx context.Context) ([]ActiveSession, error) {
	records, err := t.repo.QueryActiveSessions(ctx)
	if err != nil {
		return nil, err
	}
	now := t.nowFunc()
	online := make([]ActiveSession, 0, len(records))
	for _, rec := range records {
		if IsOnline(rec, now, t.threshold) {
			online = append(online, rec)
		}
	}
	return online, nil
}

// IsOnline reports whether rec was seen within threshold of now.
func IsOnline(rec ActiveSession, now time.Time, threshold time.Duration) bool {
	return now.Sub(core.MillisToTime(rec.LastSeen)) < threshold
}
