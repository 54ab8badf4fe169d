package kv

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core/presence"
)

// PresenceRepo keeps the ephemeral active_users/{userID} liveness records.
// Disconnect cleanup is delegated to the store's last-will hook.
type PresenceRepo struct {
	store Store
}

var _ presence.Repository = (*PresenceRepo)(nil)

func NewPresenceRepo(store Store) *PresenceRepo {
	return &PresenceRepo{store: store}
}

func (r *PresenceRepo) UpsertActiveSession(ctx context.Context, rec presence.ActiveSession) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrapf(err, "encoding active session %s", rec.UserID)
	}
	return r.store.Put(ctx, Join(ActiveUsersPrefix, rec.UserID), value)
}

func (r *PresenceRepo) GetActiveSession(ctx context.Context, userID string) (presence.ActiveSession, error) {
	value, err := r.store.Get(ctx, Join(ActiveUsersPrefix, userID))
	if err == ErrKeyNotFound {
		return presence.ActiveSession{}, presence.ErrNotFound
	}
	if err != nil {
		return presence.ActiveSession{}, err
	}
	var rec presence.ActiveSession
	if err = json.Unmarshal(value, &rec); err != nil {
		return presence.ActiveSession{}, errors.Wrapf(err, "decoding active session %s", userID)
	}
	return rec, nil
}

func (r *PresenceRepo) QueryActiveSessions(ctx context.Context) ([]presence.ActiveSession, error) {
	snap, err := r.store.List(ctx, ActiveUsersPrefix)
	if err != nil {
		return nil, err
	}
	records := make([]presence.ActiveSession, 0, len(snap))
	for path, value := range snap {
		var rec presence.ActiveSession
		if err = json.Unmarshal(value, &rec); err != nil {
			return nil, errors.Wrapf(err, "decoding record %s", path)
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UserID < records[j].UserID })
	return records, nil
}

func (r *PresenceRepo) DeleteActiveSession(ctx context.Context, userID string) error {
	return r.store.Delete(ctx, Join(ActiveUsersPrefix, userID))
}

func (r *PresenceRepo) RegisterDisconnectCleanup(ctx context.Context, userID string) error {
	return r.store.RegisterDisconnectCleanup(ctx, Join(ActiveUsersPrefix, userID))
}
