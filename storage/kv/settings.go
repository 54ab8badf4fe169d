package kv

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
)

// SettingsRepo persists the single config/app_settings record. A store with
// no record yet reports inactive defaults so a fresh deployment stays locked
// until an admin configures the period.
type SettingsRepo struct {
	store Store
}

var _ core.SettingsRepository = (*SettingsRepo)(nil)

func NewSettingsRepo(store Store) *SettingsRepo {
	return &SettingsRepo{store: store}
}

func (r *SettingsRepo) GetAppSettings(ctx context.Context) (core.AppSettings, error) {
	value, err := r.store.Get(ctx, AppSettingsPath)
	if err == ErrKeyNotFound {
		return core.AppSettings{}, nil
	}
	if err != nil {
		return core.AppSettings{}, err
	}
	var settings core.AppSettings
	if err = json.Unmarshal(value, &settings); err != nil {
		return core.AppSettings{}, errors.Wrap(err, "decoding app settings")
	}
	return settings, nil
}

func (r *SettingsRepo) SaveAppSettings(ctx context.Context, settings core.AppSettings) error {
	value, err := json.Marshal(settings)
	if err != nil {
		return errors.Wrap(err, "encoding app settings")
	}
	return r.store.Put(ctx, AppSettingsPath, value)
}
