package core

import "context"

// AppSettings is the school-wide stored configuration: the running academic
// period and the system-active toggle. Sessions denormalize the period tags
// at creation time so historical reports survive later changes here.
type AppSettings struct {
	SchoolYear   string `json:"school_year"` // eg. "2024/2025"
	Semester     string `json:"semester"`    // "Ganjil" | "Genap"
	SystemActive bool   `json:"is_system_active"`
}

type SettingsRepository interface {
	GetAppSettings(ctx context.Context) (AppSettings, error)
	SaveAppSettings(ctx context.Context, settings AppSettings) error
}
