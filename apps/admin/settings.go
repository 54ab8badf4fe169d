package main

import (
	"context"
	"fmt"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
)

// updateSettings writes the running academic period and the system toggle.
func (cli *commandLine) updateSettings(schoolYear, semester string, active bool) error {
	if semester != "Ganjil" && semester != "Genap" {
		return fmt.Errorf("invalid semester %q: must be Ganjil or Genap", semester)
	}
	return cli.settingsRepo.SaveAppSettings(context.Background(), core.AppSettings{
		SchoolYear:   schoolYear,
		Semester:     semester,
		SystemActive: active,
	})
}
