// Package office holds the physical class locations. An Office's coordinates
// are the geofence center check-ins are verified against.
package office

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/geo"
)

type Office struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Grade             string          `json:"grade"`
	HomeroomTeacherID string          `json:"homeroom_teacher_id"`
	Address           string          `json:"address"`
	Coordinates       geo.Coordinates `json:"coordinates"`
	CreatedAt         time.Time       `json:"created_at"` // UTC
	UpdatedAt         time.Time       `json:"updated_at"` // UTC
}

// NewOffice contains information needed to register a new Office.
type NewOffice struct {
	Name              string  `json:"name" validate:"required"`
	Grade             string  `json:"grade"`
	HomeroomTeacherID string  `json:"homeroom_teacher_id"`
	Address           string  `json:"address"`
	Latitude          float64 `json:"latitude" validate:"lat"`
	Longitude         float64 `json:"longitude" validate:"lon"`
}

func (no *NewOffice) Validate(validate *validator.Validate) error {
	no.Name = core.CleanString(no.Name)
	no.Address = core.CleanString(no.Address)
	return validate.Struct(no)
}

// UpdateOffice defines what information may be provided to modify an existing Office.
type UpdateOffice struct {
	Name              string   `json:"name"`
	Grade             string   `json:"grade"`
	HomeroomTeacherID string   `json:"homeroom_teacher_id"`
	Address           string   `json:"address"`
	Latitude          *float64 `json:"latitude" validate:"omitempty,lat"`
	Longitude         *float64 `json:"longitude" validate:"omitempty,lon"`
}

func (uo *UpdateOffice) Validate(orig Office, validate *validator.Validate) error {
	if name := core.CleanString(uo.Name); name != "" {
		uo.Name = name
	} else {
		uo.Name = orig.Name
	}
	if uo.Grade == "" {
		uo.Grade = orig.Grade
	}
	if uo.HomeroomTeacherID == "" {
		uo.HomeroomTeacherID = orig.HomeroomTeacherID
	}
	if addr := core.CleanString(uo.Address); addr != "" {
		uo.Address = addr
	} else {
		uo.Address = orig.Address
	}
	if uo.Latitude == nil {
		uo.Latitude = &orig.Coordinates.Latitude
	}
	if uo.Longitude == nil {
		uo.Longitude = &orig.Coordinates.Longitude
	}
	return validate.Struct(uo)
}
