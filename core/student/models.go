// Package student holds the student registry. Sessions reference students by
// id only; nothing here owns attendance data.
package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
)

type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ClassID   string    `json:"class_id"`
	Gender    string    `json:"gender,omitempty"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	Name     string `json:"name" validate:"required"`
	ClassID  string `json:"class_id" validate:"required"`
	Gender   string `json:"gender" validate:"omitempty,oneof=L P"`
	PhotoURL string `json:"photo_url"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	Name     string `json:"name"`
	ClassID  string `json:"class_id"`
	Gender   string `json:"gender" validate:"omitempty,oneof=L P"`
	PhotoURL string `json:"photo_url"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if us.ClassID == "" {
		us.ClassID = orig.ClassID
	}
	if us.Gender == "" {
		us.Gender = orig.Gender
	}
	if us.PhotoURL == "" {
		us.PhotoURL = orig.PhotoURL
	}
	return validate.Struct(us)
}
