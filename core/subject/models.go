// Package subject holds the weekly teaching slot registry. A Subject is the
// unit a teacher checks in against; sessions denormalize its fields at
// creation so later edits here never rewrite history.
package subject

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
)

var errBadTimeRange = errors.New("malformed time range")

type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TeacherID string    `json:"teacher_id"`
	ClassID   string    `json:"class_id"`
	Day       string    `json:"day"`        // eg. "Senin"
	TimeRange string    `json:"time_range"` // "HH:MM - HH:MM"
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// StartClock parses the start of TimeRange into wall-clock hour and minute.
func (s Subject) StartClock() (hour, minute int, err error) {
	start := strings.SplitN(s.TimeRange, "-", 2)[0]
	parts := strings.SplitN(strings.TrimSpace(start), ":", 2)
	if len(parts) != 2 {
		return 0, 0, errors.Wrap(errBadTimeRange, s.TimeRange)
	}
	if hour, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, errors.Wrap(errBadTimeRange, s.TimeRange)
	}
	if minute, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, errors.Wrap(errBadTimeRange, s.TimeRange)
	}
	return hour, minute, nil
}

// StartTimeOn anchors the slot's declared start time on the given calendar
// day, in that day's location.
func (s Subject) StartTimeOn(day time.Time) (time.Time, error) {
	hour, minute, err := s.StartClock()
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Name      string `json:"name" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
	Day       string `json:"day" validate:"required,dayname"`
	TimeRange string `json:"time_range" validate:"required,timerange"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Day = core.CleanString(ns.Day)
	ns.TimeRange = core.CleanString(ns.TimeRange)
	return validate.Struct(ns)
}

// UpdateSubject defines what information may be provided to modify an existing Subject.
type UpdateSubject struct {
	Name      string `json:"name"`
	TeacherID string `json:"teacher_id"`
	ClassID   string `json:"class_id"`
	Day       string `json:"day" validate:"omitempty,dayname"`
	TimeRange string `json:"time_range" validate:"omitempty,timerange"`
}

func (us *UpdateSubject) Validate(orig Subject, validate *validator.Validate) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if us.TeacherID == "" {
		us.TeacherID = orig.TeacherID
	}
	if us.ClassID == "" {
		us.ClassID = orig.ClassID
	}
	if day := core.CleanString(us.Day); day != "" {
		us.Day = day
	} else {
		us.Day = orig.Day
	}
	if tr := core.CleanString(us.TimeRange); tr != "" {
		us.TimeRange = tr
	} else {
		us.TimeRange = orig.TimeRange
	}
	return validate.Struct(us)
}
