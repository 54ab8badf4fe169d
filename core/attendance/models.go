// Package attendance implements the class session lifecycle: teacher
// check-in behind the geofence, excused-absence (izin) filing, per-student
// marking and session completion.
//
// A session exists per (subject, calendar date) at most once; its identity is
// derived, never assigned. The teacher's day-state moves forward only:
// unset -> PRESENT or PERMISSION, and those two exclude each other for the
// rest of the day.
package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/geo"
)

type TeacherStatus string

const (
	TeacherPresent    TeacherStatus = "PRESENT"
	TeacherAbsent     TeacherStatus = "ABSENT"
	TeacherSick       TeacherStatus = "SICK"
	TeacherPermission TeacherStatus = "PERMISSION"
)

type PunctualityStatus string

const (
	OnTime PunctualityStatus = "ON_TIME"
	Late   PunctualityStatus = "LATE"
)

type StudentStatus string

const (
	StudentPresent    StudentStatus = "PRESENT"
	StudentSick       StudentStatus = "SICK"
	StudentPermission StudentStatus = "PERMISSION"
	// StudentAlpha is the unexcused-absence default; an unmarked student
	// reports as ALPHA.
	StudentAlpha StudentStatus = "ALPHA"
)

func (s StudentStatus) Valid() bool {
	switch s {
	case StudentPresent, StudentSick, StudentPermission, StudentAlpha:
		return true
	}
	return false
}

type SessionStatus string

const (
	SessionActive    SessionStatus = "ACTIVE"
	SessionCompleted SessionStatus = "COMPLETED"
)

// ClassSession is one subject's attendance record for one calendar day.
// Subject and class fields are denormalized at creation so the record stays
// stable across later registry edits.
type ClassSession struct {
	ID          string `json:"id"` // subjectID + "_" + date
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	ClassID     string `json:"class_id"`
	ClassName   string `json:"class_name"`
	TeacherID   string `json:"teacher_id"`
	Date        string `json:"date"`       // "2006-01-02"
	StartTime   int64  `json:"start_time"` // epoch ms of check-in or permission filing

	TeacherStatus      TeacherStatus     `json:"teacher_status"`
	PunctualityStatus  PunctualityStatus `json:"attendance_status,omitempty"` // only with PRESENT
	LateMinutes        int               `json:"late_minutes"`
	AttendancePhotoURL string            `json:"attendance_photo_url,omitempty"`
	TeacherCoordinates *geo.Coordinates  `json:"teacher_coordinates,omitempty"`

	// permission (izin) fields, only with PERMISSION
	PermissionProofURL  string `json:"permission_proof_url,omitempty"`
	PermissionProofKind string `json:"permission_proof_kind,omitempty"`
	PermissionNotes     string `json:"permission_notes,omitempty"`
	SubstituteTeacherID string `json:"substitute_teacher_id,omitempty"`

	StudentAttendance map[string]StudentStatus `json:"student_attendance"`

	Status     SessionStatus `json:"status"`
	Semester   string        `json:"semester"`
	SchoolYear string        `json:"school_year"`

	// Revision guards read-modify-write cycles: the store rejects an upsert
	// whose revision does not match the stored record.
	Revision int64 `json:"revision"`
}

// SessionID derives the composite identity for a subject on a calendar day.
func SessionID(subjectID string, day time.Time) string {
	return subjectID + "_" + day.Format(core.DateFormat)
}

// StudentStatusFor returns the recorded status for a student, defaulting to
// ALPHA when the student was never marked.
func (s ClassSession) StudentStatusFor(studentID string) StudentStatus {
	if status, ok := s.StudentAttendance[studentID]; ok {
		return status
	}
	return StudentAlpha
}

func (s ClassSession) IsCompleted() bool {
	return s.Status == SessionCompleted
}

// CheckInRequest is a teacher's geolocated presence claim for a subject.
type CheckInRequest struct {
	SubjectID string  `json:"subject_id" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"lat"`
	Longitude float64 `json:"longitude" validate:"lon"`
	PhotoURL  string  `json:"photo_url"`
}

func (ci *CheckInRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(ci)
}

func (ci *CheckInRequest) Coordinates() geo.Coordinates {
	return geo.Coordinates{Latitude: ci.Latitude, Longitude: ci.Longitude}
}

// PermissionRequest is a teacher's excused-absence filing: proof payload,
// substitute and a reason are all mandatory.
type PermissionRequest struct {
	SubjectID           string `json:"subject_id" validate:"required"`
	SubstituteTeacherID string `json:"substitute_teacher_id" validate:"required"`
	Proof               string `json:"proof" validate:"required"` // base64 payload
	ProofKind           string `json:"proof_kind"`
	Notes               string `json:"notes" validate:"required"`
}

func (pr *PermissionRequest) Validate(validate *validator.Validate) error {
	pr.Notes = core.CleanString(pr.Notes)
	return validate.Struct(pr)
}

// MarkStudentRequest records one student's status on an open session.
type MarkStudentRequest struct {
	StudentID string        `json:"student_id" validate:"required"`
	Status    StudentStatus `json:"status" validate:"required,oneof=PRESENT SICK PERMISSION ALPHA"`
}

func (mr *MarkStudentRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(mr)
}
