package database

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core/attendance"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/geo"
)

// SessionArchive copies completed sessions into Postgres for reporting.
type SessionArchive struct {
	db *sqlx.DB
}

var _ attendance.Archiver = (*SessionArchive)(nil)

func NewSessionArchive(db *sqlx.DB) *SessionArchive {
	return &SessionArchive{db: db}
}

type archiveRow struct {
	ID                  string          `db:"id"`
	SubjectID           string          `db:"subject_id"`
	SubjectName         string          `db:"subject_name"`
	ClassID             string          `db:"class_id"`
	ClassName           string          `db:"class_name"`
	TeacherID           string          `db:"teacher_id"`
	Date                string          `db:"date"`
	StartTime           int64           `db:"start_time"`
	TeacherStatus       string          `db:"teacher_status"`
	AttendanceStatus    string          `db:"attendance_status"`
	LateMinutes         int             `db:"late_minutes"`
	AttendancePhotoURL  string          `db:"attendance_photo_url"`
	TeacherLat          *float64        `db:"teacher_lat"`
	TeacherLon          *float64        `db:"teacher_lon"`
	PermissionProofURL  string          `db:"permission_proof_url"`
	PermissionProofKind string          `db:"permission_proof_kind"`
	PermissionNotes     string          `db:"permission_notes"`
	SubstituteTeacherID string          `db:"substitute_teacher_id"`
	StudentAttendance   json.RawMessage `db:"student_attendance"`
	Status              string          `db:"status"`
	Semester            string          `db:"semester"`
	SchoolYear          string          `db:"school_year"`
}

const upsertQuery = `
INSERT INTO session_archive (
	id, subject_id, subject_name, class_id, class_name, teacher_id, date, start_time,
	teacher_status, attendance_status, late_minutes, attendance_photo_url,
	teacher_lat, teacher_lon,
	permission_proof_url, permission_proof_kind, permission_notes, substitute_teacher_id,
	student_attendance, status, semester, school_year
) VALUES (
	:id, :subject_id, :subject_name, :class_id, :class_name, :teacher_id, :date, :start_time,
	:teacher_status, :attendance_status, :late_minutes, :attendance_photo_url,
	:teacher_lat, :teacher_lon,
	:permission_proof_url, :permission_proof_kind, :permission_notes, :substitute_teacher_id,
	:student_attendance, :status, :semester, :school_year
)
ON CONFLICT (id) DO UPDATE SET
	teacher_status = EXCLUDED.teacher_status,
	attendance_status = EXCLUDED.attendance_status,
	late_minutes = EXCLUDED.late_minutes,
	attendance_photo_url = EXCLUDED.attendance_photo_url,
	teacher_lat = EXCLUDED.teacher_lat,
	teacher_lon = EXCLUDED.teacher_lon,
	permission_proof_url = EXCLUDED.permission_proof_url,
	permission_proof_kind = EXCLUDED.permission_proof_kind,
	permission_notes = EXCLUDED.permission_notes,
	substitute_teacher_id = EXCLUDED.substitute_teacher_id,
	student_attendance = EXCLUDED.student_attendance,
	status = EXCLUDED.status,
	archived_at = now()
`

func (a *SessionArchive) SaveCompletedSession(ctx context.Context, sess attendance.ClassSession) error {
	row, err := toRow(sess)
	if err != nil {
		return err
	}
	if _, err = a.db.NamedExecContext(ctx, upsertQuery, row); err != nil {
		return errors.Wrapf(err, "archiving session %s", sess.ID)
	}
	return nil
}

const selectColumns = `
	id, subject_id, subject_name, class_id, class_name, teacher_id,
	to_char(date, 'YYYY-MM-DD') AS date, start_time,
	teacher_status, attendance_status, late_minutes, attendance_photo_url,
	teacher_lat, teacher_lon,
	permission_proof_url, permission_proof_kind, permission_notes, substitute_teacher_id,
	student_attendance, status, semester, school_year
`

// QueryByPeriod lists the archived sessions of a school year's semester,
// oldest first.
func (a *SessionArchive) QueryByPeriod(ctx context.Context, schoolYear, semester string) ([]attendance.ClassSession, error) {
	var rows []archiveRow
	query := `SELECT ` + selectColumns + ` FROM session_archive WHERE school_year = $1 AND semester = $2 ORDER BY date, id`
	if err := a.db.SelectContext(ctx, &rows, query, schoolYear, semester); err != nil {
		return nil, errors.Wrap(err, "querying archived sessions")
	}
	return fromRows(rows)
}

// QueryByTeacher lists a teacher's archived sessions, oldest first.
func (a *SessionArchive) QueryByTeacher(ctx context.Context, teacherID string) ([]attendance.ClassSession, error) {
	var rows []archiveRow
	query := `SELECT ` + selectColumns + ` FROM session_archive WHERE teacher_id = $1 ORDER BY date, id`
	if err := a.db.SelectContext(ctx, &rows, query, teacherID); err != nil {
		return nil, errors.Wrap(err, "querying archived sessions")
	}
	return fromRows(rows)
}

func toRow(sess attendance.ClassSession) (archiveRow, error) {
	marks, err := json.Marshal(sess.StudentAttendance)
	if err != nil {
		return archiveRow{}, errors.Wrapf(err, "encoding student marks for %s", sess.ID)
	}
	row := archiveRow{
		ID:                  sess.ID,
		SubjectID:           sess.SubjectID,
		SubjectName:         sess.SubjectName,
		ClassID:             sess.ClassID,
		ClassName:           sess.ClassName,
		TeacherID:           sess.TeacherID,
		Date:                sess.Date,
		StartTime:           sess.StartTime,
		TeacherStatus:       string(sess.TeacherStatus),
		AttendanceStatus:    string(sess.PunctualityStatus),
		LateMinutes:         sess.LateMinutes,
		AttendancePhotoURL:  sess.AttendancePhotoURL,
		PermissionProofURL:  sess.PermissionProofURL,
		PermissionProofKind: sess.PermissionProofKind,
		PermissionNotes:     sess.PermissionNotes,
		SubstituteTeacherID: sess.SubstituteTeacherID,
		StudentAttendance:   marks,
		Status:              string(sess.Status),
		Semester:            sess.Semester,
		SchoolYear:          sess.SchoolYear,
	}
	if sess.TeacherCoordinates != nil {
		lat, lon := sess.TeacherCoordinates.Latitude, sess.TeacherCoordinates.Longitude
		row.TeacherLat, row.TeacherLon = &lat, &lon
	}
	return row, nil
}

func fromRows(rows []archiveRow) ([]attendance.ClassSession, error) {
	sessions := make([]attendance.ClassSession, 0, len(rows))
	for _, row := range rows {
		sess := attendance.ClassSession{
			ID:                  row.ID,
			SubjectID:           row.SubjectID,
			SubjectName:         row.SubjectName,
			ClassID:             row.ClassID,
			ClassName:           row.ClassName,
			TeacherID:           row.TeacherID,
			Date:                row.Date,
			StartTime:           row.StartTime,
			TeacherStatus:       attendance.TeacherStatus(row.TeacherStatus),
			PunctualityStatus:   attendance.PunctualityStatus(row.AttendanceStatus),
			LateMinutes:         row.LateMinutes,
			AttendancePhotoURL:  row.AttendancePhotoURL,
			PermissionProofURL:  row.PermissionProofURL,
			PermissionProofKind: row.PermissionProofKind,
			PermissionNotes:     row.PermissionNotes,
			SubstituteTeacherID: row.SubstituteTeacherID,
			Status:              attendance.SessionStatus(row.Status),
			Semester:            row.Semester,
			SchoolYear:          row.SchoolYear,
		}
		if row.TeacherLat != nil && row.TeacherLon != nil {
			sess.TeacherCoordinates = &geo.Coordinates{Latitude: *row.TeacherLat, Longitude: *row.TeacherLon}
		}
		if len(row.StudentAttendance) > 0 {
			if err := json.Unmarshal(row.StudentAttendance, &sess.StudentAttendance); err != nil {
				return nil, errors.Wrapf(err, "decoding student marks for %s", row.ID)
			}
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}
