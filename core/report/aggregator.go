// Package report derives read-only statistics from session collections:
// per-teacher day stats, per-student history and academic period filtering.
package report

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/attendance"
)

// Semesters
const (
	SemesterGanjil = "Ganjil" // first semester, July-December of the start year
	SemesterGenap  = "Genap"  // second semester, January-June of the end year
)

// TeacherDayStats partitions one teacher's sessions on a date by teacher
// status. SICK and PERMISSION both land in the permission (izin) bucket.
type TeacherDayStats struct {
	Present    int `json:"present"`
	Permission int `json:"permission"`
	Absent     int `json:"absent"`
	Total      int `json:"total"`
}

// TeacherStats tallies the teacher's sessions on the given calendar date.
func TeacherStats(sessions []attendance.ClassSession, teacherID, date string) TeacherDayStats {
	var stats TeacherDayStats
	for _, sess := range sessions {
		if sess.TeacherID != teacherID || sess.Date != date {
			continue
		}
		stats.Total++
		switch sess.TeacherStatus {
		case attendance.TeacherPresent:
			stats.Present++
		case attendance.TeacherPermission, attendance.TeacherSick:
			stats.Permission++
		case attendance.TeacherAbsent:
			stats.Absent++
		}
	}
	return stats
}

// HistoryEntry is one line of a student's attendance history.
type HistoryEntry struct {
	Date        string                   `json:"date"`
	SubjectName string                   `json:"subject_name"`
	Status      attendance.StudentStatus `json:"status"`
}

// StudentHistory lists a student's status across their class's sessions,
// oldest first. A session that never marked the student reports ALPHA.
func StudentHistory(sessions []attendance.ClassSession, studentID, classID string) []HistoryEntry {
	var history []HistoryEntry
	for _, sess := range sessions {
		if sess.ClassID != classID {
			continue
		}
		history = append(history, HistoryEntry{
			Date:        sess.Date,
			SubjectName: sess.SubjectName,
			Status:      sess.StudentStatusFor(studentID),
		})
	}
	sort.Slice(history, func(i, j int) bool {
		if history[i].Date != history[j].Date {
			return history[i].Date < history[j].Date
		}
		return history[i].SubjectName < history[j].SubjectName
	})
	return history
}

// PeriodFilter selects the sessions belonging to an academic semester of a
// school year ("2024/2025"). The boundary is the fixed calendar heuristic of
// the school: Ganjil runs from June of the start year, Genap before June of
// the end year.
func PeriodFilter(sessions []attendance.ClassSession, semester, schoolYear string) []attendance.ClassSession {
	startYear, endYear, ok := parseSchoolYear(schoolYear)
	if !ok {
		return nil
	}

	var out []attendance.ClassSession
	for _, sess := range sessions {
		day, err := time.Parse(core.DateFormat, sess.Date)
		if err != nil {
			continue
		}
		month, year := int(day.Month()), day.Year()
		switch semester {
		case SemesterGanjil:
			if month >= int(time.June) && year == startYear {
				out = append(out, sess)
			}
		case SemesterGenap:
			if month < int(time.June) && year == endYear {
				out = append(out, sess)
			}
		}
	}
	return out
}

func parseSchoolYear(schoolYear string) (startYear, endYear int, ok bool) {
	parts := strings.SplitN(schoolYear, "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	var err error
	if startYear, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return 0, 0, false
	}
	if endYear, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
		return 0, 0, false
	}
	return startYear, endYear, true
}

// StudentDayStats partitions a session's roster by marked status; unmarked
// roster members count as ALPHA.
type StudentDayStats struct {
	Present    int `json:"present"`
	Sick       int `json:"sick"`
	Permission int `json:"permission"`
	Alpha      int `json:"alpha"`
	Total      int `json:"total"`
}

// SessionStudentStats tallies the marks on one session against the class
// roster size.
func SessionStudentStats(sess attendance.ClassSession, rosterSize int) StudentDayStats {
	stats := StudentDayStats{Total: rosterSize}
	for _, status := range sess.StudentAttendance {
		switch status {
		case attendance.StudentPresent:
			stats.Present++
		case attendance.StudentSick:
			stats.Sick++
		case attendance.StudentPermission:
			stats.Permission++
		case attendance.StudentAlpha:
			stats.Alpha++
		}
	}
	if unmarked := rosterSize - len(sess.StudentAttendance); unmarked > 0 {
		stats.Alpha += unmarked
	}
	return stats
}
