// Package schedule resolves which teaching slots are due on a given day and
// which of them still need a session. Pure lookup/filter logic over provided
// collections; nothing here touches the store.
package schedule

import (
	"time"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/attendance"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/subject"
)

// SubjectsDueToday filters subjects scheduled on the named day.
func SubjectsDueToday(subjects []subject.Subject, dayName string) []subject.Subject {
	var due []subject.Subject
	for _, subj := range subjects {
		if subj.Day == dayName {
			due = append(due, subj)
		}
	}
	return due
}

// ForTeacher restricts subjects to those owned by the given teacher.
func ForTeacher(subjects []subject.Subject, teacherID string) []subject.Subject {
	var owned []subject.Subject
	for _, subj := range subjects {
		if subj.TeacherID == teacherID {
			owned = append(owned, subj)
		}
	}
	return owned
}

// SessionFor finds the session of a subject on a calendar day, if any.
func SessionFor(sessions []attendance.ClassSession, subjectID string, day time.Time) (attendance.ClassSession, bool) {
	id := attendance.SessionID(subjectID, day)
	for _, sess := range sessions {
		if sess.ID == id {
			return sess, true
		}
	}
	return attendance.ClassSession{}, false
}

// IsPending reports whether subj still needs attention today: it is due on
// today's day name and either has no session yet or has one that is not
// completed.
func IsPending(subj subject.Subject, sessions []attendance.ClassSession, today time.Time) bool {
	if subj.Day != core.DayName(today) {
		return false
	}
	sess, ok := SessionFor(sessions, subj.ID, today)
	if !ok {
		return true
	}
	return !sess.IsCompleted()
}

// PendingToday lists the subjects still pending today. An empty teacherID
// keeps all subjects (the admin view); otherwise only the teacher's own
// slots are considered.
func PendingToday(subjects []subject.Subject, sessions []attendance.ClassSession, today time.Time, teacherID string) []subject.Subject {
	if teacherID != "" {
		subjects = ForTeacher(subjects, teacherID)
	}
	var pending []subject.Subject
	for _, subj := range subjects {
		if IsPending(subj, sessions, today) {
			pending = append(pending, subj)
		}
	}
	return pending
}
