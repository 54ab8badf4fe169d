package attendance

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/geo"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/office"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/subject"
)

var (
	// errors
	ErrNotFound          = errors.New("session not found")
	ErrNoGPSFix          = errors.New("device coordinates unavailable")
	ErrMissingPhoto      = errors.New("attendance photo is required")
	ErrPermissionFiled   = errors.New("a permission was already filed for this subject today")
	ErrAlreadyCheckedIn  = errors.New("teacher already checked in for this subject today")
	ErrNotCheckedIn      = errors.New("teacher has not checked in on this session")
	ErrAlreadyCompleted  = errors.New("session is already completed")
	ErrRevisionConflict  = errors.New("session was modified concurrently")
	ErrSystemInactive    = errors.New("the attendance system is currently inactive")
	errProofTooLarge     = errors.New("permission proof exceeds the size limit")
	errPeriodUnavailable = errors.New("school year and semester are not configured")
)

type (
	Repository interface {
		GetSession(ctx context.Context, id string) (ClassSession, error)
		QueryAllSessions(ctx context.Context) ([]ClassSession, error)
		QuerySessionsByDate(ctx context.Context, date string) ([]ClassSession, error)
		QuerySessionsByTeacher(ctx context.Context, teacherID string) ([]ClassSession, error)
		// UpsertSession writes sess if the stored revision still matches
		// sess.Revision and returns the record with the bumped revision.
		// A mismatch fails with ErrRevisionConflict.
		UpsertSession(ctx context.Context, sess ClassSession) (ClassSession, error)
	}

	// Archiver copies completed sessions to long-term reporting storage.
	Archiver interface {
		SaveCompletedSession(ctx context.Context, sess ClassSession) error
	}

	Service struct {
		repo     Repository
		settings core.SettingsRepository
		mailSvc  core.EmailService
		logger   core.Logger
		conf     *core.Config
		archiver Archiver // optional

		nowFunc func() time.Time // mockable
	}
)

func NewService(
	repo Repository,
	settings core.SettingsRepository,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
	archiver Archiver,
) *Service {
	return &Service{
		repo:     repo,
		settings: settings,
		mailSvc:  mailSvc,
		logger:   logger,
		conf:     conf,
		archiver: archiver,
		nowFunc:  time.Now,
	}
}

func (svc *Service) now() time.Time {
	return svc.nowFunc()
}

// period fetches the denormalized period tags for new sessions along with the
// system-active toggle, as one settings snapshot.
func (svc *Service) period(ctx context.Context) (core.AppSettings, error) {
	settings, err := svc.settings.GetAppSettings(ctx)
	if err != nil {
		return core.AppSettings{}, errors.Wrap(err, "getting app settings")
	}
	if !settings.SystemActive {
		return core.AppSettings{}, ErrSystemInactive
	}
	if settings.SchoolYear == "" || settings.Semester == "" {
		return core.AppSettings{}, errPeriodUnavailable
	}
	return settings, nil
}

// CheckIn records the teacher's physical presence for subj. The device must
// hold a GPS fix inside the office geofence and supply a photo. Re-checking
// in on the same day rebuilds the record but keeps the student marks already
// made.
func (svc *Service) CheckIn(
	ctx context.Context,
	subj subject.Subject,
	off office.Office,
	coords geo.Coordinates,
	photoURL string,
) (ClassSession, error) {
	settings, err := svc.period(ctx)
	if err != nil {
		return ClassSession{}, err
	}

	if coords.IsZero() {
		return ClassSession{}, ErrNoGPSFix
	}
	if photoURL == "" {
		return ClassSession{}, ErrMissingPhoto
	}
	radius := svc.conf.School.GeofenceRadiusMeters
	if dist := geo.DistanceMeters(coords, off.Coordinates); dist > radius {
		return ClassSession{}, core.NewGeofenceViolation(dist, radius)
	}

	now := svc.now()
	id := SessionID(subj.ID, now)

	existing, err := svc.repo.GetSession(ctx, id)
	switch errors.Cause(err) {
	case nil:
		if existing.TeacherStatus == TeacherPermission {
			return ClassSession{}, ErrPermissionFiled
		}
		if existing.IsCompleted() {
			return ClassSession{}, ErrAlreadyCompleted
		}
	case ErrNotFound:
		existing = ClassSession{}
	default:
		return ClassSession{}, errors.Wrap(err, "getting session")
	}

	lateMinutes, err := svc.lateMinutes(subj, now)
	if err != nil {
		return ClassSession{}, err
	}
	punctuality := OnTime
	if time.Duration(lateMinutes)*time.Minute > svc.conf.School.LateTolerance {
		punctuality = Late
	} else {
		// within tolerance counts as on time, nothing to record
		lateMinutes = 0
	}

	sess := ClassSession{
		ID:                 id,
		SubjectID:          subj.ID,
		SubjectName:        subj.Name,
		ClassID:            off.ID,
		ClassName:          off.Name,
		TeacherID:          subj.TeacherID,
		Date:               now.Format(core.DateFormat),
		StartTime:          core.TimeToMillis(now),
		TeacherStatus:      TeacherPresent,
		PunctualityStatus:  punctuality,
		LateMinutes:        lateMinutes,
		AttendancePhotoURL: photoURL,
		TeacherCoordinates: &coords,
		StudentAttendance:  existing.StudentAttendance,
		Status:             SessionActive,
		Semester:           settings.Semester,
		SchoolYear:         settings.SchoolYear,
		Revision:           existing.Revision,
	}
	if sess.StudentAttendance == nil {
		sess.StudentAttendance = make(map[string]StudentStatus)
	}
	return svc.repo.UpsertSession(ctx, sess)
}

// lateMinutes measures how far past the subject's declared start the moment
// is, floored at zero. There is no upper cap: a check-in long after the slot
// is simply very late.
func (svc *Service) lateMinutes(subj subject.Subject, now time.Time) (int, error) {
	start, err := subj.StartTimeOn(now)
	if err != nil {
		return 0, core.NewValidationError(err, core.FieldError{Field: "time_range", Error: err.Error()})
	}
	late := int(now.Sub(start).Minutes())
	if late < 0 {
		late = 0
	}
	return late, nil
}

// FilePermission records an excused absence for subj with proof and a
// substitute teacher. It replaces any prior session state for the day except
// an already-recorded check-in.
func (svc *Service) FilePermission(
	ctx context.Context,
	subj subject.Subject,
	off office.Office,
	pr PermissionRequest,
) (ClassSession, error) {
	settings, err := svc.period(ctx)
	if err != nil {
		return ClassSession{}, err
	}

	if int64(len(pr.Proof)) > svc.conf.School.PermissionProofMax {
		return ClassSession{}, core.NewValidationError(
			errProofTooLarge,
			core.FieldError{Field: "proof", Error: errProofTooLarge.Error()},
		)
	}

	now := svc.now()
	id := SessionID(subj.ID, now)

	existing, err := svc.repo.GetSession(ctx, id)
	switch errors.Cause(err) {
	case nil:
		if existing.TeacherStatus == TeacherPresent {
			return ClassSession{}, ErrAlreadyCheckedIn
		}
	case ErrNotFound:
		existing = ClassSession{}
	default:
		return ClassSession{}, errors.Wrap(err, "getting session")
	}

	sess := ClassSession{
		ID:                  id,
		SubjectID:           subj.ID,
		SubjectName:         subj.Name,
		ClassID:             off.ID,
		ClassName:           off.Name,
		TeacherID:           subj.TeacherID,
		Date:                now.Format(core.DateFormat),
		StartTime:           core.TimeToMillis(now),
		TeacherStatus:       TeacherPermission,
		PermissionProofURL:  pr.Proof,
		PermissionProofKind: pr.ProofKind,
		PermissionNotes:     pr.Notes,
		SubstituteTeacherID: pr.SubstituteTeacherID,
		StudentAttendance:   make(map[string]StudentStatus),
		Status:              SessionActive,
		Semester:            settings.Semester,
		SchoolYear:          settings.SchoolYear,
		Revision:            existing.Revision,
	}
	sess, err = svc.repo.UpsertSession(ctx, sess)
	if err != nil {
		return ClassSession{}, err
	}

	svc.notifyPermission(sess)
	return sess, nil
}

func (svc *Service) notifyPermission(sess ClassSession) {
	if svc.mailSvc == nil || svc.conf.AdminEmail == "" {
		return
	}
	msg := &core.EmailMessage{
		To:      []mail.Address{{Address: svc.conf.AdminEmail}},
		Subject: fmt.Sprintf("Permission filed: %s (%s)", sess.SubjectName, sess.Date),
		Body: fmt.Sprintf(
			"A permission was filed for %s (%s) on %s.\nNotes: %s\nSubstitute teacher: %s",
			sess.SubjectName, sess.ClassName, sess.Date, sess.PermissionNotes, sess.SubstituteTeacherID,
		),
	}
	svc.mailSvc.SendMessages(msg)
}

// MarkStudent sets one student's status on an existing session. Marking
// requires the teacher to have checked in first; there is no implicit
// session creation here.
func (svc *Service) MarkStudent(ctx context.Context, sessionID, studentID string, status StudentStatus) (ClassSession, error) {
	if !status.Valid() {
		return ClassSession{}, core.NewValidationError(
			errors.New("invalid student status"),
			core.FieldError{Field: "status", Error: fmt.Sprintf("%q is not a valid student status", status)},
		)
	}

	sess, err := svc.repo.GetSession(ctx, sessionID)
	if err != nil {
		return ClassSession{}, err
	}
	if sess.TeacherStatus != TeacherPresent {
		return ClassSession{}, ErrNotCheckedIn
	}
	if sess.IsCompleted() {
		return ClassSession{}, ErrAlreadyCompleted
	}

	if sess.StudentAttendance == nil {
		sess.StudentAttendance = make(map[string]StudentStatus)
	}
	sess.StudentAttendance[studentID] = status
	return svc.repo.UpsertSession(ctx, sess)
}

// MarkAllPresent bulk-marks every student in roster PRESENT, one write per
// student. It is not atomic: a failure mid-roster leaves the marks already
// written in place and reports how many landed.
func (svc *Service) MarkAllPresent(ctx context.Context, sessionID string, roster []string) (int, error) {
	for i, studentID := range roster {
		if _, err := svc.MarkStudent(ctx, sessionID, studentID, StudentPresent); err != nil {
			return i, errors.Wrapf(err, "marking student %s", studentID)
		}
	}
	return len(roster), nil
}

// Finish seals the session. COMPLETED is terminal: the session drops out of
// the pending view and stays readable for reporting.
func (svc *Service) Finish(ctx context.Context, sessionID string) (ClassSession, error) {
	sess, err := svc.repo.GetSession(ctx, sessionID)
	if err != nil {
		return ClassSession{}, err
	}
	if sess.IsCompleted() {
		return ClassSession{}, ErrAlreadyCompleted
	}

	sess.Status = SessionCompleted
	sess, err = svc.repo.UpsertSession(ctx, sess)
	if err != nil {
		return ClassSession{}, err
	}

	if svc.archiver != nil {
		if err := svc.archiver.SaveCompletedSession(ctx, sess); err != nil {
			// the session is sealed either way; archiving is best-effort
			svc.logger.Error(fmt.Sprintf("archiving session %s: %v", sess.ID, err), err)
		}
	}
	return sess, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (ClassSession, error) {
	return svc.repo.GetSession(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]ClassSession, error) {
	return svc.repo.QueryAllSessions(ctx)
}

func (svc *Service) QueryByDate(ctx context.Context, date string) ([]ClassSession, error) {
	return svc.repo.QuerySessionsByDate(ctx, date)
}

func (svc *Service) QueryByTeacher(ctx context.Context, teacherID string) ([]ClassSession, error) {
	return svc.repo.QuerySessionsByTeacher(ctx, teacherID)
}
