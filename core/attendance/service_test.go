package attendance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/geo"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/office"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/subject"
)

// fakeRepo implements Repository with the same revision CAS semantics as the
// kv-backed one.
type fakeRepo struct {
	sessions map[string]ClassSession
	failNext bool // fail the next UpsertSession
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sessions: make(map[string]ClassSession)}
}

func (r *fakeRepo) GetSession(_ context.Context, id string) (ClassSession, error) {
	if sess, ok := r.sessions[id]; ok {
		return cloneSession(sess), nil
	}
	return ClassSession{}, ErrNotFound
}

// cloneSession detaches the StudentAttendance map, mirroring the JSON
// round-trip the kv-backed repo does on every read and write.
func cloneSession(sess ClassSession) ClassSession {
	if sess.StudentAttendance != nil {
		m := make(map[string]StudentStatus, len(sess.StudentAttendance))
		for k, v := range sess.StudentAttendance {
			m[k] = v
		}
		sess.StudentAttendance = m
	}
	return sess
}

func (r *fakeRepo) QueryAllSessions(_ context.Context) ([]ClassSession, error) {
	out := make([]ClassSession, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out, nil
}

func (r *fakeRepo) QuerySessionsByDate(_ context.Context, date string) ([]ClassSession, error) {
	var out []ClassSession
	for _, sess := range r.sessions {
		if sess.Date == date {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (r *fakeRepo) QuerySessionsByTeacher(_ context.Context, teacherID string) ([]ClassSession, error) {
	var out []ClassSession
	for _, sess := range r.sessions {
		if sess.TeacherID == teacherID {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpsertSession(_ context.Context, sess ClassSession) (ClassSession, error) {
	if r.failNext {
		r.failNext = false
		return ClassSession{}, errors.New("store write rejected")
	}
	if stored, ok := r.sessions[sess.ID]; ok && stored.Revision != sess.Revision {
		return ClassSession{}, ErrRevisionConflict
	}
	sess.Revision++
	r.sessions[sess.ID] = cloneSession(sess)
	return sess, nil
}

type fakeSettings struct {
	settings core.AppSettings
}

func (r *fakeSettings) GetAppSettings(context.Context) (core.AppSettings, error) {
	return r.settings, nil
}

func (r *fakeSettings) SaveAppSettings(_ context.Context, s core.AppSettings) error {
	r.settings = s
	return nil
}

type mailRecorder struct {
	sent []*core.EmailMessage
}

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.sent = append(m.sent, messages...)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

var (
	testCenter = geo.Coordinates{Latitude: -6.200000, Longitude: 106.816666}

	testOffice = office.Office{
		ID:          "kelas-7a",
		Name:        "Kelas 7A",
		Coordinates: testCenter,
	}

	testSubject = subject.Subject{
		ID:        "mtk-7a",
		Name:      "Matematika",
		TeacherID: "guru-1",
		ClassID:   "kelas-7a",
		Day:       "Senin",
		TimeRange: "07:00 - 08:30",
	}
)

func newTestService(repo Repository, mail core.EmailService) *Service {
	conf := &core.Config{
		AdminEmail: "admin@test.test",
		School: core.SchoolConfig{
			GeofenceRadiusMeters: 100,
			LateTolerance:        15 * time.Minute,
			PresenceThreshold:    3 * time.Minute,
			PermissionProofMax:   5 * 1024 * 1024,
		},
	}
	settings := &fakeSettings{settings: core.AppSettings{
		SchoolYear:   "2024/2025",
		Semester:     "Ganjil",
		SystemActive: true,
	}}
	return NewService(repo, settings, mail, nopLogger{}, conf, nil)
}

// at returns a wall-clock moment on a fixed Monday.
func at(hour, minute int) time.Time {
	return time.Date(2024, time.September, 9, hour, minute, 0, 0, time.UTC)
}

// offsetMeters moves the test center north by the given distance.
func offsetMeters(meters float64) geo.Coordinates {
	return geo.Coordinates{
		Latitude:  testCenter.Latitude + meters/6371000.0*180/3.141592653589793,
		Longitude: testCenter.Longitude,
	}
}

func TestCheckIn(t *testing.T) {
	tests := []struct {
		name            string
		now             time.Time
		coords          geo.Coordinates
		photoURL        string
		wantErr         error
		wantPunctuality PunctualityStatus
		wantLateMinutes int
	}{
		{
			name:            "on time at center",
			now:             at(7, 5),
			coords:          testCenter,
			photoURL:        "data:image/jpeg;base64,...",
			wantPunctuality: OnTime,
			wantLateMinutes: 0,
		},
		{
			name:            "20 minutes late",
			now:             at(7, 20),
			coords:          testCenter,
			photoURL:        "data:image/jpeg;base64,...",
			wantPunctuality: Late,
			wantLateMinutes: 20,
		},
		{
			name:     "outside geofence",
			now:      at(7, 5),
			coords:   offsetMeters(150),
			photoURL: "data:image/jpeg;base64,...",
			wantErr:  &core.GeofenceViolation{},
		},
		{
			name:    "missing photo",
			now:     at(7, 5),
			coords:  testCenter,
			wantErr: ErrMissingPhoto,
		},
		{
			name:     "no gps fix",
			now:      at(7, 5),
			coords:   geo.Coordinates{},
			photoURL: "data:image/jpeg;base64,...",
			wantErr:  ErrNoGPSFix,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			svc := newTestService(repo, &mailRecorder{})
			svc.nowFunc = func() time.Time { return tt.now }

			sess, err := svc.CheckIn(context.Background(), testSubject, testOffice, tt.coords, tt.photoURL)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("CheckIn() error = nil, wantErr %v", tt.wantErr)
				}
				var gfv *core.GeofenceViolation
				if errors.As(tt.wantErr, &gfv) {
					var got *core.GeofenceViolation
					if !errors.As(err, &got) {
						t.Fatalf("CheckIn() error = %v, want GeofenceViolation", err)
					}
					if got.DistanceMeters <= 100 {
						t.Errorf("GeofenceViolation.DistanceMeters = %v, want > 100", got.DistanceMeters)
					}
				} else if errors.Cause(err) != tt.wantErr {
					t.Fatalf("CheckIn() error = %v, wantErr %v", err, tt.wantErr)
				}
				// no session must be created on failure
				if len(repo.sessions) != 0 {
					t.Errorf("CheckIn() persisted %d session(s) on failure, want 0", len(repo.sessions))
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckIn() failed: %v", err)
			}

			if want := "mtk-7a_2024-09-09"; sess.ID != want {
				t.Errorf("session ID = %q, want %q", sess.ID, want)
			}
			if sess.TeacherStatus != TeacherPresent {
				t.Errorf("TeacherStatus = %q, want %q", sess.TeacherStatus, TeacherPresent)
			}
			if sess.PunctualityStatus != tt.wantPunctuality {
				t.Errorf("PunctualityStatus = %q, want %q", sess.PunctualityStatus, tt.wantPunctuality)
			}
			if sess.LateMinutes != tt.wantLateMinutes {
				t.Errorf("LateMinutes = %d, want %d", sess.LateMinutes, tt.wantLateMinutes)
			}
			if sess.Status != SessionActive {
				t.Errorf("Status = %q, want %q", sess.Status, SessionActive)
			}
			if sess.Semester != "Ganjil" || sess.SchoolYear != "2024/2025" {
				t.Errorf("period tags = %q/%q, want Ganjil/2024/2025", sess.Semester, sess.SchoolYear)
			}
		})
	}
}

func TestCheckInIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &mailRecorder{})
	svc.nowFunc = func() time.Time { return at(7, 5) }
	ctx := context.Background()

	first, err := svc.CheckIn(ctx, testSubject, testOffice, testCenter, "photo")
	if err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}
	if _, err = svc.MarkStudent(ctx, first.ID, "siswa-1", StudentSick); err != nil {
		t.Fatalf("MarkStudent() failed: %v", err)
	}

	svc.nowFunc = func() time.Time { return at(7, 30) }
	second, err := svc.CheckIn(ctx, testSubject, testOffice, testCenter, "photo2")
	if err != nil {
		t.Fatalf("re-CheckIn() failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("re-check-in changed session ID: %q != %q", second.ID, first.ID)
	}
	if got := second.StudentAttendance["siswa-1"]; got != StudentSick {
		t.Errorf("StudentAttendance[siswa-1] = %q after re-check-in, want %q", got, StudentSick)
	}
	if second.PunctualityStatus != Late || second.LateMinutes != 30 {
		t.Errorf("re-check-in punctuality = %q/%d, want LATE/30", second.PunctualityStatus, second.LateMinutes)
	}
}

func TestFilePermission(t *testing.T) {
	repo := newFakeRepo()
	mails := &mailRecorder{}
	svc := newTestService(repo, mails)
	svc.nowFunc = func() time.Time { return at(6, 45) }
	ctx := context.Background()

	pr := PermissionRequest{
		SubjectID:           testSubject.ID,
		SubstituteTeacherID: "guru-2",
		Proof:               "data:image/jpeg;base64,...",
		ProofKind:           "surat_dokter",
		Notes:               "Sakit demam",
	}
	sess, err := svc.FilePermission(ctx, testSubject, testOffice, pr)
	if err != nil {
		t.Fatalf("FilePermission() failed: %v", err)
	}
	if sess.TeacherStatus != TeacherPermission {
		t.Errorf("TeacherStatus = %q, want %q", sess.TeacherStatus, TeacherPermission)
	}
	if len(sess.StudentAttendance) != 0 {
		t.Errorf("StudentAttendance = %v, want empty", sess.StudentAttendance)
	}
	if len(mails.sent) != 1 {
		t.Errorf("sent %d notification mail(s), want 1", len(mails.sent))
	}

	// check-in is blocked for the rest of the day
	svc.nowFunc = func() time.Time { return at(7, 0) }
	if _, err = svc.CheckIn(ctx, testSubject, testOffice, testCenter, "photo"); errors.Cause(err) != ErrPermissionFiled {
		t.Errorf("CheckIn() after permission error = %v, want %v", err, ErrPermissionFiled)
	}
}

func TestFilePermissionAfterCheckInBlocked(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &mailRecorder{})
	svc.nowFunc = func() time.Time { return at(7, 5) }
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, testSubject, testOffice, testCenter, "photo"); err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}
	pr := PermissionRequest{
		SubjectID:           testSubject.ID,
		SubstituteTeacherID: "guru-2",
		Proof:               "proof",
		Notes:               "Izin keluarga",
	}
	if _, err := svc.FilePermission(ctx, testSubject, testOffice, pr); errors.Cause(err) != ErrAlreadyCheckedIn {
		t.Errorf("FilePermission() after check-in error = %v, want %v", err, ErrAlreadyCheckedIn)
	}
}

func TestFilePermissionProofTooLarge(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &mailRecorder{})
	svc.nowFunc = func() time.Time { return at(6, 45) }

	proof := make([]byte, 5*1024*1024+1)
	pr := PermissionRequest{
		SubjectID:           testSubject.ID,
		SubstituteTeacherID: "guru-2",
		Proof:               string(proof),
		Notes:               "Sakit",
	}
	_, err := svc.FilePermission(context.Background(), testSubject, testOffice, pr)
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("FilePermission() error = %v, want ValidationError", err)
	}
}

func TestMarkStudent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &mailRecorder{})
	svc.nowFunc = func() time.Time { return at(7, 5) }
	ctx := context.Background()

	// marking requires an existing, checked-in session
	if _, err := svc.MarkStudent(ctx, "nope_2024-09-09", "siswa-1", StudentPresent); errors.Cause(err) != ErrNotFound {
		t.Errorf("MarkStudent() on missing session error = %v, want %v", err, ErrNotFound)
	}

	sess, err := svc.CheckIn(ctx, testSubject, testOffice, testCenter, "photo")
	if err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	if _, err = svc.MarkStudent(ctx, sess.ID, "siswa-1", "LOL"); err == nil {
		t.Error("MarkStudent() with invalid status succeeded, want ValidationError")
	}

	got, err := svc.MarkStudent(ctx, sess.ID, "siswa-1", StudentPermission)
	if err != nil {
		t.Fatalf("MarkStudent() failed: %v", err)
	}
	if got.StudentAttendance["siswa-1"] != StudentPermission {
		t.Errorf("StudentAttendance[siswa-1] = %q, want %q", got.StudentAttendance["siswa-1"], StudentPermission)
	}
	// unmarked students report ALPHA
	if got.StudentStatusFor("siswa-2") != StudentAlpha {
		t.Errorf("StudentStatusFor(siswa-2) = %q, want %q", got.StudentStatusFor("siswa-2"), StudentAlpha)
	}
}

func TestMarkStudentRequiresCheckIn(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &mailRecorder{})
	svc.nowFunc = func() time.Time { return at(6, 45) }
	ctx := context.Background()

	pr := PermissionRequest{
		SubjectID:           testSubject.ID,
		SubstituteTeacherID: "guru-2",
		Proof:               "proof",
		Notes:               "Sakit",
	}
	sess, err := svc.FilePermission(ctx, testSubject, testOffice, pr)
	if err != nil {
		t.Fatalf("FilePermission() failed: %v", err)
	}
	if _, err = svc.MarkStudent(ctx, sess.ID, "siswa-1", StudentPresent); errors.Cause(err) != ErrNotCheckedIn {
		t.Errorf("MarkStudent() on permission session error = %v, want %v", err, ErrNotCheckedIn)
	}
}

func TestMarkAllPresentPartialFailure(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &mailRecorder{})
	svc.nowFunc = func() time.Time { return at(7, 5) }
	ctx := context.Background()

	sess, err := svc.CheckIn(ctx, testSubject, testOffice, testCenter, "photo")
	if err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	roster := make([]string, 30)
	for i := range roster {
		roster[i] = fmt.Sprintf("siswa-%02d", i+1)
	}

	// simulate a disconnect after 15 writes
	for i := 0; i < 15; i++ {
		if _, err := svc.MarkStudent(ctx, sess.ID, roster[i], StudentPresent); err != nil {
			t.Fatalf("MarkStudent() failed: %v", err)
		}
	}
	repo.failNext = true
	n, err := svc.MarkAllPresent(ctx, sess.ID, roster[15:])
	if err == nil {
		t.Fatal("MarkAllPresent() succeeded, want write failure")
	}
	if n != 0 {
		t.Errorf("MarkAllPresent() marked %d before failing, want 0", n)
	}

	stored, _ := repo.GetSession(ctx, sess.ID)
	present := 0
	for _, st := range roster {
		if stored.StudentStatusFor(st) == StudentPresent {
			present++
		}
	}
	if present != 15 {
		t.Errorf("%d students PRESENT after partial bulk mark, want 15", present)
	}
	for _, st := range roster[15:] {
		if stored.StudentStatusFor(st) != StudentAlpha {
			t.Errorf("StudentStatusFor(%s) = %q, want ALPHA", st, stored.StudentStatusFor(st))
		}
	}
}

func TestMarkAllPresent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &mailRecorder{})
	svc.nowFunc = func() time.Time { return at(7, 5) }
	ctx := context.Background()

	sess, err := svc.CheckIn(ctx, testSubject, testOffice, testCenter, "photo")
	if err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}
	roster := []string{"siswa-1", "siswa-2", "siswa-3"}
	n, err := svc.MarkAllPresent(ctx, sess.ID, roster)
	if err != nil {
		t.Fatalf("MarkAllPresent() failed: %v", err)
	}
	if n != len(roster) {
		t.Errorf("MarkAllPresent() = %d, want %d", n, len(roster))
	}
	stored, _ := repo.GetSession(ctx, sess.ID)
	for _, st := range roster {
		if stored.StudentAttendance[st] != StudentPresent {
			t.Errorf("StudentAttendance[%s] = %q, want PRESENT", st, stored.StudentAttendance[st])
		}
	}
}

func TestFinish(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &mailRecorder{})
	svc.nowFunc = func() time.Time { return at(7, 5) }
	ctx := context.Background()

	sess, err := svc.CheckIn(ctx, testSubject, testOffice, testCenter, "photo")
	if err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	done, err := svc.Finish(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Finish() failed: %v", err)
	}
	if done.Status != SessionCompleted {
		t.Errorf("Status = %q, want %q", done.Status, SessionCompleted)
	}

	// one-way: no un-finish, no second finish
	if _, err = svc.Finish(ctx, sess.ID); errors.Cause(err) != ErrAlreadyCompleted {
		t.Errorf("second Finish() error = %v, want %v", err, ErrAlreadyCompleted)
	}
	// sealed sessions reject further marking
	if _, err = svc.MarkStudent(ctx, sess.ID, "siswa-1", StudentPresent); errors.Cause(err) != ErrAlreadyCompleted {
		t.Errorf("MarkStudent() on completed session error = %v, want %v", err, ErrAlreadyCompleted)
	}
}

func TestSystemInactiveBlocksMutations(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &mailRecorder{})
	svc.nowFunc = func() time.Time { return at(7, 5) }
	svc.settings = &fakeSettings{settings: core.AppSettings{
		SchoolYear:   "2024/2025",
		Semester:     "Ganjil",
		SystemActive: false,
	}}

	if _, err := svc.CheckIn(context.Background(), testSubject, testOffice, testCenter, "photo"); errors.Cause(err) != ErrSystemInactive {
		t.Errorf("CheckIn() error = %v, want %v", err, ErrSystemInactive)
	}
}

func TestUpsertRevisionConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &mailRecorder{})
	svc.nowFunc = func() time.Time { return at(7, 5) }
	ctx := context.Background()

	sess, err := svc.CheckIn(ctx, testSubject, testOffice, testCenter, "photo")
	if err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	// a stale read loses against a concurrent write
	stale := sess
	if _, err = svc.MarkStudent(ctx, sess.ID, "siswa-1", StudentPresent); err != nil {
		t.Fatalf("MarkStudent() failed: %v", err)
	}
	if _, err = repo.UpsertSession(ctx, stale); errors.Cause(err) != ErrRevisionConflict {
		t.Errorf("UpsertSession() with stale revision error = %v, want %v", err, ErrRevisionConflict)
	}
}
