package echoapi

import (
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/attendance"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/office"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/report"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/schedule"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/student"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/subject"
)

type sessionApi struct {
	svc        *attendance.Service
	subjectSvc *subject.Service
	officeSvc  *office.Service
	studentSvc *student.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerSessionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := sessionApi{
		svc:        deps.AttendanceSvc,
		subjectSvc: deps.SubjectSvc,
		officeSvc:  deps.OfficeSvc,
		studentSvc: deps.StudentSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	sg := g.Group("/sessions", jwt)

	sg.POST("/check-in", api.checkIn, teacherMiddleware())
	sg.POST("/permission", api.filePermission, teacherMiddleware())
	sg.GET("", api.query)
	sg.GET("/pending-today", api.pendingToday)

	dg := sg.Group("/:id", api.sessionAccessMiddleware())
	dg.GET("", api.retrieve)
	dg.GET("/stats", api.studentStats)
	dg.PUT("/students", api.markStudent, teacherMiddleware())
	dg.POST("/students/present-all", api.markAllPresent, teacherMiddleware())
	dg.POST("/finish", api.finish, teacherMiddleware())
}

// slot resolves the subject and its classroom, enforcing that a teacher can
// only act on their own slots.
func (api *sessionApi) slot(ctx echo.Context, subjectID string) (subject.Subject, office.Office, error) {
	subj, err := api.subjectSvc.GetByID(ctx.Request().Context(), subjectID)
	if err != nil {
		return subject.Subject{}, office.Office{}, err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return subject.Subject{}, office.Office{}, err
	}
	if !claims.IsAdmin && subj.TeacherID != claims.Subject {
		return subject.Subject{}, office.Office{}, errHttpForbidden
	}

	off, err := api.officeSvc.GetByID(ctx.Request().Context(), subj.ClassID)
	if err != nil {
		return subject.Subject{}, office.Office{}, errors.Wrapf(err, "finding class %s", subj.ClassID)
	}
	return subj, off, nil
}

// Handlers

func (api *sessionApi) checkIn(ctx echo.Context) error {
	var data attendance.CheckInRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckInRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	subj, off, err := api.slot(ctx, data.SubjectID)
	if err != nil {
		return err
	}

	sess, err := api.svc.CheckIn(ctx.Request().Context(), subj, off, data.Coordinates(), data.PhotoURL)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *sessionApi) filePermission(ctx echo.Context) error {
	var data attendance.PermissionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PermissionRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	subj, off, err := api.slot(ctx, data.SubjectID)
	if err != nil {
		return err
	}

	sess, err := api.svc.FilePermission(ctx.Request().Context(), subj, off, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sess)
}

// query lists sessions: admins see everything (optionally by ?date=),
// teachers see their own.
func (api *sessionApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var sessions []attendance.ClassSession
	switch {
	case !claims.IsAdmin:
		sessions, err = api.svc.QueryByTeacher(ctx.Request().Context(), claims.Subject)
	case ctx.QueryParam("date") != "":
		sessions, err = api.svc.QueryByDate(ctx.Request().Context(), ctx.QueryParam("date"))
	default:
		sessions, err = api.svc.QueryAll(ctx.Request().Context())
	}
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []attendance.ClassSession{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

// pendingToday lists the slots still needing a check-in or completion today.
func (api *sessionApi) pendingToday(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	teacherID := claims.Subject
	if claims.IsAdmin {
		teacherID = "" // admins see the whole school
	}

	now := time.Now()
	subjects, err := api.subjectSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	sessions, err := api.svc.QueryByDate(ctx.Request().Context(), now.Format(core.DateFormat))
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}

	pending := schedule.PendingToday(subjects, sessions, now, teacherID)
	if pending == nil {
		pending = []subject.Subject{}
	}
	return ctx.JSON(http.StatusOK, pending)
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	sess, ok := ctx.Get("object").(attendance.ClassSession)
	if !ok {
		return errors.New("session object not found in echo.Context")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) studentStats(ctx echo.Context) error {
	sess, ok := ctx.Get("object").(attendance.ClassSession)
	if !ok {
		return errors.New("session object not found in echo.Context")
	}

	roster, err := api.studentSvc.QueryByClass(ctx.Request().Context(), sess.ClassID)
	if err != nil {
		return errors.Wrap(err, "querying class roster")
	}
	return ctx.JSON(http.StatusOK, report.SessionStudentStats(sess, len(roster)))
}

func (api *sessionApi) markStudent(ctx echo.Context) error {
	sess, ok := ctx.Get("object").(attendance.ClassSession)
	if !ok {
		return errors.New("session object not found in echo.Context")
	}

	var data attendance.MarkStudentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkStudentRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.MarkStudent(ctx.Request().Context(), sess.ID, data.StudentID, data.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) markAllPresent(ctx echo.Context) error {
	sess, ok := ctx.Get("object").(attendance.ClassSession)
	if !ok {
		return errors.New("session object not found in echo.Context")
	}

	roster, err := api.studentSvc.QueryByClass(ctx.Request().Context(), sess.ClassID)
	if err != nil {
		return errors.Wrap(err, "querying class roster")
	}
	ids := make([]string, 0, len(roster))
	for _, std := range roster {
		ids = append(ids, std.ID)
	}

	marked, err := api.svc.MarkAllPresent(ctx.Request().Context(), sess.ID, ids)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"marked": marked})
}

func (api *sessionApi) finish(ctx echo.Context) error {
	sess, ok := ctx.Get("object").(attendance.ClassSession)
	if !ok {
		return errors.New("session object not found in echo.Context")
	}

	sess, err := api.svc.Finish(ctx.Request().Context(), sess.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

// sessionAccessMiddleware loads the session and admits its teacher or an
// admin.
func (api *sessionApi) sessionAccessMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}

			sess, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == attendance.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding session by ID")
			}
			if !claims.IsAdmin && sess.TeacherID != claims.Subject {
				return errHttpNotFound
			}
			ctx.Set("object", sess)
			return next(ctx)
		}
	}
}
