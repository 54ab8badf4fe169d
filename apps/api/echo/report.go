package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/attendance"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/report"
)

type reportApi struct {
	svc     *attendance.Service
	archive ArchiveQuerier // optional
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := reportApi{svc: deps.AttendanceSvc, archive: deps.Archive}

	rg := g.Group("/reports", jwt)
	rg.GET("/teachers/:id", api.teacherStats)
	rg.GET("/students/:id/history", api.studentHistory)
	rg.GET("/period", api.periodSessions, adminMiddleware())
	rg.GET("/archive", api.archivedSessions, adminMiddleware())
}

// teacherStats tallies one teacher's sessions on a date (default today).
// Teachers may only read their own stats.
func (api *reportApi) teacherStats(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	teacherID := ctx.Param("id")
	if !claims.IsAdmin && teacherID != claims.Subject {
		return errHttpForbidden
	}

	date := ctx.QueryParam("date")
	if date == "" {
		date = time.Now().Format(core.DateFormat)
	}

	sessions, err := api.svc.QueryByTeacher(ctx.Request().Context(), teacherID)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	return ctx.JSON(http.StatusOK, report.TeacherStats(sessions, teacherID, date))
}

// studentHistory lists one student's per-session statuses across their
// class's sessions.
func (api *reportApi) studentHistory(ctx echo.Context) error {
	classID := ctx.QueryParam("class_id")
	if classID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "this field is required"})
	}

	sessions, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	history := report.StudentHistory(sessions, ctx.Param("id"), classID)
	if history == nil {
		history = []report.HistoryEntry{}
	}
	return ctx.JSON(http.StatusOK, history)
}

// periodSessions filters live sessions down to an academic period.
func (api *reportApi) periodSessions(ctx echo.Context) error {
	semester := ctx.QueryParam("semester")
	schoolYear := ctx.QueryParam("school_year")
	if semester == "" || schoolYear == "" {
		return core.NewValidationError(errors.New("semester and school_year are required"))
	}

	sessions, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	filtered := report.PeriodFilter(sessions, semester, schoolYear)
	if filtered == nil {
		filtered = []attendance.ClassSession{}
	}
	return ctx.JSON(http.StatusOK, filtered)
}

// archivedSessions reads the long-term archive, by period or by teacher.
func (api *reportApi) archivedSessions(ctx echo.Context) error {
	if api.archive == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "session archive is not configured")
	}

	var sessions []attendance.ClassSession
	var err error
	if teacherID := ctx.QueryParam("teacher_id"); teacherID != "" {
		sessions, err = api.archive.QueryByTeacher(ctx.Request().Context(), teacherID)
	} else {
		semester := ctx.QueryParam("semester")
		schoolYear := ctx.QueryParam("school_year")
		if semester == "" || schoolYear == "" {
			return core.NewValidationError(errors.New("teacher_id, or semester and school_year, are required"))
		}
		sessions, err = api.archive.QueryByPeriod(ctx.Request().Context(), schoolYear, semester)
	}
	if err != nil {
		return errors.Wrap(err, "querying archive")
	}
	if sessions == nil {
		sessions = []attendance.ClassSession{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}
