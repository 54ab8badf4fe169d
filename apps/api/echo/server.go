// Package echoapi is the HTTP surface of the attendance system: auth,
// registries, session lifecycle, presence and reporting, served by echo.
package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/attendance"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/office"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/presence"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/student"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/subject"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/user"
)

type (
	// ArchiveQuerier reads the long-term session archive; optional.
	ArchiveQuerier interface {
		QueryByPeriod(ctx context.Context, schoolYear, semester string) ([]attendance.ClassSession, error)
		QueryByTeacher(ctx context.Context, teacherID string) ([]attendance.ClassSession, error)
	}

	ServerDeps struct {
		Conf   *core.Config
		Logger core.Logger

		UserSvc       *user.Service
		SubjectSvc    *subject.Service
		OfficeSvc     *office.Service
		StudentSvc    *student.Service
		AttendanceSvc *attendance.Service
		Tracker       *presence.Tracker
		SettingsRepo  core.SettingsRepository
		Archive       ArchiveQuerier // optional

		Validate   *validator.Validate
		Translator ut.Translator

		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps  ServerDeps
		app   *echo.Echo
		errCh chan error
		sigCh chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:  deps,
		app:   echo.New(),
		errCh: make(chan error, 1),
		sigCh: make(chan os.Signal, 1),
	}
	signal.Notify(s.sigCh, syscall.SIGINT, syscall.SIGTERM)
	initAuth(deps.Conf)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.deps)
	registerSubjectAPI(v1, jwt, s.deps)
	registerOfficeAPI(v1, jwt, s.deps)
	registerStudentAPI(v1, jwt, s.deps)
	registerSessionAPI(v1, jwt, s.deps)
	registerPresenceAPI(v1, jwt, s.deps)
	registerReportAPI(v1, jwt, s.deps)
	registerSettingsAPI(v1, jwt, s.deps)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errCh <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errCh
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.sigCh
}

// signalShutdown requests a graceful stop after an unrecoverable error.
func (s *server) signalShutdown() {
	s.sigCh <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to GeoAttend API!")
}
