package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/shidqimaqshid/geoattend-app-sub000/apps/api/echo"
	"github.com/shidqimaqshid/geoattend-app-sub000/core"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/attendance"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/office"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/presence"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/student"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/subject"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/user"
	emailsvc "github.com/shidqimaqshid/geoattend-app-sub000/services/email"
	logsvc "github.com/shidqimaqshid/geoattend-app-sub000/services/logger"
	"github.com/shidqimaqshid/geoattend-app-sub000/storage/database"
	"github.com/shidqimaqshid/geoattend-app-sub000/storage/kv"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up the record store
	store, err := setUpStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up store: %v", err), err)
	}
	defer func() {
		if err = store.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing store: %v", err), err)
		}
	}()

	// set up the reporting archive (optional)
	var archiver attendance.Archiver
	var archiveQuerier echoapi.ArchiveQuerier
	if conf.Database.Host != "" {
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		defer func() { _ = db.Close() }()
		if err = database.Ping(db); err != nil {
			logger.Fatal(fmt.Sprintf("pinging database: %v", err), err)
		}
		if err = database.Migrate(db); err != nil {
			logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
		}
		archive := database.NewSessionArchive(db)
		archiver = archive
		archiveQuerier = archive
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}

	settingsRepo := kv.NewSettingsRepo(store)
	usrSvc := user.NewService(kv.NewUserRepo(store), mailSvc, conf)
	subjSvc := subject.NewService(kv.NewSubjectRepo(store))
	offSvc := office.NewService(kv.NewOfficeRepo(store))
	stdSvc := student.NewService(kv.NewStudentRepo(store))
	attSvc := attendance.NewService(kv.NewSessionRepo(store), settingsRepo, mailSvc, logger, conf, archiver)
	tracker := presence.NewTracker(kv.NewPresenceRepo(store), conf.School.PresenceThreshold)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddr, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			SubjectSvc:    subjSvc,
			OfficeSvc:     offSvc,
			StudentSvc:    stdSvc,
			AttendanceSvc: attSvc,
			Tracker:       tracker,
			SettingsRepo:  settingsRepo,
			Archive:       archiveQuerier,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpStore picks the shared Redis store when configured, the in-process
// store otherwise.
func setUpStore(conf *core.Config) (kv.Store, error) {
	if conf.Redis.Addr != "" {
		return kv.OpenRedis(conf)
	}
	return kv.NewMemStore(), nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
