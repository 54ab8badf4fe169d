// Package database holds the Postgres reporting archive. The live session
// store is the kv package; completed sessions are copied here so long-term
// reporting survives store compaction.
package database

import (
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
)

func Open(conf *core.Config) (*sqlx.DB, error) {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.Database.Host,
		Path:     conf.Database.Name,
		RawQuery: q.Encode(),
	}
	return sqlx.Open("postgres", u.String())
}

// Ping waits for the database to be ready. Waits 100ms longer between each attempt.
func Ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS session_archive (
	id                    text PRIMARY KEY,
	subject_id            text        NOT NULL,
	subject_name          text        NOT NULL,
	class_id              text        NOT NULL,
	class_name            text        NOT NULL,
	teacher_id            text        NOT NULL,
	date                  date        NOT NULL,
	start_time            bigint      NOT NULL,
	teacher_status        text        NOT NULL,
	attendance_status     text        NOT NULL DEFAULT '',
	late_minutes          integer     NOT NULL DEFAULT 0,
	attendance_photo_url  text        NOT NULL DEFAULT '',
	teacher_lat           double precision,
	teacher_lon           double precision,
	permission_proof_url  text        NOT NULL DEFAULT '',
	permission_proof_kind text        NOT NULL DEFAULT '',
	permission_notes      text        NOT NULL DEFAULT '',
	substitute_teacher_id text        NOT NULL DEFAULT '',
	student_attendance    jsonb       NOT NULL DEFAULT '{}',
	status                text        NOT NULL,
	semester              text        NOT NULL DEFAULT '',
	school_year           text        NOT NULL DEFAULT '',
	archived_at           timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS session_archive_teacher_idx ON session_archive (teacher_id, date);
CREATE INDEX IF NOT EXISTS session_archive_period_idx ON session_archive (school_year, semester);
`

func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
