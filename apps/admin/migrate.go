package main

import (
	"github.com/shidqimaqshid/geoattend-app-sub000/storage/database"
)

// migrate creates the reporting archive schema in Postgres.
func (cli *commandLine) migrate() error {
	db, err := database.Open(cli.conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err = database.Ping(db); err != nil {
		return err
	}
	return database.Migrate(db)
}
