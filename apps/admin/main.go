package main

import (
	"log"
	"os"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
	"github.com/shidqimaqshid/geoattend-app-sub000/storage/kv"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up the record store
	store, err := setUpStore(conf)
	errAndDie(err)
	defer store.Close()

	// start CLI
	cli := commandLine{
		conf:         conf,
		usrRepo:      kv.NewUserRepo(store),
		settingsRepo: kv.NewSettingsRepo(store),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func setUpStore(conf *core.Config) (kv.Store, error) {
	if conf.Redis.Addr != "" {
		return kv.OpenRedis(conf)
	}
	return kv.NewMemStore(), nil
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
