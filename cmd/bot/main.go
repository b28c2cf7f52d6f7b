package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/Jacobbrewer1/rabbit/cmd/bot/config"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalln(err)
	}
	cfg, err := config.Parse()
	if err != nil {
		log.Fatalln(err)
	}

	a, cleanup, err := InitializeApp(cfg)
	if err != nil {
		log.Fatalln(err)
	}
	defer cleanup()

	a.Log().Info("Starting application")
	if err := a.Run(); err != nil {
		a.Log().Error("Error running application", slog.String(logging.KeyError, err.Error()))
		cleanup()
		os.Exit(1)
	}
}
