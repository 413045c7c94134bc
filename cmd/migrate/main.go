package main

import (
	"github.com/sirupsen/logrus"

	"github.com/PrasadPotale/StudentsAid/internal/config"
	"github.com/PrasadPotale/StudentsAid/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("cannot load config: %v", err)
	}
	db.Migrate(cfg.DSN)
}
