package main

import (
	"context"

	"github.com/amaumene/schematizer/internal/app"
	log "github.com/sirupsen/logrus"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.WithError(err).Fatal("Failed to start schematizer")
	}

	if err := application.Run(context.Background()); err != nil {
		log.WithError(err).Fatal("Schematizer exited with an error")
	}
}
