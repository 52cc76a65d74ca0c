// Command smokecheck verifies that a schematizer instance is up and
// serving its namespace listing. It retries while the service starts,
// then runs one strict check, exiting non-zero on failure.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/amaumene/schematizer/internal/probe"
	log "github.com/sirupsen/logrus"
)

func main() {
	var (
		url     = flag.String("url", "http://localhost:49257", "Base URL of the schematizer instance")
		retries = flag.Int("retries", 60, "Warm-up attempts before giving up")
		delay   = flag.Duration("delay", time.Second, "Pause between warm-up attempts")
	)
	flag.Parse()

	ctx := context.Background()
	prober := probe.New(*url)

	log.WithField("url", *url).Info("Waiting for schematizer to become ready")
	if err := prober.WaitReady(ctx, *retries, *delay); err != nil {
		log.WithError(err).Fatal("Schematizer did not become ready")
	}

	if err := prober.Check(ctx); err != nil {
		log.WithError(err).Fatal("Namespace listing check failed")
	}
	log.WithField("url", *url).Info("Schematizer acceptance check passed")
}
