package app

import (
	"context"
	"time"

	"github.com/amaumene/schematizer/internal/config"
	"github.com/amaumene/schematizer/internal/service"
	log "github.com/sirupsen/logrus"
)

// Orchestrator periodically reports registry sizes, the only recurring
// background work the service carries.
type Orchestrator struct {
	cfg      *config.Config
	registry *service.RegistryService
}

func NewOrchestrator(cfg *config.Config, registry *service.RegistryService) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		registry: registry,
	}
}

func (o *Orchestrator) RunPeriodically(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.StatsInterval)
	defer ticker.Stop()

	o.logStats(ctx)

	for {
		select {
		case <-ctx.Done():
			log.WithField("component", "orchestrator").Info("stopping registry stats reporter")
			return
		case <-ticker.C:
			o.logStats(ctx)
		}
	}
}

func (o *Orchestrator) logStats(ctx context.Context) {
	counts, err := o.registry.Counts(ctx)
	if err != nil {
		log.WithFields(log.Fields{
			"component": "orchestrator",
			"error":     err,
		}).Error("failed to collect registry stats")
		return
	}

	log.WithFields(log.Fields{
		"component":  "orchestrator",
		"namespaces": counts.Namespaces,
		"sources":    counts.Sources,
		"topics":     counts.Topics,
		"schemas":    counts.Schemas,
	}).Info("registry stats")
}
