package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/campushq/gatepass-backend/internal/events"
	"github.com/campushq/gatepass-backend/internal/repository"
)

const retentionSweepInterval = time.Hour

// RetentionWorker purges decided (Approved/Rejected) passes older than the
// configured retention window. Pending passes are never touched. After a
// purge it publishes a change event so attached watchers refresh.
type RetentionWorker struct {
	passes        *repository.GatePassRepository
	bus           events.Bus
	retentionDays int
	log           zerolog.Logger
}

func NewRetentionWorker(passes *repository.GatePassRepository, bus events.Bus, retentionDays int, log zerolog.Logger) *RetentionWorker {
	return &RetentionWorker{
		passes:        passes,
		bus:           bus,
		retentionDays: retentionDays,
		log:           log.With().Str("component", "retention_worker").Logger(),
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	if w.retentionDays <= 0 {
		w.log.Info().Msg("Retention disabled, worker not running")
		return
	}

	w.log.Info().Int("retention_days", w.retentionDays).Msg("RetentionWorker started")

	ticker := time.NewTicker(retentionSweepInterval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("RetentionWorker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *RetentionWorker) sweep(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -w.retentionDays)

	purged, err := w.passes.PurgeDecidedBefore(ctx, cutoff)
	if err != nil {
		w.log.Error().Err(err).Msg("Retention sweep failed")
		return
	}
	if purged == 0 {
		return
	}

	w.log.Info().Int64("purged", purged).Time("cutoff", cutoff).Msg("Purged decided passes")

	if err := w.bus.Publish(ctx, events.Event{Type: events.EventPurged}); err != nil {
		w.log.Warn().Err(err).Msg("Purge event publish failed")
	}
}
