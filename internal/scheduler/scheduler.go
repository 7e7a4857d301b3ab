// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tobihealthops/requiva-go/internal/config"
	"github.com/tobihealthops/requiva-go/internal/notify"
	"github.com/tobihealthops/requiva-go/internal/service"
	"github.com/tobihealthops/requiva-go/pkg/logger"
)

// Scheduler refreshes the insight cache on a cron and posts the digest
// to the configured webhook. Runs inside the server process.
type Scheduler struct {
	cron     *cron.Cron
	insights *service.InsightService
	notifier notify.Notifier
	cfg      config.SchedulerConfig
	log      zerolog.Logger
}

func New(cfg config.SchedulerConfig, insights *service.InsightService, notifier notify.Notifier) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		insights: insights,
		notifier: notifier,
		cfg:      cfg,
		log:      logger.Component("scheduler"),
	}
}

// Start registers the refresh job and starts the cron loop.
func (s *Scheduler) Start() {
	spec := s.cfg.InsightsCron
	if spec == "" {
		spec = "0 7 * * *"
	}

	if _, err := s.cron.AddFunc(spec, s.refreshInsights); err != nil {
		s.log.Error().Err(err).Str("spec", spec).Msg("failed to schedule insight refresh")
		return
	}

	s.log.Info().Str("spec", spec).Msg("starting scheduler")
	s.cron.Start()
}

// Stop stops the cron loop; running jobs finish.
func (s *Scheduler) Stop() {
	s.log.Info().Msg("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) refreshInsights() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dash, err := s.insights.Refresh(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("insight refresh failed")
		return
	}

	digest := notify.Digest{
		GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
		OrderCount:     dash.OrderCount,
		UrgentReorders: dash.UrgentReorder,
		Anomalies:      len(dash.Anomalies),
	}
	if len(dash.Bulk) > 0 {
		digest.TopBulkItem = dash.Bulk[0].Item
		digest.TopBulkSavings = dash.Bulk[0].PotentialSavings
	}

	if err := s.notifier.SendDigest(ctx, digest); err != nil {
		s.log.Error().Err(err).Msg("failed to send insight digest")
		return
	}
	s.log.Info().Int("urgent", digest.UrgentReorders).Int("anomalies", digest.Anomalies).Msg("insight refresh complete")
}
