// Package jobs runs the periodic maintenance tasks of the server.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/iliyamo/seat-reservation/internal/config"
	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/repository"
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 30 * time.Second

type TokenPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type OccupancySource interface {
	Summary(ctx context.Context, today time.Time) (repository.ReservationSummary, error)
}

type SeatCounter interface {
	Count(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron         *cron.Cron
	tokens       TokenPurger
	reservations OccupancySource
	seats        SeatCounter
	loc          *time.Location
	log          *zap.Logger

	Now func() time.Time
}

func NewScheduler(tokens TokenPurger, reservations OccupancySource, seats SeatCounter, loc *time.Location, log *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		cron:         cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		tokens:       tokens,
		reservations: reservations,
		seats:        seats,
		loc:          loc,
		log:          log.Named("jobs"),
		Now:          time.Now,
	}
}

// Start registers the jobs on their cfg schedules and starts the cron
// runner.  It is a no-op when cron is disabled.
func (s *Scheduler) Start(cfg config.CronConfig) error {
	if !cfg.Enabled {
		s.log.Info("cron disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(cfg.TokenPurge, s.PurgeTokens); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(cfg.OccupancySummary, s.LogOccupancy); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("cron started",
		zap.String("token_purge", cfg.TokenPurge),
		zap.String("occupancy_summary", cfg.OccupancySummary))
	return nil
}

// Stop halts the runner.  The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// PurgeTokens deletes refresh tokens that expired or were revoked.
func (s *Scheduler) PurgeTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.tokens.PurgeExpired(ctx, s.Now())
	if err != nil {
		s.log.Error("purge refresh tokens failed", zap.Error(err))
		return
	}
	s.log.Info("purged refresh tokens", zap.Int64("deleted", n))
}

// LogOccupancy writes today's seat usage to the log.
func (s *Scheduler) LogOccupancy() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	today := model.DateOf(s.Now(), s.loc)
	total, err := s.seats.Count(ctx)
	if err != nil {
		s.log.Error("count seats failed", zap.Error(err))
		return
	}
	sum, err := s.reservations.Summary(ctx, today)
	if err != nil {
		s.log.Error("summarise reservations failed", zap.Error(err))
		return
	}
	s.log.Info("daily occupancy",
		zap.String("date", model.FormatDate(today)),
		zap.Int("total_seats", total),
		zap.Int("occupied_seats", sum.OccupiedSeats),
		zap.Int("active_reservations", sum.Active),
		zap.Any("by_area", sum.ByArea),
		zap.Any("by_time_slot", sum.ByTimeSlot))
}
