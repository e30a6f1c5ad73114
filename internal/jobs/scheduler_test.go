package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/seat-reservation/internal/config"
	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/repository/memory"
)

var now = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, store *memory.Store) (*Scheduler, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewScheduler(store.Tokens(), store.Reservations(), store.Seats(), time.UTC, zap.New(core))
	s.Now = func() time.Time { return now }
	return s, logs
}

func TestPurgeTokens(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	tokens := store.Tokens()
	require.NoError(t, tokens.StoreRefresh(ctx, 1, "expired", now.Add(-time.Hour)))
	require.NoError(t, tokens.StoreRefresh(ctx, 1, "live", now.Add(time.Hour)))

	s, logs := newTestScheduler(t, store)
	s.PurgeTokens()

	entries := logs.FilterMessage("purged refresh tokens").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["deleted"])
}

func TestLogOccupancy(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	uid, err := store.Users().Create(ctx, "Intern", "intern@example.com", "password", model.RoleIntern, bcrypt.MinCost)
	require.NoError(t, err)
	for _, n := range []string{"A1", "B2", "C3"} {
		require.NoError(t, store.Seats().Create(ctx, &model.Seat{SeatNumber: n, Row: n[:1], Area: "Floor 1", Status: model.SeatAvailable}))
	}
	today := model.DateOf(now, time.UTC)
	require.NoError(t, store.Reservations().CreateActive(ctx, &model.Reservation{
		UserID: uid, SeatID: 1, Date: today, TimeSlot: model.FullDay, Status: model.ReservationActive, ReservedAt: now,
	}))

	s, logs := newTestScheduler(t, store)
	s.LogOccupancy()

	entries := logs.FilterMessage("daily occupancy").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "2026-03-10", fields["date"])
	assert.Equal(t, int64(3), fields["total_seats"])
	assert.Equal(t, int64(1), fields["occupied_seats"])
}

type brokenPurger struct{}

func (brokenPurger) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, errors.New("db gone")
}

func TestPurgeTokensLogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store := memory.New()
	s := NewScheduler(brokenPurger{}, store.Reservations(), store.Seats(), nil, zap.New(core))
	s.PurgeTokens()
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestStart(t *testing.T) {
	store := memory.New()
	s, _ := newTestScheduler(t, store)

	require.NoError(t, s.Start(config.CronConfig{Enabled: false}))
	assert.Empty(t, s.cron.Entries())

	err := s.Start(config.CronConfig{Enabled: true, TokenPurge: "every other tuesday", OccupancySummary: "0 0 8 * * *"})
	assert.Error(t, err)

	s, _ = newTestScheduler(t, store)
	require.NoError(t, s.Start(config.CronConfig{Enabled: true, TokenPurge: "0 30 3 * * *", OccupancySummary: "0 0 8 * * *"}))
	assert.Len(t, s.cron.Entries(), 2)
	<-s.Stop().Done()
}

func TestNewSchedulerWithoutLogger(t *testing.T) {
	store := memory.New()
	s := NewScheduler(store.Tokens(), store.Reservations(), store.Seats(), nil, nil)
	assert.NotPanics(t, s.PurgeTokens)
	assert.NotPanics(t, s.LogOccupancy)
}
