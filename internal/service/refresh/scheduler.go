package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

type Refresher interface {
	Refresh(ctx context.Context) (Result, error)
	RefreshLookback(ctx context.Context) (Result, error)
}

// Scheduler runs the frequent refresh on a fixed interval and the lookback refresh once a
// day at a wall-clock time.
type Scheduler struct {
	log      *slog.Logger
	svc      Refresher
	interval time.Duration
	dailyAt  time.Duration
	loc      *time.Location
	now      func() time.Time
}

// NewScheduler parses dailyAt as "15:04".
func NewScheduler(log *slog.Logger, svc Refresher, interval time.Duration, dailyAt string, loc *time.Location) (*Scheduler, error) {
	const op = "service.refresh.NewScheduler"

	at, err := time.Parse("15:04", dailyAt)
	if err != nil {
		return nil, fmt.Errorf("%s: daily time %q: %w", op, dailyAt, err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%s: interval must be positive, got %s", op, interval)
	}
	if loc == nil {
		loc = time.Local
	}

	return &Scheduler{
		log:      log,
		svc:      svc,
		interval: interval,
		dailyAt:  time.Duration(at.Hour())*time.Hour + time.Duration(at.Minute())*time.Minute,
		loc:      loc,
		now:      time.Now,
	}, nil
}

// nextDaily returns the first moment after now at the daily wall-clock time.
func nextDaily(now time.Time, at time.Duration, loc *time.Location) time.Time {
	now = now.In(loc)
	y, m, d := now.Date()
	next := time.Date(y, m, d, 0, 0, 0, 0, loc).Add(at)
	if !next.After(now) {
		y, m, d = now.AddDate(0, 0, 1).Date()
		next = time.Date(y, m, d, 0, 0, 0, 0, loc).Add(at)
	}
	return next
}

// Run refreshes both result sets once and then keeps them fresh until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.guard(ctx, "lookback", s.svc.RefreshLookback)
	s.guard(ctx, "refresh", s.svc.Refresh)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.guard(ctx, "refresh", s.svc.Refresh)
			}
		}
	}()

	go func() {
		defer wg.Done()

		for {
			now := s.now()
			timer := time.NewTimer(nextDaily(now, s.dailyAt, s.loc).Sub(now))

			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.guard(ctx, "lookback", s.svc.RefreshLookback)
			}
		}
	}()

	wg.Wait()
	s.log.Info("scheduler stopped")
}

// guard runs one job. A panic is logged with its stack and does not stop the loop.
func (s *Scheduler) guard(ctx context.Context, job string, fn func(context.Context) (Result, error)) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in scheduled job",
				slog.String("job", job),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	if _, err := fn(ctx); err != nil {
		// the service already logged the cause
		s.log.Warn("scheduled job failed", slog.String("job", job))
	}
}
