// Package refresh runs the reconciliation and indicator pipeline on a schedule and
// publishes the finished tables.
package refresh

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"log/slog"
	"shopfloor-kpi/internal/cache"
	"shopfloor-kpi/internal/service/indicator"
	"shopfloor-kpi/internal/service/reconcile"
	"shopfloor-kpi/internal/storage"
	"sync"
	"time"
)

// DefaultTopStops is how many stops the ranking keeps.
const DefaultTopStops = 20

type EventReader interface {
	GetOccurrences(ctx context.Context, since time.Time) ([]storage.Occurrence, error)
	GetMachineInfo(ctx context.Context, since time.Time) ([]storage.InfoSample, error)
	GetRegistrations(ctx context.Context) ([]storage.Registration, error)
	GetCounters(ctx context.Context, since time.Time) ([]storage.CounterSample, error)
}

type HistoryStore interface {
	HasMonth(ctx context.Context, month string) (bool, error)
	SaveMonthly(ctx context.Context, h storage.MonthlyHistory) error
	ReplaceTopStops(ctx context.Context, stops []storage.TopStop) error
}

type Publisher interface {
	SetMany(items map[string][]byte)
}

type Options struct {
	Loc            *time.Location
	LookbackMonths int
	TopStops       int
	Now            func() time.Time
}

type Service struct {
	log        *slog.Logger
	events     EventReader
	history    HistoryStore
	cache      Publisher
	reconciler *reconcile.Reconciler
	aggregator *indicator.Aggregator

	loc      *time.Location
	lookback int
	topStops int
	now      func() time.Time

	// mu keeps two cycles from interleaving their read, compute and publish steps.
	mu sync.Mutex
}

func New(
	log *slog.Logger,
	events EventReader,
	history HistoryStore,
	pub Publisher,
	reconciler *reconcile.Reconciler,
	aggregator *indicator.Aggregator,
	opts Options,
) *Service {
	s := &Service{
		log:        log,
		events:     events,
		history:    history,
		cache:      pub,
		reconciler: reconciler,
		aggregator: aggregator,
		loc:        opts.Loc,
		lookback:   opts.LookbackMonths,
		topStops:   opts.TopStops,
		now:        opts.Now,
	}

	if s.loc == nil {
		s.loc = time.Local
	}
	if s.lookback <= 0 {
		s.lookback = 6
	}
	if s.topStops <= 0 {
		s.topStops = DefaultTopStops
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// Result summarizes one finished cycle.
type Result struct {
	CycleID   string                 `json:"cycle_id"`
	Since     time.Time              `json:"since"`
	Intervals int                    `json:"intervals"`
	Rows      map[indicator.Kind]int `json:"rows"`
	TopStops  int                    `json:"top_stops"`
	Duration  time.Duration          `json:"duration"`
}

type computed struct {
	intervals []storage.Interval
	rows      map[indicator.Kind][]storage.KPIRow
	top       []storage.TopStop
}

func (s *Service) monthStart() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
}

// Refresh recomputes the current month and publishes it. On error nothing is published
// and the previous tables stay served.
func (s *Service) Refresh(ctx context.Context) (Result, error) {
	const op = "service.refresh.Refresh"

	s.mu.Lock()
	defer s.mu.Unlock()

	res := Result{CycleID: uuid.NewString(), Since: s.monthStart()}
	log := s.log.With(slog.String("op", op), slog.String("cycle_id", res.CycleID))
	started := time.Now()

	c, err := s.compute(ctx, res.Since)
	if err != nil {
		log.Error("refresh failed, keeping previous results", slog.String("error", err.Error()))
		return res, fmt.Errorf("%s: %w", op, err)
	}

	items, err := encode(c, indicator.Kind.Key)
	if err != nil {
		log.Error("encode failed", slog.String("error", err.Error()))
		return res, fmt.Errorf("%s: %w", op, err)
	}

	intervals, err := cache.EncodeColumns(c.intervals)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	top, err := cache.EncodeColumns(c.top)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	items[cache.KeyIntervals] = intervals
	items[cache.KeyTopStops] = top

	if err := s.history.ReplaceTopStops(ctx, c.top); err != nil {
		log.Error("failed to store top stops", slog.String("error", err.Error()))
		return res, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.SetMany(items)

	res.fill(c, time.Since(started))
	log.Info("refresh published",
		slog.Int("intervals", res.Intervals),
		slog.Any("rows", res.Rows),
		slog.Duration("took", res.Duration),
	)

	return res, nil
}

// RefreshLookback recomputes the last LookbackMonths months, publishes them under the
// lookback keys and writes the snapshot of the previous month when it is missing.
func (s *Service) RefreshLookback(ctx context.Context) (Result, error) {
	const op = "service.refresh.RefreshLookback"

	s.mu.Lock()
	defer s.mu.Unlock()

	month := s.monthStart()
	res := Result{CycleID: uuid.NewString(), Since: month.AddDate(0, -s.lookback, 0)}
	log := s.log.With(slog.String("op", op), slog.String("cycle_id", res.CycleID))
	started := time.Now()

	c, err := s.compute(ctx, res.Since)
	if err != nil {
		log.Error("lookback refresh failed, keeping previous results", slog.String("error", err.Error()))
		return res, fmt.Errorf("%s: %w", op, err)
	}

	items, err := encode(c, indicator.Kind.LookbackKey)
	if err != nil {
		log.Error("encode failed", slog.String("error", err.Error()))
		return res, fmt.Errorf("%s: %w", op, err)
	}

	previous := month.AddDate(0, -1, 0)
	key := indicator.MonthKey(previous)

	has, err := s.history.HasMonth(ctx, key)
	if err != nil {
		log.Error("failed to read history", slog.String("error", err.Error()))
		return res, fmt.Errorf("%s: %w", op, err)
	}
	if !has {
		h := indicator.MonthlySummary(previous, c.intervals, c.rows)
		if err := s.history.SaveMonthly(ctx, h); err != nil {
			log.Error("failed to save monthly snapshot", slog.String("error", err.Error()))
			return res, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("monthly snapshot saved", slog.String("month", key), slog.Int64("total_boxes", h.TotalBoxes))
	}

	s.cache.SetMany(items)

	res.fill(c, time.Since(started))
	log.Info("lookback published", slog.Int("intervals", res.Intervals), slog.Duration("took", res.Duration))

	return res, nil
}

func (r *Result) fill(c computed, took time.Duration) {
	r.Intervals = len(c.intervals)
	r.TopStops = len(c.top)
	r.Rows = make(map[indicator.Kind]int, len(c.rows))
	for k, rows := range c.rows {
		r.Rows[k] = len(rows)
	}
	r.Duration = took
}

// read fetches the four raw tables in parallel.
func (s *Service) read(ctx context.Context, since time.Time) (storage.RawEvents, error) {
	const op = "service.refresh.read"

	var raw storage.RawEvents
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		raw.Occurrences, err = s.events.GetOccurrences(gctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		raw.Info, err = s.events.GetMachineInfo(gctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		raw.Registrations, err = s.events.GetRegistrations(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		raw.Counters, err = s.events.GetCounters(gctx, since)
		return err
	})

	if err := g.Wait(); err != nil {
		return storage.RawEvents{}, fmt.Errorf("%s: %w", op, err)
	}

	return raw, nil
}

func (s *Service) compute(ctx context.Context, since time.Time) (computed, error) {
	raw, err := s.read(ctx, since)
	if err != nil {
		return computed{}, err
	}

	clean := reconcile.Clean(raw, s.loc)
	ivs := s.reconciler.Intervals(clean)
	production := indicator.Production(clean.Counters, reconcile.NewRegistrationIndex(clean.Registrations))

	return computed{
		intervals: ivs,
		rows:      s.aggregator.All(ivs, production),
		top:       indicator.TopStops(ivs, s.topStops),
	}, nil
}

func encode(c computed, key func(indicator.Kind) string) (map[string][]byte, error) {
	items := make(map[string][]byte, len(c.rows)+2)
	for kind, rows := range c.rows {
		data, err := cache.EncodeColumns(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		items[key(kind)] = data
	}
	return items, nil
}
