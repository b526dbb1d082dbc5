package refresh

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"io"
	"log/slog"
	"shopfloor-kpi/internal/cache"
	"shopfloor-kpi/internal/service/indicator"
	"shopfloor-kpi/internal/service/reconcile"
	"shopfloor-kpi/internal/storage"
	"testing"
	"time"
)

type MockEventReader struct {
	mock.Mock
}

func (m *MockEventReader) GetOccurrences(ctx context.Context, since time.Time) ([]storage.Occurrence, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Occurrence), args.Error(1)
}

func (m *MockEventReader) GetMachineInfo(ctx context.Context, since time.Time) ([]storage.InfoSample, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.InfoSample), args.Error(1)
}

func (m *MockEventReader) GetRegistrations(ctx context.Context) ([]storage.Registration, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Registration), args.Error(1)
}

func (m *MockEventReader) GetCounters(ctx context.Context, since time.Time) ([]storage.CounterSample, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.CounterSample), args.Error(1)
}

type MockHistoryStore struct {
	mock.Mock
}

func (m *MockHistoryStore) HasMonth(ctx context.Context, month string) (bool, error) {
	args := m.Called(ctx, month)
	return args.Bool(0), args.Error(1)
}

func (m *MockHistoryStore) SaveMonthly(ctx context.Context, h storage.MonthlyHistory) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *MockHistoryStore) ReplaceTopStops(ctx context.Context, stops []storage.TopStop) error {
	args := m.Called(ctx, stops)
	return args.Error(0)
}

var (
	tuesday = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	now     = time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)
	march   = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(events EventReader, history HistoryStore, c *cache.Cache) *Service {
	return New(discard(), events, history, c,
		reconcile.New(reconcile.Options{}),
		indicator.NewAggregator(nil, 0, func() time.Time { return now }),
		Options{Loc: time.UTC, LookbackMonths: 6, TopStops: 5, Now: func() time.Time { return now }},
	)
}

func strPtr(s string) *string { return &s }

func expectEvents(events *MockEventReader, since time.Time) {
	events.On("GetOccurrences", mock.Anything, since).Return([]storage.Occurrence{
		{MachineID: "TMF001", Date: tuesday, Time: "08:10:00", ReasonName: strPtr("Setup"), Problem: strPtr("Troca de faca")},
		{MachineID: "TMF001", Date: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), Time: "08:00:00", ReasonName: strPtr("Parada Programada")},
	}, nil)
	events.On("GetMachineInfo", mock.Anything, since).Return([]storage.InfoSample{
		{MachineID: "TMF001", Date: tuesday, Time: "08:00:00", Status: storage.StatusRunning},
		{MachineID: "TMF001", Date: tuesday, Time: "08:10:00", Status: storage.StatusStopped},
		{MachineID: "TMF001", Date: tuesday, Time: "08:50:00", Status: storage.StatusRunning},
		{MachineID: "TMF001", Date: tuesday, Time: "09:30:00", Status: storage.StatusStopped},
	}, nil)
	events.On("GetRegistrations", mock.Anything).Return([]storage.Registration{
		{MachineID: "TMF001", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Time: "06:00:00", Line: 1, Factory: 1},
	}, nil)
	events.On("GetCounters", mock.Anything, since).Return([]storage.CounterSample{
		{MachineID: "TMF001", Date: tuesday, Time: "08:00:00", TotalCount: 1000},
		{MachineID: "TMF001", Date: tuesday, Time: "15:00:00", TotalCount: 5000},
	}, nil)
}

func TestService_Refresh_Publishes(t *testing.T) {
	events := new(MockEventReader)
	history := new(MockHistoryStore)
	c := cache.New()

	expectEvents(events, march)
	history.On("ReplaceTopStops", mock.Anything, []storage.TopStop{
		{Line: 1, Reason: "Setup", Problem: "Troca de faca", Minutes: 40, Count: 1},
	}).Return(nil)

	res, err := newService(events, history, c).Refresh(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.CycleID)
	assert.Equal(t, march, res.Since)
	assert.Equal(t, 3, res.Intervals)
	assert.Equal(t, 1, res.TopStops)

	assert.ElementsMatch(t, []string{"df_eff", "df_info", "df_perf", "df_repair", "df_top_stops"}, c.Keys())

	data, err := c.Get(indicator.Efficiency.Key())
	require.NoError(t, err)
	rows, err := cache.DecodeColumns[storage.KPIRow](data)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(4000), rows[0].Produced)
	assert.Equal(t, 1, rows[0].Line)
	assert.Equal(t, 40, rows[0].Minutes)

	data, err = c.Get(cache.KeyIntervals)
	require.NoError(t, err)
	ivs, err := cache.DecodeColumns[storage.Interval](data)
	require.NoError(t, err)
	require.Len(t, ivs, 3)
	assert.Equal(t, storage.StatusStopped, ivs[1].Status)
	assert.Equal(t, "Setup", ivs[1].Reason())
	assert.Equal(t, 40, ivs[1].Minutes)

	events.AssertExpectations(t)
	history.AssertExpectations(t)
}

func TestService_Refresh_FailureKeepsPreviousResults(t *testing.T) {
	events := new(MockEventReader)
	history := new(MockHistoryStore)
	c := cache.New()
	c.Set("df_eff", []byte(`{"old":{"0":1}}`))

	events.On("GetOccurrences", mock.Anything, march).Return(nil, errors.New("connection refused"))
	events.On("GetMachineInfo", mock.Anything, march).Return([]storage.InfoSample{}, nil).Maybe()
	events.On("GetRegistrations", mock.Anything).Return([]storage.Registration{}, nil).Maybe()
	events.On("GetCounters", mock.Anything, march).Return([]storage.CounterSample{}, nil).Maybe()

	_, err := newService(events, history, c).Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	data, err := c.Get("df_eff")
	require.NoError(t, err)
	assert.Equal(t, `{"old":{"0":1}}`, string(data))
	assert.Equal(t, []string{"df_eff"}, c.Keys())

	history.AssertNotCalled(t, "ReplaceTopStops", mock.Anything, mock.Anything)
}

func TestService_Refresh_HistoryFailureDoesNotPublish(t *testing.T) {
	events := new(MockEventReader)
	history := new(MockHistoryStore)
	c := cache.New()

	expectEvents(events, march)
	history.On("ReplaceTopStops", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := newService(events, history, c).Refresh(context.Background())
	require.Error(t, err)
	assert.Empty(t, c.Keys())
}

func TestService_RefreshLookback_SavesMissingSnapshot(t *testing.T) {
	events := new(MockEventReader)
	history := new(MockHistoryStore)
	c := cache.New()

	since := time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)
	expectEvents(events, since)
	history.On("HasMonth", mock.Anything, "2024-02").Return(false, nil)
	history.On("SaveMonthly", mock.Anything, mock.MatchedBy(func(h storage.MonthlyHistory) bool {
		return h.Month == "2024-02"
	})).Return(nil)

	res, err := newService(events, history, c).RefreshLookback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, since, res.Since)

	assert.ElementsMatch(t, []string{"df_eff_lookback", "df_perf_lookback", "df_repair_lookback"}, c.Keys())

	events.AssertExpectations(t)
	history.AssertExpectations(t)
}

func TestService_RefreshLookback_KeepsExistingSnapshot(t *testing.T) {
	events := new(MockEventReader)
	history := new(MockHistoryStore)

	expectEvents(events, time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC))
	history.On("HasMonth", mock.Anything, "2024-02").Return(true, nil)

	_, err := newService(events, history, cache.New()).RefreshLookback(context.Background())
	require.NoError(t, err)

	history.AssertNotCalled(t, "SaveMonthly", mock.Anything, mock.Anything)
}

func TestService_EmptyTablesAreValid(t *testing.T) {
	events := new(MockEventReader)
	history := new(MockHistoryStore)
	c := cache.New()

	events.On("GetOccurrences", mock.Anything, march).Return([]storage.Occurrence{}, nil)
	events.On("GetMachineInfo", mock.Anything, march).Return([]storage.InfoSample{}, nil)
	events.On("GetRegistrations", mock.Anything).Return([]storage.Registration{}, nil)
	events.On("GetCounters", mock.Anything, march).Return([]storage.CounterSample{}, nil)
	history.On("ReplaceTopStops", mock.Anything, []storage.TopStop{}).Return(nil)

	res, err := newService(events, history, c).Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Intervals)

	data, err := c.Get("df_perf")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}
