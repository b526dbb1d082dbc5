package refresh

import (
	"context"
	"errors"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"shopfloor-kpi/internal/service/refresh"
	"strings"
	"testing"
)

type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) Refresh(ctx context.Context) (refresh.Result, error) {
	args := m.Called(ctx)
	return args.Get(0).(refresh.Result), args.Error(1)
}

func (m *MockRefresher) RefreshLookback(ctx context.Context) (refresh.Result, error) {
	args := m.Called(ctx)
	return args.Get(0).(refresh.Result), args.Error(1)
}

func TestRefresh_Success(t *testing.T) {
	svc := new(MockRefresher)
	svc.On("Refresh", mock.Anything).Return(refresh.Result{CycleID: "c-1", Intervals: 12}, nil)

	rr := httptest.NewRecorder()
	Refresh(slog.Default(), svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/admin/refresh", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp refresh.Result
	require.NoError(t, render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp))
	assert.Equal(t, "c-1", resp.CycleID)
	assert.Equal(t, 12, resp.Intervals)

	svc.AssertNotCalled(t, "RefreshLookback", mock.Anything)
}

func TestRefresh_Lookback(t *testing.T) {
	svc := new(MockRefresher)
	svc.On("RefreshLookback", mock.Anything).Return(refresh.Result{CycleID: "c-2"}, nil)

	rr := httptest.NewRecorder()
	Refresh(slog.Default(), svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/admin/refresh?lookback=true", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestRefresh_Failure(t *testing.T) {
	svc := new(MockRefresher)
	svc.On("Refresh", mock.Anything).Return(refresh.Result{}, errors.New("db down"))

	rr := httptest.NewRecorder()
	Refresh(slog.Default(), svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/admin/refresh", nil))

	assert.Equal(t, http.StatusBadGateway, rr.Code)
}
