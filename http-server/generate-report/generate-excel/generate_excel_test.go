package generate_excel

import (
	"context"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"shopfloor-kpi/internal/cache"
	"shopfloor-kpi/internal/service/generate-excel"
	"shopfloor-kpi/internal/service/indicator"
	"strings"
	"testing"
	"time"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateExcel(ctx context.Context, filter generate_excel.Filter) ([]byte, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func TestGenerateReportExcel_Success(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateExcel", mock.Anything, generate_excel.Filter{
		Kind: indicator.Performance,
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Line: 2,
	}).Return([]byte("xlsx"), nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/report/excel?kind=perf&from=2024-03-01&line=2", nil)

	GenerateReportExcel(slog.Default(), gen).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "xlsx", rr.Body.String())
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Disposition"), "attachment; filename=KPI_performance_"))

	gen.AssertExpectations(t)
}

func TestGenerateReportExcel_BadRequest(t *testing.T) {
	for _, url := range []string{
		"/api/report/excel",
		"/api/report/excel?kind=oee",
		"/api/report/excel?kind=eff&from=05/03/2024",
		"/api/report/excel?kind=eff&line=abc",
	} {
		gen := new(MockGenerator)
		rr := httptest.NewRecorder()

		GenerateReportExcel(slog.Default(), gen).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code, url)
		gen.AssertNotCalled(t, "GenerateExcel", mock.Anything, mock.Anything)
	}
}

func TestGenerateReportExcel_NoData(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateExcel", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("wrap: %w", cache.ErrNotFound))

	rr := httptest.NewRecorder()
	GenerateReportExcel(slog.Default(), gen).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/report/excel?kind=repair", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
