// Package health provides health checking functionality for the rxprice API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/rxpricedb/rxprice-api/interfaces"
	"github.com/rxpricedb/rxprice-api/query"
	"github.com/rxpricedb/rxprice-api/viewer"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	controller *viewer.Controller
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(controller *viewer.Controller) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		controller: controller,
	}
}

// HealthCheck returns HTTP-specific health data.
// Used by the /health HTTP endpoint.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	state := h.controller.Snapshot()
	dataAge := time.Since(state.LastLoaded)

	switch {
	case state.Total == 0:
		// A store that reports zero records cannot serve anything useful
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case state.LastLoaded.IsZero():
		// No page has been loaded since startup
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case state.Err != "" && dataAge > 1*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 48*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"total_records":  state.Total,
		"loaded_records": len(state.Records),
		"current_page":   state.Page,
		"last_load":      state.LastLoaded.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"is_loading":     state.Loading || state.LoadingAll,
		"last_error":     state.Err,
	}

	if state.Total == query.CountUnknown {
		data["total_records"] = "unknown"
	}

	return status, data, httpStatus
}

// CalculateNextRefresh returns the next scheduled data refresh time.
// Refreshes run daily at 6:00 AM local time.
func (h *HealthCheckerImpl) CalculateNextRefresh() time.Time {
	now := time.Now()
	sixAM := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
	if now.Before(sixAM) {
		return sixAM
	}
	return sixAM.AddDate(0, 0, 1)
}
