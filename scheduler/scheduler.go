// Package scheduler manages periodic viewer refreshes and staleness
// monitoring for the rxprice API.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/rxpricedb/rxprice-api/interfaces"
	"github.com/rxpricedb/rxprice-api/logging"
	"github.com/rxpricedb/rxprice-api/viewer"
)

// Compile-time check to ensure RefreshScheduler implements Scheduler
var _ interfaces.Scheduler = (*RefreshScheduler)(nil)

// RefreshScheduler drives the viewer controller's daily refresh cycle.
// The store is read-only from this process, so a refresh only re-reads
// the collection: new totals, fresh first page, cleared cursor cache.
type RefreshScheduler struct {
	controller *viewer.Controller
	scheduler  *gocron.Scheduler
	stopMon    chan struct{}
}

// NewRefreshScheduler creates a new scheduler with injected dependencies
func NewRefreshScheduler(controller *viewer.Controller) *RefreshScheduler {
	return &RefreshScheduler{
		controller: controller,
		scheduler:  gocron.NewScheduler(time.Local),
		stopMon:    make(chan struct{}),
	}
}

// Start performs the initial load and schedules daily refreshes
func (s *RefreshScheduler) Start() error {
	// Initial load
	if err := s.refresh(); err != nil {
		logging.Error("Failed to perform initial data load", "error", err)
		return fmt.Errorf("initial data load failed: %w", err)
	}

	// Refresh daily at 06:00, after the upstream snapshot job lands
	_, err := s.scheduler.Every(1).Days().At("06:00").Do(func() {
		if err := s.refresh(); err != nil {
			logging.Error("Failed to refresh data", "error", err)
		}
	})

	if err != nil {
		logging.Error("Failed to schedule refreshes", "error", err)
		return fmt.Errorf("failed to schedule refreshes: %w", err)
	}

	s.scheduler.StartAsync()

	s.startStalenessMonitoring()

	return nil
}

// Stop stops the scheduler and the staleness monitor
func (s *RefreshScheduler) Stop() {
	s.scheduler.Stop()
	close(s.stopMon)
}

// refresh re-reads the collection through the controller
func (s *RefreshScheduler) refresh() error {
	logging.Info("Starting data refresh")
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	err := s.controller.Refresh(ctx)
	if errors.Is(err, viewer.ErrLoadInFlight) {
		logging.Info("Refresh already in progress, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	state := s.controller.Snapshot()
	logging.Info("Data refresh completed",
		"duration", time.Since(start).String(),
		"total_records", state.Total)

	return nil
}

// startStalenessMonitoring warns when the viewer has not loaded
// anything for over 25 hours, which means a daily refresh was missed
func (s *RefreshScheduler) startStalenessMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopMon:
				return
			case <-ticker.C:
				state := s.controller.Snapshot()
				if !state.LastLoaded.IsZero() && time.Since(state.LastLoaded) > 25*time.Hour {
					logging.Warn("Data hasn't been refreshed in over 25 hours",
						"last_load", state.LastLoaded.Format(time.RFC3339))
				}
			}
		}
	}()
}
