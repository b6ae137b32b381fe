package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"go-healthwatch/config"
	"go-healthwatch/types"
)

const autoArchiveNote = "Auto-archived after 30 days"

// ReportStore is the slice of the report store the manager needs.
type ReportStore interface {
	FindByStatus(ctx context.Context, statuses ...types.ReportStatus) ([]types.Report, error)
	FindAll(ctx context.Context) ([]types.Report, error)
	UpdateLifecycles(ctx context.Context, updates map[string]types.Lifecycle) error
}

// Stats is the read-only lifecycle aggregate.
type Stats struct {
	ByStatus      map[types.ReportStatus]int `json:"byStatus"`
	UserRecovered int                        `json:"userRecovered"`
	AdminResolved int                        `json:"adminResolved"`
	AutoArchived  int                        `json:"autoArchived"`
}

// Manager ages reports through active -> monitoring -> archived based on
// elapsed time since creation. Safe to run repeatedly: every transition is
// keyed off createdAt, and resolved/archived reports are never reverted.
type Manager struct {
	reports        ReportStore
	monitoringDays int
	archiveDays    int
	log            *logrus.Entry
}

func NewManager(reports ReportStore, cfg config.Config, log *logrus.Entry) *Manager {
	return &Manager{
		reports:        reports,
		monitoringDays: cfg.MonitoringAfterDays,
		archiveDays:    cfg.ArchiveAfterDays,
		log:            log,
	}
}

// Run applies the aging transitions to every non-archived report and
// recomputes daysActive for the survivors. All changed lifecycles from one
// pass are persisted as a single batch write.
func (m *Manager) Run(ctx context.Context) error {
	now := time.Now()

	reports, err := m.reports.FindByStatus(ctx,
		types.StatusActive, types.StatusMonitoring, types.StatusResolved)
	if err != nil {
		return fmt.Errorf("lifecycle: fetching reports: %w", err)
	}

	updates := make(map[string]types.Lifecycle)
	transitions := 0
	for _, r := range reports {
		ageDays := int(now.Sub(r.CreatedAt).Hours() / 24)
		lc := r.Lifecycle
		changed := false

		switch {
		case ageDays >= m.archiveDays &&
			(lc.Status == types.StatusActive || lc.Status == types.StatusMonitoring):
			resolvedAt := now
			lc.Status = types.StatusArchived
			lc.AutoResolved = true
			lc.ResolvedAt = &resolvedAt
			lc.ResolutionNote = autoArchiveNote
			changed = true
		case ageDays >= m.monitoringDays && lc.Status == types.StatusActive:
			lc.Status = types.StatusMonitoring
			changed = true
		}

		if lc.Status != types.StatusArchived && lc.DaysActive != ageDays {
			lc.DaysActive = ageDays
			changed = true
		}

		if !changed {
			continue
		}
		updates[r.ID] = lc
		if lc.Status != r.Lifecycle.Status {
			transitions++
		}
	}

	if len(updates) > 0 {
		if err := m.reports.UpdateLifecycles(ctx, updates); err != nil {
			return fmt.Errorf("lifecycle: persisting updates: %w", err)
		}
	}

	m.log.WithFields(logrus.Fields{
		"scanned":     len(reports),
		"updated":     len(updates),
		"transitions": transitions,
	}).Info("report lifecycles updated")
	return nil
}

// GetStats aggregates lifecycle counts across all reports.
func (m *Manager) GetStats(ctx context.Context) (*Stats, error) {
	reports, err := m.reports.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: fetching reports for stats: %w", err)
	}

	stats := &Stats{ByStatus: make(map[types.ReportStatus]int)}
	for _, r := range reports {
		stats.ByStatus[r.Lifecycle.Status]++
		if r.Lifecycle.UserRecovered {
			stats.UserRecovered++
		}
		if r.Lifecycle.Status == types.StatusResolved && !r.Lifecycle.AutoResolved {
			stats.AdminResolved++
		}
		if r.Lifecycle.AutoResolved {
			stats.AutoArchived++
		}
	}
	return stats, nil
}
