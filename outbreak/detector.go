package outbreak

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-healthwatch/config"
	"go-healthwatch/types"
)

// ReportStore is the slice of the report store the detector reads.
type ReportStore interface {
	FindSince(ctx context.Context, since time.Time) ([]types.Report, error)
}

// AlertStore persists outbreak alerts and answers the dedup check.
type AlertStore interface {
	FindActive(ctx context.Context, diseaseType, location string, since time.Time) (*types.Alert, error)
	Insert(ctx context.Context, alert *types.Alert) error
}

// Broadcaster pushes new alerts to connected clients, fire-and-forget.
type Broadcaster interface {
	Broadcast(event string, payload interface{}) error
}

// Detector scans the trailing report window for spatial-temporal clusters.
type Detector struct {
	reports     ReportStore
	alerts      AlertStore
	broadcaster Broadcaster
	threshold   int
	windowHours int
	log         *logrus.Entry
}

func NewDetector(reports ReportStore, alerts AlertStore, broadcaster Broadcaster, cfg config.Config, log *logrus.Entry) *Detector {
	return &Detector{
		reports:     reports,
		alerts:      alerts,
		broadcaster: broadcaster,
		threshold:   cfg.OutbreakThreshold,
		windowHours: cfg.OutbreakWindowHours,
		log:         log,
	}
}

// Scan fetches all reports inside the window, groups them by
// (disease, city, state) and raises one alert per group at or above the
// threshold, unless an active alert for that group already exists inside the
// window. Returns the alerts it created.
func (d *Detector) Scan(ctx context.Context) ([]types.Alert, error) {
	since := time.Now().Add(-time.Duration(d.windowHours) * time.Hour)

	recent, err := d.reports.FindSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("outbreak: fetching recent reports: %w", err)
	}
	if len(recent) == 0 {
		return nil, nil
	}

	groups := make(map[string][]types.Report)
	for _, r := range recent {
		key := groupKey(r)
		groups[key] = append(groups[key], r)
	}

	var created []types.Alert
	for _, reports := range groups {
		if len(reports) < d.threshold {
			continue
		}

		diseaseType := reports[0].DiseaseType
		location := fmt.Sprintf("%s, %s", reports[0].City, reports[0].State)

		existing, err := d.alerts.FindActive(ctx, diseaseType, location, since)
		if err != nil {
			d.log.WithError(err).WithField("location", location).
				Warn("outbreak: active-alert lookup failed, skipping group")
			continue
		}
		if existing != nil {
			continue
		}

		alert := types.Alert{
			ID:          uuid.NewString(),
			DiseaseType: diseaseType,
			Message: fmt.Sprintf("Potential %s outbreak in %s: %d cases reported in last %dh",
				diseaseType, location, len(reports), d.windowHours),
			Active: true,
			Meta: types.AlertMeta{
				Count:       len(reports),
				Location:    location,
				WindowHours: d.windowHours,
			},
			CreatedAt: time.Now(),
		}

		if err := d.alerts.Insert(ctx, &alert); err != nil {
			d.log.WithError(err).WithField("location", location).
				Error("outbreak: failed to persist alert")
			continue
		}
		created = append(created, alert)

		d.log.WithFields(logrus.Fields{
			"disease":  diseaseType,
			"location": location,
			"count":    len(reports),
		}).Info("outbreak alert raised")

		if d.broadcaster != nil {
			if err := d.broadcaster.Broadcast("new-alert", alert); err != nil {
				// Alert is already persisted; broadcast is best-effort.
				d.log.WithError(err).Warn("outbreak: broadcast failed")
			}
		}
	}

	return created, nil
}

// groupKey builds the composite grouping key. City and state are matched
// exactly, with no case-folding: "mumbai" and "Mumbai" are distinct
// localities, matching the upstream data.
func groupKey(r types.Report) string {
	return r.DiseaseType + "|" + r.City + "|" + r.State
}
