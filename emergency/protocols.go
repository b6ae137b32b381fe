package emergency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"go-healthwatch/config"
	"go-healthwatch/types"
)

// Disease types that trigger emergency protocols on their own.
var criticalDiseases = []string{"covid-19", "dengue", "malaria", "cholera", "plague"}

// Recommended actions per synthesized priority.
var recommendedActions = map[types.EmergencyPriority][]string{
	types.PriorityCritical: {
		"Notify health authorities immediately",
		"Issue public health warning",
		"Deploy emergency response team",
		"Set up isolation protocols",
	},
	types.PriorityHigh: {
		"Alert local health department",
		"Increase surveillance in area",
		"Prepare emergency resources",
	},
}

// ReportFinder is the slice of the report store the cluster rule needs.
type ReportFinder interface {
	FindByGroupSince(ctx context.Context, diseaseType, city, state string, since time.Time) ([]types.Report, error)
}

// Alert is the synthesized emergency payload handed to the notifier.
type Alert struct {
	Priority  types.EmergencyPriority `json:"priority"`
	Location  string                  `json:"location"`
	Disease   string                  `json:"disease"`
	Triggers  []types.Trigger         `json:"triggers"`
	Actions   []string                `json:"actions"`
	Timestamp time.Time               `json:"timestamp"`
}

// NotifyResult is what the authority channel reports back after delivery.
type NotifyResult struct {
	Notified bool     `json:"notified"`
	Channels []string `json:"channels"`
}

// Engine evaluates a report against the fixed emergency rule set.
type Engine struct {
	reports          ReportFinder
	clusterThreshold int
	window           time.Duration
	log              *logrus.Entry
}

func NewEngine(reports ReportFinder, cfg config.Config, log *logrus.Entry) *Engine {
	return &Engine{
		reports:          reports,
		clusterThreshold: cfg.EmergencyClusterThreshold,
		window:           time.Duration(cfg.EmergencyWindowHours) * time.Hour,
		log:              log,
	}
}

// CheckTriggers runs every rule independently and returns the ones that
// fired. The cluster rule expects the report to already be persisted so the
// history query counts it; if the store query fails the rule is skipped and
// the remaining triggers still stand.
func (e *Engine) CheckTriggers(ctx context.Context, report *types.Report) []types.Trigger {
	var triggers []types.Trigger

	if report.EffectiveSeverity() == types.Critical {
		triggers = append(triggers, types.Trigger{
			Type:     types.TriggerCriticalSeverity,
			Message:  fmt.Sprintf("Critical severity report: %s", report.DiseaseType),
			Priority: types.PriorityHigh,
		})
	}

	if isCriticalDisease(report.DiseaseType) {
		triggers = append(triggers, types.Trigger{
			Type:     types.TriggerCriticalDisease,
			Message:  fmt.Sprintf("Critical disease reported: %s", report.DiseaseType),
			Priority: types.PriorityHigh,
		})
	}

	since := time.Now().Add(-e.window)
	recent, err := e.reports.FindByGroupSince(ctx, report.DiseaseType, report.City, report.State, since)
	if err != nil {
		e.log.WithError(err).Warn("emergency: cluster rule skipped, report history query failed")
	} else if len(recent) >= e.clusterThreshold {
		triggers = append(triggers, types.Trigger{
			Type:     types.TriggerOutbreakPattern,
			Message:  fmt.Sprintf("%d cases of %s in %s", len(recent), report.DiseaseType, report.City),
			Priority: types.PriorityCritical,
		})
	}

	return triggers
}

// Synthesize folds the fired triggers into a single prioritized alert.
// Returns nil when nothing fired.
func (e *Engine) Synthesize(triggers []types.Trigger, report *types.Report) *Alert {
	if len(triggers) == 0 {
		return nil
	}

	priority := types.PriorityMedium
	for _, t := range triggers {
		if t.Priority == types.PriorityCritical {
			priority = types.PriorityCritical
			break
		}
		if t.Priority == types.PriorityHigh {
			priority = types.PriorityHigh
		}
	}

	return &Alert{
		Priority:  priority,
		Location:  fmt.Sprintf("%s, %s", report.City, report.State),
		Disease:   report.DiseaseType,
		Triggers:  triggers,
		Actions:   recommendedActions[priority],
		Timestamp: time.Now(),
	}
}

// Apply writes the emergency block onto the report at most once. A report
// whose protocols already triggered is left untouched.
func Apply(report *types.Report, alert *Alert) bool {
	if report.Emergency != nil && report.Emergency.Triggered {
		return false
	}
	report.Emergency = &types.EmergencyRecord{
		Triggered: true,
		Priority:  alert.Priority,
		Triggers:  alert.Triggers,
		Actions:   alert.Actions,
	}
	return true
}

// MarkNotified records the notification timestamp, keeping the first
// non-nil value on re-evaluation.
func MarkNotified(report *types.Report, at time.Time) bool {
	if report.Emergency == nil || report.Emergency.NotifiedAt != nil {
		return false
	}
	report.Emergency.NotifiedAt = &at
	return true
}

func isCriticalDisease(diseaseType string) bool {
	key := strings.ToLower(diseaseType)
	for _, d := range criticalDiseases {
		if d == key {
			return true
		}
	}
	return false
}
