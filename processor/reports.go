package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-healthwatch/emergency"
	"go-healthwatch/outbreak"
	"go-healthwatch/severity"
	"go-healthwatch/types"
)

const notifyTimeout = 5 * time.Second

// ReportStore is the slice of the report store the ingestion pipeline needs.
type ReportStore interface {
	Insert(ctx context.Context, report *types.Report) error
	UpdateEmergency(ctx context.Context, id string, rec *types.EmergencyRecord) error
}

// Notifier is the external notification port. Both calls are best-effort
// from the pipeline's perspective.
type Notifier interface {
	NotifyAuthorities(ctx context.Context, alert *emergency.Alert) (emergency.NotifyResult, error)
	Broadcast(event string, payload interface{}) error
}

// NewReportInput is the validated payload from the ingestion API.
type NewReportInput struct {
	DiseaseType string
	HealthIssue string
	Description string
	Severity    types.Severity
	Country     string
	State       string
	City        string
	Area        string
	Pincode     string
}

// Processor runs the synchronous part of report ingestion: severity scoring,
// persistence and emergency evaluation. Outbreak scanning is kicked off
// asynchronously afterwards.
type Processor struct {
	store    ReportStore
	engine   *emergency.Engine
	detector *outbreak.Detector
	notifier Notifier
	log      *logrus.Entry
}

func New(store ReportStore, engine *emergency.Engine, detector *outbreak.Detector, notifier Notifier, log *logrus.Entry) *Processor {
	return &Processor{
		store:    store,
		engine:   engine,
		detector: detector,
		notifier: notifier,
		log:      log,
	}
}

// CreateReport persists a new report and runs the detection pipeline.
// Only the store insert can fail the call; scoring, emergency evaluation,
// notification and the outbreak kick are best-effort enrichments.
func (p *Processor) CreateReport(ctx context.Context, in NewReportInput) (*types.Report, error) {
	now := time.Now()
	report := &types.Report{
		ID:          uuid.NewString(),
		DiseaseType: in.DiseaseType,
		HealthIssue: in.HealthIssue,
		Description: in.Description,
		Severity:    in.Severity,
		Country:     in.Country,
		State:       in.State,
		City:        in.City,
		Area:        in.Area,
		Pincode:     in.Pincode,
		Approval:    types.ApprovalPending,
		Lifecycle:   types.Lifecycle{Status: types.StatusActive},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if report.DiseaseType == "" {
		report.DiseaseType = report.HealthIssue
	}
	if report.Country == "" {
		report.Country = "India"
	}

	analysis := severity.Analyze(report.DiseaseType, report.Description, report.HealthIssue)
	report.Analysis = &analysis

	if err := p.store.Insert(ctx, report); err != nil {
		return nil, fmt.Errorf("processor: inserting report: %w", err)
	}

	p.evaluateEmergency(ctx, report)

	if p.notifier != nil {
		if err := p.notifier.Broadcast("new-report", report); err != nil {
			p.log.WithError(err).Warn("processor: new-report broadcast failed")
		}
	}

	// Re-scan the outbreak window off the request path.
	go func() {
		if _, err := p.detector.Scan(context.Background()); err != nil {
			p.log.WithError(err).Warn("processor: post-ingestion outbreak scan failed")
		}
	}()

	return report, nil
}

// evaluateEmergency runs the rule engine against the freshly persisted
// report. The trigger decision is persisted before notification is
// attempted, so a slow or dead notifier cannot lose it.
func (p *Processor) evaluateEmergency(ctx context.Context, report *types.Report) {
	triggers := p.engine.CheckTriggers(ctx, report)
	alert := p.engine.Synthesize(triggers, report)
	if alert == nil {
		return
	}
	if !emergency.Apply(report, alert) {
		return
	}

	if err := p.store.UpdateEmergency(ctx, report.ID, report.Emergency); err != nil {
		p.log.WithError(err).WithField("report", report.ID).
			Error("processor: failed to persist emergency record")
		return
	}

	p.log.WithFields(logrus.Fields{
		"report":   report.ID,
		"priority": alert.Priority,
		"disease":  alert.Disease,
		"location": alert.Location,
	}).Warn("emergency protocols triggered")

	if p.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	result, err := p.notifier.NotifyAuthorities(nctx, alert)
	if err != nil {
		p.log.WithError(err).Warn("processor: authority notification failed")
		return
	}
	if result.Notified && emergency.MarkNotified(report, time.Now()) {
		if err := p.store.UpdateEmergency(ctx, report.ID, report.Emergency); err != nil {
			p.log.WithError(err).WithField("report", report.ID).
				Error("processor: failed to persist notification timestamp")
		}
	}
}
