package db

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go-healthwatch/types"
)

const reportsCollection = "reports"

// ReportRepo is the Firestore-backed report store. It satisfies the store
// interfaces of the processor, emergency, outbreak and lifecycle packages.
type ReportRepo struct {
	client *firestore.Client
}

func NewReportRepo(client *firestore.Client) *ReportRepo {
	return &ReportRepo{client: client}
}

func (r *ReportRepo) Insert(ctx context.Context, report *types.Report) error {
	if report.ID == "" {
		return fmt.Errorf("report is missing an ID")
	}
	_, err := r.client.Collection(reportsCollection).Doc(report.ID).Set(ctx, report)
	if err != nil {
		return fmt.Errorf("inserting report %s: %w", report.ID, err)
	}
	return nil
}

// Get returns a single report, or nil when no such document exists.
func (r *ReportRepo) Get(ctx context.Context, id string) (*types.Report, error) {
	doc, err := r.client.Collection(reportsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting report %s: %w", id, err)
	}
	var report types.Report
	if err := doc.DataTo(&report); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", id, err)
	}
	report.ID = doc.Ref.ID
	return &report, nil
}

func (r *ReportRepo) FindSince(ctx context.Context, since time.Time) ([]types.Report, error) {
	query := r.client.Collection(reportsCollection).
		Where("createdAt", ">=", since)
	return r.collect(ctx, query)
}

func (r *ReportRepo) FindByGroupSince(ctx context.Context, diseaseType, city, state string, since time.Time) ([]types.Report, error) {
	query := r.client.Collection(reportsCollection).
		Where("diseaseType", "==", diseaseType).
		Where("city", "==", city).
		Where("state", "==", state).
		Where("createdAt", ">=", since)
	return r.collect(ctx, query)
}

func (r *ReportRepo) FindByStatus(ctx context.Context, statuses ...types.ReportStatus) ([]types.Report, error) {
	values := make([]interface{}, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	query := r.client.Collection(reportsCollection).
		Where("lifecycle.reportStatus", "in", values)
	return r.collect(ctx, query)
}

func (r *ReportRepo) FindAll(ctx context.Context) ([]types.Report, error) {
	return r.collect(ctx, r.client.Collection(reportsCollection).Query)
}

// ListFilter narrows the moderation/query surface of the reports listing.
type ListFilter struct {
	DiseaseType string
	Status      types.ReportStatus
	From        time.Time
	To          time.Time
}

func (r *ReportRepo) List(ctx context.Context, f ListFilter) ([]types.Report, error) {
	query := r.client.Collection(reportsCollection).Query
	if f.DiseaseType != "" {
		query = query.Where("diseaseType", "==", f.DiseaseType)
	}
	if f.Status != "" {
		query = query.Where("lifecycle.reportStatus", "==", string(f.Status))
	}
	if !f.From.IsZero() {
		query = query.Where("createdAt", ">=", f.From)
	}
	if !f.To.IsZero() {
		query = query.Where("createdAt", "<=", f.To)
	}
	return r.collect(ctx, query.OrderBy("createdAt", firestore.Desc))
}

// UpdateLifecycles persists a batch of lifecycle transitions through a
// BulkWriter, one aging pass worth of writes per flush.
func (r *ReportRepo) UpdateLifecycles(ctx context.Context, updates map[string]types.Lifecycle) error {
	if len(updates) == 0 {
		return nil
	}

	bw := r.client.BulkWriter(ctx)
	now := time.Now()

	failed := 0
	for id, lc := range updates {
		docRef := r.client.Collection(reportsCollection).Doc(id)
		_, err := bw.Update(docRef, []firestore.Update{
			{Path: "lifecycle", Value: lc},
			{Path: "updatedAt", Value: now},
		})
		if err != nil {
			failed++
		}
	}

	// Flush sends any remaining writes and waits for them to complete.
	bw.Flush()

	if failed > 0 {
		return fmt.Errorf("enqueueing %d of %d lifecycle updates failed", failed, len(updates))
	}
	return nil
}

func (r *ReportRepo) UpdateEmergency(ctx context.Context, id string, rec *types.EmergencyRecord) error {
	_, err := r.client.Collection(reportsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "emergency", Value: rec},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return fmt.Errorf("updating emergency record for %s: %w", id, err)
	}
	return nil
}

func (r *ReportRepo) UpdateApproval(ctx context.Context, id string, approval types.ApprovalStatus) error {
	_, err := r.client.Collection(reportsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "approval", Value: string(approval)},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return fmt.Errorf("updating approval for %s: %w", id, err)
	}
	return nil
}

func (r *ReportRepo) collect(ctx context.Context, query firestore.Query) ([]types.Report, error) {
	var reports []types.Report
	iter := query.Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating reports: %w", err)
		}
		var report types.Report
		if err := doc.DataTo(&report); err != nil {
			return nil, fmt.Errorf("decoding report %s: %w", doc.Ref.ID, err)
		}
		report.ID = doc.Ref.ID
		reports = append(reports, report)
	}
	return reports, nil
}
