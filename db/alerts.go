package db

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"go-healthwatch/types"
)

const alertsCollection = "alerts"

// AlertRepo is the Firestore-backed alert store.
type AlertRepo struct {
	client *firestore.Client
}

func NewAlertRepo(client *firestore.Client) *AlertRepo {
	return &AlertRepo{client: client}
}

func (a *AlertRepo) Insert(ctx context.Context, alert *types.Alert) error {
	if alert.ID == "" {
		return fmt.Errorf("alert is missing an ID")
	}
	_, err := a.client.Collection(alertsCollection).Doc(alert.ID).Set(ctx, alert)
	if err != nil {
		return fmt.Errorf("inserting alert %s: %w", alert.ID, err)
	}
	return nil
}

// FindActive returns the active alert for the given disease and locality
// created within the window, or nil when none exists.
func (a *AlertRepo) FindActive(ctx context.Context, diseaseType, location string, since time.Time) (*types.Alert, error) {
	iter := a.client.Collection(alertsCollection).
		Where("diseaseType", "==", diseaseType).
		Where("active", "==", true).
		Where("meta.location", "==", location).
		Where("createdAt", ">=", since).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying active alerts: %w", err)
	}

	var alert types.Alert
	if err := doc.DataTo(&alert); err != nil {
		return nil, fmt.Errorf("decoding alert %s: %w", doc.Ref.ID, err)
	}
	alert.ID = doc.Ref.ID
	return &alert, nil
}

// List returns alerts newest first, optionally only active ones.
func (a *AlertRepo) List(ctx context.Context, activeOnly bool) ([]types.Alert, error) {
	query := a.client.Collection(alertsCollection).Query
	if activeOnly {
		query = query.Where("active", "==", true)
	}

	var alerts []types.Alert
	iter := query.OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating alerts: %w", err)
		}
		var alert types.Alert
		if err := doc.DataTo(&alert); err != nil {
			return nil, fmt.Errorf("decoding alert %s: %w", doc.Ref.ID, err)
		}
		alert.ID = doc.Ref.ID
		alerts = append(alerts, alert)
	}
	return alerts, nil
}
