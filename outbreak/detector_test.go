package outbreak

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-healthwatch/config"
	"go-healthwatch/types"
)

type fakeReportStore struct {
	mu      sync.Mutex
	reports []types.Report
	err     error
}

func (f *fakeReportStore) FindSince(ctx context.Context, since time.Time) ([]types.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []types.Report
	for _, r := range f.reports {
		if !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReportStore) add(n int, diseaseType, city, state string, age time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.reports = append(f.reports, types.Report{
			DiseaseType: diseaseType,
			City:        city,
			State:       state,
			CreatedAt:   time.Now().Add(-age),
		})
	}
}

type fakeAlertStore struct {
	mu        sync.Mutex
	alerts    []types.Alert
	findErr   error
	insertErr error
}

func (f *fakeAlertStore) FindActive(ctx context.Context, diseaseType, location string, since time.Time) (*types.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for i := range f.alerts {
		a := f.alerts[i]
		if a.Active && a.DiseaseType == diseaseType && a.Meta.Location == location && !a.CreatedAt.Before(since) {
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeAlertStore) Insert(ctx context.Context, alert *types.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.alerts = append(f.alerts, *alert)
	return nil
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (f *fakeBroadcaster) Broadcast(event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func newDetector(reports *fakeReportStore, alerts *fakeAlertStore, b Broadcaster) *Detector {
	cfg := config.Config{OutbreakThreshold: 10, OutbreakWindowHours: 24}
	return NewDetector(reports, alerts, b, cfg, testLogger())
}

func TestScanRaisesAlertAtThreshold(t *testing.T) {
	reports := &fakeReportStore{}
	reports.add(10, "Dengue", "Pune", "Maharashtra", time.Hour)
	alerts := &fakeAlertStore{}
	broadcaster := &fakeBroadcaster{}

	created, err := newDetector(reports, alerts, broadcaster).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, created, 1)

	alert := created[0]
	assert.Equal(t, "Dengue", alert.DiseaseType)
	assert.True(t, alert.Active)
	assert.Equal(t, 10, alert.Meta.Count)
	assert.Equal(t, "Pune, Maharashtra", alert.Meta.Location)
	assert.Equal(t, 24, alert.Meta.WindowHours)
	assert.Contains(t, alert.Message, "Potential Dengue outbreak in Pune, Maharashtra")
	assert.Contains(t, alert.Message, "10 cases reported in last 24h")
	assert.Equal(t, []string{"new-alert"}, broadcaster.events)
}

func TestScanDeduplicatesActiveAlert(t *testing.T) {
	reports := &fakeReportStore{}
	reports.add(10, "Dengue", "Pune", "Maharashtra", time.Hour)
	alerts := &fakeAlertStore{}
	detector := newDetector(reports, alerts, &fakeBroadcaster{})

	created, err := detector.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, created, 1)

	// Re-running with no new reports must not raise a second alert.
	created, err = detector.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Len(t, alerts.alerts, 1)
}

func TestScanBelowThreshold(t *testing.T) {
	reports := &fakeReportStore{}
	reports.add(9, "Dengue", "Pune", "Maharashtra", time.Hour)
	alerts := &fakeAlertStore{}

	created, err := newDetector(reports, alerts, &fakeBroadcaster{}).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestScanIgnoresReportsOutsideWindow(t *testing.T) {
	reports := &fakeReportStore{}
	reports.add(6, "Dengue", "Pune", "Maharashtra", time.Hour)
	reports.add(6, "Dengue", "Pune", "Maharashtra", 30*time.Hour)
	alerts := &fakeAlertStore{}

	created, err := newDetector(reports, alerts, &fakeBroadcaster{}).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestScanLocalityIsCaseSensitive(t *testing.T) {
	// "mumbai" and "Mumbai" group separately; neither reaches the threshold.
	reports := &fakeReportStore{}
	reports.add(5, "Dengue", "mumbai", "Maharashtra", time.Hour)
	reports.add(5, "Dengue", "Mumbai", "Maharashtra", time.Hour)
	alerts := &fakeAlertStore{}

	created, err := newDetector(reports, alerts, &fakeBroadcaster{}).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestScanEmptyWindowIsNoop(t *testing.T) {
	created, err := newDetector(&fakeReportStore{}, &fakeAlertStore{}, &fakeBroadcaster{}).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestScanReportFetchError(t *testing.T) {
	reports := &fakeReportStore{err: errors.New("store down")}

	_, err := newDetector(reports, &fakeAlertStore{}, &fakeBroadcaster{}).Scan(context.Background())
	assert.Error(t, err)
}

func TestScanBroadcastFailureDoesNotRollBack(t *testing.T) {
	reports := &fakeReportStore{}
	reports.add(10, "Dengue", "Pune", "Maharashtra", time.Hour)
	alerts := &fakeAlertStore{}
	broadcaster := &fakeBroadcaster{err: errors.New("socket closed")}

	created, err := newDetector(reports, alerts, broadcaster).Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, created, 1)
	assert.Len(t, alerts.alerts, 1)
}

func TestScanCholeraScenario(t *testing.T) {
	reports := &fakeReportStore{}
	reports.add(10, "Cholera", "City Y", "State Z", 30*time.Minute)
	alerts := &fakeAlertStore{}
	detector := newDetector(reports, alerts, &fakeBroadcaster{})

	created, err := detector.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, 10, created[0].Meta.Count)
	assert.Equal(t, "City Y, State Z", created[0].Meta.Location)

	// An 11th identical report must not produce a second active alert.
	reports.add(1, "Cholera", "City Y", "State Z", time.Minute)
	created, err = detector.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Len(t, alerts.alerts, 1)
}
