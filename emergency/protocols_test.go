package emergency

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-healthwatch/config"
	"go-healthwatch/types"
)

type fakeReportFinder struct {
	reports []types.Report
	err     error
}

func (f *fakeReportFinder) FindByGroupSince(ctx context.Context, diseaseType, city, state string, since time.Time) ([]types.Report, error) {
	return f.reports, f.err
}

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func testConfig() config.Config {
	return config.Config{
		EmergencyClusterThreshold: 3,
		EmergencyWindowHours:      24,
	}
}

func groupOf(n int) []types.Report {
	reports := make([]types.Report, n)
	for i := range reports {
		reports[i] = types.Report{
			DiseaseType: "typhoid",
			City:        "Pune",
			State:       "Maharashtra",
			CreatedAt:   time.Now().Add(-time.Hour),
		}
	}
	return reports
}

func TestClusterRuleFiresAtThreshold(t *testing.T) {
	// 2 prior reports + the new one already persisted = 3 total.
	engine := NewEngine(&fakeReportFinder{reports: groupOf(3)}, testConfig(), testLogger())
	report := &types.Report{
		DiseaseType: "typhoid",
		City:        "Pune",
		State:       "Maharashtra",
		Severity:    types.Mild,
	}

	triggers := engine.CheckTriggers(context.Background(), report)

	require.Len(t, triggers, 1)
	assert.Equal(t, types.TriggerOutbreakPattern, triggers[0].Type)
	assert.Equal(t, types.PriorityCritical, triggers[0].Priority)
	assert.Contains(t, triggers[0].Message, "3 cases of typhoid in Pune")
}

func TestClusterRuleBelowThreshold(t *testing.T) {
	engine := NewEngine(&fakeReportFinder{reports: groupOf(2)}, testConfig(), testLogger())
	report := &types.Report{
		DiseaseType: "typhoid",
		City:        "Pune",
		State:       "Maharashtra",
		Severity:    types.Mild,
	}

	triggers := engine.CheckTriggers(context.Background(), report)

	assert.Empty(t, triggers)
}

func TestCriticalSeverityRule(t *testing.T) {
	engine := NewEngine(&fakeReportFinder{}, testConfig(), testLogger())
	report := &types.Report{
		DiseaseType: "typhoid",
		Severity:    types.Critical,
	}

	triggers := engine.CheckTriggers(context.Background(), report)

	require.Len(t, triggers, 1)
	assert.Equal(t, types.TriggerCriticalSeverity, triggers[0].Type)
	assert.Equal(t, types.PriorityHigh, triggers[0].Priority)
}

func TestComputedSeverityWinsOverDeclared(t *testing.T) {
	engine := NewEngine(&fakeReportFinder{}, testConfig(), testLogger())
	report := &types.Report{
		DiseaseType: "typhoid",
		Severity:    types.Mild,
		Analysis:    &types.SeverityAnalysis{Severity: types.Critical, Score: 16},
	}

	triggers := engine.CheckTriggers(context.Background(), report)

	require.Len(t, triggers, 1)
	assert.Equal(t, types.TriggerCriticalSeverity, triggers[0].Type)
}

func TestCriticalDiseaseRuleCaseInsensitive(t *testing.T) {
	engine := NewEngine(&fakeReportFinder{}, testConfig(), testLogger())
	report := &types.Report{
		DiseaseType: "Cholera",
		Severity:    types.Mild,
	}

	triggers := engine.CheckTriggers(context.Background(), report)

	require.Len(t, triggers, 1)
	assert.Equal(t, types.TriggerCriticalDisease, triggers[0].Type)
}

func TestClusterRuleSkippedOnStoreError(t *testing.T) {
	finder := &fakeReportFinder{err: errors.New("store down")}
	engine := NewEngine(finder, testConfig(), testLogger())
	report := &types.Report{
		DiseaseType: "plague",
		Severity:    types.Critical,
	}

	triggers := engine.CheckTriggers(context.Background(), report)

	// The pure rules still stand when the history query fails.
	require.Len(t, triggers, 2)
	assert.Equal(t, types.TriggerCriticalSeverity, triggers[0].Type)
	assert.Equal(t, types.TriggerCriticalDisease, triggers[1].Type)
}

func TestSynthesizePriorityFold(t *testing.T) {
	engine := NewEngine(&fakeReportFinder{}, testConfig(), testLogger())
	report := &types.Report{DiseaseType: "dengue", City: "Pune", State: "Maharashtra"}

	t.Run("no triggers yields nil", func(t *testing.T) {
		assert.Nil(t, engine.Synthesize(nil, report))
	})

	t.Run("cluster trigger yields critical", func(t *testing.T) {
		alert := engine.Synthesize([]types.Trigger{
			{Type: types.TriggerCriticalDisease, Priority: types.PriorityHigh},
			{Type: types.TriggerOutbreakPattern, Priority: types.PriorityCritical},
		}, report)

		require.NotNil(t, alert)
		assert.Equal(t, types.PriorityCritical, alert.Priority)
		assert.Equal(t, "Pune, Maharashtra", alert.Location)
		assert.Len(t, alert.Actions, 4)
	})

	t.Run("high trigger yields high", func(t *testing.T) {
		alert := engine.Synthesize([]types.Trigger{
			{Type: types.TriggerCriticalSeverity, Priority: types.PriorityHigh},
		}, report)

		require.NotNil(t, alert)
		assert.Equal(t, types.PriorityHigh, alert.Priority)
		assert.Len(t, alert.Actions, 3)
	})
}

func TestApplyIsIdempotent(t *testing.T) {
	report := &types.Report{DiseaseType: "dengue"}
	alert := &Alert{
		Priority: types.PriorityCritical,
		Triggers: []types.Trigger{{Type: types.TriggerOutbreakPattern}},
		Actions:  recommendedActions[types.PriorityCritical],
	}

	require.True(t, Apply(report, alert))
	require.NotNil(t, report.Emergency)
	firstActions := len(report.Emergency.Actions)

	// Second evaluation must not touch the record.
	other := &Alert{Priority: types.PriorityHigh, Actions: recommendedActions[types.PriorityHigh]}
	assert.False(t, Apply(report, other))
	assert.Equal(t, types.PriorityCritical, report.Emergency.Priority)
	assert.Len(t, report.Emergency.Actions, firstActions)
}

func TestMarkNotifiedKeepsFirstTimestamp(t *testing.T) {
	report := &types.Report{DiseaseType: "dengue"}
	require.True(t, Apply(report, &Alert{Priority: types.PriorityHigh}))

	first := time.Now()
	require.True(t, MarkNotified(report, first))

	assert.False(t, MarkNotified(report, first.Add(time.Hour)))
	assert.Equal(t, first, *report.Emergency.NotifiedAt)
}
