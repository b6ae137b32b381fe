package severity

import (
	"math"
	"strings"

	"go-healthwatch/types"
)

// Base severity tier for known disease types. Lookups are case-insensitive.
var diseaseSeverity = map[string]types.Severity{
	"dengue":         types.High,
	"malaria":        types.High,
	"covid-19":       types.Critical,
	"typhoid":        types.Moderate,
	"chikungunya":    types.Moderate,
	"food poisoning": types.Low,
	"diarrhea":       types.Low,
	"fever":          types.Low,
}

// Keyword signals scanned in the free-text fields, per tier.
var severityKeywords = map[types.Severity][]string{
	types.Critical: {"death", "died", "fatal", "emergency", "icu", "ventilator", "outbreak"},
	types.High:     {"hospitalized", "severe", "spreading", "multiple cases", "epidemic"},
	types.Moderate: {"sick", "symptoms", "treatment", "doctor", "clinic"},
	types.Low:      {"mild", "recovering", "better", "single case"},
}

const (
	criticalScoreThreshold = 15
	highScoreThreshold     = 10
	moderateScoreThreshold = 5
)

func tierWeight(tier types.Severity) int {
	switch tier {
	case types.Critical:
		return 8
	case types.High:
		return 5
	case types.Moderate:
		return 3
	default:
		return 1
	}
}

// Analyze derives a severity classification for a report from its disease
// type and free-text fields. Pure: unknown disease types and empty text are
// fine and simply contribute nothing.
func Analyze(diseaseType, description, healthIssue string) types.SeverityAnalysis {
	score := 0

	if tier, ok := diseaseSeverity[strings.ToLower(diseaseType)]; ok {
		score += tierWeight(tier)
	}

	text := strings.ToLower(description + " " + healthIssue)
	for tier, keywords := range severityKeywords {
		matches := 0
		for _, keyword := range keywords {
			if strings.Contains(text, keyword) {
				matches++
			}
		}
		score += tierWeight(tier) * matches
	}

	sev := types.Low
	switch {
	case score >= criticalScoreThreshold:
		sev = types.Critical
	case score >= highScoreThreshold:
		sev = types.High
	case score >= moderateScoreThreshold:
		sev = types.Moderate
	}

	return types.SeverityAnalysis{
		Severity:   sev,
		Score:      score,
		Confidence: math.Min(float64(score)/criticalScoreThreshold, 1.0),
	}
}
