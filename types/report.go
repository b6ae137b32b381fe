package types

import "time"

type Severity string

const (
	// User-declared tiers
	Mild   Severity = "mild"
	Severe Severity = "severe"

	// Computed tiers
	Low      Severity = "low"
	Moderate Severity = "moderate"
	High     Severity = "high"
	Critical Severity = "critical"
)

// Normalize maps the user-declared tiers onto the computed scale so the two
// severity sources are comparable. mild -> low, severe -> high; everything
// else is already on the computed scale.
func (s Severity) Normalize() Severity {
	switch s {
	case Mild:
		return Low
	case Severe:
		return High
	default:
		return s
	}
}

type ReportStatus string

const (
	StatusActive     ReportStatus = "active"
	StatusMonitoring ReportStatus = "monitoring"
	StatusResolved   ReportStatus = "resolved"
	StatusArchived   ReportStatus = "archived"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// SeverityAnalysis is the system-computed severity for a report.
type SeverityAnalysis struct {
	Severity   Severity `firestore:"severity" json:"severity"`
	Score      int      `firestore:"score" json:"score"`
	Confidence float64  `firestore:"confidence" json:"confidence"`
}

// Lifecycle tracks case aging, independent of moderation approval.
type Lifecycle struct {
	Status         ReportStatus `firestore:"reportStatus" json:"reportStatus"`
	DaysActive     int          `firestore:"daysActive" json:"daysActive"`
	AutoResolved   bool         `firestore:"autoResolved" json:"autoResolved"`
	ResolvedAt     *time.Time   `firestore:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	ResolutionNote string       `firestore:"resolutionNote,omitempty" json:"resolutionNote,omitempty"`
	UserRecovered  bool         `firestore:"userRecovered" json:"userRecovered"`
}

type EmergencyPriority string

const (
	PriorityMedium   EmergencyPriority = "MEDIUM"
	PriorityHigh     EmergencyPriority = "HIGH"
	PriorityCritical EmergencyPriority = "CRITICAL"
)

type TriggerType string

const (
	TriggerCriticalSeverity TriggerType = "CRITICAL_SEVERITY"
	TriggerCriticalDisease  TriggerType = "CRITICAL_DISEASE"
	TriggerOutbreakPattern  TriggerType = "OUTBREAK_PATTERN"
)

// Trigger is a single emergency rule that fired for a report.
type Trigger struct {
	Type     TriggerType       `firestore:"type" json:"type"`
	Message  string            `firestore:"message" json:"message"`
	Priority EmergencyPriority `firestore:"priority" json:"priority"`
}

// EmergencyRecord is written onto a report at most once, when emergency
// protocols trigger. Re-evaluation never overwrites it.
type EmergencyRecord struct {
	Triggered  bool              `firestore:"triggered" json:"triggered"`
	Priority   EmergencyPriority `firestore:"priority" json:"priority"`
	Triggers   []Trigger         `firestore:"triggers" json:"triggers"`
	Actions    []string          `firestore:"actions" json:"actions"`
	NotifiedAt *time.Time        `firestore:"notifiedAt,omitempty" json:"notifiedAt,omitempty"`
}

// AuthenticityCheck carries the verdict of the external fake-report
// classifier. Informational only; detection logic never reads it.
type AuthenticityCheck struct {
	IsFake     bool    `firestore:"isFake" json:"isFake"`
	Confidence float64 `firestore:"confidence" json:"confidence"`
}

// Report is a single citizen-submitted health incident.
type Report struct {
	ID          string `firestore:"-" json:"id"`
	DiseaseType string `firestore:"diseaseType" json:"diseaseType"`
	HealthIssue string `firestore:"healthIssue" json:"healthIssue"`
	Description string `firestore:"description" json:"description"`
	Severity    Severity `firestore:"severity" json:"severity"` // user-declared

	Country string `firestore:"country" json:"country"`
	State   string `firestore:"state" json:"state"`
	City    string `firestore:"city" json:"city"`
	Area    string `firestore:"area" json:"area"`
	Pincode string `firestore:"pincode" json:"pincode"`

	Approval     ApprovalStatus     `firestore:"approval" json:"approval"`
	Analysis     *SeverityAnalysis  `firestore:"analysis,omitempty" json:"analysis,omitempty"`
	Lifecycle    Lifecycle          `firestore:"lifecycle" json:"lifecycle"`
	Emergency    *EmergencyRecord   `firestore:"emergency,omitempty" json:"emergency,omitempty"`
	Authenticity *AuthenticityCheck `firestore:"authenticity,omitempty" json:"authenticity,omitempty"`

	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// EffectiveSeverity resolves between the two severity sources by taking the
// higher tier: a citizen declaring critical is not downgraded by a sparse
// description, and keyword evidence can escalate a mild declaration.
func (r *Report) EffectiveSeverity() Severity {
	declared := r.Severity.Normalize()
	if r.Analysis != nil && r.Analysis.Severity.rank() > declared.rank() {
		return r.Analysis.Severity
	}
	return declared
}

func (s Severity) rank() int {
	switch s {
	case Critical:
		return 3
	case High:
		return 2
	case Moderate:
		return 1
	default:
		return 0
	}
}
