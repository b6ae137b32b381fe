package types

import "time"

// AlertMeta describes how an outbreak alert was computed.
type AlertMeta struct {
	Count       int    `firestore:"count" json:"count"`
	Location    string `firestore:"location" json:"location"`
	WindowHours int    `firestore:"windowHours" json:"windowHours"`
}

// Alert is a system-raised outbreak notice. Alerts are never deleted; a stale
// alert is superseded by a newer one for the same key once it falls outside
// the detection window or is deactivated.
type Alert struct {
	ID          string    `firestore:"-" json:"id"`
	DiseaseType string    `firestore:"diseaseType" json:"diseaseType"`
	Message     string    `firestore:"message" json:"message"`
	Active      bool      `firestore:"active" json:"active"`
	Meta        AlertMeta `firestore:"meta" json:"meta"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
}
