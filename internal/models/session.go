package models

// EmergencySession is one SOS activation. LastLocation is replaced in place
// as new fixes arrive. At most one active session exists per client.
type EmergencySession struct {
	ID           string            `json:"id"`
	StartTime    int64             `json:"startTime"` // epoch millis
	LastLocation *LocationSnapshot `json:"lastLocation"`
	IsActive     bool              `json:"isActive"`
	Reason       string            `json:"reason,omitempty"`
}
