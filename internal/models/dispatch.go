package models

// Channel is one of the two independent delivery mechanisms.
type Channel string

const (
	ChannelSMS   Channel = "SMS"
	ChannelEmail Channel = "EMAIL"
)

// DispatchContact is the wire shape of a contact in a dispatch request.
// Filtering of disabled contacts happens upstream; the orchestrator fans out
// unconditionally to whatever it receives.
type DispatchContact struct {
	ID    string `json:"id" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// DispatchRequest is the body of POST /dispatch/alert.
type DispatchRequest struct {
	Message  string            `json:"message" binding:"required,min=1,max=2000"`
	Contacts []DispatchContact `json:"contacts" binding:"required,min=1,dive"`
}

// DispatchResult is the outcome of one (contact, channel) send attempt.
type DispatchResult struct {
	ContactID string  `json:"id"`
	Channel   Channel `json:"type"`
	OK        bool    `json:"ok"`
	Error     string  `json:"error,omitempty"`
}

// DispatchStatus is the lifecycle state of a dispatch log entry. Sent and
// Failed are terminal; no entry transitions out of a terminal state.
type DispatchStatus string

const (
	StatusPending   DispatchStatus = "PENDING"
	StatusUplinking DispatchStatus = "UPLINKING"
	StatusSent      DispatchStatus = "SENT"
	StatusFailed    DispatchStatus = "FAILED"
)

// EntryKey identifies a dispatch log entry by its originating contact and
// channel. Both the request-building and response-reconciliation sides key
// on this struct.
type EntryKey struct {
	ContactID string
	Channel   Channel
}

// DispatchLogEntry is one UI-visible log line, one per (contact, channel)
// pair with a non-blank target.
type DispatchLogEntry struct {
	ID          string         `json:"id"`
	ContactName string         `json:"contactName"`
	Target      string         `json:"target"`
	Channel     Channel        `json:"channel"`
	Status      DispatchStatus `json:"status"`
	Timestamp   int64          `json:"timestamp"` // epoch millis

	Key EntryKey `json:"-"`
}
