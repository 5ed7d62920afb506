package models

// TrackingRecord is the latest known position for a tracking session code.
// Subsequent publishes overwrite everything except CreatedAt. Timestamps are
// epoch milliseconds to match the client wire format.
type TrackingRecord struct {
	SessionID string   `json:"sessionId"`
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Accuracy  float64  `json:"accuracy"`
	SpeedKmh  float64  `json:"speedKmh"`
	Battery   *float64 `json:"battery"`
	Network   *string  `json:"network"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
}

// TrackingUpdate is the publish request body.
type TrackingUpdate struct {
	SessionID string   `json:"sessionId" binding:"required,min=4,max=32"`
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Accuracy  float64  `json:"accuracy"`
	SpeedKmh  float64  `json:"speedKmh"`
	Battery   *float64 `json:"battery"`
	Network   *string  `json:"network"`
}
