package models

// LocationSnapshot is a single position fix. Snapshots are immutable once
// captured; a newer fix supersedes an older one, never merges with it.
type LocationSnapshot struct {
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Accuracy     float64  `json:"accuracy"`
	Timestamp    int64    `json:"timestamp"` // epoch millis
	Speed        *float64 `json:"speed,omitempty"`
	BatteryLevel *float64 `json:"batteryLevel,omitempty"`
	NetworkType  string   `json:"networkType,omitempty"`
}
