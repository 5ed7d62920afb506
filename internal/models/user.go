package models

// User is a registered account.
type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	PasswordHash  string `json:"-"`
	Verified      bool   `json:"verified"`
	TacticalID    string `json:"tacticalId"`
	FullName      string `json:"fullName"`
	BloodType     string `json:"bloodType"`
	EmergencyNote string `json:"emergencyNote"`
	CreatedAt     int64  `json:"createdAt"` // epoch millis
}

// CodeKind distinguishes one-time code purposes.
type CodeKind string

const (
	CodeVerify   CodeKind = "verify"
	CodeMFA      CodeKind = "mfa"
	CodeRecovery CodeKind = "recovery"
)

// Code is a single-use 6-digit code with expiry.
type Code struct {
	ID        int64    `json:"id"`
	UserID    int64    `json:"userId"`
	Kind      CodeKind `json:"kind"`
	Code      string   `json:"code"`
	ExpiresAt int64    `json:"expiresAt"` // epoch millis
	Consumed  bool     `json:"consumed"`
	CreatedAt int64    `json:"createdAt"`
}
