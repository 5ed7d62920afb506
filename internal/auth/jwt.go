package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionTokenExpiry = 7 * 24 * time.Hour
	resetTokenExpiry   = 10 * time.Minute
)

// Claims are the JWT claims for both session and password-reset tokens.
type Claims struct {
	UserID     int64  `json:"sub"`
	Username   string `json:"username,omitempty"`
	TacticalID string `json:"tacticalId,omitempty"`
	Kind       string `json:"kind,omitempty"` // "reset" for recovery tokens
	jwt.RegisteredClaims
}

// JWTService signs and verifies bearer tokens.
type JWTService struct {
	secret []byte
}

func NewJWTService(secret string) *JWTService {
	return &JWTService{secret: []byte(secret)}
}

// SignSession issues a 7-day session token after a completed MFA exchange.
func (s *JWTService) SignSession(userID int64, username, tacticalID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:     userID,
		Username:   username,
		TacticalID: tacticalID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTokenExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// SignReset issues a short-lived token allowing a single password reset.
func (s *JWTService) SignReset(userID int64) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Kind:   "reset",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(resetTokenExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign reset token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token.
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
