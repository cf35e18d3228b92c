package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// SyncClaims are the JWT claims carried by every authenticated request.
type SyncClaims struct {
	UserID string `json:"user_id"`
	Device string `json:"device,omitempty"`
	jwt.RegisteredClaims
}
