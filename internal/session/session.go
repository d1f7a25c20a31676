package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/planner-suite/backend/internal/models"
)

// NearExpiryWindow is how close to expiry a session may get before a
// proactive refresh is triggered.
const NearExpiryWindow = 300 * time.Second

// Session is the token bundle handed to a client. RefreshToken is only
// populated when the session is minted or rotated; at rest only its hash
// is stored.
type Session struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"user_id"`
	Role         models.Role `json:"role"`
	AccessToken  string      `json:"access_token,omitempty"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	ExpiresAt    int64       `json:"expires_at"` // epoch seconds
	CreatedAt    time.Time   `json:"created_at"`
}

// Expired reports whether the session's access token has expired at now.
func (s *Session) Expired(now time.Time) bool {
	return now.Unix() >= s.ExpiresAt
}

// NearExpiry reports whether fewer than NearExpiryWindow seconds remain
// before expiry. An already-expired session is also near expiry.
func (s *Session) NearExpiry(now time.Time) bool {
	return s.ExpiresAt-now.Unix() < int64(NearExpiryWindow/time.Second)
}
