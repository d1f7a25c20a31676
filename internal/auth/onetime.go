package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/planner-suite/backend/internal/session"
)

const (
	resetKeyPrefix    = "authtoken:reset:"
	callbackKeyPrefix = "authtoken:callback:"
	onetimeTTL        = time.Hour
)

// OneTimeTokens issues and redeems single-use tokens for the password-reset
// and callback flows. Redemption deletes the token atomically.
type OneTimeTokens struct {
	client *redis.Client
}

// NewOneTimeTokens creates a Redis-backed one-time token issuer.
func NewOneTimeTokens(client *redis.Client) *OneTimeTokens {
	return &OneTimeTokens{client: client}
}

// IssueReset creates a password-reset token for the user.
func (t *OneTimeTokens) IssueReset(ctx context.Context, userID uuid.UUID) (string, error) {
	return t.issue(ctx, resetKeyPrefix, userID)
}

// RedeemReset consumes a password-reset token, returning its user.
func (t *OneTimeTokens) RedeemReset(ctx context.Context, token string) (uuid.UUID, error) {
	return t.redeem(ctx, resetKeyPrefix, token)
}

// IssueCallback creates a sign-in callback token (magic-link exchange).
func (t *OneTimeTokens) IssueCallback(ctx context.Context, userID uuid.UUID) (string, error) {
	return t.issue(ctx, callbackKeyPrefix, userID)
}

// RedeemCallback consumes a callback token, returning its user.
func (t *OneTimeTokens) RedeemCallback(ctx context.Context, token string) (uuid.UUID, error) {
	return t.redeem(ctx, callbackKeyPrefix, token)
}

func (t *OneTimeTokens) issue(ctx context.Context, prefix string, userID uuid.UUID) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	if err := t.client.Set(ctx, prefix+token, userID.String(), onetimeTTL).Err(); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

func (t *OneTimeTokens) redeem(ctx context.Context, prefix, token string) (uuid.UUID, error) {
	val, err := t.client.GetDel(ctx, prefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, session.Errorf(session.KindInvalidCredentials, "invalid or expired token")
		}
		return uuid.Nil, fmt.Errorf("redeem token: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt token value: %w", err)
	}
	return id, nil
}
