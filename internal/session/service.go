package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/planner-suite/backend/internal/models"
)

// Claims holds the access-token claims.
type Claims struct {
	UserID    uuid.UUID   `json:"user_id"`
	Role      models.Role `json:"role"`
	SessionID uuid.UUID   `json:"session_id"`
	jwt.RegisteredClaims
}

// Service mints, fetches, rotates and revokes sessions. Every other part of
// the application goes through it; no caller synthesizes session state
// locally.
type Service struct {
	store     Store
	secret    []byte
	accessTTL time.Duration
	maxAge    time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a session service. The signing secret is mandatory;
// construction fails without it.
func NewService(store Store, secret string, accessTTL, maxAge time.Duration, logger *zap.Logger) (*Service, error) {
	if secret == "" {
		return nil, errors.New("session: signing secret is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		maxAge:    maxAge,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Create mints a new session for the profile: an access JWT, a single-use
// refresh token, and a store record living for the session max age.
func (s *Service) Create(ctx context.Context, profile *models.Profile) (*Session, error) {
	id := uuid.New()
	refresh, hash, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	rec := &Record{
		ID:          id,
		UserID:      profile.ID,
		Role:        profile.Role,
		RefreshHash: hash,
		ExpiresAt:   now.Add(s.accessTTL).Unix(),
		CreatedAt:   now,
	}
	if err := s.store.Save(ctx, rec, s.maxAge); err != nil {
		return nil, err
	}
	access, err := s.signAccessToken(rec)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:           id,
		UserID:       profile.ID,
		Role:         profile.Role,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    rec.ExpiresAt,
		CreatedAt:    now,
	}, nil
}

// Get returns the session for id without tokens. Absent sessions classify
// as not found; an elapsed access expiry classifies as token expired so the
// caller can decide to refresh.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess := &Session{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Role:      rec.Role,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}
	if sess.Expired(s.now()) {
		return sess, Errorf(KindTokenExpired, "session %s access expired", id)
	}
	return sess, nil
}

// Refresh rotates the session: the presented refresh token is verified
// against the stored hash, a new refresh token replaces it, and the access
// expiry moves forward. Each refresh token is usable exactly once.
func (s *Service) Refresh(ctx context.Context, id uuid.UUID, refreshToken string) (*Session, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.RefreshHash), []byte(refreshToken)) != nil {
		return nil, Errorf(KindInvalidCredentials, "refresh token mismatch for session %s", id)
	}
	refresh, hash, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	rec.RefreshHash = hash
	rec.ExpiresAt = now.Add(s.accessTTL).Unix()
	if err := s.store.Save(ctx, rec, s.maxAge); err != nil {
		return nil, err
	}
	access, err := s.signAccessToken(rec)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("session refreshed", zap.String("session_id", id.String()))
	return &Session{
		ID:           rec.ID,
		UserID:       rec.UserID,
		Role:         rec.Role,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    rec.ExpiresAt,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

// Revoke removes the session.
func (s *Service) Revoke(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

// ValidateAccessToken parses and validates an access JWT. Expiry classifies
// as token expired, anything else as invalid credentials.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, NewError(KindTokenExpired, err)
		}
		return nil, NewError(KindInvalidCredentials, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, Errorf(KindInvalidCredentials, "invalid token claims")
	}
	return claims, nil
}

func (s *Service) signAccessToken(rec *Record) (string, error) {
	claims := Claims{
		UserID:    rec.UserID,
		Role:      rec.Role,
		SessionID: rec.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Unix(rec.ExpiresAt, 0)),
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func newRefreshToken() (token, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(buf)
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("hash refresh token: %w", err)
	}
	return token, string(h), nil
}
