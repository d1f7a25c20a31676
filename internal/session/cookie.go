package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CookieCodec writes and reads the session cookie. The cookie value is the
// opaque bundle "<session id>.<refresh token>".
type CookieCodec struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// Encode returns the cookie value for a freshly minted or rotated session.
func (c CookieCodec) Encode(sess *Session) string {
	return sess.ID.String() + "." + sess.RefreshToken
}

// Decode splits a cookie value into session ID and refresh token.
func (c CookieCodec) Decode(value string) (uuid.UUID, string, error) {
	idStr, refresh, ok := strings.Cut(value, ".")
	if !ok {
		return uuid.Nil, "", Errorf(KindInvalidCredentials, "malformed session cookie")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, "", Errorf(KindInvalidCredentials, "malformed session id in cookie")
	}
	return id, refresh, nil
}

// Write sets the session cookie: path /, SameSite Lax, HttpOnly, Secure in
// production, max age equal to the session max age.
func (c CookieCodec) Write(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    c.Encode(sess),
		Path:     "/",
		MaxAge:   int(c.MaxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   c.Secure,
	})
}

// Clear expires the session cookie.
func (c CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   c.Secure,
	})
}
