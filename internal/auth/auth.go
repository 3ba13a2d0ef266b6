// Package auth keeps staff sessions in an HMAC-signed cookie.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/ca-practice/httpx"
)

type ctxKey string

const (
	sessionCookieName = "session"
	staffIDCtxKey     = ctxKey("staffID")
	sessionTTL        = 14 * 24 * time.Hour
)

// DevSecret signs sessions when no secret is configured.
const DevSecret = "devsessionsecret"

// Verifier reports whether a session's staff member still exists.
type Verifier func(ctx context.Context, staffID string) bool

// Sessions issues and checks session cookies.
type Sessions struct {
	secret []byte
	verify Verifier
}

// New returns Sessions signing with secret. A nil verify accepts every
// correctly signed cookie.
func New(secret string, verify Verifier) *Sessions {
	if secret == "" {
		secret = DevSecret
	}
	return &Sessions{secret: []byte(secret), verify: verify}
}

func (s *Sessions) sign(id string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession sets a signed cookie carrying the staff id.
func (s *Sessions) CreateSession(w http.ResponseWriter, staffID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    staffID + "." + s.sign(staffID),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionTTL),
	})
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates the cookie and returns the staff id.
func (s *Sessions) ParseSession(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, sig, ok := strings.Cut(c.Value, ".")
	if !ok || id == "" || strings.Contains(sig, ".") {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(id))) {
		return "", false
	}
	return id, true
}

// WithStaffID stores the staff id in ctx.
func WithStaffID(ctx context.Context, staffID string) context.Context {
	return context.WithValue(ctx, staffIDCtxKey, staffID)
}

// StaffIDFromContext extracts the staff id.
func StaffIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(staffIDCtxKey).(string)
	return id, ok && id != ""
}

// Middleware attaches the staff id to the request context if present.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := s.ParseSession(r); ok {
			r = r.WithContext(WithStaffID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth answers 401 unless the request carries a session for an
// existing staff member. A stale session cookie is cleared.
func (s *Sessions) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := StaffIDFromContext(r.Context())
		if !ok {
			id, ok = s.ParseSession(r)
			if ok {
				r = r.WithContext(WithStaffID(r.Context(), id))
			}
		}
		if ok && s.verify != nil && !s.verify(r.Context(), id) {
			ClearSession(w)
			ok = false
		}
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", "sign in required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
