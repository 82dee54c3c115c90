package session

import (
	"net/http"
	"time"
)

const CookieName = "X-Session-Token"

// DefaultTTL is used when configuration does not set SESSION_TTL.
const DefaultTTL = 12 * time.Hour

func SessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
	}
}

// Expiry returns when a session started now with ttl ends.
func Expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return time.Now().Add(ttl)
}

// MaxAge is ttl in cookie seconds.
func MaxAge(ttl time.Duration) int {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return int(ttl / time.Second)
}
