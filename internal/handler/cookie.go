package handler

import (
	"net/http"
	"time"
)

const defaultRefreshCookieName = "rt"

// RefreshCookie describes how the refresh token travels between requests.
type RefreshCookie struct {
	Name   string
	Path   string
	Secure bool
	TTL    time.Duration
}

func (c RefreshCookie) name() string {
	if c.Name == "" {
		return defaultRefreshCookieName
	}
	return c.Name
}

func (c RefreshCookie) set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    token,
		Path:     c.Path,
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clear expires the cookie under the same name and path it was set with.
func (c RefreshCookie) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     c.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c RefreshCookie) read(r *http.Request) string {
	cookie, err := r.Cookie(c.name())
	if err != nil {
		return ""
	}
	return cookie.Value
}
