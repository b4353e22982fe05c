package handler

import (
	"net/http"
	"time"
)

// DefaultSessionCookie is the fixed name the bearer token is stored under.
const DefaultSessionCookie = "bookstall_session"

// TokenSource abstracts where the bearer token lives between requests, so
// every call site reads and writes it through one substitutable seam instead
// of poking at cookies directly.
type TokenSource interface {
	// Token returns the current bearer token, or "" when anonymous.
	Token(r *http.Request) string
	// Store persists the token for subsequent requests.
	Store(w http.ResponseWriter, token string, ttl time.Duration)
	// Clear removes the stored token.
	Clear(w http.ResponseWriter)
}

// CookieTokenSource keeps the bearer token in an HttpOnly cookie.
type CookieTokenSource struct {
	Name   string
	Secure bool
}

func NewCookieTokenSource(secure bool) *CookieTokenSource {
	return &CookieTokenSource{Name: DefaultSessionCookie, Secure: secure}
}

func (c *CookieTokenSource) Token(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (c *CookieTokenSource) Store(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *CookieTokenSource) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
