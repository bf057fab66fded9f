package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"interiorquote/services"
)

type contextKey string

const SessionKey contextKey = "estimateSession"

// SessionCookieName holds the ID of the caller's estimate session.
const SessionCookieName = "estimate_session"

// GetSession extracts the estimate session from the request context.
func GetSession(r *http.Request) *services.Session {
	if val, ok := r.Context().Value(SessionKey).(*services.Session); ok {
		return val
	}
	return nil
}

// SessionMiddleware reads the "estimate_session" cookie, resolves it against
// the store and puts the session in the request context. It never creates a
// session; handlers that change an estimate call requireSession.
func SessionMiddleware(sessions *services.SessionStore) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		lookupSession(e, sessions)
		return e.Next()
	}
}

// lookupSession returns the caller's live session, or nil if the request
// carries no cookie or a stale one.
func lookupSession(e *core.RequestEvent, sessions *services.SessionStore) *services.Session {
	if s := GetSession(e.Request); s != nil {
		return s
	}

	cookie, err := e.Request.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	s, ok := sessions.Get(cookie.Value)
	if !ok {
		return nil
	}
	attachSession(e, s)
	return s
}

// requireSession returns the caller's session, starting one if needed.
func requireSession(e *core.RequestEvent, sessions *services.SessionStore) *services.Session {
	if s := lookupSession(e, sessions); s != nil {
		return s
	}
	return startSession(e, sessions)
}

// startSession creates a new session and points the cookie at it.
func startSession(e *core.RequestEvent, sessions *services.SessionStore) *services.Session {
	s := sessions.Create()
	http.SetCookie(e.Response, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	attachSession(e, s)
	return s
}

func attachSession(e *core.RequestEvent, s *services.Session) {
	ctx := context.WithValue(e.Request.Context(), SessionKey, s)
	e.Request = e.Request.WithContext(ctx)
}
