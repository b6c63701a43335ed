package http

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/couchcryptid/safety-check-service/internal/session"
	"github.com/google/uuid"
)

// CookieName is the session cookie carrying the session ID.
const CookieName = "safety_session"

type sessionKey struct{}

// requestSession is the session bound to one request. Handlers mutate it
// through update; the middleware persists it after the handler returns.
// onDirty runs once, on the first update, while response headers can still
// be written.
type requestSession struct {
	mu      sync.Mutex
	id      string
	state   session.State
	dirty   bool
	onDirty func()
}

func (rs *requestSession) snapshot() session.State {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.state
}

func (rs *requestSession) update(fn func(*session.State)) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	fn(&rs.state)
	if !rs.dirty && rs.onDirty != nil {
		rs.onDirty()
	}
	rs.dirty = true
}

func sessionFrom(ctx context.Context) *requestSession {
	if rs, ok := ctx.Value(sessionKey{}).(*requestSession); ok {
		return rs
	}
	// Handlers outside the middleware get a throwaway session.
	return &requestSession{}
}

// withSession loads the caller's session before the handler runs and saves it
// afterwards when the handler changed it. The cookie is issued for new
// sessions and re-issued whenever a session changes. Store failures degrade to an empty session; they never
// fail the request.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs := &requestSession{}

		if c, err := r.Cookie(CookieName); err == nil && isSessionID(c.Value) {
			rs.id = c.Value
			st, err := s.deps.Sessions.Load(r.Context(), rs.id)
			switch {
			case err == nil:
				rs.state = st
			case !errors.Is(err, session.ErrNotFound):
				s.logger.Warn("session load failed", "error", err)
			}
		}
		if rs.id == "" {
			rs.id = uuid.NewString()
			s.setSessionCookie(w, rs.id)
		} else {
			rs.onDirty = func() { s.setSessionCookie(w, rs.id) }
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, rs)))

		if !rs.dirty {
			return
		}
		if err := s.deps.Sessions.Save(r.Context(), rs.id, rs.snapshot()); err != nil {
			s.logger.Warn("session save failed", "error", err)
		}
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.deps.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.deps.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func isSessionID(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil
}
