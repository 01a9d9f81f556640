package middleware

import (
	"net/http"
)

// SessionStarter is implemented by automation.Scheduler.
type SessionStarter interface {
	Begin(userID int64) bool
}

// AutomationSessionMiddleware opens the automation session of the
// authenticated user on their first request. It must run after
// JWTAuthMiddleware.
func AutomationSessionMiddleware(sessions SessionStarter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := UserIDFromContext(r.Context()); ok {
				sessions.Begin(userID)
			}
			next.ServeHTTP(w, r)
		})
	}
}
