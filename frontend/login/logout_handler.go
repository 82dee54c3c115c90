package login

import (
	"net/http"

	"garmentflow/infrastructure/cache"
	sessioncookie "garmentflow/infrastructure/session"
	"garmentflow/infrastructure/sqlite"
)

// LogoutHandler removes session state and clears cookie.
func LogoutHandler(db *sqlite.DB, sessionCache *cache.UserSessionCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		signOut(w, r, db, sessionCache)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func signOut(w http.ResponseWriter, r *http.Request, db *sqlite.DB, sessionCache *cache.UserSessionCache) {
	cookie, err := r.Cookie(sessioncookie.CookieName)
	if err == nil && cookie.Value != "" {
		sessionCache.DeleteSessionBySessionToken(cookie.Value)
		_ = DeleteSessionByToken(r.Context(), db, cookie.Value)
	}
	http.SetCookie(w, sessioncookie.SessionCookie("", -1))
}
