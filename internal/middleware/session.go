package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	sessionName   = "surf_session"
	sessionUserID = "user_id"
	sessionAdmin  = "admin"
	sessionState  = "oauth_state"

	sessionMaxAge = 30 * 24 * 60 * 60
)

// Sessions installs the signed cookie store. Secure cookies are used in production.
func Sessions(secret string, secure bool) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(sessionName, store)
}

func StartSession(c *gin.Context, userID string, admin bool) error {
	s := sessions.Default(c)
	s.Clear()
	s.Set(sessionUserID, userID)
	s.Set(sessionAdmin, admin)
	return s.Save()
}

func EndSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	return s.Save()
}

// SetOAuthState remembers the state parameter of an OAuth redirect.
func SetOAuthState(c *gin.Context, state string) error {
	s := sessions.Default(c)
	s.Set(sessionState, state)
	return s.Save()
}

// TakeOAuthState returns the remembered state and forgets it.
func TakeOAuthState(c *gin.Context) (string, error) {
	s := sessions.Default(c)
	state, _ := s.Get(sessionState).(string)
	s.Delete(sessionState)
	return state, s.Save()
}
