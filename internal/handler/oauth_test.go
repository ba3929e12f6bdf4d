package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func fakeGoogle(t *testing.T, verified bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "access", "token_type": "Bearer", "expires_in": 3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"sub": "g-42", "email": "Kai@Example.com", "email_verified": verified,
			"name": "Kai", "picture": "https://lh3.example/kai.png",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func enableGoogle(e *testEnv, srv *httptest.Server) {
	e.authH.OAuth = &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/api/auth/oauth/google/callback",
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	e.authH.UserInfoURL = srv.URL + "/userinfo"
	e.authH.AfterLogin = "/welcome"
}

func startGoogle(t *testing.T, e *testEnv) (string, []*http.Cookie) {
	t.Helper()
	w := e.do("GET", "/api/auth/oauth/google", nil)
	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state, w.Result().Cookies()
}

func TestGoogleDisabled(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusNotFound, e.do("GET", "/api/auth/oauth/google", nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do("GET", "/api/auth/oauth/google/callback?code=x", nil).Code)
}

func TestGoogleSignInLinksExistingUser(t *testing.T) {
	e := newEnv(t)
	enableGoogle(e, fakeGoogle(t, true))

	state, cookies := startGoogle(t, e)
	w := e.do("GET", "/api/auth/oauth/google/callback?code=the-code&state="+state, nil, withCookies(cookies))
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/welcome", w.Header().Get("Location"))

	w = e.do("GET", "/api/auth/session", nil, withCookies(w.Result().Cookies()))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"seller"`)
}

func TestGoogleRejectsBadState(t *testing.T) {
	e := newEnv(t)
	enableGoogle(e, fakeGoogle(t, true))

	_, cookies := startGoogle(t, e)
	w := e.do("GET", "/api/auth/oauth/google/callback?code=the-code&state=forged", nil, withCookies(cookies))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do("GET", "/api/auth/oauth/google/callback?code=the-code&state=", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoogleRejectsUnverifiedEmail(t *testing.T) {
	e := newEnv(t)
	enableGoogle(e, fakeGoogle(t, false))

	state, cookies := startGoogle(t, e)
	w := e.do("GET", "/api/auth/oauth/google/callback?code=the-code&state="+state, nil, withCookies(cookies))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
