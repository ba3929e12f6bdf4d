package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"surf-market/internal/middleware"
	"surf-market/internal/model"
	"surf-market/internal/service"
)

const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// AuthHandler covers credential sign-in, sessions and the Google OAuth flow.
// Google is disabled when OAuth is nil.
type AuthHandler struct {
	Auth        *service.AuthService
	OAuth       *oauth2.Config
	UserInfoURL string
	AfterLogin  string
	Logger      *zap.Logger
}

func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.GET("/session", h.Session)
	auth.GET("/oauth/google", h.GoogleLogin)
	auth.GET("/oauth/google/callback", h.GoogleCallback)
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	u, err := h.Auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.signIn(c, u, http.StatusCreated)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	u, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.signIn(c, u, http.StatusOK)
}

// signIn starts a cookie session and also returns a bearer token for API clients.
func (h *AuthHandler) signIn(c *gin.Context, u *model.User, status int) {
	token, exp, err := h.Auth.IssueToken(u)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if err := middleware.StartSession(c, u.ID, u.IsAdmin()); err != nil {
		respondError(c, h.Logger, fmt.Errorf("start session: %w", err))
		return
	}
	c.JSON(status, authResponse{User: u, Token: token, ExpiresAt: exp})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := middleware.EndSession(c); err != nil {
		respondError(c, h.Logger, fmt.Errorf("end session: %w", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// GET /api/auth/session returns {"user": null} for anonymous callers.
func (h *AuthHandler) Session(c *gin.Context) {
	id := middleware.UserID(c)
	if id == "" {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	u, err := h.Auth.User(c.Request.Context(), id)
	if errors.Is(err, model.ErrUserNotFound) {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.OAuth == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "google sign-in is not configured"})
		return
	}
	state := uuid.NewString()
	if err := middleware.SetOAuthState(c, state); err != nil {
		respondError(c, h.Logger, fmt.Errorf("save oauth state: %w", err))
		return
	}
	c.Redirect(http.StatusFound, h.OAuth.AuthCodeURL(state))
}

type googleUser struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.OAuth == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "google sign-in is not configured"})
		return
	}
	want, err := middleware.TakeOAuthState(c)
	if err != nil || want == "" || c.Query("state") != want {
		badRequest(c, "invalid oauth state")
		return
	}
	code := c.Query("code")
	if code == "" {
		badRequest(c, "missing code")
		return
	}

	ctx := c.Request.Context()
	tok, err := h.OAuth.Exchange(ctx, code)
	if err != nil {
		h.Logger.Warn("oauth exchange failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "google sign-in failed"})
		return
	}
	gu, err := h.fetchGoogleUser(c, tok)
	if err != nil {
		h.Logger.Warn("google userinfo failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "google sign-in failed"})
		return
	}
	if !gu.EmailVerified {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "google account email is not verified"})
		return
	}

	u, err := h.Auth.OAuthLogin(ctx, service.OAuthIdentity{
		Provider:   "google",
		ProviderID: gu.Sub,
		Email:      gu.Email,
		Name:       gu.Name,
		Image:      gu.Picture,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if err := middleware.StartSession(c, u.ID, u.IsAdmin()); err != nil {
		respondError(c, h.Logger, fmt.Errorf("start session: %w", err))
		return
	}

	dest := h.AfterLogin
	if dest == "" {
		dest = "/"
	}
	c.Redirect(http.StatusFound, dest)
}

func (h *AuthHandler) fetchGoogleUser(c *gin.Context, tok *oauth2.Token) (*googleUser, error) {
	url := h.UserInfoURL
	if url == "" {
		url = GoogleUserInfoURL
	}
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.OAuth.Client(c.Request.Context(), tok).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var gu googleUser
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if gu.Sub == "" {
		return nil, errors.New("userinfo has no subject")
	}
	return &gu, nil
}
