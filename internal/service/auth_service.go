package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"surf-market/internal/mailer"
	"surf-market/internal/model"
)

const (
	minPassword = 8
	maxName     = 80
)

// AuthService handles credential and OAuth sign-in and token issuing.
type AuthService struct {
	users    UserStore
	mail     mailer.Mailer
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewAuthService(users UserStore, mail mailer.Mailer, jwtSecret string, ttl time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		mail:     mail,
		secret:   []byte(jwtSecret),
		tokenTTL: ttl,
		logger:   logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || len(name) > maxName {
		return nil, model.Invalid(model.ErrInvalidProfile, "name", "must be 1 to 80 characters")
	}
	if !strings.Contains(email, "@") {
		return nil, model.Invalid(model.ErrInvalidProfile, "email", "invalid email")
	}
	if len(password) < minPassword {
		return nil, model.Invalid(model.ErrInvalidProfile, "password", "must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("AuthService.Register: hash: %w", err)
	}
	hashStr := string(hash)

	u := newUser(name, email, "")
	u.PasswordHash = &hashStr
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("AuthService.Register: %w", err)
	}

	s.welcome(ctx, u)
	return u, nil
}

// Login fails the same way for unknown emails, wrong passwords and OAuth-only accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("AuthService.Login: %w", err)
	}
	if u.PasswordHash == nil {
		return nil, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}
	return u, nil
}

// OAuthIdentity is what a provider tells us about the person signing in.
type OAuthIdentity struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
	Image      string
}

// OAuthLogin resolves the identity to a user: linked account first, then matching email, else a new user.
func (s *AuthService) OAuthLogin(ctx context.Context, id OAuthIdentity) (*model.User, error) {
	u, err := s.users.GetByAccount(ctx, id.Provider, id.ProviderID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, fmt.Errorf("AuthService.OAuthLogin: %w", err)
	}

	email := normalizeEmail(id.Email)
	if email == "" {
		return nil, model.Invalid(model.ErrInvalidProfile, "email", "provider returned no email")
	}

	created := false
	u, err = s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		name := strings.TrimSpace(id.Name)
		if name == "" {
			name, _, _ = strings.Cut(email, "@")
		}
		u = newUser(name, email, id.Image)
		if err := s.users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("AuthService.OAuthLogin: create: %w", err)
		}
		created = true
	case err != nil:
		return nil, fmt.Errorf("AuthService.OAuthLogin: %w", err)
	}

	account := &model.Account{
		ID:                uuid.NewString(),
		UserID:            u.ID,
		Provider:          id.Provider,
		ProviderAccountID: id.ProviderID,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.users.LinkAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("AuthService.OAuthLogin: link: %w", err)
	}

	if created {
		s.welcome(ctx, u)
	}
	return u, nil
}

func (s *AuthService) User(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// IssueToken signs an HS512 bearer token for API clients.
func (s *AuthService) IssueToken(u *model.User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.tokenTTL)

	roles := []string{"USER"}
	if u.IsAdmin() {
		roles = append(roles, "ADMIN")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub":   u.ID,
		"roles": roles,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("AuthService.IssueToken: %w", err)
	}
	return signed, exp, nil
}

func (s *AuthService) welcome(ctx context.Context, u *model.User) {
	msg, err := mailer.WelcomeMessage(u.Email, u.Name)
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		s.logger.Warn("welcome email failed", zap.String("user_id", u.ID), zap.Error(err))
	}
}

func newUser(name, email, image string) *model.User {
	now := time.Now().UTC()
	return &model.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Image:     image,
		Role:      model.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
