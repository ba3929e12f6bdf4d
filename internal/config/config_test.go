package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/surf?sslmode=disable")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("SESSION_SECRET", "session-secret")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, "surfmarket", cfg.MongoDB)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Production())
	assert.False(t, cfg.OAuth.Enabled())
	assert.False(t, cfg.SMTP.Enabled())
}

func TestFromEnv_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("MONGO_URI", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{name: "ttl", key: "JWT_TTL", val: "forever", want: "JWT_TTL"},
		{name: "smtp port", key: "SMTP_PORT", val: "abc", want: "SMTP_PORT"},
		{name: "oauth without redirect", key: "GOOGLE_CLIENT_ID", val: "id", want: "OAUTH_REDIRECT_URL"},
		{name: "smtp without from", key: "SMTP_HOST", val: "smtp.example.com", want: "MAIL_FROM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)

			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("MAIL_FROM", "noreply@example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Production())
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.True(t, cfg.SMTP.Enabled())
}
