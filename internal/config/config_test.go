package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DefaultDSN, cfg.Database.DSN)
	assert.Equal(t, []string{"*"}, cfg.App.CORSOrigins)
	assert.False(t, cfg.Automation.Enabled)
	assert.Equal(t, time.Hour, cfg.Automation.OverdueInterval)
	assert.Equal(t, "uploads", cfg.Storage.UploadDir)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  port: "9000"
  read_timeout: 5
database:
  dsn: "file:other?mode=memory"
automation:
  enabled: true
  overdue_interval: 30m
app:
  cors_origins: ["http://localhost:3000"]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port, "env wins over file")
	assert.Equal(t, 5, cfg.Server.ReadTimeout)
	assert.Equal(t, 15, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, "file:other?mode=memory", cfg.Database.DSN)
	assert.True(t, cfg.Automation.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Automation.OverdueInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.CORSOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("REMINDER_TIME", "9am")
	_, err := Load("")
	require.Error(t, err)

	t.Setenv("REMINDER_TIME", "")
	t.Setenv("OVERDUE_INTERVAL", "soon")
	_, err = Load("")
	require.Error(t, err)
}

func TestLoadMailAndSession(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, MailLog, cfg.Mail.Provider)
	assert.Empty(t, cfg.App.SessionSecret)

	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("MAIL_PROVIDER", "smtp")
	_, err = Load("")
	require.Error(t, err, "smtp without a host")

	t.Setenv("SMTP_HOST", "smtp.example")
	t.Setenv("SMTP_PORT", "2525")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.App.SessionSecret)
	assert.Equal(t, MailSMTP, cfg.Mail.Provider)
	assert.Equal(t, "smtp.example", cfg.Mail.Host)
	assert.Equal(t, 2525, cfg.Mail.Port)

	t.Setenv("MAIL_PROVIDER", "pigeon")
	_, err = Load("")
	assert.Error(t, err)
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAG", "YES")
	assert.True(t, getEnvBool("FLAG", false))
	t.Setenv("FLAG", "off")
	assert.False(t, getEnvBool("FLAG", true))
}
