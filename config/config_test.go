package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const YAML = `
server:
  port: 9000
  cors:
    allow_origins:
      - https://club.example.edu
  rate_limit: 10

sheets:
  url: https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms
  code_range: Check In!A2:B2
  attendance_range: Check In!A5:C
  timeout: 5s

checkin:
  domain: example.edu

lock:
  database_url: postgres://checkin@localhost:5432/checkin
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Server.RateLimit)
	assert.Equal(t, "A2:B2", cfg.Sheets.CodeRange)
	assert.Equal(t, "A5:C", cfg.Sheets.AttendanceRange)
	assert.Equal(t, 10*time.Second, cfg.Sheets.Timeout)
	assert.Equal(t, "sjsu.edu", cfg.CheckIn.Domain)
	assert.Equal(t, "checkin", cfg.Events.Subject)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Lock.DatabaseURL)
}

func TestLoadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "checkin.yaml")
	require.NoError(t, os.WriteFile(file, []byte(YAML), 0644))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://club.example.edu"}, cfg.Server.CORS.AllowOrigins)
	assert.Equal(t, 10, cfg.Server.RateLimit)
	assert.Equal(t, "Check In!A2:B2", cfg.Sheets.CodeRange)
	assert.Equal(t, "Check In!A5:C", cfg.Sheets.AttendanceRange)
	assert.Equal(t, 5*time.Second, cfg.Sheets.Timeout)
	assert.Equal(t, "example.edu", cfg.CheckIn.Domain)
	assert.Equal(t, "postgres://checkin@localhost:5432/checkin", cfg.Lock.DatabaseURL)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "checkin.yaml")
	require.NoError(t, os.WriteFile(file, []byte(YAML), 0644))

	t.Setenv("CHECKIN_SERVER_PORT", "9090")
	t.Setenv("CHECKIN_SHEETS_TIMEOUT", "30s")
	t.Setenv("CHECKIN_CHECKIN_DOMAIN", "club.example.edu")

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Sheets.Timeout)
	assert.Equal(t, "club.example.edu", cfg.CheckIn.Domain)
}

func TestLoadWithMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:  ServerConfig{Port: 8080, RateLimit: 30},
			Sheets:  SheetsConfig{CodeRange: "A2:B2", AttendanceRange: "A5:C", Timeout: time.Second},
			CheckIn: CheckInConfig{Domain: "sjsu.edu"},
		}
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())

	tests := map[string]func(*Config){
		"port":         func(c *Config) { c.Server.Port = 0 },
		"rate limit":   func(c *Config) { c.Server.RateLimit = -1 },
		"code range":   func(c *Config) { c.Sheets.CodeRange = "A2" },
		"range":        func(c *Config) { c.Sheets.AttendanceRange = "" },
		"timeout":      func(c *Config) { c.Sheets.Timeout = 0 },
		"domain":       func(c *Config) { c.CheckIn.Domain = " " },
		"email domain": func(c *Config) { c.CheckIn.Domain = "a@sjsu.edu" },
		"jwt secret":   func(c *Config) { c.Auth.JWTSecret = "short" },
		"callback":     func(c *Config) { c.Google.CallbackURL = "localhost" },
	}

	for name, f := range tests {
		cfg := valid()
		f(&cfg)

		assert.Error(t, cfg.Validate(), name)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(file, []byte("CHECKIN_TEST_LOADENV=qwerty\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("CHECKIN_TEST_LOADENV") })

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), file))

	assert.Equal(t, "qwerty", os.Getenv("CHECKIN_TEST_LOADENV"))
}

func TestLogging(t *testing.T) {
	t.Cleanup(func() {
		log.SetLevel(log.InfoLevel)
		log.SetOutput(os.Stderr)
	})

	require.NoError(t, Logging(LogConfig{Level: "warn"}, false))
	assert.Equal(t, log.WarnLevel, log.GetLevel())

	require.NoError(t, Logging(LogConfig{Level: "warn"}, true))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	file := filepath.Join(t.TempDir(), "logs", "checkin.log")
	require.NoError(t, Logging(LogConfig{Level: "info", File: file}, false))

	log.Infof("qwerty")

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), "qwerty")

	assert.Error(t, Logging(LogConfig{Level: "loud"}, false))
}
