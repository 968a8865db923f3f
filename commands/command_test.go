package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhppoted/uhppoted-app-checkin/lock"
)

const URL = "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms"

const credentials = `{
  "installed": {
    "client_id": "12345.apps.googleusercontent.com",
    "project_id": "checkin",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "client_secret": "shhhh",
    "redirect_uris": ["http://localhost"]
  }
}`

func credentialsFile(t *testing.T) string {
	file := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(file, []byte(credentials), 0600))

	return file
}

func TestConfigureWithFlags(t *testing.T) {
	cmd := command{
		credentials: "/etc/checkin/credentials.json",
		tokens:      "/var/checkin/credentials.sheets",
		url:         URL,
	}

	conf, err := cmd.configure(&Options{})
	require.NoError(t, err)

	assert.Equal(t, "/etc/checkin/credentials.json", conf.Google.Credentials)
	assert.Equal(t, "/var/checkin/credentials.sheets", conf.Google.Tokens)
	assert.Equal(t, URL, conf.Sheets.URL)
}

func TestConfigureWithEnvironment(t *testing.T) {
	t.Setenv("CHECKIN_SHEETS_URL", URL)
	t.Setenv("CHECKIN_CHECKIN_DOMAIN", "example.edu")

	cmd := command{}

	conf, err := cmd.configure(&Options{})
	require.NoError(t, err)

	assert.Equal(t, URL, conf.Sheets.URL)
	assert.Equal(t, "example.edu", conf.CheckIn.Domain)
	assert.Equal(t, DEFAULT_CREDENTIALS, conf.Google.Credentials)
}

func TestBuild(t *testing.T) {
	cmd := command{
		credentials: credentialsFile(t),
		url:         URL,
	}

	conf, err := cmd.configure(&Options{})
	require.NoError(t, err)

	s, err := build(context.Background(), conf)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", s.spreadsheet)
	assert.Equal(t, "sjsu.edu", s.reconciler.Domain())
	assert.IsType(t, &lock.Mutex{}, s.locker)
	assert.Equal(t, "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms!A5:C", lockKey(s.spreadsheet, conf))
}

func TestBuildWithoutURL(t *testing.T) {
	cmd := command{
		credentials: credentialsFile(t),
	}

	conf, err := cmd.configure(&Options{})
	require.NoError(t, err)

	_, err = build(context.Background(), conf)

	assert.EqualError(t, err, "--url is a required option")
}

func TestBuildWithMissingCredentials(t *testing.T) {
	cmd := command{
		credentials: filepath.Join(t.TempDir(), "credentials.json"),
		url:         URL,
	}

	conf, err := cmd.configure(&Options{})
	require.NoError(t, err)

	_, err = build(context.Background(), conf)

	assert.Error(t, err)
}

func TestBuildWithSameRanges(t *testing.T) {
	t.Setenv("CHECKIN_SHEETS_CODE_RANGE", "A5:C")

	cmd := command{
		credentials: credentialsFile(t),
		url:         URL,
	}

	conf, err := cmd.configure(&Options{})
	require.NoError(t, err)

	_, err = build(context.Background(), conf)

	assert.Error(t, err)
}
