package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const credentials = `{
  "installed": {
    "client_id": "12345.apps.googleusercontent.com",
    "project_id": "checkin",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "%v",
    "client_secret": "shhhh",
    "redirect_uris": ["http://localhost"]
  }
}`

func setup(t *testing.T, tokenURI string) string {
	dir := t.TempDir()
	file := filepath.Join(dir, "credentials.json")

	require.NoError(t, os.WriteFile(file, []byte(fmt.Sprintf(credentials, tokenURI)), 0600))

	return file
}

func tokenServer(t *testing.T, access string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":%q,"token_type":"Bearer","refresh_token":"refresh","expires_in":3600}`, access)
	}))

	t.Cleanup(srv.Close)

	return srv
}

func TestTokensFile(t *testing.T) {
	assert.Equal(t, "/etc/checkin/credentials.sheets", TokensFile("/etc/checkin/credentials.json"))
	assert.Equal(t, "google.sheets", TokensFile("google.json"))
}

func TestNewProvider(t *testing.T) {
	file := setup(t, "https://oauth2.googleapis.com/token")

	p, err := NewProvider(file, "", "http://localhost:8080/auth/google/callback")
	require.NoError(t, err)

	assert.Equal(t, TokensFile(file), p.Tokens())
	assert.Equal(t, "http://localhost:8080/auth/google/callback", p.RedirectURL())
}

func TestNewProviderWithMissingCredentials(t *testing.T) {
	_, err := NewProvider(filepath.Join(t.TempDir(), "credentials.json"), "", "")

	assert.Error(t, err)
}

func TestAuthCodeURL(t *testing.T) {
	p, err := NewProvider(setup(t, "https://oauth2.googleapis.com/token"), "", "http://localhost:8080/auth/google/callback")
	require.NoError(t, err)

	u, err := url.Parse(p.AuthCodeURL("xyz"))
	require.NoError(t, err)

	q := u.Query()

	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "12345.apps.googleusercontent.com", q.Get("client_id"))
	assert.Equal(t, SHEETS, q.Get("scope"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Equal(t, "http://localhost:8080/auth/google/callback", q.Get("redirect_uri"))
}

func TestClientWithoutTokens(t *testing.T) {
	p, err := NewProvider(setup(t, "https://oauth2.googleapis.com/token"), "", "")
	require.NoError(t, err)

	_, err = p.Client()

	assert.ErrorIs(t, err, ErrNotAuthorised)
}

func TestExchange(t *testing.T) {
	srv := tokenServer(t, "qwerty")
	p, err := NewProvider(setup(t, srv.URL), "", "")
	require.NoError(t, err)

	token, err := p.Exchange(context.Background(), "4/0AX4XfWh")
	require.NoError(t, err)
	assert.Equal(t, "qwerty", token.AccessToken)

	saved, err := load(p.Tokens())
	require.NoError(t, err)
	assert.Equal(t, "qwerty", saved.AccessToken)
	assert.Equal(t, "refresh", saved.RefreshToken)

	client, err := p.Client()
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestClientPersistsRefreshedToken(t *testing.T) {
	srv := tokenServer(t, "fresh")
	p, err := NewProvider(setup(t, srv.URL), "", "")
	require.NoError(t, err)

	expired := oauth2.Token{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}

	require.NoError(t, save(p.Tokens(), &expired))

	authorization := ""
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
	}))
	defer api.Close()

	client, err := p.Client()
	require.NoError(t, err)

	response, err := client.Get(api.URL)
	require.NoError(t, err)
	response.Body.Close()

	assert.Equal(t, "Bearer fresh", authorization)

	saved, err := load(p.Tokens())
	require.NoError(t, err)
	assert.Equal(t, "fresh", saved.AccessToken)
}
