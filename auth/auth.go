package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const SHEETS = "https://www.googleapis.com/auth/spreadsheets"

var ErrNotAuthorised = errors.New("no access token - run 'authorise' to authorise access to the worksheet")

// Provider supplies OAuth2 authorised HTTP clients for the Google Sheets API, using the
// 'installed application' credentials downloaded from the Google Cloud console and a local
// tokens file created by the 'authorise' command.
type Provider struct {
	config *oauth2.Config
	tokens string
}

func NewProvider(credentials, tokens, callback string) (*Provider, error) {
	b, err := os.ReadFile(credentials)
	if err != nil {
		return nil, fmt.Errorf("error reading credentials (%w)", err)
	}

	config, err := google.ConfigFromJSON(b, SHEETS)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials file %v (%w)", credentials, err)
	}

	if callback != "" {
		config.RedirectURL = callback
	}

	if tokens == "" {
		tokens = TokensFile(credentials)
	}

	return &Provider{
		config: config,
		tokens: tokens,
	}, nil
}

// TokensFile returns the default tokens file for a credentials file, e.g. credentials.sheets for
// credentials.json.
func TokensFile(credentials string) string {
	dir, file := filepath.Split(credentials)
	name := strings.TrimSuffix(file, filepath.Ext(file))

	return filepath.Join(dir, fmt.Sprintf("%s.sheets", name))
}

func (p *Provider) Tokens() string {
	return p.tokens
}

func (p *Provider) RedirectURL() string {
	return p.config.RedirectURL
}

// Client returns an HTTP client that refreshes the access token as required. Refreshed tokens are
// written back to the tokens file.
func (p *Provider) Client() (*http.Client, error) {
	token, err := load(p.tokens)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotAuthorised
	} else if err != nil {
		return nil, err
	}

	ctx := context.Background()
	source := persisting{
		source: p.config.TokenSource(ctx, token),
		file:   p.tokens,
		last:   token.AccessToken,
	}

	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, &source)), nil
}

func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorisation code for an access token and saves it to the tokens file.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve access token (%w)", err)
	}

	if err := save(p.tokens, token); err != nil {
		return nil, err
	}

	return token, nil
}

type persisting struct {
	sync.Mutex
	source oauth2.TokenSource
	file   string
	last   string
}

func (s *persisting) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()

	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if err := save(s.file, token); err != nil {
			log.Warnf("%v", err)
		}
	}

	return token, nil
}

func load(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	token := oauth2.Token{}
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("invalid tokens file %v (%w)", file, err)
	}

	return &token, nil
}

func save(file string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return fmt.Errorf("error creating tokens directory (%w)", err)
	}

	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to save access token (%w)", err)
	}

	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("unable to save access token (%w)", err)
	}

	log.Debugf("saved access token to %v", file)

	return nil
}
