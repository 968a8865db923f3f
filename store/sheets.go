package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/uhppoted/uhppoted-app-checkin/checkin"
)

// Provider supplies the authorised HTTP client for the Sheets API.
type Provider interface {
	Client() (*http.Client, error)
}

// Sheets is the attendance and code store backed by a single Google Sheets spreadsheet. The
// Sheets API client is created on first use and reused thereafter.
type Sheets struct {
	sync.Mutex
	provider    Provider
	spreadsheet string
	options     []option.ClientOption
	google      *sheets.Service
}

var (
	urlRegex   = regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`)
	idRegex    = regexp.MustCompile(`^[a-zA-Z0-9_-]{20,}$`)
	rangeRegex = regexp.MustCompile(`^(?:(.+?)!)?([a-zA-Z]+)([0-9]+):([a-zA-Z]+)([0-9]+)?$`)
)

func NewSheets(provider Provider, spreadsheet string, options ...option.ClientOption) *Sheets {
	return &Sheets{
		provider:    provider,
		spreadsheet: spreadsheet,
		options:     options,
	}
}

// SpreadsheetID extracts the spreadsheet ID from a Google Sheets URL. A bare ID is returned as is.
func SpreadsheetID(url string) (string, error) {
	url = strings.TrimSpace(url)

	if match := urlRegex.FindStringSubmatch(url); len(match) > 1 && match[1] != "" {
		return match[1], nil
	}

	if idRegex.MatchString(url) {
		return url, nil
	}

	return "", fmt.Errorf("invalid spreadsheet URL - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
}

// ValidateRange checks that area is an A1 range with an optional worksheet name e.g. 'Attendance!A5:C'.
func ValidateRange(area string) error {
	if !rangeRegex.MatchString(strings.TrimSpace(area)) {
		return fmt.Errorf("invalid spreadsheet range '%v' - expected something like 'Attendance!A5:C'", area)
	}

	return nil
}

func (s *Sheets) Read(ctx context.Context, area string) ([][]any, error) {
	google, err := s.service(ctx)
	if err != nil {
		return nil, err
	}

	response, err := google.Spreadsheets.Values.
		Get(s.spreadsheet, area).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(err)
	}

	log.Debugf("read %v rows from %v", len(response.Values), area)

	return response.Values, nil
}

// Write replaces the contents of area with values, starting at the top left cell.
func (s *Sheets) Write(ctx context.Context, area string, values [][]any) error {
	google, err := s.service(ctx)
	if err != nil {
		return err
	}

	rq := sheets.ValueRange{
		Range:          area,
		MajorDimension: "ROWS",
		Values:         values,
	}

	response, err := google.Spreadsheets.Values.
		Update(s.spreadsheet, area, &rq).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return classify(err)
	}

	log.Debugf("updated %v cells in %v", response.UpdatedCells, response.UpdatedRange)

	return nil
}

func (s *Sheets) Clear(ctx context.Context, areas ...string) error {
	google, err := s.service(ctx)
	if err != nil {
		return err
	}

	rq := sheets.BatchClearValuesRequest{
		Ranges: areas,
	}

	if _, err := google.Spreadsheets.Values.BatchClear(s.spreadsheet, &rq).Context(ctx).Do(); err != nil {
		return classify(err)
	}

	return nil
}

func (s *Sheets) service(ctx context.Context) (*sheets.Service, error) {
	s.Lock()
	defer s.Unlock()

	if s.google != nil {
		return s.google, nil
	}

	client, err := s.provider.Client()
	if err != nil {
		return nil, fmt.Errorf("%w (%w)", checkin.ErrAuth, err)
	}

	options := append([]option.ClientOption{option.WithHTTPClient(client)}, s.options...)
	google, err := sheets.NewService(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%w)", err)
	}

	s.google = google

	return google, nil
}

func classify(err error) error {
	var apierr *googleapi.Error
	if errors.As(err, &apierr) && (apierr.Code == http.StatusUnauthorized || apierr.Code == http.StatusForbidden) {
		return fmt.Errorf("%w (%w)", checkin.ErrAuth, err)
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("%w (%w)", checkin.ErrAuth, err)
	}

	return err
}
