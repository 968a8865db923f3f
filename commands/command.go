package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/uhppoted/uhppoted-app-checkin/auth"
	"github.com/uhppoted/uhppoted-app-checkin/checkin"
	"github.com/uhppoted/uhppoted-app-checkin/config"
	"github.com/uhppoted/uhppoted-app-checkin/events"
	"github.com/uhppoted/uhppoted-app-checkin/lock"
	"github.com/uhppoted/uhppoted-app-checkin/store"
)

const APP = "uhppoted-app-checkin"

type Options struct {
	Debug  bool
	Config string
}

// command holds the worksheet options common to all the commands. Options set on the command line
// override the configuration file and environment.
type command struct {
	credentials string
	tokens      string
	url         string
	debug       bool
}

func (c *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&c.credentials, "credentials", c.credentials, "Path for the 'credentials.json' file. Defaults to "+DEFAULT_CREDENTIALS)
	flagset.StringVar(&c.tokens, "tokens", c.tokens, "Path for the OAuth2 tokens file. Defaults to <credentials>.sheets")
	flagset.StringVar(&c.url, "url", c.url, "Spreadsheet URL")

	return flagset
}

func (c *command) configure(options *Options) (*config.Config, error) {
	c.debug = options.Debug

	conf, err := config.Load(options.Config)
	if err != nil {
		return nil, err
	}

	if err := config.Logging(conf.Log, options.Debug); err != nil {
		return nil, err
	}

	if s := strings.TrimSpace(c.credentials); s != "" {
		conf.Google.Credentials = s
	}

	if s := strings.TrimSpace(c.tokens); s != "" {
		conf.Google.Tokens = s
	}

	if s := strings.TrimSpace(c.url); s != "" {
		conf.Sheets.URL = s
	}

	if conf.Google.Credentials == "" {
		conf.Google.Credentials = DEFAULT_CREDENTIALS
	}

	return conf, nil
}

func provider(conf *config.Config) (*auth.Provider, error) {
	p, err := auth.NewProvider(conf.Google.Credentials, conf.Google.Tokens, conf.Google.CallbackURL)
	if err != nil {
		return nil, fmt.Errorf("authentication/authorization error (%w)", err)
	}

	return p, nil
}

func spreadsheet(conf *config.Config, p store.Provider) (*store.Sheets, string, error) {
	if strings.TrimSpace(conf.Sheets.URL) == "" {
		return nil, "", fmt.Errorf("--url is a required option")
	}

	id, err := store.SpreadsheetID(conf.Sheets.URL)
	if err != nil {
		return nil, "", err
	}

	if conf.Sheets.CodeRange == conf.Sheets.AttendanceRange {
		return nil, "", fmt.Errorf("code range and attendance range must be different ('%v')", conf.Sheets.CodeRange)
	}

	log.Debugf("spreadsheet - ID:%s  code:%s  attendance:%s", id, conf.Sheets.CodeRange, conf.Sheets.AttendanceRange)

	return store.NewSheets(p, id), id, nil
}

// services holds the issuer and reconciler along with the connections they depend on.
type services struct {
	spreadsheet string
	issuer      *checkin.Issuer
	reconciler  *checkin.Reconciler
	store       *store.Sheets
	provider    *auth.Provider
	locker      checkin.Locker
	closers     []func()
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func build(ctx context.Context, conf *config.Config) (*services, error) {
	p, err := provider(conf)
	if err != nil {
		return nil, err
	}

	sheets, id, err := spreadsheet(conf, p)
	if err != nil {
		return nil, err
	}

	s := services{
		spreadsheet: id,
		store:       sheets,
		provider:    p,
		locker:      lock.NewMutex(),
	}

	options := []checkin.Option{}

	if conf.Lock.DatabaseURL != "" {
		pg, err := lock.Connect(ctx, conf.Lock.DatabaseURL)
		if err != nil {
			return nil, err
		}

		log.Infof("using PostgreSQL advisory lock for the attendance table")

		s.locker = pg
		s.closers = append(s.closers, pg.Close)
	}

	options = append(options, checkin.WithLocker(s.locker))

	if conf.Events.NatsURL != "" {
		nc, err := events.Connect(conf.Events.NatsURL, conf.Events.NatsToken, conf.Events.Subject)
		if err != nil {
			s.Close()
			return nil, err
		}

		log.Infof("publishing check-in events to %v", nc.URL)

		s.closers = append(s.closers, nc.Close)
		options = append(options, checkin.WithPublisher(nc))
	}

	cc := checkin.Config{
		Spreadsheet:     id,
		CodeRange:       conf.Sheets.CodeRange,
		AttendanceRange: conf.Sheets.AttendanceRange,
		Domain:          strings.TrimPrefix(strings.TrimSpace(conf.CheckIn.Domain), "@"),
		Timeout:         conf.Sheets.Timeout,
	}

	s.issuer = checkin.NewIssuer(sheets, cc, options...)
	s.reconciler = checkin.NewReconciler(sheets, cc, options...)

	return &s, nil
}

// lockKey is the key used by the reconciler for the attendance table, so that the 'put' command
// and check-ins exclude each other.
func lockKey(id string, conf *config.Config) string {
	return fmt.Sprintf("%v!%v", id, conf.Sheets.AttendanceRange)
}

func helpOptions(flagset *flag.FlagSet) {
	count := 0
	flag.VisitAll(func(f *flag.Flag) {
		count++
	})

	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
	})

	if count > 0 {
		fmt.Println()
		fmt.Println("  Options:")
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
		})
	}
}
