package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/uhppoted/uhppoted-app-checkin/auth"
)

var AuthoriseCmd = Authorise{
	timeout: 5 * time.Minute,
}

type Authorise struct {
	command
	code    string
	timeout time.Duration
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises access to the check-in Google Sheets worksheet"
}

func (cmd *Authorise) Usage() string {
	return "--credentials <file> [--code <code>]"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] authorise [options]\n", APP)
	fmt.Println()
	fmt.Println("  Obtains an OAuth2 access token for the Google Sheets API and saves it to the tokens file. The consent")
	fmt.Println("  page is opened in the browser and the authorisation code is captured on the configured callback URL.")
	fmt.Println("  Alternatively, the code displayed by the check-in service /auth/google/callback endpoint can be")
	fmt.Println("  supplied with --code.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s authorise --credentials \"credentials.json\"\n", APP)
	fmt.Printf("    %s authorise --credentials \"credentials.json\" --code \"4/0AX4XfWh...\"\n", APP)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("authorise")

	flagset.StringVar(&cmd.code, "code", cmd.code, "OAuth2 authorisation code returned by the consent page")
	flagset.DurationVar(&cmd.timeout, "timeout", cmd.timeout, "Time to wait for the consent page callback")

	return flagset
}

func (cmd *Authorise) Execute(args ...any) error {
	options := args[0].(*Options)

	conf, err := cmd.configure(options)
	if err != nil {
		return err
	}

	p, err := provider(conf)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if code := strings.TrimSpace(cmd.code); code != "" {
		return exchange(ctx, p, code)
	}

	return cmd.authorise(ctx, p)
}

func (cmd *Authorise) authorise(ctx context.Context, p *auth.Provider) error {
	callback, err := url.Parse(p.RedirectURL())
	if err != nil || callback.Host == "" {
		return fmt.Errorf("invalid OAuth2 callback URL '%v'", p.RedirectURL())
	}

	path := callback.Path
	if path == "" {
		path = "/"
	}

	state := uuid.NewString()
	authorised := make(chan string, 1)
	failed := make(chan error, 1)

	r := chi.NewRouter()
	r.Get(path, func(w http.ResponseWriter, rq *http.Request) {
		if rq.FormValue("state") != state {
			http.Error(w, "Invalid OAuth2 state", http.StatusBadRequest)
			return
		}

		code := rq.FormValue("code")
		if code == "" {
			http.Error(w, "Missing OAuth2 authorisation code", http.StatusBadRequest)
			return
		}

		fmt.Fprintln(w, "Authorised - you can close this window")

		select {
		case authorised <- code:
		default:
		}
	})

	srv := &http.Server{
		Addr:              callback.Host,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	defer func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Warnf("%v", err)
		}
	}()

	uri := p.AuthCodeURL(state)

	fmt.Println()
	fmt.Println("  Authorise access to the worksheet by visiting:")
	fmt.Println()
	fmt.Printf("    %v\n", uri)
	fmt.Println()

	if err := exec.Command(BROWSER, uri).Start(); err != nil {
		log.Debugf("could not open consent page in browser (%v)", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	select {
	case <-interrupt:
		return fmt.Errorf("cancelled")

	case err := <-failed:
		return fmt.Errorf("error starting OAuth2 callback server (%w)", err)

	case <-time.After(cmd.timeout):
		return fmt.Errorf("timeout waiting for authorisation")

	case code := <-authorised:
		return exchange(ctx, p, code)
	}
}

func exchange(ctx context.Context, p *auth.Provider, code string) error {
	if _, err := p.Exchange(ctx, code); err != nil {
		return fmt.Errorf("authorisation error (%w)", err)
	}

	log.Infof("saved access token to %v", p.Tokens())

	return nil
}
