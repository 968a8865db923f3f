package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"

	"github.com/uhppoted/uhppoted-app-checkin/server"
)

var RunCmd = Run{}

type Run struct {
	command
	port int
}

func (cmd *Run) Name() string {
	return "run"
}

func (cmd *Run) Description() string {
	return "Runs the check-in HTTP service"
}

func (cmd *Run) Usage() string {
	return "[--port <port>] --url <url>"
}

func (cmd *Run) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] run [options]\n", APP)
	fmt.Println()
	fmt.Println("  Serves the check-in API:")
	fmt.Println("    GET  /api/checkin/generate   issues a new session code")
	fmt.Println("    POST /api/checkin/update     records a member check-in {email, code}")
	fmt.Println("    GET  /auth/google/callback   OAuth2 consent page callback")
	fmt.Println("    GET  /healthz")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s --config checkin.yaml run --port 8080\n", APP)
	fmt.Println()
}

func (cmd *Run) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("run")

	flagset.IntVar(&cmd.port, "port", cmd.port, "HTTP port. Defaults to server.port from the configuration")

	return flagset
}

func (cmd *Run) Execute(args ...any) error {
	options := args[0].(*Options)

	conf, err := cmd.configure(options)
	if err != nil {
		return err
	}

	if cmd.port > 0 {
		conf.Server.Port = cmd.port
	}

	s, err := build(context.Background(), conf)
	if err != nil {
		return err
	}

	defer s.Close()

	router := server.NewRouter(s.issuer, s.reconciler, server.Options{
		AllowedOrigins: conf.Server.CORS.AllowOrigins,
		RateLimit:      conf.Server.RateLimit,
		JWTSecret:      conf.Auth.JWTSecret,
		Authoriser:     s.provider,
	})

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", conf.Server.Port))
	if err != nil {
		return err
	}

	if conf.Server.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, conf.Server.MaxConnections)
	}

	srv := &http.Server{
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	failed := make(chan error, 1)

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	log.Infof("%v listening on %v", APP, listener.Addr())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
	case err := <-failed:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("%v shutdown failed (%w)", APP, err)
	}

	log.Infof("%v stopped", APP)

	return nil
}
