package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	uhppoted "github.com/uhppoted/uhppoted-lib/command"

	"github.com/uhppoted/uhppoted-app-checkin/commands"
	"github.com/uhppoted/uhppoted-app-checkin/config"
)

var cli = []uhppoted.CommandV{
	&commands.VersionCmd,
	&commands.AuthoriseCmd,
	&commands.RunCmd,
	&commands.GenerateCmd,
	&commands.CheckInCmd,
	&commands.GetCmd,
	&commands.PutCmd,
}

var options = commands.Options{
	Debug:  false,
	Config: "",
}

var help = uhppoted.NewHelpV(commands.APP, cli, nil)

func main() {
	flag.BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	flag.StringVar(&options.Config, "config", options.Config, "Configuration file. Defaults to ./checkin.yaml")
	flag.Parse()

	if err := config.LoadEnv(); err != nil {
		fmt.Printf("\nError loading .env file: %v\n\n", err)
		os.Exit(1)
	}

	cmd, err := uhppoted.ParseV(cli, nil, help)
	if err != nil {
		fmt.Printf("\nError parsing command line: %v\n\n", err)
		os.Exit(1)
	}

	if cmd == nil {
		help.Execute(context.Background())
		os.Exit(1)
	}

	if err = cmd.Execute(&options); err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}
