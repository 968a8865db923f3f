package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"
)

var CheckInCmd = CheckIn{}

type CheckIn struct {
	command
	email string
	code  string
}

func (cmd *CheckIn) Name() string {
	return "checkin"
}

func (cmd *CheckIn) Description() string {
	return "Records a member check-in"
}

func (cmd *CheckIn) Usage() string {
	return "--url <url> --email <email> --code <code>"
}

func (cmd *CheckIn) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] checkin [options] --email <email> --code <code>\n", APP)
	fmt.Println()
	fmt.Println("  Validates the session code and records a check-in for the member. A member is credited with")
	fmt.Println("  at most one check-in per week.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s checkin --email \"alice@sjsu.edu\" --code x7k2q\n", APP)
	fmt.Println()
}

func (cmd *CheckIn) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("checkin")

	flagset.StringVar(&cmd.email, "email", cmd.email, "Member email address")
	flagset.StringVar(&cmd.code, "code", cmd.code, "Session check-in code")

	return flagset
}

func (cmd *CheckIn) Execute(args ...any) error {
	options := args[0].(*Options)

	if strings.TrimSpace(cmd.email) == "" {
		return fmt.Errorf("--email is a required option")
	}

	if strings.TrimSpace(cmd.code) == "" {
		return fmt.Errorf("--code is a required option")
	}

	conf, err := cmd.configure(options)
	if err != nil {
		return err
	}

	ctx := context.Background()

	s, err := build(ctx, conf)
	if err != nil {
		return err
	}

	defer s.Close()

	outcome, err := s.reconciler.CheckIn(ctx, cmd.code, cmd.email)
	if err != nil {
		return err
	}

	if outcome.Inserted {
		fmt.Printf("%v  inserted\n", outcome.Record)
	} else {
		fmt.Printf("%v  updated\n", outcome.Record)
	}

	return nil
}
