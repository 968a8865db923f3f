package commands

import (
	"context"
	"flag"
	"fmt"
)

var GenerateCmd = Generate{}

type Generate struct {
	command
}

func (cmd *Generate) Name() string {
	return "generate"
}

func (cmd *Generate) Description() string {
	return "Issues a new session check-in code"
}

func (cmd *Generate) Usage() string {
	return "--url <url>"
}

func (cmd *Generate) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] generate [options] --url <URL>\n", APP)
	fmt.Println()
	fmt.Println("  Generates a new check-in code, valid for two hours, and writes it to the worksheet code range.")
	fmt.Println("  The previous code is replaced.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s generate --url \"https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms\"\n", APP)
	fmt.Println()
}

func (cmd *Generate) FlagSet() *flag.FlagSet {
	return cmd.flagset("generate")
}

func (cmd *Generate) Execute(args ...any) error {
	options := args[0].(*Options)

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

	code, err := s.issuer.Issue(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%v  expires %v\n", code.Token, code.ExpiresAt.Format("2006-01-02 15:04:05"))

	return nil
}
