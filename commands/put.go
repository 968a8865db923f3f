package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/uhppoted/uhppoted-app-checkin/attendance"
	"github.com/uhppoted/uhppoted-app-checkin/checkin"
)

var PutCmd = Put{}

type Put struct {
	command
	file string
}

func (cmd *Put) Name() string {
	return "put"
}

func (cmd *Put) Description() string {
	return "Replaces the attendance table in the Google Sheets worksheet with the contents of a TSV file"
}

func (cmd *Put) Usage() string {
	return "--url <url> --file <file>"
}

func (cmd *Put) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] put [options] --url <URL> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Uploads a TSV file created by 'get' to the attendance table, replacing the existing rows")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf(`    %s --debug put --credentials "credentials.json" \`+"\n", APP)
	fmt.Println(`                             --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                             --file "attendance.tsv"`)
	fmt.Println()
}

func (cmd *Put) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("put")

	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV file")

	return flagset
}

func (cmd *Put) Execute(args ...any) error {
	options := args[0].(*Options)

	if strings.TrimSpace(cmd.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	f, err := os.Open(cmd.file)
	if err != nil {
		return err
	}

	defer f.Close()

	table, err := attendance.ParseTSV(f)
	if err != nil {
		return fmt.Errorf("invalid TSV file (%w)", err)
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

	unlock, err := s.locker.Lock(ctx, lockKey(s.spreadsheet, conf))
	if err != nil {
		return err
	}

	defer unlock()

	if err := replace(ctx, s, conf.Sheets.AttendanceRange, table.Values(), conf.Sheets.Timeout); err != nil {
		return err
	}

	log.Infof("uploaded %v attendance records from TSV file %v", table.Len(), cmd.file)

	return nil
}

// replace clears the range before writing so that no rows are left over from a longer table.
func replace(ctx context.Context, s *services, area string, values [][]any, dt time.Duration) error {
	cctx, cancel := context.WithTimeout(ctx, dt)
	defer cancel()

	if err := s.store.Clear(cctx, area); err != nil {
		return fmt.Errorf("%w (%w)", checkin.ErrStoreWrite, err)
	}

	wctx, cancelw := context.WithTimeout(ctx, dt)
	defer cancelw()

	if err := s.store.Write(wctx, area, values); err != nil {
		return fmt.Errorf("%w (%w)", checkin.ErrStoreWrite, err)
	}

	return nil
}
