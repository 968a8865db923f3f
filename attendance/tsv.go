package attendance

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

var header = []string{"Email", "Check Ins", "Last Check In", "Date"}

// MakeTSV writes the attendance records as a tab separated file. 'Last Check In' is the epoch
// milliseconds value stored in the worksheet and 'Date' is the same instant formatted in UTC.
func MakeTSV(f io.Writer, table *Table) error {
	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(header); err != nil {
		return err
	}

	for _, record := range table.Records() {
		row := []string{
			record.Email,
			fmt.Sprintf("%v", record.CheckIns),
			fmt.Sprintf("%v", record.LastCheckIn.UnixMilli()),
			record.LastCheckIn.UTC().Format("2006-01-02 15:04:05"),
		}

		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

// ParseTSV reads an attendance TSV file. Columns are matched by name so they may be in any
// order and unknown columns are ignored.
func ParseTSV(f io.Reader) (*Table, error) {
	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("TSV file is empty")
	}

	// .. build index
	index := map[string]int{}
	for i, v := range records[0] {
		k := normalise(v)
		if _, ok := index[k]; ok {
			return nil, fmt.Errorf("Duplicate column name '%s'", v)
		}

		index[k] = i
	}

	for _, k := range []string{"email", "checkins", "lastcheckin"} {
		if _, ok := index[k]; !ok {
			return nil, fmt.Errorf("Missing '%s' column", k)
		}
	}

	// ... records
	table := MakeTable(nil)
	for line, row := range records[1:] {
		get := func(k string) string {
			if ix := index[k]; ix < len(row) {
				return clean(row[ix])
			}
			return ""
		}

		email := get("email")
		if email == "" {
			continue
		}

		count, err := strconv.ParseUint(get("checkins"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %v: invalid check-in count '%v'", line+2, get("checkins"))
		}

		ms, err := strconv.ParseInt(get("lastcheckin"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %v: invalid last check-in '%v'", line+2, get("lastcheckin"))
		}

		if _, ok := table.Find(email); ok {
			return nil, fmt.Errorf("line %v: duplicate email '%v'", line+2, email)
		}

		table.Append(Record{
			Email:       email,
			CheckIns:    count,
			LastCheckIn: time.UnixMilli(ms),
		})
	}

	return table, nil
}
