package attendance

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Table is the attendance worksheet region as read from the spreadsheet. Rows that do not parse
// as a record (blank rows, notes, etc) are kept verbatim so that writing the table back never
// drops anything that was there before.
type Table struct {
	rows []row
}

type row struct {
	email  string
	record Record
	valid  bool
	cells  []any
}

// MakeTable builds a Table from the worksheet values. A nil or empty range yields an empty table.
func MakeTable(values [][]any) *Table {
	table := Table{
		rows: make([]row, 0, len(values)),
	}

	for _, cells := range values {
		email := ""
		if len(cells) > 0 {
			email = clean(Text(cells[0]))
		}

		if record, err := ParseRecord(cells); err != nil {
			table.rows = append(table.rows, row{email: email, cells: cells})
		} else {
			table.rows = append(table.rows, row{email: email, record: record, valid: true, cells: cells})
		}
	}

	return &table
}

// Find returns the index of the first row for the email, stopping at the first match. The row
// may not parse as a record, in which case Get returns false for the index.
func (t *Table) Find(email string) (int, bool) {
	for i, r := range t.rows {
		if r.email != "" && sameEmail(r.email, email) {
			return i, true
		}
	}

	return -1, false
}

func (t *Table) Get(index int) (Record, bool) {
	if index < 0 || index >= len(t.rows) || !t.rows[index].valid {
		return Record{}, false
	}

	return t.rows[index].record, true
}

// Set replaces the record at index. The row is re-serialised from the record on the next Values().
func (t *Table) Set(index int, record Record) {
	t.rows[index] = row{
		email:  record.Email,
		record: record,
		valid:  true,
		cells:  record.Cells(),
	}
}

func (t *Table) Append(record Record) {
	t.rows = append(t.rows, row{
		email:  record.Email,
		record: record,
		valid:  true,
		cells:  record.Cells(),
	})
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Records returns the parseable records in worksheet order.
func (t *Table) Records() []Record {
	records := []Record{}
	for _, r := range t.rows {
		if r.valid {
			records = append(records, r.record)
		}
	}

	return records
}

// Values returns the worksheet representation of the table, one entry per row read or added.
func (t *Table) Values() [][]any {
	values := make([][]any, 0, len(t.rows))
	for _, r := range t.rows {
		values = append(values, r.cells)
	}

	return values
}

func sameEmail(p, q string) bool {
	return strings.EqualFold(norm.NFC.String(clean(p)), norm.NFC.String(clean(q)))
}
