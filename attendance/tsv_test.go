package attendance

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

func TestMakeTSV(t *testing.T) {
	table := MakeTable([][]any{
		{"alice@sjsu.edu", "3", "1697011200000"},
		{},
		{"bob@sjsu.edu", float64(1), float64(1696406400000)},
	})

	var b bytes.Buffer
	if err := MakeTSV(&b, table); err != nil {
		t.Fatalf("Unexpected error returned from MakeTSV (%v)", err)
	}

	g := goldie.New(t)
	g.Assert(t, "attendance", b.Bytes())
}

func TestMakeTSVWithEmptyTable(t *testing.T) {
	expected := "Email\tCheck Ins\tLast Check In\tDate\n"

	var b strings.Builder
	if err := MakeTSV(&b, MakeTable(nil)); err != nil {
		t.Fatalf("Unexpected error returned from MakeTSV (%v)", err)
	}

	if b.String() != expected {
		t.Errorf("Incorrect TSV\n   expected: %q\n   got:      %q\n", expected, b.String())
	}
}

func TestParseTSV(t *testing.T) {
	tsv := `Date	Last Check In	Email	Check Ins
2023-10-11 08:00:00	1697011200000	alice@sjsu.edu	3

	1696406400000	bob@sjsu.edu	1
`

	expected := [][]any{
		{"alice@sjsu.edu", uint64(3), int64(1697011200000)},
		{"bob@sjsu.edu", uint64(1), int64(1696406400000)},
	}

	table, err := ParseTSV(strings.NewReader(tsv))
	if err != nil {
		t.Fatalf("Unexpected error returned from ParseTSV (%v)", err)
	}

	if !reflect.DeepEqual(table.Values(), expected) {
		t.Errorf("Incorrect table\n   expected: %v\n   got:      %v\n", expected, table.Values())
	}
}

func TestParseTSVWithInvalidFile(t *testing.T) {
	tests := map[string]string{
		"empty file":        ``,
		"missing email":     "Check Ins\tLast Check In\n3\t1697011200000\n",
		"missing count":     "Email\tLast Check In\nalice@sjsu.edu\t1697011200000\n",
		"duplicate column":  "Email\tCheck Ins\tLast Check In\tEmail\n",
		"invalid count":     "Email\tCheck Ins\tLast Check In\nalice@sjsu.edu\tX\t1697011200000\n",
		"invalid timestamp": "Email\tCheck Ins\tLast Check In\nalice@sjsu.edu\t3\t2023-10-11\n",
		"duplicate email":   "Email\tCheck Ins\tLast Check In\nalice@sjsu.edu\t3\t1697011200000\nALICE@sjsu.edu\t1\t1697011200000\n",
	}

	for k, tsv := range tests {
		if _, err := ParseTSV(strings.NewReader(tsv)); err == nil {
			t.Errorf("Expected error return for %v, got %v", k, err)
		}
	}
}
