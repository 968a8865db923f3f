package attendance

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Record is a single member row in the attendance worksheet: email, check-in count and the
// time of the last counted check-in (stored in the sheet as epoch milliseconds).
type Record struct {
	Email       string
	CheckIns    uint64
	LastCheckIn time.Time
}

// ParseRecord converts a worksheet row into a Record. Trailing empty cells are dropped by the
// Sheets API so a row with only an email is a record with no counted check-ins.
func ParseRecord(cells []any) (Record, error) {
	if len(cells) == 0 {
		return Record{}, fmt.Errorf("empty row")
	}

	email := clean(Text(cells[0]))
	if email == "" {
		return Record{}, fmt.Errorf("missing email")
	}

	record := Record{
		Email:       email,
		LastCheckIn: time.UnixMilli(0),
	}

	if len(cells) > 1 {
		if count, err := Integer(cells[1]); err != nil {
			return Record{}, fmt.Errorf("invalid check-in count '%v' (%v)", cells[1], err)
		} else if count < 0 {
			return Record{}, fmt.Errorf("invalid check-in count '%v'", cells[1])
		} else {
			record.CheckIns = uint64(count)
		}
	}

	if len(cells) > 2 {
		if ms, err := Integer(cells[2]); err != nil {
			return Record{}, fmt.Errorf("invalid last check-in '%v' (%v)", cells[2], err)
		} else {
			record.LastCheckIn = time.UnixMilli(ms)
		}
	}

	return record, nil
}

// Cells returns the worksheet representation of the record.
func (r Record) Cells() []any {
	return []any{r.Email, r.CheckIns, r.LastCheckIn.UnixMilli()}
}

func (r Record) String() string {
	return fmt.Sprintf("%v  check-ins:%v  last:%v", r.Email, r.CheckIns, r.LastCheckIn.UTC().Format("2006-01-02 15:04:05"))
}

// Text formats a cell value returned by the Sheets API (string, float64 or json.Number
// depending on the render option) as a string.
func Text(v any) string {
	switch cell := v.(type) {
	case nil:
		return ""
	case string:
		return cell
	case float64:
		return strconv.FormatFloat(cell, 'f', -1, 64)
	case json.Number:
		return cell.String()
	default:
		return fmt.Sprintf("%v", cell)
	}
}

// Integer parses a numeric cell. Blank cells are zero.
func Integer(v any) (int64, error) {
	switch cell := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(cell), nil
	case int64:
		return cell, nil
	case uint64:
		if cell > math.MaxInt64 {
			return 0, fmt.Errorf("out of range")
		}
		return int64(cell), nil
	case float64:
		if cell != math.Trunc(cell) {
			return 0, fmt.Errorf("not an integer")
		}
		return int64(cell), nil
	}

	s := strings.ReplaceAll(clean(Text(v)), ",", "")
	if s == "" {
		return 0, nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}

	// e.g. 1.6970112E+12 when the column has been reformatted as a number
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	} else if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer")
	}

	return int64(f), nil
}

func clean(v string) string {
	return strings.TrimSpace(v)
}

func normalise(v string) string {
	return strings.ToLower(strings.ReplaceAll(v, " ", ""))
}
