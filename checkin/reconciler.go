package checkin

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/uhppoted/uhppoted-app-checkin/attendance"
)

// Reconciler validates a submitted check-in against the current session code and upserts the
// member's attendance record.
type Reconciler struct {
	store Store
	conf  Config
	options
}

type Outcome struct {
	Inserted bool
	Record   attendance.Record
}

func (o Outcome) Updated() bool {
	return !o.Inserted
}

type CheckedIn struct {
	Email    string `json:"email"`
	CheckIns uint64 `json:"checkins"`
	At       int64  `json:"timestamp"`
}

func NewReconciler(store Store, conf Config, opts ...Option) *Reconciler {
	return &Reconciler{
		store:   store,
		conf:    conf,
		options: makeOptions(opts),
	}
}

func (r *Reconciler) Domain() string {
	return r.conf.Domain
}

// CheckIn records an attendance for email if code is the current, unexpired session code. The
// attendance table is read and rewritten in full under the table lock. A throttled check-in
// returns a *ThrottledError without writing anything.
func (r *Reconciler) CheckIn(ctx context.Context, code, email string) (*Outcome, error) {
	email = norm.NFC.String(strings.TrimSpace(email))
	code = strings.TrimSpace(code)

	if err := r.validate(code, email); err != nil {
		return nil, err
	}

	values, err := read(ctx, r.store, r.conf.CodeRange, timeout(r.conf))
	if err != nil {
		return nil, err
	}

	if current, ok := parseCode(values); !ok || !current.Valid(code, millis(r.now())) {
		return nil, ErrUnauthorized
	}

	unlock, err := r.locker.Lock(ctx, r.key())
	if err != nil {
		return nil, wrap(ErrLocked, err)
	}

	defer unlock()

	values, err = read(ctx, r.store, r.conf.AttendanceRange, timeout(r.conf))
	if err != nil {
		return nil, err
	}

	table := attendance.MakeTable(values)
	now := millis(r.now())

	outcome, err := upsert(table, email, now)
	if err != nil {
		return nil, err
	}

	if err := write(ctx, r.store, r.conf.AttendanceRange, table.Values(), timeout(r.conf)); err != nil {
		return nil, err
	}

	if outcome.Inserted {
		log.Infof("%v  first check-in", email)
		r.publisher.Publish("attendance.inserted", checkedIn(outcome.Record))
	} else {
		log.Infof("%v  check-in %v", email, outcome.Record.CheckIns)
		r.publisher.Publish("attendance.updated", checkedIn(outcome.Record))
	}

	return outcome, nil
}

func (r *Reconciler) validate(code, email string) error {
	if email == "" {
		return fmt.Errorf("%w (missing email)", ErrInvalidEmail)
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("%w (%v)", ErrInvalidEmail, email)
	}

	if !strings.EqualFold(parts[1], strings.TrimPrefix(r.conf.Domain, "@")) {
		return fmt.Errorf("%w (%v is not an @%v address)", ErrInvalidEmail, email, r.conf.Domain)
	}

	if code == "" {
		return fmt.Errorf("%w (missing code)", ErrInvalidCode)
	}

	return nil
}

func (r *Reconciler) key() string {
	return fmt.Sprintf("%v!%v", r.conf.Spreadsheet, r.conf.AttendanceRange)
}

// upsert applies a check-in at 'now' to the table: the first check-in appends a record, later
// check-ins are counted only once the cooldown has elapsed since the last counted one. A member
// row that cannot be parsed is an error and is left for someone to fix in the worksheet.
func upsert(table *attendance.Table, email string, now time.Time) (*Outcome, error) {
	index, found := table.Find(email)
	if !found {
		record := attendance.Record{
			Email:       email,
			CheckIns:    1,
			LastCheckIn: now,
		}

		table.Append(record)

		return &Outcome{Inserted: true, Record: record}, nil
	}

	record, ok := table.Get(index)
	if !ok {
		return nil, fmt.Errorf("%w (%w: row %v for %v)", ErrStoreRead, ErrMalformedRow, index+1, email)
	}

	elapsed := now.Sub(record.LastCheckIn)

	if elapsed <= Cooldown {
		return nil, &ThrottledError{
			Remaining: record.LastCheckIn.Add(Cooldown).Sub(now),
		}
	}

	record.CheckIns++
	record.LastCheckIn = now
	table.Set(index, record)

	return &Outcome{Inserted: false, Record: record}, nil
}

func checkedIn(record attendance.Record) CheckedIn {
	return CheckedIn{
		Email:    record.Email,
		CheckIns: record.CheckIns,
		At:       record.LastCheckIn.UnixMilli(),
	}
}
