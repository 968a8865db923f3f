// Package checkin implements the session code issuer and the attendance reconciler. Both operate
// on a spreadsheet used as a table: the code region holds the current validation code and the
// attendance region holds one row per member.
package checkin

import (
	"context"
	"time"

	"github.com/uhppoted/uhppoted-app-checkin/lock"
)

// Store is the tabular store holding the code and attendance regions. Write replaces the
// addressed range in full.
type Store interface {
	Read(ctx context.Context, area string) ([][]any, error)
	Write(ctx context.Context, area string, values [][]any) error
}

// Locker serialises the attendance read-modify-write. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Publisher is notified of issued codes and recorded check-ins. Publishing is fire-and-forget.
type Publisher interface {
	Publish(event string, payload any)
}

type Config struct {
	Spreadsheet     string
	CodeRange       string
	AttendanceRange string
	Domain          string
	Timeout         time.Duration
}

const DefaultTimeout = 10 * time.Second

type Option func(*options)

type options struct {
	now       func() time.Time
	locker    Locker
	publisher Publisher
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithLocker(locker Locker) Option {
	return func(o *options) {
		o.locker = locker
	}
}

func WithPublisher(publisher Publisher) Option {
	return func(o *options) {
		o.publisher = publisher
	}
}

func makeOptions(opts []Option) options {
	o := options{
		now:       time.Now,
		locker:    lock.NewMutex(),
		publisher: nop{},
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

func timeout(conf Config) time.Duration {
	if conf.Timeout > 0 {
		return conf.Timeout
	}

	return DefaultTimeout
}

// millis truncates t to the millisecond resolution of the worksheet timestamps.
func millis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli())
}

func read(ctx context.Context, store Store, area string, dt time.Duration) ([][]any, error) {
	ctx, cancel := context.WithTimeout(ctx, dt)
	defer cancel()

	values, err := store.Read(ctx, area)
	if err != nil {
		return nil, wrap(ErrStoreRead, err)
	}

	return values, nil
}

func write(ctx context.Context, store Store, area string, values [][]any, dt time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, dt)
	defer cancel()

	if err := store.Write(ctx, area, values); err != nil {
		return wrap(ErrStoreWrite, err)
	}

	return nil
}

type nop struct{}

func (nop) Publish(string, any) {}
