package checkin

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidEmail = errors.New("invalid email")
	ErrInvalidCode  = errors.New("invalid code")
	ErrUnauthorized = errors.New("invalid or expired check-in code")
	ErrIssueFailed  = errors.New("failed to issue check-in code")
	ErrStoreRead    = errors.New("error reading from Google Sheets")
	ErrStoreWrite   = errors.New("error writing to Google Sheets")
	ErrAuth         = errors.New("Google Sheets authentication/authorization error")
	ErrTimeout      = errors.New("timeout")
	ErrLocked       = errors.New("unable to lock attendance table")
	ErrMalformedRow = errors.New("malformed attendance row")
)

// ThrottledError is returned when a member checks in again before the cooldown has elapsed.
type ThrottledError struct {
	Remaining time.Duration
}

// Days is the remaining wait rounded to whole days.
func (e *ThrottledError) Days() int64 {
	return int64(math.Round(float64(e.Remaining.Milliseconds()) / float64(day.Milliseconds())))
}

func (e *ThrottledError) Wait() string {
	if days := e.Days(); days == 0 {
		return "a few hours"
	} else {
		return fmt.Sprintf("%v days", days)
	}
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("Cannot check in more than once in a week, try again in %v", e.Wait())
}

// Retryable returns true for failures that may succeed if the request is repeated unchanged.
func Retryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrLocked)
}

func wrap(kind error, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w (%w: %v)", kind, ErrTimeout, err)
	}

	return fmt.Errorf("%w (%w)", kind, err)
}
