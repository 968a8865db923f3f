package checkin

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/uhppoted/uhppoted-app-checkin/attendance"
)

const (
	CodeLifetime = 2 * time.Hour
	Cooldown     = 518_300_000 * time.Millisecond

	day          = 24 * time.Hour
	tokenLength  = 5
	tokenSymbols = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// ValidationCode is the shared secret displayed at a session. There is only ever one, stored in the
// code region of the worksheet as [token, expires (epoch milliseconds)].
type ValidationCode struct {
	Token     string
	ExpiresAt time.Time
}

// Valid returns true if token matches and now is strictly before the expiry.
func (c ValidationCode) Valid(token string, now time.Time) bool {
	return c.Token != "" && token == c.Token && now.UnixMilli() < c.ExpiresAt.UnixMilli()
}

func (c ValidationCode) values() [][]any {
	return [][]any{
		{c.Token, c.ExpiresAt.UnixMilli()},
	}
}

// parseCode extracts the code from the code region. An empty region (nothing issued yet) or a
// malformed one is reported as 'no code'.
func parseCode(values [][]any) (ValidationCode, bool) {
	if len(values) == 0 || len(values[0]) < 2 {
		return ValidationCode{}, false
	}

	token := strings.TrimSpace(attendance.Text(values[0][0]))
	if token == "" {
		return ValidationCode{}, false
	}

	expires, err := attendance.Integer(values[0][1])
	if err != nil || expires <= 0 {
		return ValidationCode{}, false
	}

	return ValidationCode{
		Token:     token,
		ExpiresAt: time.UnixMilli(expires),
	}, true
}

func newToken() (string, error) {
	var b strings.Builder

	N := big.NewInt(int64(len(tokenSymbols)))
	for i := 0; i < tokenLength; i++ {
		if n, err := rand.Int(rand.Reader, N); err != nil {
			return "", fmt.Errorf("error generating check-in code (%w)", err)
		} else {
			b.WriteByte(tokenSymbols[n.Int64()])
		}
	}

	return b.String(), nil
}
