package checkin

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Issuer generates session codes and stores them in the code region, replacing any previous code.
type Issuer struct {
	store Store
	area  string
	conf  Config
	options
}

type CodeIssued struct {
	ExpiresAt int64 `json:"expiresIn"`
}

func NewIssuer(store Store, conf Config, opts ...Option) *Issuer {
	return &Issuer{
		store:   store,
		area:    conf.CodeRange,
		conf:    conf,
		options: makeOptions(opts),
	}
}

func (i *Issuer) Issue(ctx context.Context) (*ValidationCode, error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("%w (%w)", ErrIssueFailed, err)
	}

	code := ValidationCode{
		Token:     token,
		ExpiresAt: millis(i.now()).Add(CodeLifetime),
	}

	if err := write(ctx, i.store, i.area, code.values(), timeout(i.conf)); err != nil {
		return nil, fmt.Errorf("%w (%w)", ErrIssueFailed, err)
	}

	log.Infof("issued check-in code expiring at %v", code.ExpiresAt.Format("2006-01-02 15:04:05"))

	i.publisher.Publish("code.issued", CodeIssued{
		ExpiresAt: code.ExpiresAt.UnixMilli(),
	})

	return &code, nil
}
