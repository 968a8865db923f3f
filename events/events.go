package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const DefaultSubject = "checkin"

type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATS publishes check-in events as JSON messages on <subject>.<event>, e.g. checkin.code.issued.
type NATS struct {
	URL     string
	subject string
	conn    publisher
	nc      *nats.Conn
}

func Connect(url, token, subject string) (*NATS, error) {
	opts := []nats.Option{
		nats.Name("uhppoted-app-checkin"),
	}

	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS server %v (%w)", url, err)
	}

	if subject == "" {
		subject = DefaultSubject
	}

	return &NATS{
		URL:     url,
		subject: subject,
		conn:    nc,
		nc:      nc,
	}, nil
}

// Publish is fire-and-forget: a failure is logged and otherwise ignored.
func (n *NATS) Publish(event string, payload any) {
	b, err := envelope(event, payload, time.Now())
	if err != nil {
		log.Warnf("error encoding %v event (%v)", event, err)
		return
	}

	subject := fmt.Sprintf("%v.%v", n.subject, event)
	if err := n.conn.Publish(subject, b); err != nil {
		log.Warnf("error publishing %v event (%v)", event, err)
	} else {
		log.Debugf("published %v", subject)
	}
}

func (n *NATS) Close() {
	if n.nc != nil {
		if err := n.nc.Drain(); err != nil {
			log.Warnf("error draining NATS connection (%v)", err)
		}
	}
}

func envelope(event string, payload any, now time.Time) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Message{
		ID:        uuid.NewString(),
		Type:      event,
		Timestamp: now.UTC(),
		Data:      data,
	})
}
