package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

type stub struct {
	messages []published
	err      error
}

func (s *stub) Publish(subject string, data []byte) error {
	if s.err != nil {
		return s.err
	}

	s.messages = append(s.messages, published{subject, data})

	return nil
}

func TestPublish(t *testing.T) {
	conn := stub{}
	n := NATS{subject: "club.checkin", conn: &conn}

	n.Publish("attendance.updated", map[string]any{"email": "alice@sjsu.edu", "checkins": 4})

	require.Len(t, conn.messages, 1)
	assert.Equal(t, "club.checkin.attendance.updated", conn.messages[0].subject)

	var msg Message
	require.NoError(t, json.Unmarshal(conn.messages[0].data, &msg))

	_, err := uuid.Parse(msg.ID)
	assert.NoError(t, err)
	assert.Equal(t, "attendance.updated", msg.Type)
	assert.JSONEq(t, `{"email":"alice@sjsu.edu","checkins":4}`, string(msg.Data))
	assert.WithinDuration(t, time.Now(), msg.Timestamp, time.Minute)
}

func TestPublishWithError(t *testing.T) {
	conn := stub{err: errors.New("nats: connection closed")}
	n := NATS{subject: DefaultSubject, conn: &conn}

	assert.NotPanics(t, func() { n.Publish("code.issued", map[string]any{"expiresIn": 1697018400000}) })
}

func TestPublishWithUnencodablePayload(t *testing.T) {
	conn := stub{}
	n := NATS{subject: DefaultSubject, conn: &conn}

	n.Publish("code.issued", make(chan int))

	assert.Empty(t, conn.messages)
}

func TestEnvelope(t *testing.T) {
	now := time.Date(2023, time.October, 11, 8, 0, 0, 0, time.UTC)

	b, err := envelope("code.issued", map[string]any{"expiresIn": 1697018400000}, now)
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(b, &msg))

	assert.Equal(t, "code.issued", msg["type"])
	assert.Equal(t, "2023-10-11T08:00:00Z", msg["timestamp"])
	assert.Equal(t, map[string]any{"expiresIn": float64(1697018400000)}, msg["data"])
}
