package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error, completed bool) *fakeToken {
	tok := &fakeToken{done: make(chan struct{}), err: err}
	if completed {
		close(tok.done)
	}
	return tok
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type fakeMQTT struct {
	mu        sync.Mutex
	topics    []string
	payloads  [][]byte
	err       error
	completed bool
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload.([]byte))
	return newFakeToken(f.err, f.completed)
}

func sampleEvent() WorkOrderEvent {
	return WorkOrderEvent{
		RunID:         "run-1",
		WorkOrderID:   "wo-1",
		ScheduleID:    "s-1",
		BuildingID:    "b-1",
		BuildingName:  "Harbour View",
		Title:         "Fire pump test",
		Category:      "fire_safety",
		Recurrence:    "monthly",
		DueDate:       "2024-01-31",
		NextDueDate:   "2024-03-02",
		EstimatedCost: 250,
		Recipient:     "manager@vivid.example",
	}
}

func TestRenderWorkOrderEmail(t *testing.T) {
	msg, err := RenderWorkOrderEmail(sampleEvent())
	require.NoError(t, err)
	assert.Equal(t, "manager@vivid.example", msg.To)
	assert.Equal(t, "[Harbour View] Scheduled maintenance due: Fire pump test", msg.Subject)
	assert.Contains(t, msg.Body, "Frequency:      monthly")
	assert.Contains(t, msg.Body, "Estimated cost: 250.00")
	assert.Contains(t, msg.Body, "Next occurrence: 2024-03-02")

	ev := sampleEvent()
	ev.BuildingName = ""
	ev.NextDueDate = ""
	msg, err = RenderWorkOrderEmail(ev)
	require.NoError(t, err)
	assert.Equal(t, "[Building b-1] Scheduled maintenance due: Fire pump test", msg.Subject)
	assert.Contains(t, msg.Body, "no further occurrences")
}

func TestDispatcher_EmailAndPublish(t *testing.T) {
	email := NewMemorySender()
	client := &fakeMQTT{completed: true}
	d := NewDispatcher(email, NewMQTTPublisher(client, time.Second), "vivid/bms", nil)

	err := d.WorkOrderCreated(context.Background(), sampleEvent())
	require.NoError(t, err)

	require.Len(t, email.Sent(), 1)
	require.Len(t, client.topics, 1)
	assert.Equal(t, "vivid/bms/work_orders/created", client.topics[0])

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(client.payloads[0], &decoded))
	assert.Equal(t, "wo-1", decoded["work_order_id"])
	_, hasRecipient := decoded["Recipient"]
	assert.False(t, hasRecipient, "recipient address is not broadcast")
}

func TestDispatcher_SkipsEmailWithoutRecipient(t *testing.T) {
	email := NewMemorySender()
	d := NewDispatcher(email, nil, "", nil)

	ev := sampleEvent()
	ev.Recipient = ""
	require.NoError(t, d.WorkOrderCreated(context.Background(), ev))
	assert.Empty(t, email.Sent())
}

func TestDispatcher_CollectsErrors(t *testing.T) {
	email := NewMemorySender()
	email.Err = errors.New("relay down")
	client := &fakeMQTT{err: errors.New("not authorised"), completed: true}
	d := NewDispatcher(email, NewMQTTPublisher(client, time.Second), "", nil)

	err := d.WorkOrderCreated(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay down")
	assert.Contains(t, err.Error(), "not authorised")
	assert.Equal(t, "work_orders/created", client.topics[0])
}

func TestMQTTPublisher_Timeout(t *testing.T) {
	client := &fakeMQTT{completed: false}
	p := NewMQTTPublisher(client, 10*time.Millisecond)
	err := p.Publish(context.Background(), "t", []byte("{}"))
	assert.Error(t, err)
}

func TestSMTPSender(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{From: "bms@vivid.example"})
	assert.Error(t, err)

	sender, err := NewSMTPSender(SMTPConfig{Host: "smtp.vivid.example", From: "bms@vivid.example"})
	require.NoError(t, err)

	var gotAddr string
	var gotTo []string
	var gotMsg string
	sender.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err = sender.SendEmail(context.Background(), Email{To: "manager@vivid.example", Subject: "Hi", Body: "line1\nline2"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.vivid.example:587", gotAddr)
	assert.Equal(t, []string{"manager@vivid.example"}, gotTo)
	assert.True(t, strings.HasPrefix(gotMsg, "From: bms@vivid.example\r\n"))
	assert.Contains(t, gotMsg, "\r\n\r\nline1\r\nline2")

	err = sender.SendEmail(context.Background(), Email{To: "a@b.c\r\nBcc: x@y.z", Subject: "Hi"})
	assert.Error(t, err)
}
