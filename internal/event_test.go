package internal

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	fixtureType    = "google.workspace.meet.participant.v2.joined"
	fixtureSubject = "//meet.googleapis.com/spaces/abc123"
)

var fixturePayload = []byte(`{"participantSession":{"name":"conferenceRecords/1/participants/2/participantSessions/3"}}`)

// TestEnvelopeAdaptersAgree tests that both wire shapes carrying the same
// underlying payload normalize to an identical envelope.
func TestEnvelopeAdaptersAgree(t *testing.T) {
	msg := message.NewMessage(watermill.NewUUID(), fixturePayload)
	msg.Metadata.Set("ce-type", fixtureType)
	msg.Metadata.Set("ce-subject", fixtureSubject)

	fromPull, err := EnvelopeFromMessage(msg)
	if err != nil {
		t.Fatalf("normalize pull message: %v", err)
	}

	pushBody, err := json.Marshal(map[string]interface{}{
		"attributes": map[string]string{
			"ce-type":    fixtureType,
			"ce-subject": fixtureSubject,
		},
		"data":      base64.StdEncoding.EncodeToString(fixturePayload),
		"messageId": "123",
	})
	if err != nil {
		t.Fatalf("marshal push body: %v", err)
	}
	fromPush, err := EnvelopeFromPush(pushBody)
	if err != nil {
		t.Fatalf("normalize push message: %v", err)
	}

	if fromPull.Type != fromPush.Type {
		t.Fatalf("type mismatch: %q vs %q", fromPull.Type, fromPush.Type)
	}
	if fromPull.Subject != fromPush.Subject {
		t.Fatalf("subject mismatch: %q vs %q", fromPull.Subject, fromPush.Subject)
	}
	if !bytes.Equal(fromPull.Payload, fromPush.Payload) {
		t.Fatalf("payload mismatch: %s vs %s", fromPull.Payload, fromPush.Payload)
	}
	if fromPull.Type != fixtureType || fromPull.Subject != fixtureSubject {
		t.Fatalf("unexpected envelope: %+v", fromPull)
	}
}

// TestMessageFromEnvelopeRoundTrip tests that the message built from an
// envelope normalizes back to the same envelope.
func TestMessageFromEnvelopeRoundTrip(t *testing.T) {
	env := &Envelope{
		Type:    fixtureType,
		Subject: fixtureSubject,
		Payload: json.RawMessage(fixturePayload),
	}

	back, err := EnvelopeFromMessage(MessageFromEnvelope(env))
	if err != nil {
		t.Fatalf("normalize converted message: %v", err)
	}
	if back.Type != env.Type || back.Subject != env.Subject {
		t.Fatalf("unexpected envelope: %+v", back)
	}
	if !bytes.Equal(back.Payload, env.Payload) {
		t.Fatalf("payload mismatch: %s vs %s", back.Payload, env.Payload)
	}
}

// TestEnvelopeFromMessageMissingAttributes tests that a message without the
// CloudEvents attributes is rejected.
func TestEnvelopeFromMessageMissingAttributes(t *testing.T) {
	msg := message.NewMessage(watermill.NewUUID(), fixturePayload)
	msg.Metadata.Set("ce-type", fixtureType)

	if _, err := EnvelopeFromMessage(msg); err == nil {
		t.Fatalf("expected error for missing ce-subject")
	}

	msg = message.NewMessage(watermill.NewUUID(), fixturePayload)
	msg.Metadata.Set("ce-subject", fixtureSubject)

	if _, err := EnvelopeFromMessage(msg); err == nil {
		t.Fatalf("expected error for missing ce-type")
	}
}

// TestEnvelopeFromPushBadBase64 tests that an undecodable push body is
// rejected.
func TestEnvelopeFromPushBadBase64(t *testing.T) {
	body := []byte(`{"attributes":{"ce-type":"t","ce-subject":"s"},"data":"%%%"}`)
	if _, err := EnvelopeFromPush(body); err == nil {
		t.Fatalf("expected error for invalid base64 data")
	}
}
