package internal

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// CloudEvents attribute keys carried by Workspace Events notifications.
const (
	attrEventType = "ce-type"
	attrSubject   = "ce-subject"
)

// Envelope is the normalized form of an inbound event notification,
// regardless of which wire shape delivered it.
type Envelope struct {
	// Type is the Workspace Events event type string.
	Type string
	// Subject is the resource the event concerns; it ends with the space
	// name for space-scoped events.
	Subject string
	// Payload is the JSON event body.
	Payload json.RawMessage
}

// EnvelopeFromMessage normalizes a pull-delivered Watermill message: the
// CloudEvents attributes live in the message metadata and the body is raw
// JSON bytes.
func EnvelopeFromMessage(msg *message.Message) (*Envelope, error) {
	eventType := msg.Metadata.Get(attrEventType)
	subject := msg.Metadata.Get(attrSubject)
	if eventType == "" || subject == "" {
		return nil, fmt.Errorf("message %s missing %s or %s attribute", msg.UUID, attrEventType, attrSubject)
	}
	return &Envelope{
		Type:    eventType,
		Subject: subject,
		Payload: json.RawMessage(msg.Payload),
	}, nil
}

// MessageFromEnvelope builds a transport message carrying the envelope's
// attributes in metadata, the inverse of EnvelopeFromMessage. The push
// endpoint uses it to feed deliveries into the same handler as the pull
// transport.
func MessageFromEnvelope(env *Envelope) *message.Message {
	msg := message.NewMessage(watermill.NewUUID(), []byte(env.Payload))
	msg.Metadata.Set(attrEventType, env.Type)
	msg.Metadata.Set(attrSubject, env.Subject)
	return msg
}

// pushMessage is the message object inside a Pub/Sub push request: the
// attributes are nested under their own key and the body is base64-encoded.
type pushMessage struct {
	Attributes map[string]string `json:"attributes"`
	Data       string            `json:"data"`
	MessageID  string            `json:"messageId"`
}

// EnvelopeFromPush normalizes the push wire shape into the same envelope the
// pull adapter produces.
func EnvelopeFromPush(raw []byte) (*Envelope, error) {
	var msg pushMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decode push message: %w", err)
	}

	eventType := msg.Attributes[attrEventType]
	subject := msg.Attributes[attrSubject]
	if eventType == "" || subject == "" {
		return nil, fmt.Errorf("push message %s missing %s or %s attribute", msg.MessageID, attrEventType, attrSubject)
	}

	payload, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		return nil, fmt.Errorf("decode push message body: %w", err)
	}
	return &Envelope{
		Type:    eventType,
		Subject: subject,
		Payload: json.RawMessage(payload),
	}, nil
}
