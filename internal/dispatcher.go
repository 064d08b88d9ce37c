package internal

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/shge/meet-notify/pkg/meet"
	"github.com/shge/meet-notify/pkg/slack"
)

// ErrForeignSpace marks events whose subject belongs to a different space.
// They are left unacknowledged so the transport redelivers them until they
// expire; the drop is surfaced through EventsDropped and a log line.
var ErrForeignSpace = errors.New("event subject matches a different space")

// MeetAPI is the subset of the Meet client the handlers fetch detail with.
type MeetAPI interface {
	GetConferenceRecord(ctx context.Context, name string) (*meet.ConferenceRecord, error)
	GetParticipantSession(ctx context.Context, name string) (*meet.ParticipantSession, error)
	GetParticipant(ctx context.Context, name string) (*meet.Participant, error)
	GetRecording(ctx context.Context, name string) (*meet.Recording, error)
	GetTranscript(ctx context.Context, name string) (*meet.Transcript, error)
}

type handlerFunc func(ctx context.Context, payload json.RawMessage) error

// Dispatcher normalizes inbound messages, filters them by target space, and
// routes them to per-event-type handlers. It holds no mutable state and is
// safe for concurrent invocation by the transport's workers.
type Dispatcher struct {
	spaceName  string
	meetingURL string
	api        MeetAPI
	notifier   slack.Notifier
	logger     *log.Logger
	handlers   map[string]handlerFunc
}

// NewDispatcher wires the dispatch table for the six supported event types.
func NewDispatcher(spaceName, meetingURL string, api MeetAPI, notifier slack.Notifier, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = NewLogger("dispatcher")
	}
	d := &Dispatcher{
		spaceName:  spaceName,
		meetingURL: meetingURL,
		api:        api,
		notifier:   notifier,
		logger:     logger,
	}
	d.handlers = map[string]handlerFunc{
		meet.EventConferenceStarted: d.onConferenceStarted,
		meet.EventConferenceEnded:   d.onConferenceEnded,
		meet.EventParticipantJoined: d.onParticipantJoined,
		meet.EventParticipantLeft:   d.onParticipantLeft,
		meet.EventRecordingReady:    d.onRecordingReady,
		meet.EventTranscriptReady:   d.onTranscriptReady,
	}
	return d
}

// HandleMessage processes one pull-delivered message end to end, including
// the acknowledgment decision: ack after a successful or no-op dispatch,
// nack (redelivery) on normalization failure, foreign subject, or handler
// error.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg *message.Message) {
	EventsReceived.Inc()

	env, err := EnvelopeFromMessage(msg)
	if err != nil {
		ParseErrors.Inc()
		d.logger.Printf("dropping unreadable message: %v", err)
		msg.Nack()
		return
	}

	switch err := d.Dispatch(ctx, env); {
	case err == nil:
		msg.Ack()
	case errors.Is(err, ErrForeignSpace):
		msg.Nack()
	default:
		d.logger.Printf("unable to process %s event: %v", env.Type, err)
		msg.Nack()
	}
}

// Dispatch routes a normalized envelope to its handler. It returns
// ErrForeignSpace for events scoped to another space, nil for unknown event
// types (a deliberate no-op), and the handler's error otherwise.
func (d *Dispatcher) Dispatch(ctx context.Context, env *Envelope) error {
	d.logger.Printf("event_type: %s", env.Type)

	if !strings.HasSuffix(env.Subject, d.spaceName) {
		EventsDropped.Inc()
		d.logger.Printf("ignoring event for foreign subject %s", env.Subject)
		return ErrForeignSpace
	}

	handler := d.handlers[env.Type]
	if handler == nil {
		EventsHandled.WithLabelValues(env.Type, "skipped").Inc()
		return nil
	}

	if err := handler(ctx, env.Payload); err != nil {
		EventsHandled.WithLabelValues(env.Type, "error").Inc()
		return err
	}
	EventsHandled.WithLabelValues(env.Type, "ok").Inc()
	return nil
}

// notify forwards a message to the chat webhook. Delivery is best-effort:
// failures are logged and counted, never returned.
func (d *Dispatcher) notify(ctx context.Context, text string) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.Send(ctx, text); err != nil {
		WebhookErrors.Inc()
		d.logger.Printf("webhook delivery failed: %v", err)
	}
}

// resourceName extracts the nested resource name a Workspace Events payload
// carries under the given key.
func resourceName(payload json.RawMessage, key string) (string, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", err
	}
	raw, ok := body[key]
	if !ok {
		return "", errors.New("payload missing " + key)
	}
	var resource struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &resource); err != nil {
		return "", err
	}
	if resource.Name == "" {
		return "", errors.New("payload missing " + key + ".name")
	}
	return resource.Name, nil
}
