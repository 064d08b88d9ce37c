package internal

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/shge/meet-notify/pkg/meet"
)

const (
	testSpace      = "spaces/abc123"
	testMeetingURL = "https://meet.google.com/abc-defg-hij"
)

type fakeMeetAPI struct {
	sessions     map[string]*meet.ParticipantSession
	participants map[string]*meet.Participant
	conferences  map[string]*meet.ConferenceRecord
	recordings   map[string]*meet.Recording
	transcripts  map[string]*meet.Transcript
	calls        []string
	err          error
}

func (f *fakeMeetAPI) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeMeetAPI) GetConferenceRecord(ctx context.Context, name string) (*meet.ConferenceRecord, error) {
	f.record("conference:" + name)
	if f.err != nil {
		return nil, f.err
	}
	return f.conferences[name], nil
}

func (f *fakeMeetAPI) GetParticipantSession(ctx context.Context, name string) (*meet.ParticipantSession, error) {
	f.record("session:" + name)
	if f.err != nil {
		return nil, f.err
	}
	return f.sessions[name], nil
}

func (f *fakeMeetAPI) GetParticipant(ctx context.Context, name string) (*meet.Participant, error) {
	f.record("participant:" + name)
	if f.err != nil {
		return nil, f.err
	}
	return f.participants[name], nil
}

func (f *fakeMeetAPI) GetRecording(ctx context.Context, name string) (*meet.Recording, error) {
	f.record("recording:" + name)
	if f.err != nil {
		return nil, f.err
	}
	return f.recordings[name], nil
}

func (f *fakeMeetAPI) GetTranscript(ctx context.Context, name string) (*meet.Transcript, error) {
	f.record("transcript:" + name)
	if f.err != nil {
		return nil, f.err
	}
	return f.transcripts[name], nil
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) Send(ctx context.Context, text string) error {
	f.messages = append(f.messages, text)
	return f.err
}

func joinedAPI() *fakeMeetAPI {
	sessionName := "conferenceRecords/1/participants/2/participantSessions/3"
	return &fakeMeetAPI{
		sessions: map[string]*meet.ParticipantSession{
			sessionName: {
				Name:      sessionName,
				StartTime: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
				EndTime:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			},
		},
		participants: map[string]*meet.Participant{
			"conferenceRecords/1/participants/2": {
				Name:         "conferenceRecords/1/participants/2",
				SignedInUser: &meet.SignedInUser{User: "users/42", DisplayName: "Alice"},
			},
		},
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func joinedMessage(subject string) *message.Message {
	msg := message.NewMessage(watermill.NewUUID(), fixturePayload)
	msg.Metadata.Set("ce-type", meet.EventParticipantJoined)
	msg.Metadata.Set("ce-subject", subject)
	return msg
}

func acked(msg *message.Message) bool {
	select {
	case <-msg.Acked():
		return true
	default:
		return false
	}
}

func nacked(msg *message.Message) bool {
	select {
	case <-msg.Nacked():
		return true
	default:
		return false
	}
}

// TestHandleMessageParticipantJoined tests the full happy path: the session
// and participant are fetched, the webhook receives the formatted line, and
// the message is acknowledged.
func TestHandleMessageParticipantJoined(t *testing.T) {
	api := joinedAPI()
	notifier := &fakeNotifier{}
	d := NewDispatcher(testSpace, testMeetingURL, api, notifier, quietLogger())

	msg := joinedMessage(fixtureSubject)
	d.HandleMessage(context.Background(), msg)

	if !acked(msg) {
		t.Fatalf("expected message to be acknowledged")
	}
	if len(api.calls) != 2 {
		t.Fatalf("expected 2 detail fetches, got %v", api.calls)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected 1 webhook message, got %v", notifier.messages)
	}
	want := "Alice joined the meeting: " + testMeetingURL
	if notifier.messages[0] != want {
		t.Fatalf("expected %q, got %q", want, notifier.messages[0])
	}
}

// TestHandleMessageForeignSpace tests that an event for another space
// invokes no handler, sends nothing, and is not acknowledged.
func TestHandleMessageForeignSpace(t *testing.T) {
	api := joinedAPI()
	notifier := &fakeNotifier{}
	d := NewDispatcher(testSpace, testMeetingURL, api, notifier, quietLogger())

	msg := joinedMessage("//meet.googleapis.com/spaces/other999")
	d.HandleMessage(context.Background(), msg)

	if acked(msg) {
		t.Fatalf("foreign-space message must not be acknowledged")
	}
	if !nacked(msg) {
		t.Fatalf("foreign-space message should be nacked for redelivery")
	}
	if len(api.calls) != 0 {
		t.Fatalf("expected no detail fetches, got %v", api.calls)
	}
	if len(notifier.messages) != 0 {
		t.Fatalf("expected no webhook messages, got %v", notifier.messages)
	}
}

// TestHandleMessageUnknownEventType tests that an unrecognized event type
// for the right space is a no-op but still acknowledged.
func TestHandleMessageUnknownEventType(t *testing.T) {
	api := joinedAPI()
	d := NewDispatcher(testSpace, testMeetingURL, api, &fakeNotifier{}, quietLogger())

	msg := message.NewMessage(watermill.NewUUID(), []byte(`{}`))
	msg.Metadata.Set("ce-type", "google.workspace.meet.participant.v3.waved")
	msg.Metadata.Set("ce-subject", fixtureSubject)
	d.HandleMessage(context.Background(), msg)

	if !acked(msg) {
		t.Fatalf("unknown event type must still be acknowledged")
	}
	if len(api.calls) != 0 {
		t.Fatalf("expected no detail fetches, got %v", api.calls)
	}
}

// TestHandleMessageHandlerFailure tests that a failing detail fetch leaves
// the message unacknowledged so the transport can redeliver it.
func TestHandleMessageHandlerFailure(t *testing.T) {
	api := joinedAPI()
	api.err = errors.New("backend unavailable")
	d := NewDispatcher(testSpace, testMeetingURL, api, &fakeNotifier{}, quietLogger())

	msg := joinedMessage(fixtureSubject)
	d.HandleMessage(context.Background(), msg)

	if acked(msg) {
		t.Fatalf("message must not be acknowledged after a handler failure")
	}
	if !nacked(msg) {
		t.Fatalf("failed message should be nacked for redelivery")
	}
}

// TestHandleMessageWebhookFailure tests that a failing webhook delivery
// never blocks acknowledgment.
func TestHandleMessageWebhookFailure(t *testing.T) {
	api := joinedAPI()
	notifier := &fakeNotifier{err: errors.New("webhook returned 500 Internal Server Error")}
	d := NewDispatcher(testSpace, testMeetingURL, api, notifier, quietLogger())

	msg := joinedMessage(fixtureSubject)
	d.HandleMessage(context.Background(), msg)

	if !acked(msg) {
		t.Fatalf("webhook failure must not block acknowledgment")
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected the webhook to have been attempted")
	}
}

// TestHandleMessageMissingAttributes tests that a message without event
// type or subject is dropped without acknowledgment.
func TestHandleMessageMissingAttributes(t *testing.T) {
	d := NewDispatcher(testSpace, testMeetingURL, joinedAPI(), &fakeNotifier{}, quietLogger())

	msg := message.NewMessage(watermill.NewUUID(), fixturePayload)
	d.HandleMessage(context.Background(), msg)

	if acked(msg) {
		t.Fatalf("unreadable message must not be acknowledged")
	}
}

// TestDispatchParticipantLeft tests the left handler's webhook line.
func TestDispatchParticipantLeft(t *testing.T) {
	api := joinedAPI()
	notifier := &fakeNotifier{}
	d := NewDispatcher(testSpace, testMeetingURL, api, notifier, quietLogger())

	err := d.Dispatch(context.Background(), &Envelope{
		Type:    meet.EventParticipantLeft,
		Subject: fixtureSubject,
		Payload: fixturePayload,
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	want := "Alice left the meeting: " + testMeetingURL
	if len(notifier.messages) != 1 || notifier.messages[0] != want {
		t.Fatalf("expected %q, got %v", want, notifier.messages)
	}
}

// TestDispatchConferenceStarted tests that the conference handler fetches
// the record and sends no webhook message.
func TestDispatchConferenceStarted(t *testing.T) {
	api := &fakeMeetAPI{
		conferences: map[string]*meet.ConferenceRecord{
			"conferenceRecords/1": {
				Name:      "conferenceRecords/1",
				StartTime: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
			},
		},
	}
	notifier := &fakeNotifier{}
	d := NewDispatcher(testSpace, testMeetingURL, api, notifier, quietLogger())

	err := d.Dispatch(context.Background(), &Envelope{
		Type:    meet.EventConferenceStarted,
		Subject: fixtureSubject,
		Payload: []byte(`{"conferenceRecord":{"name":"conferenceRecords/1"}}`),
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(api.calls) != 1 || api.calls[0] != "conference:conferenceRecords/1" {
		t.Fatalf("expected one conference fetch, got %v", api.calls)
	}
	if len(notifier.messages) != 0 {
		t.Fatalf("conference events must not notify, got %v", notifier.messages)
	}
}

// TestDispatchRecordingReady tests the recording handler's detail fetch.
func TestDispatchRecordingReady(t *testing.T) {
	api := &fakeMeetAPI{
		recordings: map[string]*meet.Recording{
			"conferenceRecords/1/recordings/9": {Name: "conferenceRecords/1/recordings/9"},
		},
	}
	d := NewDispatcher(testSpace, testMeetingURL, api, &fakeNotifier{}, quietLogger())

	err := d.Dispatch(context.Background(), &Envelope{
		Type:    meet.EventRecordingReady,
		Subject: fixtureSubject,
		Payload: []byte(`{"recording":{"name":"conferenceRecords/1/recordings/9"}}`),
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(api.calls) != 1 || api.calls[0] != "recording:conferenceRecords/1/recordings/9" {
		t.Fatalf("expected one recording fetch, got %v", api.calls)
	}
}

// TestDispatchMissingResourceName tests that a payload without the expected
// resource key fails the handler.
func TestDispatchMissingResourceName(t *testing.T) {
	d := NewDispatcher(testSpace, testMeetingURL, joinedAPI(), &fakeNotifier{}, quietLogger())

	err := d.Dispatch(context.Background(), &Envelope{
		Type:    meet.EventParticipantJoined,
		Subject: fixtureSubject,
		Payload: []byte(`{}`),
	})
	if err == nil {
		t.Fatalf("expected error for payload without participantSession")
	}
}
