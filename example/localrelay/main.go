// Command localrelay runs the event pipeline end to end against the
// in-memory transport: it publishes a synthetic participant-joined event,
// resolves it through stubbed Meet API responses, and prints the resulting
// notification instead of posting it to a webhook. Useful for trying the
// dispatcher without Google credentials.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/shge/meet-notify/internal"
	"github.com/shge/meet-notify/pkg/meet"
	"github.com/shge/meet-notify/pkg/worker"
)

const (
	spaceName  = "spaces/localdemo"
	meetingURL = "https://meet.google.com/abc-defg-hij"
	topic      = "meet-events"
	session    = "conferenceRecords/demo/participants/p1/participantSessions/s1"
)

type stubAPI struct{}

func (stubAPI) GetConferenceRecord(ctx context.Context, name string) (*meet.ConferenceRecord, error) {
	return &meet.ConferenceRecord{Name: name, StartTime: time.Now()}, nil
}

func (stubAPI) GetParticipantSession(ctx context.Context, name string) (*meet.ParticipantSession, error) {
	return &meet.ParticipantSession{Name: name, StartTime: time.Now()}, nil
}

func (stubAPI) GetParticipant(ctx context.Context, name string) (*meet.Participant, error) {
	return &meet.Participant{
		Name:         name,
		SignedInUser: &meet.SignedInUser{User: "users/demo", DisplayName: "Demo User"},
	}, nil
}

func (stubAPI) GetRecording(ctx context.Context, name string) (*meet.Recording, error) {
	return &meet.Recording{Name: name}, nil
}

func (stubAPI) GetTranscript(ctx context.Context, name string) (*meet.Transcript, error) {
	return &meet.Transcript{Name: name}, nil
}

type printNotifier struct{}

func (printNotifier) Send(ctx context.Context, text string) error {
	fmt.Printf("notification: %s\n", text)
	return nil
}

func main() {
	logger := internal.NewLogger("localrelay")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Persistent delivery so the publish below is not lost if it races the
	// worker's subscribe.
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8, Persistent: true}, watermill.NopLogger{})
	defer pubsub.Close()

	dispatcher := internal.NewDispatcher(spaceName, meetingURL, stubAPI{}, printNotifier{}, logger)

	wk := worker.New(
		worker.WithSubscriber(pubsub),
		worker.WithTopic(topic),
		worker.WithHandler(dispatcher.HandleMessage),
		worker.WithLogger(logger),
	)

	done := make(chan error, 1)
	go func() { done <- wk.Run(ctx) }()

	payload := fmt.Sprintf(`{"participantSession":{"name":%q}}`, session)
	msg := message.NewMessage(watermill.NewUUID(), []byte(payload))
	msg.Metadata.Set("ce-type", meet.EventParticipantJoined)
	msg.Metadata.Set("ce-subject", "//meet.googleapis.com/"+spaceName)
	if err := pubsub.Publish(topic, msg); err != nil {
		log.Fatalf("publish: %v", err)
	}

	select {
	case <-msg.Acked():
		logger.Println("event acked")
	case <-ctx.Done():
		logger.Println("timed out waiting for ack")
		os.Exit(1)
	}

	cancel()
	if err := <-done; err != nil {
		log.Fatalf("worker: %v", err)
	}
}
