package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shge/meet-notify/pkg/meet"
)

func (d *Dispatcher) onConferenceStarted(ctx context.Context, payload json.RawMessage) error {
	name, err := resourceName(payload, "conferenceRecord")
	if err != nil {
		return err
	}
	conference, err := d.api.GetConferenceRecord(ctx, name)
	if err != nil {
		return err
	}
	d.logger.Printf("conference %s started at %s", conference.Name, conference.StartTime.Format(time.RFC3339))
	return nil
}

func (d *Dispatcher) onConferenceEnded(ctx context.Context, payload json.RawMessage) error {
	name, err := resourceName(payload, "conferenceRecord")
	if err != nil {
		return err
	}
	conference, err := d.api.GetConferenceRecord(ctx, name)
	if err != nil {
		return err
	}
	d.logger.Printf("conference %s ended at %s", conference.Name, conference.EndTime.Format(time.RFC3339))
	return nil
}

func (d *Dispatcher) onParticipantJoined(ctx context.Context, payload json.RawMessage) error {
	session, display, err := d.participantFromPayload(ctx, payload)
	if err != nil {
		return err
	}
	d.logger.Printf("%s joined at %s", display, session.StartTime.Format(time.RFC3339))
	d.notify(ctx, fmt.Sprintf("%s joined the meeting: %s", display, d.meetingURL))
	return nil
}

func (d *Dispatcher) onParticipantLeft(ctx context.Context, payload json.RawMessage) error {
	session, display, err := d.participantFromPayload(ctx, payload)
	if err != nil {
		return err
	}
	d.logger.Printf("%s left at %s", display, session.EndTime.Format(time.RFC3339))
	d.notify(ctx, fmt.Sprintf("%s left the meeting: %s", display, d.meetingURL))
	return nil
}

func (d *Dispatcher) onRecordingReady(ctx context.Context, payload json.RawMessage) error {
	name, err := resourceName(payload, "recording")
	if err != nil {
		return err
	}
	recording, err := d.api.GetRecording(ctx, name)
	if err != nil {
		return err
	}
	d.logger.Printf("recording available at %s", recording.DriveDestination.ExportURI)
	return nil
}

func (d *Dispatcher) onTranscriptReady(ctx context.Context, payload json.RawMessage) error {
	name, err := resourceName(payload, "transcript")
	if err != nil {
		return err
	}
	transcript, err := d.api.GetTranscript(ctx, name)
	if err != nil {
		return err
	}
	d.logger.Printf("transcript available at %s", transcript.DocsDestination.ExportURI)
	return nil
}

// participantFromPayload resolves the session named in the payload plus the
// display string for its parent participant.
func (d *Dispatcher) participantFromPayload(ctx context.Context, payload json.RawMessage) (*meet.ParticipantSession, string, error) {
	name, err := resourceName(payload, "participantSession")
	if err != nil {
		return nil, "", err
	}
	session, err := d.api.GetParticipantSession(ctx, name)
	if err != nil {
		return nil, "", err
	}
	participantName, err := meet.ParticipantNameFromSession(name)
	if err != nil {
		return nil, "", err
	}
	participant, err := d.api.GetParticipant(ctx, participantName)
	if err != nil {
		return nil, "", err
	}
	return session, FormatParticipant(participant), nil
}
