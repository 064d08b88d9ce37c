package meet

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	meetv2 "google.golang.org/api/meet/v2"
)

// Event types delivered by the Workspace Events API for a meeting space.
const (
	EventConferenceStarted  = "google.workspace.meet.conference.v2.started"
	EventConferenceEnded    = "google.workspace.meet.conference.v2.ended"
	EventParticipantJoined  = "google.workspace.meet.participant.v2.joined"
	EventParticipantLeft    = "google.workspace.meet.participant.v2.left"
	EventRecordingReady     = "google.workspace.meet.recording.v2.fileGenerated"
	EventTranscriptReady    = "google.workspace.meet.transcript.v2.fileGenerated"
)

// Space is a persistent meeting space events are scoped to.
type Space struct {
	Name        string `json:"name"`
	MeetingURI  string `json:"meetingUri,omitempty"`
	MeetingCode string `json:"meetingCode,omitempty"`
}

// ConferenceRecord describes a single conference held in a space.
type ConferenceRecord struct {
	Name      string    `json:"name"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Space     string    `json:"space,omitempty"`
}

// ParticipantSession is one participant's presence interval in a conference.
type ParticipantSession struct {
	Name      string    `json:"name"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// UserInfo carries the display name of an anonymous or phone participant.
type UserInfo struct {
	DisplayName string `json:"displayName"`
}

// SignedInUser identifies a participant signed in with a Google account.
type SignedInUser struct {
	User        string `json:"user"`
	DisplayName string `json:"displayName"`
}

// Participant is polymorphic over how the user joined: exactly one of the
// three user fields is populated by the API.
type Participant struct {
	Name          string        `json:"name"`
	AnonymousUser *UserInfo     `json:"anonymousUser,omitempty"`
	SignedInUser  *SignedInUser `json:"signedinUser,omitempty"`
	PhoneUser     *UserInfo     `json:"phoneUser,omitempty"`
}

// IdentityKind tags which participant variant is populated.
type IdentityKind int

const (
	IdentityUnknown IdentityKind = iota
	IdentityAnonymous
	IdentitySignedIn
	IdentityPhone
)

// Identity is the resolved participant variant.
type Identity struct {
	Kind        IdentityKind
	DisplayName string
	// User is the signed-in account resource name, empty for other kinds.
	User string
}

// Identity resolves the populated variant, checking anonymous, signed-in and
// phone in that order. A participant with no variant set yields
// IdentityUnknown.
func (p *Participant) Identity() Identity {
	switch {
	case p.AnonymousUser != nil:
		return Identity{Kind: IdentityAnonymous, DisplayName: p.AnonymousUser.DisplayName}
	case p.SignedInUser != nil:
		return Identity{Kind: IdentitySignedIn, DisplayName: p.SignedInUser.DisplayName, User: p.SignedInUser.User}
	case p.PhoneUser != nil:
		return Identity{Kind: IdentityPhone, DisplayName: p.PhoneUser.DisplayName}
	default:
		return Identity{Kind: IdentityUnknown}
	}
}

// Recording is a conference recording artifact.
type Recording struct {
	Name             string `json:"name"`
	State            string `json:"state,omitempty"`
	DriveDestination struct {
		File      string `json:"file,omitempty"`
		ExportURI string `json:"exportUri,omitempty"`
	} `json:"driveDestination"`
}

// Transcript is a conference transcript artifact.
type Transcript struct {
	Name            string `json:"name"`
	State           string `json:"state,omitempty"`
	DocsDestination struct {
		Document  string `json:"document,omitempty"`
		ExportURI string `json:"exportUri,omitempty"`
	} `json:"docsDestination"`
}

// Subscription is a Workspace Events registration mapping a target resource
// and event-type set to a Pub/Sub delivery endpoint.
type Subscription struct {
	Name                 string   `json:"name"`
	UID                  string   `json:"uid,omitempty"`
	TargetResource       string   `json:"targetResource"`
	EventTypes           []string `json:"eventTypes"`
	State                string   `json:"state,omitempty"`
	NotificationEndpoint struct {
		PubsubTopic string `json:"pubsubTopic"`
	} `json:"notificationEndpoint"`
	PayloadOptions struct {
		IncludeResource bool `json:"includeResource"`
	} `json:"payloadOptions"`
	TTL string `json:"ttl,omitempty"`
}

// OperationResponse is the raw outcome of a Workspace Events call. The API
// reports failures in the body, so callers inspect StatusCode and Body
// instead of relying on an error.
type OperationResponse struct {
	StatusCode int
	Body       json.RawMessage
}

// OK reports whether the remote call succeeded.
func (r *OperationResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// The generated Meet API client carries timestamps as RFC3339 strings and
// splits the participant variants over its own types; the converters below
// map its responses onto the domain types the handlers work with.

func spaceFromAPI(s *meetv2.Space) *Space {
	return &Space{
		Name:        s.Name,
		MeetingURI:  s.MeetingUri,
		MeetingCode: s.MeetingCode,
	}
}

func conferenceRecordFromAPI(r *meetv2.ConferenceRecord) *ConferenceRecord {
	return &ConferenceRecord{
		Name:      r.Name,
		StartTime: parseTime(r.StartTime),
		EndTime:   parseTime(r.EndTime),
		Space:     r.Space,
	}
}

func participantSessionFromAPI(s *meetv2.ParticipantSession) *ParticipantSession {
	return &ParticipantSession{
		Name:      s.Name,
		StartTime: parseTime(s.StartTime),
		EndTime:   parseTime(s.EndTime),
	}
}

func participantFromAPI(p *meetv2.Participant) *Participant {
	out := &Participant{Name: p.Name}
	if p.AnonymousUser != nil {
		out.AnonymousUser = &UserInfo{DisplayName: p.AnonymousUser.DisplayName}
	}
	if p.SignedinUser != nil {
		out.SignedInUser = &SignedInUser{User: p.SignedinUser.User, DisplayName: p.SignedinUser.DisplayName}
	}
	if p.PhoneUser != nil {
		out.PhoneUser = &UserInfo{DisplayName: p.PhoneUser.DisplayName}
	}
	return out
}

func recordingFromAPI(r *meetv2.Recording) *Recording {
	out := &Recording{Name: r.Name, State: r.State}
	if r.DriveDestination != nil {
		out.DriveDestination.File = r.DriveDestination.File
		out.DriveDestination.ExportURI = r.DriveDestination.ExportUri
	}
	return out
}

func transcriptFromAPI(t *meetv2.Transcript) *Transcript {
	out := &Transcript{Name: t.Name, State: t.State}
	if t.DocsDestination != nil {
		out.DocsDestination.Document = t.DocsDestination.Document
		out.DocsDestination.ExportURI = t.DocsDestination.ExportUri
	}
	return out
}

// parseTime tolerates the empty strings the API uses for open intervals.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ParticipantNameFromSession derives the parent participant resource name
// from a participant session name, i.e.
// conferenceRecords/{c}/participants/{p}/participantSessions/{s} becomes
// conferenceRecords/{c}/participants/{p}.
func ParticipantNameFromSession(sessionName string) (string, error) {
	parts := strings.Split(sessionName, "/")
	if len(parts) != 6 || parts[0] != "conferenceRecords" || parts[2] != "participants" || parts[4] != "participantSessions" {
		return "", fmt.Errorf("not a participant session name: %q", sessionName)
	}
	return strings.Join(parts[:4], "/"), nil
}
