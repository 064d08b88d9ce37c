package meet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	meetv2 "google.golang.org/api/meet/v2"
	"google.golang.org/api/option"
)

const defaultEventsBaseURL = "https://workspaceevents.googleapis.com/v1beta"

// Client wraps the generated Meet API client for space and conference-record
// detail, plus a thin REST layer for the Workspace Events v1beta subscription
// API, which the generated surface does not cover at that version. It is
// stateless and safe for concurrent use; the caller supplies an authorized
// *http.Client with a request timeout already set.
type Client struct {
	svc           *meetv2.Service
	httpClient    *http.Client
	meetEndpoint  string
	eventsBaseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithMeetEndpoint overrides the Meet API endpoint.
func WithMeetEndpoint(u string) Option {
	return func(c *Client) {
		c.meetEndpoint = u
	}
}

// WithEventsBaseURL overrides the Workspace Events API base URL.
func WithEventsBaseURL(u string) Option {
	return func(c *Client) {
		c.eventsBaseURL = strings.TrimRight(u, "/")
	}
}

// NewClient creates a Meet API client on top of an authorized HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient:    httpClient,
		eventsBaseURL: defaultEventsBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.meetEndpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(c.meetEndpoint))
	}
	svc, err := meetv2.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("meet service: %w", err)
	}
	c.svc = svc
	return c, nil
}

// CreateSpace allocates a new meeting space.
func (c *Client) CreateSpace(ctx context.Context) (*Space, error) {
	space, err := c.svc.Spaces.Create(&meetv2.Space{}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create space: %w", err)
	}
	return spaceFromAPI(space), nil
}

// GetSpace fetches a space by resource name (spaces/{space}).
func (c *Client) GetSpace(ctx context.Context, name string) (*Space, error) {
	space, err := c.svc.Spaces.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get space %s: %w", name, err)
	}
	return spaceFromAPI(space), nil
}

// GetConferenceRecord fetches a conference record by resource name.
func (c *Client) GetConferenceRecord(ctx context.Context, name string) (*ConferenceRecord, error) {
	record, err := c.svc.ConferenceRecords.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get conference record %s: %w", name, err)
	}
	return conferenceRecordFromAPI(record), nil
}

// GetParticipantSession fetches a participant session by resource name.
func (c *Client) GetParticipantSession(ctx context.Context, name string) (*ParticipantSession, error) {
	session, err := c.svc.ConferenceRecords.Participants.ParticipantSessions.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get participant session %s: %w", name, err)
	}
	return participantSessionFromAPI(session), nil
}

// GetParticipant fetches a participant by resource name.
func (c *Client) GetParticipant(ctx context.Context, name string) (*Participant, error) {
	participant, err := c.svc.ConferenceRecords.Participants.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get participant %s: %w", name, err)
	}
	return participantFromAPI(participant), nil
}

// GetRecording fetches a recording artifact by resource name.
func (c *Client) GetRecording(ctx context.Context, name string) (*Recording, error) {
	recording, err := c.svc.ConferenceRecords.Recordings.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get recording %s: %w", name, err)
	}
	return recordingFromAPI(recording), nil
}

// GetTranscript fetches a transcript artifact by resource name.
func (c *Client) GetTranscript(ctx context.Context, name string) (*Transcript, error) {
	transcript, err := c.svc.ConferenceRecords.Transcripts.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get transcript %s: %w", name, err)
	}
	return transcriptFromAPI(transcript), nil
}

// SubscribeToSpace registers interest in the given event types for a space,
// delivered to the given Pub/Sub topic. The Workspace Events API reports
// failures in the response body, so a non-2xx status is returned to the
// caller for inspection rather than as an error.
func (c *Client) SubscribeToSpace(ctx context.Context, spaceName, topicName string, eventTypes []string) (*OperationResponse, error) {
	body := map[string]interface{}{
		"targetResource": "//meet.googleapis.com/" + spaceName,
		"eventTypes":     eventTypes,
		"payloadOptions": map[string]interface{}{
			"includeResource": false,
		},
		"notificationEndpoint": map[string]interface{}{
			"pubsubTopic": topicName,
		},
	}
	return c.doRaw(ctx, http.MethodPost, c.eventsBaseURL+"/subscriptions", body)
}

// ListSubscriptions lists subscriptions filtered server-side by event type.
func (c *Client) ListSubscriptions(ctx context.Context, eventType string) ([]Subscription, error) {
	query := url.Values{}
	query.Set("filter", fmt.Sprintf("event_types:%q", eventType))

	var out struct {
		Subscriptions []Subscription `json:"subscriptions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.eventsBaseURL+"/subscriptions?"+query.Encode(), nil, &out); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return out.Subscriptions, nil
}

// DeleteSubscription deletes a subscription by name. Remote errors are
// surfaced as-is in the response body.
func (c *Client) DeleteSubscription(ctx context.Context, name string) (*OperationResponse, error) {
	return c.doRaw(ctx, http.MethodDelete, c.eventsBaseURL+"/"+name, nil)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out interface{}) error {
	resp, err := c.do(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) doRaw(ctx context.Context, method, endpoint string, body interface{}) (*OperationResponse, error) {
	resp, err := c.do(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &OperationResponse{StatusCode: resp.StatusCode, Body: data}, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}
