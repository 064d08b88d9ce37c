// Package push adapts Pub/Sub push deliveries to the same message stream the
// pull transport produces. An HTTP subscriber turns each POST into a
// transport message and writes the response status from the acknowledgment
// decision: 2xx on ack, 400 on undecodable input, 5xx on nack so the
// delivery service redelivers.
package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ThreeDotsLabs/watermill"
	wmhttp "github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi"

	"github.com/shge/meet-notify/internal"
)

// pushRequest is the wrapper the push-delivery service POSTs.
type pushRequest struct {
	Message      json.RawMessage `json:"message"`
	Subscription string          `json:"subscription"`
}

// UnmarshalRequest converts one push delivery into a transport message. A
// returned error makes the subscriber answer 400, dropping the delivery.
// Accepted deliveries are counted when the dispatcher receives them;
// rejected ones are counted here so every delivery lands in the received
// counter exactly once.
func UnmarshalRequest(topicURL string, r *http.Request) (*message.Message, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		internal.EventsReceived.Inc()
		internal.ParseErrors.Inc()
		return nil, fmt.Errorf("read push request: %w", err)
	}

	var req pushRequest
	if err := json.Unmarshal(body, &req); err != nil {
		internal.EventsReceived.Inc()
		internal.ParseErrors.Inc()
		return nil, fmt.Errorf("decode push request: %w", err)
	}
	if len(req.Message) == 0 {
		internal.EventsReceived.Inc()
		internal.ParseErrors.Inc()
		return nil, errors.New("push request missing message")
	}

	env, err := internal.EnvelopeFromPush(req.Message)
	if err != nil {
		internal.EventsReceived.Inc()
		internal.ParseErrors.Inc()
		return nil, err
	}
	return internal.MessageFromEnvelope(env), nil
}

// NewSubscriber builds the HTTP subscriber for push deliveries. The push
// path is the topic given at subscribe time. The router may carry additional
// routes and middleware (metrics, rate limiting); pass nil for a bare one.
func NewSubscriber(addr string, router chi.Router, logger watermill.LoggerAdapter) (*wmhttp.Subscriber, error) {
	return wmhttp.NewSubscriber(addr, wmhttp.SubscriberConfig{
		Router:               router,
		UnmarshalMessageFunc: UnmarshalRequest,
	}, logger)
}
