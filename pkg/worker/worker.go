// Package worker runs a long-lived subscription against a Watermill
// transport and feeds each inbound message to a handler. Acknowledgment is
// the handler's responsibility: the transport redelivers anything the
// handler does not ack.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
)

// MessageHandler processes one inbound message, including its
// acknowledgment decision.
type MessageHandler func(ctx context.Context, msg *message.Message)

// Worker subscribes to a single topic and dispatches messages concurrently,
// bounded by a semaphore.
type Worker struct {
	subscriber  message.Subscriber
	handler     MessageHandler
	topic       string
	concurrency int
	logger      Logger
	listeners   []Listener
}

// New creates a Worker with the given options.
func New(opts ...Option) *Worker {
	w := &Worker{
		concurrency: 1,
		logger:      stdLogger{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run subscribes and processes messages until the context is canceled.
// In-flight handlers are waited for before returning.
func (w *Worker) Run(ctx context.Context) error {
	if w.subscriber == nil {
		return errors.New("subscriber is required")
	}
	if w.handler == nil {
		return errors.New("handler is required")
	}
	if w.topic == "" {
		return errors.New("topic is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs, err := w.subscriber.Subscribe(ctx, w.topic)
	if err != nil {
		return err
	}

	w.notifyStart(ctx)
	defer w.notifyExit(ctx)

	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case msg, ok := <-msgs:
			if !ok {
				wg.Wait()
				return nil
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(msg *message.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				w.handler(ctx, msg)
			}(msg)
		}
	}
}

// Close shuts down the underlying subscriber.
func (w *Worker) Close() error {
	if w.subscriber == nil {
		return nil
	}
	return w.subscriber.Close()
}

func (w *Worker) notifyStart(ctx context.Context) {
	for _, listener := range w.listeners {
		if listener.OnStart != nil {
			listener.OnStart(ctx)
		}
	}
}

func (w *Worker) notifyExit(ctx context.Context) {
	for _, listener := range w.listeners {
		if listener.OnExit != nil {
			listener.OnExit(ctx)
		}
	}
}
