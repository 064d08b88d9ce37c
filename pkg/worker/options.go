package worker

import "github.com/ThreeDotsLabs/watermill/message"

// Option is a function that configures a Worker.
type Option func(*Worker)

// WithSubscriber sets the Watermill subscriber for the worker.
func WithSubscriber(sub message.Subscriber) Option {
	return func(w *Worker) {
		w.subscriber = sub
	}
}

// WithTopic sets the topic the worker subscribes to.
func WithTopic(topic string) Option {
	return func(w *Worker) {
		w.topic = topic
	}
}

// WithHandler sets the per-message handler.
func WithHandler(h MessageHandler) Option {
	return func(w *Worker) {
		w.handler = h
	}
}

// WithConcurrency sets the number of concurrent message processors.
func WithConcurrency(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithLogger sets the logger for the worker.
func WithLogger(l Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithListener adds a lifecycle listener to the worker.
func WithListener(listener Listener) Option {
	return func(w *Worker) {
		w.listeners = append(w.listeners, listener)
	}
}
