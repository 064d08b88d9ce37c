package worker

import "context"

// Listener provides hooks into the worker's lifecycle for logging, metrics, etc.
type Listener struct {
	// OnStart is called once the subscription is open.
	OnStart func(ctx context.Context)
	// OnExit is called when the worker stops.
	OnExit func(ctx context.Context)
}
