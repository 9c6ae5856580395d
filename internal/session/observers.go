package session

import (
	"context"

	"pieza-web/internal/model"
)

// Observers fans events out to every non-nil observer in order.
type Observers []Observer

func (o Observers) Observe(ctx context.Context, evt model.SearchCompleted) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ctx, evt)
		}
	}
}

func (o Observers) SearchStarted(ctx context.Context, sessionID, mode string) {
	for _, obs := range o {
		if so, ok := obs.(StartObserver); ok {
			so.SearchStarted(ctx, sessionID, mode)
		}
	}
}
