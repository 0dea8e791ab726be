package monitor

import (
	"context"
	"log/slog"
)

// StatusReporter receives the human-readable progress message the
// monitor updates at every phase transition and on every caught
// error. It stands in for the hosting platform's status display;
// the default just logs.
type StatusReporter interface {
	SetMessage(ctx context.Context, message string)
}

type SlogStatus struct{}

func (SlogStatus) SetMessage(ctx context.Context, message string) {
	slog.InfoContext(ctx, "status", "message", message)
}
