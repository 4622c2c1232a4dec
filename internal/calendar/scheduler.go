package calendar

import (
	"context"
	"time"

	"github.com/andeslabs/eventos-platform/pkg/logging"
)

// FollowUp is a reminder block for the sales team to call a converted lead.
type FollowUp struct {
	Title       string
	Description string
	StartsAt    time.Time
	Duration    time.Duration
}

// Scheduler places follow-up reminders on the team calendar.
type Scheduler interface {
	ScheduleFollowUp(ctx context.Context, f FollowUp) (string, error)
}

// NoopScheduler logs follow-ups without creating calendar events. Used when
// Google credentials are not configured.
type NoopScheduler struct {
	logger *logging.Logger
}

// NewNoopScheduler creates a scheduler that only logs.
func NewNoopScheduler(logger *logging.Logger) *NoopScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &NoopScheduler{logger: logger}
}

// ScheduleFollowUp logs the follow-up and returns an empty event id.
func (s *NoopScheduler) ScheduleFollowUp(ctx context.Context, f FollowUp) (string, error) {
	s.logger.Info("calendar disabled: follow-up not scheduled",
		"title", f.Title, "starts_at", f.StartsAt)
	return "", nil
}
