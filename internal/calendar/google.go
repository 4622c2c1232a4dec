package calendar

import (
	"context"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/andeslabs/eventos-platform/pkg/logging"
)

// GoogleScheduler creates follow-up events on a Google Calendar using a
// service account.
type GoogleScheduler struct {
	service    *gcal.Service
	calendarID string
	logger     *logging.Logger
}

// NewGoogleScheduler builds a scheduler from service-account credentials
// JSON. calendarID defaults to the account's primary calendar.
func NewGoogleScheduler(ctx context.Context, credentialsJSON []byte, calendarID string, logger *logging.Logger) (*GoogleScheduler, error) {
	if len(credentialsJSON) == 0 {
		return nil, fmt.Errorf("calendar: credentials required")
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	if logger == nil {
		logger = logging.Default()
	}

	svc, err := gcal.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(gcal.CalendarEventsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to create google client: %w", err)
	}

	return &GoogleScheduler{
		service:    svc,
		calendarID: calendarID,
		logger:     logger,
	}, nil
}

var _ Scheduler = (*GoogleScheduler)(nil)

// ScheduleFollowUp inserts the reminder and returns the created event id.
func (s *GoogleScheduler) ScheduleFollowUp(ctx context.Context, f FollowUp) (string, error) {
	if f.Duration <= 0 {
		f.Duration = 45 * time.Minute
	}
	if f.StartsAt.IsZero() {
		f.StartsAt = time.Now().Add(24 * time.Hour)
	}

	event := &gcal.Event{
		Summary:     f.Title,
		Description: f.Description,
		Start: &gcal.EventDateTime{
			DateTime: f.StartsAt.Format(time.RFC3339),
		},
		End: &gcal.EventDateTime{
			DateTime: f.StartsAt.Add(f.Duration).Format(time.RFC3339),
		},
	}

	created, err := s.service.Events.Insert(s.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar: failed to insert event: %w", err)
	}

	s.logger.Info("follow-up scheduled",
		"event_id", created.Id, "calendar_id", s.calendarID, "starts_at", f.StartsAt)
	return created.Id, nil
}
