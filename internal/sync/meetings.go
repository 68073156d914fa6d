package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/johnwards/hubsync/internal/domain"
	"github.com/johnwards/hubsync/internal/metrics"
)

// syncMeetings pulls meetings modified since the account's watermark and
// queues one action per (meeting, associated contact) pair. Meetings with no
// associated contacts are skipped entirely.
func (s *accountSync) syncMeetings(ctx context.Context) error {
	lastPulled := s.account.LastPulled.Meetings
	now := s.now()
	s.log.Infow("meeting sync window", "from", lastPulled, "to", now)

	err := paginate(ctx, lastPulled, func(ctx context.Context, since time.Time, after int) (*domain.SearchResult, error) {
		req := searchRequest(propMeetingModified, meetingProperties, since, now, s.pageSize, after)

		result, err := Do(ctx, s.retrier, s.account, func(ctx context.Context) (*domain.SearchResult, error) {
			return s.api.Search(ctx, objectTypeMeetings, req)
		})
		if err != nil {
			return nil, fmt.Errorf("fetch meetings: %w", err)
		}
		metrics.PagesFetchedTotal.WithLabelValues(objectTypeMeetings).Inc()

		for _, meeting := range result.Results {
			emails, err := s.meetingContactEmails(ctx, meeting.ID)
			if err != nil {
				return nil, err
			}
			for _, email := range emails {
				s.queue.Push(ctx, meetingAction(meeting, email, lastPulled))
				metrics.ActionsEmittedTotal.WithLabelValues("meeting").Inc()
			}
		}
		return result, nil
	})
	if err != nil {
		return err
	}

	s.account.LastPulled.Meetings = now
	return nil
}

// meetingAction translates one (meeting, contact email) pair.
func meetingAction(meeting *domain.Object, email string, lastPulled time.Time) *domain.Action {
	created := meeting.CreatedAt.After(lastPulled)

	name, date := "Meeting Created", meeting.CreatedAt
	if !created {
		name, date = "Meeting Updated", meeting.UpdatedAt
	}

	return &domain.Action{
		Name:     name,
		Date:     date,
		Identity: email,
		Meeting: &domain.MeetingProperties{
			MeetingID: meeting.ID,
			Title:     meeting.Property("hs_meeting_title"),
			StartTime: meeting.Property("hs_meeting_start_time"),
			EndTime:   meeting.Property("hs_meeting_end_time"),
			Outcome:   meeting.Property("hs_meeting_outcome"),
		},
	}
}
