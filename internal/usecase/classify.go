package usecase

import (
	"sort"
	"time"

	"github.com/begari-sampath/crm-backend/internal/entity"
)

type FollowUpBucket string

const (
	BucketOverdue  FollowUpBucket = "overdue"
	BucketToday    FollowUpBucket = "today"
	BucketUpcoming FollowUpBucket = "upcoming"
)

// FollowUpEvent is derived from a lead, never persisted.
type FollowUpEvent struct {
	LeadID string         `json:"lead_id"`
	Title  string         `json:"title"`
	Date   time.Time      `json:"date"`
	Bucket FollowUpBucket `json:"bucket"`
}

// ClassifyFollowUps buckets every lead that has a follow-up date relative to
// now. Leads without a follow-up date produce no event at all. The result is
// a pure function of (followUpDate, now): buckets compare calendar days in
// now's location, not 24h windows, so a date at 23:00 today is still "today"
// and midnight never drifts into "overdue".
func ClassifyFollowUps(leads []*entity.Lead, now time.Time) []FollowUpEvent {
	events := make([]FollowUpEvent, 0, len(leads))

	for _, lead := range leads {
		if lead.FollowUpDate == nil {
			continue
		}
		events = append(events, FollowUpEvent{
			LeadID: lead.ID,
			Title:  lead.Name,
			Date:   *lead.FollowUpDate,
			Bucket: BucketFor(*lead.FollowUpDate, now),
		})
	}

	// Deterministic output: by date, then lead id.
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].LeadID < events[j].LeadID
	})

	return events
}

// BucketFor classifies a single follow-up date against now.
func BucketFor(followUp, now time.Time) FollowUpBucket {
	day := startOfDay(followUp.In(now.Location()))
	today := startOfDay(now)

	switch {
	case day.Before(today):
		return BucketOverdue
	case day.Equal(today):
		return BucketToday
	default:
		return BucketUpcoming
	}
}

// EventsInBucket filters a classified sequence down to one bucket, keeping
// order.
func EventsInBucket(events []FollowUpEvent, bucket FollowUpBucket) []FollowUpEvent {
	out := make([]FollowUpEvent, 0, len(events))
	for _, ev := range events {
		if ev.Bucket == bucket {
			out = append(out, ev)
		}
	}
	return out
}

// EventsOnDay returns the events whose date falls on the same calendar day
// as the given date (the calendar view's per-day listing).
func EventsOnDay(events []FollowUpEvent, day time.Time) []FollowUpEvent {
	target := startOfDay(day)
	out := make([]FollowUpEvent, 0, len(events))
	for _, ev := range events {
		if startOfDay(ev.Date.In(day.Location())).Equal(target) {
			out = append(out, ev)
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
