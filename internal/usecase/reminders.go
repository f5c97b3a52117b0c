package usecase

import "time"

// Reminder windows mirror the dashboard's toast rules: a tight window for
// "due any minute now" and a wider one for "due within the hour". The urgent
// set is carved out of the hourly set by event id so nobody is pinged twice
// for the same follow-up.
const (
	UrgentWindow = 10 * time.Minute
	HourlyWindow = time.Hour
)

type ReminderClass string

const (
	ReminderUrgent ReminderClass = "urgent"
	ReminderHourly ReminderClass = "hourly"
)

type Reminder struct {
	Class ReminderClass `json:"class"`
	Event FollowUpEvent `json:"event"`
}

// Notifications returns the badge list: overdue events first, then today's.
func Notifications(events []FollowUpEvent) []FollowUpEvent {
	out := make([]FollowUpEvent, 0, len(events))
	out = append(out, EventsInBucket(events, BucketOverdue)...)
	out = append(out, EventsInBucket(events, BucketToday)...)
	return out
}

// DueReminders splits today's events into the urgent (<=10min) and hourly
// (<=1h, minus urgent) classes. Events already in the past are not reminded
// about; they live in the overdue badge instead.
func DueReminders(events []FollowUpEvent, now time.Time) []Reminder {
	urgent := eventsWithin(events, now, UrgentWindow)
	hourly := eventsWithin(events, now, HourlyWindow)

	urgentIDs := make(map[string]bool, len(urgent))
	reminders := make([]Reminder, 0, len(hourly))

	for _, ev := range urgent {
		urgentIDs[ev.LeadID] = true
		reminders = append(reminders, Reminder{Class: ReminderUrgent, Event: ev})
	}
	for _, ev := range hourly {
		if urgentIDs[ev.LeadID] {
			continue
		}
		reminders = append(reminders, Reminder{Class: ReminderHourly, Event: ev})
	}

	return reminders
}

func eventsWithin(events []FollowUpEvent, now time.Time, window time.Duration) []FollowUpEvent {
	end := now.Add(window)
	out := make([]FollowUpEvent, 0, len(events))
	for _, ev := range events {
		if ev.Date.Before(now) || ev.Date.After(end) {
			continue
		}
		out = append(out, ev)
	}
	return out
}
