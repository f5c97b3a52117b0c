package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/begari-sampath/crm-backend/internal/entity"
	"github.com/begari-sampath/crm-backend/internal/infra/http/middleware"
	"github.com/begari-sampath/crm-backend/internal/infra/queue"
	"github.com/begari-sampath/crm-backend/internal/usecase"
)

const DefaultPollInterval = 60 * time.Second

// ReminderPoller re-runs the follow-up classification on a fixed interval
// and publishes a reminder for every BDA follow-up entering the urgent or
// hourly window. Each (lead, class) pair is published once; entries age out
// after a day so a rescheduled follow-up can remind again.
type ReminderPoller struct {
	leadRepo    entity.LeadRepositoryInterface
	profileRepo entity.ProfileRepositoryInterface
	producer    queue.ReminderProducerInterface
	interval    time.Duration

	published map[string]time.Time
}

func NewReminderPoller(
	leadRepo entity.LeadRepositoryInterface,
	profileRepo entity.ProfileRepositoryInterface,
	producer queue.ReminderProducerInterface,
	interval time.Duration,
) *ReminderPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &ReminderPoller{
		leadRepo:    leadRepo,
		profileRepo: profileRepo,
		producer:    producer,
		interval:    interval,
		published:   make(map[string]time.Time),
	}
}

// Start runs until the context is cancelled; the ticker never outlives it.
func (p *ReminderPoller) Start(ctx context.Context) {
	log.Printf("🕒 reminder poller started (interval %s)", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// First pass immediately, like the dashboard did on mount.
	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("reminder poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *ReminderPoller) poll(ctx context.Context) {
	now := time.Now()
	p.prune(now)

	agents, err := p.profileRepo.ListByRole(ctx, entity.RoleBDA)
	if err != nil {
		log.Printf("reminder poller: failed to list agents: %v", err)
		return
	}

	leads, err := p.leadRepo.Select(ctx, entity.LeadFilter{})
	if err != nil {
		log.Printf("reminder poller: failed to load leads: %v", err)
		return
	}

	byAgent := make(map[string][]*entity.Lead)
	for _, lead := range leads {
		if lead.AssignedAgentID == nil {
			continue
		}
		byAgent[*lead.AssignedAgentID] = append(byAgent[*lead.AssignedAgentID], lead)
	}

	for _, agent := range agents {
		events := usecase.ClassifyFollowUps(byAgent[agent.ID], now)
		for _, reminder := range usecase.DueReminders(events, now) {
			key := fmt.Sprintf("%s/%s", reminder.Event.LeadID, reminder.Class)
			if _, done := p.published[key]; done {
				continue
			}

			payload := queue.ReminderPayload{
				LeadID:     reminder.Event.LeadID,
				LeadName:   reminder.Event.Title,
				DueAt:      reminder.Event.Date,
				Class:      string(reminder.Class),
				AgentID:    agent.ID,
				AgentName:  agent.Name,
				AgentEmail: agent.Email,
			}

			if err := p.producer.PublishReminder(ctx, payload); err != nil {
				log.Printf("reminder poller: publish failed for lead %s: %v", reminder.Event.LeadID, err)
				continue
			}

			p.published[key] = now
			middleware.RecordReminderPublished(string(reminder.Class))
		}
	}
}

func (p *ReminderPoller) prune(now time.Time) {
	for key, at := range p.published {
		if now.Sub(at) > 24*time.Hour {
			delete(p.published, key)
		}
	}
}
