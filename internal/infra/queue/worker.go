package queue

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ReminderSender delivers a reminder to the agent (email today, could be
// WhatsApp later).
type ReminderSender interface {
	SendReminder(ctx context.Context, payload ReminderPayload) error
}

type Worker struct {
	Channel *amqp.Channel
	Sender  ReminderSender
}

func NewWorker(ch *amqp.Channel, sender ReminderSender) *Worker {
	return &Worker{
		Channel: ch,
		Sender:  sender,
	}
}

// Start consumes the reminder queue until the context is cancelled.
func (w *Worker) Start(ctx context.Context, queueName string) {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack: manual is safer
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		log.Fatalf("❌ failed to register RabbitMQ consumer: %s", err)
	}

	log.Printf(" [*] reminder worker waiting on queue '%s'", queueName)

	for {
		select {
		case <-ctx.Done():
			log.Println("reminder worker stopped")
			return

		case d, ok := <-msgs:
			if !ok {
				log.Println("reminder worker: delivery channel closed")
				return
			}

			var payload ReminderPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				log.Printf("❌ reminder worker: invalid JSON: %s", err)
				// Poisoned message: reject without requeue so it dead-letters.
				d.Nack(false, false)
				continue
			}

			if err := w.Sender.SendReminder(ctx, payload); err != nil {
				log.Printf("❌ reminder worker: delivery failed for lead %s: %s", payload.LeadID, err)
				d.Nack(false, false)
				continue
			}

			log.Printf("✅ reminder delivered: lead=%s agent=%s class=%s", payload.LeadName, payload.AgentName, payload.Class)
			d.Ack(false)
		}
	}
}
