package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/hirepro/funnel/internal/infra/http/middleware"
)

// GroupSender delivers the summary to the operations group. Implemented by
// the Telegram layer.
type GroupSender interface {
	SendGroupPost(ctx context.Context, payload GroupPostPayload) error
}

// AlertSender surfaces terminal delivery failures to an operator.
type AlertSender interface {
	SendGroupPostFailure(payload GroupPostPayload, sendErr error) error
}

// Worker drains the group-post queue. Sends are retried with exponential
// backoff; a message that still fails is dead-lettered and the operator is
// alerted by mail. The database transition that produced the message has
// already committed, so the worker never writes back.
type Worker struct {
	Channel *amqp.Channel
	Sender  GroupSender
	Alerts  AlertSender
}

func NewWorker(ch *amqp.Channel, sender GroupSender, alerts AlertSender) *Worker {
	return &Worker{
		Channel: ch,
		Sender:  sender,
		Alerts:  alerts,
	}
}

func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return err
	}

	log.Info().Str("queue", queueName).Msg("group post worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var payload GroupPostPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		log.Error().Err(err).Msg("malformed group post message")
		// Poison message; reject without requeue so the queue keeps moving.
		d.Nack(false, false)
		return
	}

	if err := w.send(ctx, payload); err != nil {
		log.Error().Err(err).Str("lead_id", payload.LeadID).Msg("group post delivery failed")
		middleware.RecordNotificationFailure("group")

		if w.Alerts != nil {
			if alertErr := w.Alerts.SendGroupPostFailure(payload, err); alertErr != nil {
				log.Error().Err(alertErr).Msg("operator alert failed")
				middleware.RecordNotificationFailure("mail")
			}
		}

		d.Nack(false, false) // to the DLQ
		return
	}

	middleware.RecordGroupPost()
	log.Info().Str("lead_id", payload.LeadID).Msg("group post delivered")
	d.Ack(false)
}

func (w *Worker) send(ctx context.Context, payload GroupPostPayload) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, w.Sender.SendGroupPost(ctx, payload)
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(5))
	return err
}
