package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// GroupPostPayload is the one-time operational summary posted to the
// operations group after a lead verifies. Published at most once per lead;
// the group-posted flag on the lead row gates it.
type GroupPostPayload struct {
	LeadID string `json:"lead_id"`
	Name   string `json:"name"`
	Age    string `json:"age"`
	Phone  string `json:"phone"`
	IP     string `json:"ip"`
	Code   string `json:"code"`
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{
		Conn: conn,
		Ch:   ch,
	}
}

func (p *RabbitMQProducer) PublishGroupPost(ctx context.Context, payload GroupPostPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal group post payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish group post: %w", err)
	}

	return nil
}
