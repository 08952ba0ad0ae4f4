package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/usecase"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	exchangeName = "storefront.reconciliation"
	routingKey   = "order.reconcile"
	queueName    = "order.reconcile.q"
)

// RabbitAlerter implements usecase.ReconciliationAlerter. The queue is
// drained by the backoffice worker that refunds or re-purchases labels
// out of band.
type RabbitAlerter struct {
	ch *amqp.Channel
}

// NewRabbitAlerter sets up the exchange, queue, and binding once at startup.
func NewRabbitAlerter(ch *amqp.Channel) (*RabbitAlerter, error) {
	// 1. declare exchange (topic type, durable)
	if err := ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	// 2. declare queue
	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	// 3. bind queue → exchange
	if err := ch.QueueBind(
		q.Name,
		routingKey,
		exchangeName,
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("queue bind: %w", err)
	}

	// 4. enable publisher confirms: a reconciliation alert lost in the
	// broker defeats its purpose
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &RabbitAlerter{ch: ch}, nil
}

// Publish sends a reconciliation alert. Messages are persistent; the
// saga tolerates a publish failure (the log record is the fallback).
func (p *RabbitAlerter) Publish(ctx context.Context, alert usecase.ReconciliationAlert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		MessageId:    alert.AlertID,
		Body:         body,
	}

	if err := p.ch.PublishWithContext(
		ctx,
		exchangeName, // exchange
		routingKey,   // routing key
		false,        // mandatory
		false,        // immediate
		pub,
	); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}

var _ usecase.ReconciliationAlerter = (*RabbitAlerter)(nil)
