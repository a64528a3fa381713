package rabbit

import (
	"errors"
	"log"

	"github.com/rabbitmq/amqp091-go"

	"storefront/internal/events"
)

// Queue receives every outbox event via the fanout exchange.
const Queue = "storefront.notifications"

// Setup declares the exchange and queue, binds them, and starts the consumer
// loop in a goroutine. Deliveries are acked only after handling succeeds so a
// crashed consumer sees the event again.
func Setup(ch *amqp091.Channel, consumer *EventConsumer) error {
	if err := ch.ExchangeDeclare(
		events.Exchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	); err != nil {
		return err
	}

	q, err := ch.QueueDeclare(
		Queue,
		true, // durable
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	if err := ch.QueueBind(q.Name, "", events.Exchange, false, nil); err != nil {
		return err
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for m := range msgs {
			err := consumer.Handle(m.Body)
			if err == nil {
				m.Ack(false)
				continue
			}
			// A payload that can never decode is dropped; operational
			// failures (db timeouts and the like) go back on the queue.
			if errors.Is(err, errBadPayload) {
				log.Println("[RABBIT] [ERROR] dropping malformed event:", err)
				m.Nack(false, false)
				continue
			}
			log.Println("[RABBIT] [ERROR] event handling failed, requeueing:", err)
			m.Nack(false, true)
		}
	}()

	log.Println("[RABBIT] [INFO] consuming", q.Name, "bound to", events.Exchange)
	return nil
}
