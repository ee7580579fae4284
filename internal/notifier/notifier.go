// Package notifier broadcasts seat lifecycle events so other consumers
// (seat maps, analytics) can react to holds and bookings. Delivery is best
// effort: settlement never fails because a broker is down, so callers log
// and continue on error.
package notifier

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchange = "seat.events"

const (
	EventSeatsHeld     = "seats.held"
	EventSeatsBooked   = "seats.booked"
	EventSeatsReleased = "seats.released"
)

type SeatEvent struct {
	Event      string    `json:"event"`
	ShowtimeID int       `json:"showtime_id"`
	SeatIDs    []int     `json:"seat_ids"`
	OrderCode  string    `json:"order_code,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Notifier interface {
	Notify(ctx context.Context, event SeatEvent) error
}

// AMQPNotifier publishes seat events to a topic exchange, routed by event
// name. Messages are persistent so a restarting consumer catches up.
type AMQPNotifier struct {
	conn *amqp.Connection
}

func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}

	return &AMQPNotifier{conn: conn}, nil
}

func (n *AMQPNotifier) Notify(ctx context.Context, event SeatEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ch, err := n.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	return ch.PublishWithContext(ctx, exchange, event.Event, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
}

func (n *AMQPNotifier) Close() error {
	return n.conn.Close()
}
