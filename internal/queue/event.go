// Package queue defines the reservation events exchanged over RabbitMQ
// and the publisher and consumer that carry them.
package queue

import "time"

// Event types.
const (
	EventConfirmed   = "reservation.confirmed"
	EventRescheduled = "reservation.rescheduled"
	EventCancelled   = "reservation.cancelled"
)

// ReservationEvent is published after a reservation is committed, moved
// or cancelled.  It carries enough for downstream consumers to log or
// notify the guest without querying the primary database.
type ReservationEvent struct {
	Type            string    `json:"type"`
	Reference       string    `json:"reference"`
	ReservationID   uint64    `json:"reservation_id"`
	CustomerName    string    `json:"customer_name"`
	CustomerEmail   string    `json:"customer_email,omitempty"`
	CustomerPhone   string    `json:"customer_phone,omitempty"`
	PartySize       int       `json:"party_size"`
	ReservationTime time.Time `json:"reservation_time"`
	LocalTime       string    `json:"local_time"` // restaurant time, "2006-01-02 15:04"
	Section         string    `json:"section,omitempty"`
	Tables          []string  `json:"tables"`
	OccurredAt      time.Time `json:"occurred_at"`
}
