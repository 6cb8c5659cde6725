package model

import (
	"strings"
	"time"
)

// ReservationStatus enumerates the lifecycle states of a reservation.
type ReservationStatus string

const (
	// StatusConfirmed reservations hold their tables and count towards
	// availability.
	StatusConfirmed ReservationStatus = "confirmed"
	// StatusPending reservations are recorded but do not hold tables.
	StatusPending ReservationStatus = "pending"
	// StatusCancelled is terminal.
	StatusCancelled ReservationStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// Reservation records a guest's booking of one or more tables at a
// point in time.  A combined booking lists every joined table in
// TableIDs; the rows live in reservation_tables.
//
// Fields:
//
//	ID              – primary key identifier.
//	Reference       – public lookup code handed to the guest.
//	CustomerName    – guest name.
//	CustomerEmail   – contact email (may be empty when a phone is set).
//	CustomerPhone   – contact phone (may be empty when an email is set).
//	PartySize       – number of guests, never more than the seats held.
//	ReservationTime – start of the booking in UTC.
//	TableIDs        – tables held by the booking.
//	Status          – confirmed, pending or cancelled.
//	SpecialRequests – free text from the guest.
//	CreatedAt       – creation timestamp.
//	UpdatedAt       – last update timestamp.
type Reservation struct {
	ID              uint64            `json:"id"`                         // reservations.id
	Reference       string            `json:"reference"`                  // reservations.reference
	CustomerName    string            `json:"customer_name"`              // reservations.customer_name
	CustomerEmail   string            `json:"customer_email,omitempty"`   // reservations.customer_email (nullable)
	CustomerPhone   string            `json:"customer_phone,omitempty"`   // reservations.customer_phone (nullable)
	PartySize       int               `json:"party_size"`                 // reservations.party_size
	ReservationTime time.Time         `json:"reservation_time"`           // reservations.reservation_time
	TableIDs        []uint64          `json:"table_ids"`                  // reservation_tables.table_id
	Status          ReservationStatus `json:"status"`                     // reservations.status
	SpecialRequests string            `json:"special_requests,omitempty"` // reservations.special_requests
	CreatedAt       time.Time         `json:"created_at"`                 // reservations.created_at
	UpdatedAt       time.Time         `json:"updated_at"`                 // reservations.updated_at
}

// HasContact reports whether the guest left at least one way to be reached.
func (r Reservation) HasContact() bool {
	return strings.TrimSpace(r.CustomerEmail) != "" || strings.TrimSpace(r.CustomerPhone) != ""
}

// Booking is one table held by a confirmed reservation, flattened with
// the table and section details the availability views need.
type Booking struct {
	ReservationID   uint64    `json:"reservation_id"`
	TableID         uint64    `json:"table_id"`
	TableLabel      string    `json:"table_label"`
	SectionID       uint64    `json:"section_id"`
	SectionName     string    `json:"section_name"`
	CustomerName    string    `json:"customer_name"`
	PartySize       int       `json:"party_size"`
	ReservationTime time.Time `json:"reservation_time"`
}

// Customer is a distinct guest derived from reservation history.
type Customer struct {
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Reservations int       `json:"reservations"`
	LastVisit    time.Time `json:"last_visit"`
}
