package domain

import "time"

// RideStatus represents the current status of a ride offer.
type RideStatus string

const (
	RideStatusOpen      RideStatus = "open"
	RideStatusClosed    RideStatus = "closed"
	RideStatusCancelled RideStatus = "cancelled"
)

// JoinStatus is the state of a single participant on a ride.
type JoinStatus string

const (
	JoinStatusPending   JoinStatus = "pending"
	JoinStatusConfirmed JoinStatus = "confirmed"
	JoinStatusRejected  JoinStatus = "rejected"
)

// Participant is a user who asked to join a ride.
type Participant struct {
	UserID   string
	Status   JoinStatus
	JoinedAt time.Time
}

// Ride represents a ride offered by a user.
type Ride struct {
	ID           string
	CreatorID    string
	Origin       string
	Destination  string
	DepartureAt  time.Time
	Seats        int
	Status       RideStatus
	Participants []Participant // Ordered by join time
	CreatedAt    time.Time
}
