package tests

import (
	"time"

	"github.com/google/uuid"

	"ridepool/internal/domain"
)

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func seedUser(store *MemStore, first string, role domain.Role) *domain.User {
	u := &domain.User{
		ID:           uuid.New().String(),
		FirstName:    first,
		LastName:     "Test",
		Email:        first + "@example.com",
		PasswordHash: "hash",
		Role:         role,
		CreatedAt:    baseTime,
	}
	store.AddUser(u)
	return u
}

func seedRide(store *MemStore, creatorID string, status domain.RideStatus, participants ...domain.Participant) *domain.Ride {
	r := &domain.Ride{
		ID:           uuid.New().String(),
		CreatorID:    creatorID,
		Origin:       "Lyon",
		Destination:  "Paris",
		DepartureAt:  baseTime.Add(24 * time.Hour),
		Seats:        3,
		Status:       status,
		Participants: participants,
		CreatedAt:    baseTime,
	}
	store.AddRide(r)
	return r
}

func joined(userID string, status domain.JoinStatus) domain.Participant {
	return domain.Participant{UserID: userID, Status: status, JoinedAt: baseTime}
}

func seedRating(store *MemStore, raterID, ratedID string, score int) *domain.Rating {
	r := &domain.Rating{
		ID:        uuid.New().String(),
		RaterID:   raterID,
		RatedID:   ratedID,
		Score:     score,
		CreatedAt: baseTime,
	}
	store.AddRating(r)
	return r
}

func seedMessage(store *MemStore, senderID, receiverID string) *domain.Message {
	m := &domain.Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    "hello",
		CreatedAt:  baseTime,
	}
	store.AddMessage(m)
	return m
}

// referencesUser reports whether any ride, participant entry, rating or
// message in state still points at userID.
func referencesUser(state *State, userID string) bool {
	for _, r := range state.Rides {
		if r.CreatorID == userID {
			return true
		}
		for _, p := range r.Participants {
			if p.UserID == userID {
				return true
			}
		}
	}
	for _, r := range state.Ratings {
		if r.RaterID == userID || r.RatedID == userID {
			return true
		}
	}
	for _, m := range state.Messages {
		if m.SenderID == userID || m.ReceiverID == userID {
			return true
		}
	}
	return false
}
