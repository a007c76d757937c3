package handler

import (
	"time"

	"ridepool/internal/domain"
	"ridepool/internal/service"
)

// UserResponse is the HTTP response for user data. It never carries the
// password hash.
type UserResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// StatsResponse is the HTTP response for user stats.
type StatsResponse struct {
	AverageRating       float64 `json:"average_rating"`
	TotalRatings        int     `json:"total_ratings"`
	TotalRidesCreated   int     `json:"total_rides_created"`
	TotalRidesCompleted int     `json:"total_rides_completed"`
}

// ProfileResponse is a user merged with their stats.
type ProfileResponse struct {
	UserResponse
	StatsResponse
}

// ParticipantResponse is one entry of a ride's participant list.
type ParticipantResponse struct {
	UserID   string    `json:"user_id"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}

// RideResponse is the HTTP response for ride data.
type RideResponse struct {
	ID           string                `json:"id"`
	CreatorID    string                `json:"creator_id"`
	Origin       string                `json:"origin"`
	Destination  string                `json:"destination"`
	DepartureAt  time.Time             `json:"departure_at"`
	Seats        int                   `json:"seats"`
	Status       string                `json:"status"`
	Participants []ParticipantResponse `json:"participants"`
	CreatedAt    time.Time             `json:"created_at"`
}

// RatingResponse is the HTTP response for rating data.
type RatingResponse struct {
	ID        string    `json:"id"`
	RaterID   string    `json:"rater_id"`
	RatedID   string    `json:"rated_id"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageItemResponse is the HTTP response for message data.
type MessageItemResponse struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditEventResponse is the HTTP response for an audit event.
type AuditEventResponse struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id"`
	Action     string         `json:"action"`
	TargetType string         `json:"target_type"`
	TargetID   string         `json:"target_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TotalsResponse is the HTTP response for dashboard totals.
type TotalsResponse struct {
	TotalUsers    int `json:"total_users"`
	TotalAdmins   int `json:"total_admins"`
	TotalRides    int `json:"total_rides"`
	OpenRides     int `json:"open_rides"`
	TotalRatings  int `json:"total_ratings"`
	TotalMessages int `json:"total_messages"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toUserResponses(users []*domain.User) []UserResponse {
	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, toUserResponse(u))
	}
	return response
}

func toProfileResponse(p *service.Profile) ProfileResponse {
	return ProfileResponse{
		UserResponse: toUserResponse(p.User),
		StatsResponse: StatsResponse{
			AverageRating:       p.Stats.AverageRating,
			TotalRatings:        p.Stats.TotalRatings,
			TotalRidesCreated:   p.Stats.TotalRidesCreated,
			TotalRidesCompleted: p.Stats.TotalRidesCompleted,
		},
	}
}

func toRideResponses(rides []*domain.Ride) []RideResponse {
	response := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		participants := make([]ParticipantResponse, 0, len(r.Participants))
		for _, p := range r.Participants {
			participants = append(participants, ParticipantResponse{
				UserID:   p.UserID,
				Status:   string(p.Status),
				JoinedAt: p.JoinedAt,
			})
		}
		response = append(response, RideResponse{
			ID:           r.ID,
			CreatorID:    r.CreatorID,
			Origin:       r.Origin,
			Destination:  r.Destination,
			DepartureAt:  r.DepartureAt,
			Seats:        r.Seats,
			Status:       string(r.Status),
			Participants: participants,
			CreatedAt:    r.CreatedAt,
		})
	}
	return response
}

func toRatingResponses(ratings []*domain.Rating) []RatingResponse {
	response := make([]RatingResponse, 0, len(ratings))
	for _, r := range ratings {
		response = append(response, RatingResponse{
			ID:        r.ID,
			RaterID:   r.RaterID,
			RatedID:   r.RatedID,
			Score:     r.Score,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		})
	}
	return response
}

func toMessageResponses(messages []*domain.Message) []MessageItemResponse {
	response := make([]MessageItemResponse, 0, len(messages))
	for _, m := range messages {
		response = append(response, MessageItemResponse{
			ID:         m.ID,
			SenderID:   m.SenderID,
			ReceiverID: m.ReceiverID,
			Content:    m.Content,
			CreatedAt:  m.CreatedAt,
		})
	}
	return response
}

func toAuditResponses(events []*domain.AuditEvent) []AuditEventResponse {
	response := make([]AuditEventResponse, 0, len(events))
	for _, e := range events {
		response = append(response, AuditEventResponse{
			ID:         e.ID,
			ActorID:    e.ActorID,
			Action:     string(e.Action),
			TargetType: e.TargetType,
			TargetID:   e.TargetID,
			Details:    e.Details,
			CreatedAt:  e.CreatedAt,
		})
	}
	return response
}
