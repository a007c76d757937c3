package main

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"ridepool/internal/app"
	"ridepool/internal/auth"
	"ridepool/internal/config"
	"ridepool/internal/domain"
	"ridepool/internal/repository"
	"ridepool/internal/repository/postgres"
)

const demoPassword = "password123"

// seed loads a small demo data set: one admin, three members, rides between
// them, ratings and messages. It stops at the first email that already exists.
func main() {
	cfg := config.Load()
	app.InitLogger("ridepool-seed", cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg.Database.Migrate = true
	db, err := app.NewDatabase(ctx, cfg.Database, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	hash, err := hasher.Hash(demoPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash demo password")
	}

	users := postgres.NewUserRepository(db)
	rides := postgres.NewRideRepository(db)
	ratings := postgres.NewRatingRepository(db)
	messages := postgres.NewMessageRepository(db)

	now := time.Now().UTC()
	accounts := []*domain.User{
		{FirstName: "Admin", LastName: "Test", Email: "admin@test.com", Role: domain.RoleAdmin},
		{FirstName: "Alice", LastName: "Martin", Email: "alice@test.com", Role: domain.RoleUser},
		{FirstName: "Bob", LastName: "Dubois", Email: "bob@test.com", Role: domain.RoleUser},
		{FirstName: "Chloe", LastName: "Bernard", Email: "chloe@test.com", Role: domain.RoleUser},
	}
	for _, u := range accounts {
		u.ID = uuid.New().String()
		u.PasswordHash = hash
		u.CreatedAt = now
		if err := users.Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				log.Info().Str("email", u.Email).Msg("user exists, skipping seed")
				return
			}
			log.Fatal().Err(err).Str("email", u.Email).Msg("failed to create user")
		}
	}
	alice, bob, chloe := accounts[1], accounts[2], accounts[3]

	demoRides := []*domain.Ride{
		{
			CreatorID: alice.ID, Origin: "Lyon", Destination: "Paris",
			DepartureAt: now.Add(-48 * time.Hour), Seats: 3, Status: domain.RideStatusClosed,
			Participants: []domain.Participant{
				{UserID: bob.ID, Status: domain.JoinStatusConfirmed, JoinedAt: now.Add(-72 * time.Hour)},
				{UserID: chloe.ID, Status: domain.JoinStatusRejected, JoinedAt: now.Add(-71 * time.Hour)},
			},
		},
		{
			CreatorID: bob.ID, Origin: "Paris", Destination: "Lille",
			DepartureAt: now.Add(24 * time.Hour), Seats: 2, Status: domain.RideStatusOpen,
			Participants: []domain.Participant{
				{UserID: alice.ID, Status: domain.JoinStatusPending, JoinedAt: now.Add(-time.Hour)},
			},
		},
	}
	for _, r := range demoRides {
		r.ID = uuid.New().String()
		r.CreatedAt = now
		if err := rides.Create(ctx, r); err != nil {
			log.Fatal().Err(err).Msg("failed to create ride")
		}
	}

	demoRatings := []*domain.Rating{
		{RaterID: bob.ID, RatedID: alice.ID, Score: 5, Comment: "Smooth trip"},
		{RaterID: chloe.ID, RatedID: alice.ID, Score: 4},
		{RaterID: alice.ID, RatedID: bob.ID, Score: 4, Comment: "On time"},
	}
	for _, r := range demoRatings {
		r.ID = uuid.New().String()
		r.CreatedAt = now
		if err := ratings.Create(ctx, r); err != nil {
			log.Fatal().Err(err).Msg("failed to create rating")
		}
	}

	demoMessages := []*domain.Message{
		{SenderID: bob.ID, ReceiverID: alice.ID, Content: "Is there room for a suitcase?"},
		{SenderID: alice.ID, ReceiverID: bob.ID, Content: "Yes, no problem."},
	}
	for _, m := range demoMessages {
		m.ID = uuid.New().String()
		m.CreatedAt = now
		if err := messages.Create(ctx, m); err != nil {
			log.Fatal().Err(err).Msg("failed to create message")
		}
	}

	log.Info().
		Int("users", len(accounts)).
		Int("rides", len(demoRides)).
		Int("ratings", len(demoRatings)).
		Int("messages", len(demoMessages)).
		Str("password", demoPassword).
		Msg("demo data loaded")
}
