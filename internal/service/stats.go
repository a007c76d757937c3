package service

import (
	"context"
	"fmt"
	"math/big"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"ridepool/internal/domain"
	"ridepool/internal/redis"
	"ridepool/internal/repository"
)

// StatsService derives per-user aggregate figures.
type StatsService struct {
	userRepo   repository.UserRepository
	rideRepo   repository.RideRepository
	ratingRepo repository.RatingRepository
	statsCache redis.StatsCacheInterface
}

// NewStatsService creates a new StatsService.
// statsCache may be nil when caching is disabled.
func NewStatsService(
	userRepo repository.UserRepository,
	rideRepo repository.RideRepository,
	ratingRepo repository.RatingRepository,
	statsCache redis.StatsCacheInterface,
) *StatsService {
	return &StatsService{
		userRepo:   userRepo,
		rideRepo:   rideRepo,
		ratingRepo: ratingRepo,
		statsCache: statsCache,
	}
}

// Profile is a user together with their derived stats.
type Profile struct {
	User  *domain.User
	Stats *domain.UserStats
}

// ComputeUserStats returns the stats of a user. A user with no related
// records gets all-zero stats.
//
// Completed rides are created rides that were closed plus joined rides whose
// participation was confirmed.
func (s *StatsService) ComputeUserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	id, err := parseID(userID, ErrInvalidUserID)
	if err != nil {
		return nil, err
	}

	if cached := s.cachedStats(ctx, id); cached != nil {
		return cached, nil
	}

	var (
		summary         repository.RatingSummary
		created         int
		createdClosed   int
		joinedConfirmed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.ratingRepo.Summary(gctx, id)
		if err != nil {
			return fmt.Errorf("summarize ratings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		created, err = s.rideRepo.CountByCreator(gctx, id, "")
		if err != nil {
			return fmt.Errorf("count created rides: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		createdClosed, err = s.rideRepo.CountByCreator(gctx, id, domain.RideStatusClosed)
		if err != nil {
			return fmt.Errorf("count closed rides: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		joinedConfirmed, err = s.rideRepo.CountJoined(gctx, id, domain.JoinStatusConfirmed)
		if err != nil {
			return fmt.Errorf("count joined rides: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &domain.UserStats{
		AverageRating:       roundOneDecimal(summary.Average),
		TotalRatings:        summary.Count,
		TotalRidesCreated:   created,
		TotalRidesCompleted: createdClosed + joinedConfirmed,
	}
	if summary.Count == 0 {
		stats.AverageRating = 0
	}

	s.storeStats(ctx, id, stats)
	return stats, nil
}

// Profile returns the user's public record merged with their stats.
func (s *StatsService) Profile(ctx context.Context, userID string) (*Profile, error) {
	id, err := parseID(userID, ErrInvalidUserID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "get user")
	}

	stats, err := s.ComputeUserStats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Stats: stats}, nil
}

func (s *StatsService) cachedStats(ctx context.Context, userID string) *domain.UserStats {
	if s.statsCache == nil {
		return nil
	}
	cached, err := s.statsCache.GetUserStats(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("stats cache read failed")
		return nil
	}
	if cached == nil {
		return nil
	}
	return &domain.UserStats{
		AverageRating:       cached.AverageRating,
		TotalRatings:        cached.TotalRatings,
		TotalRidesCreated:   cached.TotalRidesCreated,
		TotalRidesCompleted: cached.TotalRidesCompleted,
	}
}

func (s *StatsService) storeStats(ctx context.Context, userID string, stats *domain.UserStats) {
	if s.statsCache == nil {
		return
	}
	err := s.statsCache.SetUserStats(ctx, &redis.CachedStats{
		UserID:              userID,
		AverageRating:       stats.AverageRating,
		TotalRatings:        stats.TotalRatings,
		TotalRidesCreated:   stats.TotalRidesCreated,
		TotalRidesCompleted: stats.TotalRidesCompleted,
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("stats cache write failed")
	}
}

// roundOneDecimal rounds to one decimal on the exact binary value of v with
// ties going up. 87/20 is stored as 4.34999... and yields 4.3; 4.25 yields 4.3.
func roundOneDecimal(v float64) float64 {
	exact := new(big.Rat).SetFloat64(v)
	if exact == nil || v < 0 {
		return 0
	}
	scaled := exact.Mul(exact, big.NewRat(10, 1))
	tenths := new(big.Int).Quo(scaled.Num(), scaled.Denom())
	rest := new(big.Rat).Sub(scaled, new(big.Rat).SetInt(tenths))
	if rest.Cmp(big.NewRat(1, 2)) >= 0 {
		tenths.Add(tenths, big.NewInt(1))
	}
	rounded, _ := new(big.Rat).SetFrac(tenths, big.NewInt(10)).Float64()
	return rounded
}
