package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"ridepool/internal/domain"
	"ridepool/internal/redis"
	"ridepool/internal/repository"
)

// ModerationService removes users and their content on behalf of admins.
type ModerationService struct {
	txManager  repository.TxManager
	statsCache redis.StatsCacheInterface
	now        func() time.Time
}

// NewModerationService creates a new ModerationService.
// statsCache may be nil when caching is disabled.
func NewModerationService(txManager repository.TxManager, statsCache redis.StatsCacheInterface) *ModerationService {
	return &ModerationService{
		txManager:  txManager,
		statsCache: statsCache,
		now:        time.Now,
	}
}

// CascadeResult reports what a user deletion removed.
type CascadeResult struct {
	UserID                string
	RatingsDeleted        int64
	MessagesDeleted       int64
	ParticipationsDeleted int64
	RidesDeleted          int64
}

// DeleteUserCascade removes a non-admin user together with every rating,
// message, ride and ride participation that references them. Either all of it
// is removed or none of it is.
func (s *ModerationService) DeleteUserCascade(ctx context.Context, actorID, userID string) (*CascadeResult, error) {
	id, err := parseID(userID, ErrInvalidUserID)
	if err != nil {
		return nil, err
	}

	result := &CascadeResult{UserID: id}
	var affected []string

	err = s.txManager.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		// Row lock serialises concurrent deletes and role changes of the same user.
		user, err := repos.Users().GetByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, ErrUserNotFound, "lock user")
		}
		if user.IsAdmin() {
			return ErrAdminProtected
		}

		rated, err := repos.Ratings().RatedUserIDs(ctx, id)
		if err != nil {
			return fmt.Errorf("list rated users: %w", err)
		}
		coRiders, err := repos.Rides().CoRiderIDs(ctx, id)
		if err != nil {
			return fmt.Errorf("list co-riders: %w", err)
		}
		affected = append(rated, coRiders...)

		if result.RatingsDeleted, err = repos.Ratings().DeleteByUser(ctx, id); err != nil {
			return fmt.Errorf("delete ratings: %w", err)
		}
		if result.MessagesDeleted, err = repos.Messages().DeleteByUser(ctx, id); err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if result.ParticipationsDeleted, err = repos.Rides().DeleteParticipations(ctx, id); err != nil {
			return fmt.Errorf("delete ride participations: %w", err)
		}
		if result.RidesDeleted, err = repos.Rides().DeleteByCreator(ctx, id); err != nil {
			return fmt.Errorf("delete rides: %w", err)
		}
		if err := repos.Users().Delete(ctx, id); err != nil {
			return notFound(err, ErrUserNotFound, "delete user")
		}

		return repos.Audit().Append(ctx, s.auditEvent(actorID, domain.AuditUserDeleted, "user", id, map[string]any{
			"email":                  user.Email,
			"ratings_deleted":        result.RatingsDeleted,
			"messages_deleted":       result.MessagesDeleted,
			"participations_deleted": result.ParticipationsDeleted,
			"rides_deleted":          result.RidesDeleted,
		}))
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("actor_id", actorID).
		Str("user_id", id).
		Int64("ratings", result.RatingsDeleted).
		Int64("messages", result.MessagesDeleted).
		Int64("participations", result.ParticipationsDeleted).
		Int64("rides", result.RidesDeleted).
		Msg("user deleted")

	s.invalidateStats(ctx, append(affected, id)...)
	return result, nil
}

// DeleteRide removes a single ride and its participant entries.
func (s *ModerationService) DeleteRide(ctx context.Context, actorID, rideID string) error {
	id, err := parseID(rideID, ErrInvalidRideID)
	if err != nil {
		return err
	}

	var affected []string
	err = s.txManager.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ride, err := repos.Rides().GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrRideNotFound, "get ride")
		}
		if err := repos.Rides().Delete(ctx, id); err != nil {
			return notFound(err, ErrRideNotFound, "delete ride")
		}

		affected = append(affected, ride.CreatorID)
		for _, p := range ride.Participants {
			affected = append(affected, p.UserID)
		}

		return repos.Audit().Append(ctx, s.auditEvent(actorID, domain.AuditRideDeleted, "ride", id, map[string]any{
			"creator_id":   ride.CreatorID,
			"participants": len(ride.Participants),
		}))
	})
	if err != nil {
		return err
	}

	log.Info().Str("actor_id", actorID).Str("ride_id", id).Msg("ride deleted")
	s.invalidateStats(ctx, affected...)
	return nil
}

// DeleteRating removes a single rating.
func (s *ModerationService) DeleteRating(ctx context.Context, actorID, ratingID string) error {
	id, err := parseID(ratingID, ErrInvalidRatingID)
	if err != nil {
		return err
	}

	var ratedID string
	err = s.txManager.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		rating, err := repos.Ratings().GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrRatingNotFound, "get rating")
		}
		if err := repos.Ratings().Delete(ctx, id); err != nil {
			return notFound(err, ErrRatingNotFound, "delete rating")
		}
		ratedID = rating.RatedID

		return repos.Audit().Append(ctx, s.auditEvent(actorID, domain.AuditRatingDeleted, "rating", id, map[string]any{
			"rater_id": rating.RaterID,
			"rated_id": rating.RatedID,
			"score":    rating.Score,
		}))
	})
	if err != nil {
		return err
	}

	log.Info().Str("actor_id", actorID).Str("rating_id", id).Msg("rating deleted")
	s.invalidateStats(ctx, ratedID)
	return nil
}

// DeleteMessage removes a single message.
func (s *ModerationService) DeleteMessage(ctx context.Context, actorID, messageID string) error {
	id, err := parseID(messageID, ErrInvalidMessageID)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Messages().Delete(ctx, id); err != nil {
			return notFound(err, ErrMessageNotFound, "delete message")
		}
		return repos.Audit().Append(ctx, s.auditEvent(actorID, domain.AuditMessageDeleted, "message", id, nil))
	})
	if err != nil {
		return err
	}

	log.Info().Str("actor_id", actorID).Str("message_id", id).Msg("message deleted")
	return nil
}

func (s *ModerationService) auditEvent(actorID string, action domain.AuditAction, targetType, targetID string, details map[string]any) *domain.AuditEvent {
	return &domain.AuditEvent{
		ID:         uuid.New().String(),
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		CreatedAt:  s.now().UTC(),
	}
}

// invalidateStats drops cached stats after a committed change. Failures are
// logged; entries expire on their own.
func (s *ModerationService) invalidateStats(ctx context.Context, userIDs ...string) {
	if s.statsCache == nil {
		return
	}
	ids := uniqueIDs(userIDs...)
	if err := s.statsCache.InvalidateUserStats(ctx, ids...); err != nil {
		log.Warn().Err(err).Strs("user_ids", ids).Msg("failed to invalidate cached stats")
	}
}
