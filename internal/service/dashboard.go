package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"ridepool/internal/domain"
	"ridepool/internal/repository"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// DashboardService serves the read-only admin views.
type DashboardService struct {
	userRepo    repository.UserRepository
	rideRepo    repository.RideRepository
	ratingRepo  repository.RatingRepository
	messageRepo repository.MessageRepository
	auditRepo   repository.AuditRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(
	userRepo repository.UserRepository,
	rideRepo repository.RideRepository,
	ratingRepo repository.RatingRepository,
	messageRepo repository.MessageRepository,
	auditRepo repository.AuditRepository,
) *DashboardService {
	return &DashboardService{
		userRepo:    userRepo,
		rideRepo:    rideRepo,
		ratingRepo:  ratingRepo,
		messageRepo: messageRepo,
		auditRepo:   auditRepo,
	}
}

// Totals counts the platform's records.
func (s *DashboardService) Totals(ctx context.Context) (*domain.DashboardTotals, error) {
	var totals domain.DashboardTotals

	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int, name string, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			if err != nil {
				return fmt.Errorf("count %s: %w", name, err)
			}
			*dst = n
			return nil
		})
	}

	count(&totals.TotalUsers, "users", func(ctx context.Context) (int, error) {
		return s.userRepo.Count(ctx, "")
	})
	count(&totals.TotalAdmins, "admins", func(ctx context.Context) (int, error) {
		return s.userRepo.Count(ctx, domain.RoleAdmin)
	})
	count(&totals.TotalRides, "rides", func(ctx context.Context) (int, error) {
		return s.rideRepo.Count(ctx, "")
	})
	count(&totals.OpenRides, "open rides", func(ctx context.Context) (int, error) {
		return s.rideRepo.Count(ctx, domain.RideStatusOpen)
	})
	count(&totals.TotalRatings, "ratings", s.ratingRepo.Count)
	count(&totals.TotalMessages, "messages", s.messageRepo.Count)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &totals, nil
}

// ListUsers returns all users, newest first.
func (s *DashboardService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.GetAll(ctx)
}

// SearchUsers returns users whose name or email contains query.
func (s *DashboardService) SearchUsers(ctx context.Context, query string) ([]*domain.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptySearchQuery
	}
	return s.userRepo.Search(ctx, query)
}

// ListRides returns all rides with their participants.
func (s *DashboardService) ListRides(ctx context.Context) ([]*domain.Ride, error) {
	return s.rideRepo.GetAll(ctx)
}

// ListRatings returns all ratings.
func (s *DashboardService) ListRatings(ctx context.Context) ([]*domain.Rating, error) {
	return s.ratingRepo.GetAll(ctx)
}

// ListMessages returns all messages.
func (s *DashboardService) ListMessages(ctx context.Context) ([]*domain.Message, error) {
	return s.messageRepo.GetAll(ctx)
}

// ListAudit returns the most recent audit events. Non-positive limits use the
// default and large ones are capped.
func (s *DashboardService) ListAudit(ctx context.Context, limit int) ([]*domain.AuditEvent, error) {
	switch {
	case limit <= 0:
		limit = defaultAuditLimit
	case limit > maxAuditLimit:
		limit = maxAuditLimit
	}
	return s.auditRepo.List(ctx, limit)
}
