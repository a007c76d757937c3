package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"ridepool/internal/auth"
	"ridepool/internal/domain"
	"ridepool/internal/redis"
	"ridepool/internal/repository"
)

const minPasswordLength = 6

// AccountService handles registration, login and logout.
type AccountService struct {
	userRepo         repository.UserRepository
	hasher           auth.PasswordHasher
	tokens           *auth.TokenService
	revocations      redis.RevocationStoreInterface
	allowAdminSignup bool
	now              func() time.Time
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	userRepo repository.UserRepository,
	hasher auth.PasswordHasher,
	tokens *auth.TokenService,
	revocations redis.RevocationStoreInterface,
	allowAdminSignup bool,
) *AccountService {
	return &AccountService{
		userRepo:         userRepo,
		hasher:           hasher,
		tokens:           tokens,
		revocations:      revocations,
		allowAdminSignup: allowAdminSignup,
		now:              time.Now,
	}
}

// RegisterRequest contains the parameters for creating an account.
type RegisterRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      domain.Role // Optional: only honoured when admin signup is enabled
}

// LoginRequest contains the credentials for logging in.
type LoginRequest struct {
	Email    string
	Password string
}

// AuthResult is a signed access token and the account it belongs to.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Register creates a new account with the user role and signs a token for it.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = normalizeEmail(req.Email)

	if req.FirstName == "" || len(req.Password) < minPasswordLength {
		return nil, ErrInvalidRegistration
	}
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		return nil, ErrInvalidRegistration
	}

	role := domain.RoleUser
	if req.Role != "" && req.Role != domain.RoleUser {
		if !req.Role.Valid() {
			return nil, ErrInvalidRole
		}
		if s.allowAdminSignup {
			role = req.Role
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return s.issue(user)
}

// Login verifies credentials and signs a token. Unknown emails and wrong
// passwords produce the same error.
func (s *AccountService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if req.Email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !s.hasher.Verify(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Logout revokes the principal's token for the rest of its lifetime.
func (s *AccountService) Logout(ctx context.Context, p *auth.Principal) error {
	if p == nil || p.TokenID == "" {
		return auth.ErrUnauthenticated
	}
	if s.revocations == nil {
		return nil
	}

	if err := s.revocations.Revoke(ctx, p.TokenID, p.ExpiresAt.Sub(s.now())); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *AccountService) issue(user *domain.User) (*AuthResult, error) {
	token, claims, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt,
		User:      user,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
