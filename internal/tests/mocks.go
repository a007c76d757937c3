package tests

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ridepool/internal/domain"
	"ridepool/internal/redis"
	"ridepool/internal/repository"
)

// ──────────────────────────────────────────────
// IN-MEMORY STORE
// ──────────────────────────────────────────────

// State is a full copy of the store's records.
type State struct {
	Users    map[string]*domain.User
	Rides    map[string]*domain.Ride
	Ratings  map[string]*domain.Rating
	Messages map[string]*domain.Message
	Audit    []*domain.AuditEvent
}

func newState() *State {
	return &State{
		Users:    make(map[string]*domain.User),
		Rides:    make(map[string]*domain.Ride),
		Ratings:  make(map[string]*domain.Rating),
		Messages: make(map[string]*domain.Message),
	}
}

func (s *State) clone() *State {
	c := newState()
	for id, u := range s.Users {
		cp := *u
		c.Users[id] = &cp
	}
	for id, r := range s.Rides {
		c.Rides[id] = cloneRide(r)
	}
	for id, r := range s.Ratings {
		cp := *r
		c.Ratings[id] = &cp
	}
	for id, m := range s.Messages {
		cp := *m
		c.Messages[id] = &cp
	}
	for _, e := range s.Audit {
		cp := *e
		c.Audit = append(c.Audit, &cp)
	}
	return c
}

func cloneRide(r *domain.Ride) *domain.Ride {
	cp := *r
	cp.Participants = append([]domain.Participant(nil), r.Participants...)
	return &cp
}

// MemStore is an in-memory implementation of repository.TxManager and every
// repository. A transaction works on a private copy of the state that replaces
// the committed state only when the callback succeeds. Transactions are
// serialised, which stands in for row locks.
type MemStore struct {
	mu    sync.Mutex
	state *State

	// Counters for verification
	CommitCount   int32
	RollbackCount int32

	// Error injection
	DeleteByCreatorError      error
	DeleteParticipationsError error
	DeleteUserError           error
	UpdateRoleError           error
	AppendAuditError          error
	SummaryError              error
	CountJoinedError          error
	PanicOnDeleteMessages     bool
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{state: newState()}
}

var (
	_ repository.TxManager         = (*MemStore)(nil)
	_ repository.UserRepository    = (*memUsers)(nil)
	_ repository.RideRepository    = (*memRides)(nil)
	_ repository.RatingRepository  = (*memRatings)(nil)
	_ repository.MessageRepository = (*memMessages)(nil)
	_ repository.AuditRepository   = (*memAudit)(nil)
)

// RunInTx implements repository.TxManager.
func (m *MemStore) RunInTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	defer func() {
		if p := recover(); p != nil {
			atomic.AddInt32(&m.RollbackCount, 1)
			panic(p)
		}
	}()

	if err := fn(ctx, &memRepos{store: m, tx: work}); err != nil {
		atomic.AddInt32(&m.RollbackCount, 1)
		return err
	}

	m.state = work
	atomic.AddInt32(&m.CommitCount, 1)
	return nil
}

// Snapshot returns a copy of the committed state.
func (m *MemStore) Snapshot() *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Repos returns repositories that operate outside any transaction.
func (m *MemStore) Repos() repository.Repositories {
	return &memRepos{store: m}
}

func (m *MemStore) Users() repository.UserRepository       { return m.Repos().Users() }
func (m *MemStore) Rides() repository.RideRepository       { return m.Repos().Rides() }
func (m *MemStore) Ratings() repository.RatingRepository   { return m.Repos().Ratings() }
func (m *MemStore) Messages() repository.MessageRepository { return m.Repos().Messages() }
func (m *MemStore) Audit() repository.AuditRepository      { return m.Repos().Audit() }

// AddUser seeds a user.
func (m *MemStore) AddUser(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	cp := *u
	m.state.Users[u.ID] = &cp
}

// AddRide seeds a ride.
func (m *MemStore) AddRide(r *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Rides[r.ID] = cloneRide(r)
}

// AddRating seeds a rating.
func (m *MemStore) AddRating(r *domain.Rating) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.state.Ratings[r.ID] = &cp
}

// AddMessage seeds a message.
func (m *MemStore) AddMessage(msg *domain.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	m.state.Messages[msg.ID] = &cp
}

type memRepos struct {
	store *MemStore
	tx    *State // nil outside a transaction
}

func (r *memRepos) with(fn func(s *State) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.state)
}

func (r *memRepos) Users() repository.UserRepository       { return &memUsers{r} }
func (r *memRepos) Rides() repository.RideRepository       { return &memRides{r} }
func (r *memRepos) Ratings() repository.RatingRepository   { return &memRatings{r} }
func (r *memRepos) Messages() repository.MessageRepository { return &memMessages{r} }
func (r *memRepos) Audit() repository.AuditRepository      { return &memAudit{r} }

// ──────────────────────────────────────────────
// USERS
// ──────────────────────────────────────────────

type memUsers struct{ *memRepos }

func (r *memUsers) Create(ctx context.Context, user *domain.User) error {
	return r.with(func(s *State) error {
		for _, u := range s.Users {
			if strings.EqualFold(u.Email, user.Email) {
				return repository.ErrDuplicateEmail
			}
		}
		cp := *user
		s.Users[user.ID] = &cp
		return nil
	})
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.with(func(s *State) error {
		u, ok := s.Users[id]
		if !ok {
			return repository.ErrNotFound
		}
		cp := *u
		out = &cp
		return nil
	})
	return out, err
}

func (r *memUsers) GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.with(func(s *State) error {
		for _, u := range s.Users {
			if u.Email == email {
				cp := *u
				out = &cp
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *memUsers) GetAll(ctx context.Context) ([]*domain.User, error) {
	return r.filter(func(*domain.User) bool { return true })
}

func (r *memUsers) Search(ctx context.Context, query string) ([]*domain.User, error) {
	q := strings.ToLower(query)
	return r.filter(func(u *domain.User) bool {
		return strings.Contains(strings.ToLower(u.FirstName), q) ||
			strings.Contains(strings.ToLower(u.LastName), q) ||
			strings.Contains(strings.ToLower(u.Email), q)
	})
}

func (r *memUsers) filter(keep func(*domain.User) bool) ([]*domain.User, error) {
	var out []*domain.User
	err := r.with(func(s *State) error {
		for _, u := range s.Users {
			if keep(u) {
				cp := *u
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *memUsers) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	if r.store.UpdateRoleError != nil {
		return r.store.UpdateRoleError
	}
	return r.with(func(s *State) error {
		u, ok := s.Users[id]
		if !ok {
			return repository.ErrNotFound
		}
		u.Role = role
		return nil
	})
}

func (r *memUsers) Delete(ctx context.Context, id string) error {
	if r.store.DeleteUserError != nil {
		return r.store.DeleteUserError
	}
	return r.with(func(s *State) error {
		if _, ok := s.Users[id]; !ok {
			return repository.ErrNotFound
		}
		delete(s.Users, id)
		return nil
	})
}

func (r *memUsers) Count(ctx context.Context, role domain.Role) (int, error) {
	n := 0
	err := r.with(func(s *State) error {
		for _, u := range s.Users {
			if role == "" || u.Role == role {
				n++
			}
		}
		return nil
	})
	return n, err
}

// ──────────────────────────────────────────────
// RIDES
// ──────────────────────────────────────────────

type memRides struct{ *memRepos }

func (r *memRides) Create(ctx context.Context, ride *domain.Ride) error {
	return r.with(func(s *State) error {
		s.Rides[ride.ID] = cloneRide(ride)
		return nil
	})
}

func (r *memRides) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	var out *domain.Ride
	err := r.with(func(s *State) error {
		ride, ok := s.Rides[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = cloneRide(ride)
		return nil
	})
	return out, err
}

func (r *memRides) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	var out []*domain.Ride
	err := r.with(func(s *State) error {
		for _, ride := range s.Rides {
			out = append(out, cloneRide(ride))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *memRides) Delete(ctx context.Context, id string) error {
	return r.with(func(s *State) error {
		if _, ok := s.Rides[id]; !ok {
			return repository.ErrNotFound
		}
		delete(s.Rides, id)
		return nil
	})
}

func (r *memRides) DeleteByCreator(ctx context.Context, userID string) (int64, error) {
	if r.store.DeleteByCreatorError != nil {
		return 0, r.store.DeleteByCreatorError
	}
	var n int64
	err := r.with(func(s *State) error {
		for id, ride := range s.Rides {
			if ride.CreatorID == userID {
				delete(s.Rides, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *memRides) DeleteParticipations(ctx context.Context, userID string) (int64, error) {
	if r.store.DeleteParticipationsError != nil {
		return 0, r.store.DeleteParticipationsError
	}
	var n int64
	err := r.with(func(s *State) error {
		for _, ride := range s.Rides {
			kept := ride.Participants[:0]
			for _, p := range ride.Participants {
				if p.UserID == userID {
					n++
					continue
				}
				kept = append(kept, p)
			}
			ride.Participants = kept
		}
		return nil
	})
	return n, err
}

func (r *memRides) CoRiderIDs(ctx context.Context, creatorID string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	err := r.with(func(s *State) error {
		for _, ride := range s.Rides {
			if ride.CreatorID != creatorID {
				continue
			}
			for _, p := range ride.Participants {
				if !seen[p.UserID] {
					seen[p.UserID] = true
					out = append(out, p.UserID)
				}
			}
		}
		return nil
	})
	return out, err
}

func (r *memRides) CountByCreator(ctx context.Context, userID string, status domain.RideStatus) (int, error) {
	n := 0
	err := r.with(func(s *State) error {
		for _, ride := range s.Rides {
			if ride.CreatorID == userID && (status == "" || ride.Status == status) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *memRides) CountJoined(ctx context.Context, userID string, status domain.JoinStatus) (int, error) {
	if r.store.CountJoinedError != nil {
		return 0, r.store.CountJoinedError
	}
	n := 0
	err := r.with(func(s *State) error {
		for _, ride := range s.Rides {
			for _, p := range ride.Participants {
				if p.UserID == userID && p.Status == status {
					n++
				}
			}
		}
		return nil
	})
	return n, err
}

func (r *memRides) Count(ctx context.Context, status domain.RideStatus) (int, error) {
	n := 0
	err := r.with(func(s *State) error {
		for _, ride := range s.Rides {
			if status == "" || ride.Status == status {
				n++
			}
		}
		return nil
	})
	return n, err
}

// ──────────────────────────────────────────────
// RATINGS
// ──────────────────────────────────────────────

type memRatings struct{ *memRepos }

func (r *memRatings) Create(ctx context.Context, rating *domain.Rating) error {
	return r.with(func(s *State) error {
		cp := *rating
		s.Ratings[rating.ID] = &cp
		return nil
	})
}

func (r *memRatings) GetByID(ctx context.Context, id string) (*domain.Rating, error) {
	var out *domain.Rating
	err := r.with(func(s *State) error {
		rating, ok := s.Ratings[id]
		if !ok {
			return repository.ErrNotFound
		}
		cp := *rating
		out = &cp
		return nil
	})
	return out, err
}

func (r *memRatings) GetAll(ctx context.Context) ([]*domain.Rating, error) {
	var out []*domain.Rating
	err := r.with(func(s *State) error {
		for _, rating := range s.Ratings {
			cp := *rating
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *memRatings) Delete(ctx context.Context, id string) error {
	return r.with(func(s *State) error {
		if _, ok := s.Ratings[id]; !ok {
			return repository.ErrNotFound
		}
		delete(s.Ratings, id)
		return nil
	})
}

func (r *memRatings) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.with(func(s *State) error {
		for id, rating := range s.Ratings {
			if rating.RaterID == userID || rating.RatedID == userID {
				delete(s.Ratings, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *memRatings) RatedUserIDs(ctx context.Context, raterID string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	err := r.with(func(s *State) error {
		for _, rating := range s.Ratings {
			if rating.RaterID == raterID && !seen[rating.RatedID] {
				seen[rating.RatedID] = true
				out = append(out, rating.RatedID)
			}
		}
		return nil
	})
	return out, err
}

func (r *memRatings) Summary(ctx context.Context, ratedID string) (repository.RatingSummary, error) {
	if r.store.SummaryError != nil {
		return repository.RatingSummary{}, r.store.SummaryError
	}
	var summary repository.RatingSummary
	err := r.with(func(s *State) error {
		total := 0
		for _, rating := range s.Ratings {
			if rating.RatedID == ratedID {
				summary.Count++
				total += rating.Score
			}
		}
		if summary.Count > 0 {
			summary.Average = float64(total) / float64(summary.Count)
		}
		return nil
	})
	return summary, err
}

func (r *memRatings) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.with(func(s *State) error {
		n = len(s.Ratings)
		return nil
	})
	return n, err
}

// ──────────────────────────────────────────────
// MESSAGES
// ──────────────────────────────────────────────

type memMessages struct{ *memRepos }

func (r *memMessages) Create(ctx context.Context, message *domain.Message) error {
	return r.with(func(s *State) error {
		cp := *message
		s.Messages[message.ID] = &cp
		return nil
	})
}

func (r *memMessages) GetAll(ctx context.Context) ([]*domain.Message, error) {
	var out []*domain.Message
	err := r.with(func(s *State) error {
		for _, m := range s.Messages {
			cp := *m
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *memMessages) Delete(ctx context.Context, id string) error {
	return r.with(func(s *State) error {
		if _, ok := s.Messages[id]; !ok {
			return repository.ErrNotFound
		}
		delete(s.Messages, id)
		return nil
	})
}

func (r *memMessages) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	if r.store.PanicOnDeleteMessages {
		panic("message store exploded")
	}
	var n int64
	err := r.with(func(s *State) error {
		for id, m := range s.Messages {
			if m.SenderID == userID || m.ReceiverID == userID {
				delete(s.Messages, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *memMessages) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.with(func(s *State) error {
		n = len(s.Messages)
		return nil
	})
	return n, err
}

// ──────────────────────────────────────────────
// AUDIT
// ──────────────────────────────────────────────

type memAudit struct{ *memRepos }

func (r *memAudit) Append(ctx context.Context, event *domain.AuditEvent) error {
	if r.store.AppendAuditError != nil {
		return r.store.AppendAuditError
	}
	return r.with(func(s *State) error {
		cp := *event
		s.Audit = append(s.Audit, &cp)
		return nil
	})
}

func (r *memAudit) List(ctx context.Context, limit int) ([]*domain.AuditEvent, error) {
	var out []*domain.AuditEvent
	err := r.with(func(s *State) error {
		for i := len(s.Audit) - 1; i >= 0 && len(out) < limit; i-- {
			cp := *s.Audit[i]
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

// ──────────────────────────────────────────────
// MOCK STATS CACHE
// ──────────────────────────────────────────────

// MockStatsCache is a mock implementation of redis.StatsCacheInterface.
type MockStatsCache struct {
	mu          sync.Mutex
	entries     map[string]*redis.CachedStats
	invalidated []string

	GetCallCount int32
	SetCallCount int32

	GetError        error
	InvalidateError error
}

// NewMockStatsCache creates a new mock stats cache.
func NewMockStatsCache() *MockStatsCache {
	return &MockStatsCache{entries: make(map[string]*redis.CachedStats)}
}

func (m *MockStatsCache) GetUserStats(ctx context.Context, userID string) (*redis.CachedStats, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.entries[userID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MockStatsCache) SetUserStats(ctx context.Context, stats *redis.CachedStats) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *stats
	m.entries[stats.UserID] = &cp
	return nil
}

func (m *MockStatsCache) InvalidateUserStats(ctx context.Context, userIDs ...string) error {
	if m.InvalidateError != nil {
		return m.InvalidateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range userIDs {
		delete(m.entries, id)
		m.invalidated = append(m.invalidated, id)
	}
	return nil
}

// Has reports whether stats for userID are cached.
func (m *MockStatsCache) Has(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[userID]
	return ok
}

// Invalidated returns every user id passed to InvalidateUserStats.
func (m *MockStatsCache) Invalidated() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.invalidated...)
}

// ──────────────────────────────────────────────
// MOCK REVOCATION STORE
// ──────────────────────────────────────────────

// MockRevocationStore is a mock implementation of redis.RevocationStoreInterface.
type MockRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Duration

	IsRevokedError error
}

// NewMockRevocationStore creates a new mock revocation store.
func NewMockRevocationStore() *MockRevocationStore {
	return &MockRevocationStore{revoked: make(map[string]time.Duration)}
}

func (m *MockRevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = ttl
	return nil
}

func (m *MockRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if m.IsRevokedError != nil {
		return false, m.IsRevokedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[tokenID]
	return ok, nil
}

// TTL returns the ttl a token was revoked with.
func (m *MockRevocationStore) TTL(tokenID string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ttl, ok := m.revoked[tokenID]
	return ttl, ok
}

// ──────────────────────────────────────────────
// MOCK RESPONSE STORE
// ──────────────────────────────────────────────

// MockResponseStore is a mock implementation of redis.ResponseStoreInterface.
type MockResponseStore struct {
	mu        sync.Mutex
	responses map[string]*redis.StoredResponse
}

// NewMockResponseStore creates a new mock response store.
func NewMockResponseStore() *MockResponseStore {
	return &MockResponseStore{responses: make(map[string]*redis.StoredResponse)}
}

func (m *MockResponseStore) GetResponse(ctx context.Context, key string) (*redis.StoredResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.responses[key], nil
}

func (m *MockResponseStore) SaveResponse(ctx context.Context, key string, resp *redis.StoredResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.responses[key]; !ok {
		m.responses[key] = resp
	}
	return nil
}

// Len returns the number of stored responses.
func (m *MockResponseStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.responses)
}

var (
	_ redis.StatsCacheInterface      = (*MockStatsCache)(nil)
	_ redis.RevocationStoreInterface = (*MockRevocationStore)(nil)
	_ redis.ResponseStoreInterface   = (*MockResponseStore)(nil)
)
