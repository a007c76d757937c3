package redis

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultIdempotencyTTL is how long a replayable response is kept.
const DefaultIdempotencyTTL = 24 * time.Hour

const idempotencyPrefix = "idempotency:"

// StoredResponse is a response recorded for an idempotency key.
type StoredResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
	Headers    http.Header     `json:"headers"`
}

// ResponseStore keeps responses of mutating requests keyed by idempotency key.
type ResponseStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponseStore creates a new ResponseStore. A zero ttl uses DefaultIdempotencyTTL.
func NewResponseStore(client *redis.Client, ttl time.Duration) *ResponseStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &ResponseStore{client: client, ttl: ttl}
}

// GetResponse returns the stored response for key, or nil when there is none.
func (s *ResponseStore) GetResponse(ctx context.Context, key string) (*StoredResponse, error) {
	data, err := s.client.Get(ctx, idempotencyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var resp StoredResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SaveResponse stores resp under key unless a response is already stored.
func (s *ResponseStore) SaveResponse(ctx context.Context, key string, resp *StoredResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.client.SetNX(ctx, idempotencyPrefix+key, data, s.ttl).Err()
}
