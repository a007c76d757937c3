package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ridepool/internal/repository"
)

// parseID validates id as a UUID and returns its canonical form.
func parseID(id string, invalid error) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", invalid
	}
	return parsed.String(), nil
}

// notFound replaces repository.ErrNotFound with an entity-specific error and
// wraps anything else with op.
func notFound(err error, entityErr error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return entityErr
	}
	return fmt.Errorf("%s: %w", op, err)
}

// uniqueIDs drops empty and repeated ids while keeping order.
func uniqueIDs(ids ...string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
