package provisioning

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
)

const DefaultSlugAttempts = 5

var ErrSlugExhausted = errors.New("no free slug within the attempt budget")

// ExistsFunc reports whether a slug is already owned by a tenant.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Resolver finds a free slug for a candidate by appending a random numeric
// suffix on collision. Each attempt costs one existence query.
type Resolver struct {
	Attempts int
	Suffix   func() int
}

func NewResolver(attempts int) *Resolver {
	if attempts <= 0 {
		attempts = DefaultSlugAttempts
	}
	return &Resolver{
		Attempts: attempts,
		Suffix:   func() int { return rand.IntN(10000) },
	}
}

func (r *Resolver) Resolve(ctx context.Context, candidate string, exists ExistsFunc) (string, error) {
	if candidate == "" {
		return "", errors.New("empty slug candidate")
	}

	for attempt := 0; attempt < r.Attempts; attempt++ {
		slug := candidate
		if attempt > 0 {
			slug = fmt.Sprintf("%s-%d", candidate, r.Suffix())
		}
		taken, err := exists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", slug, err)
		}
		if !taken {
			return slug, nil
		}
	}
	return "", fmt.Errorf("%w: %q after %d attempts", ErrSlugExhausted, candidate, r.Attempts)
}
