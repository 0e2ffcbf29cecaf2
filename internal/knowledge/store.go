// Package knowledge stores the practice's internal knowledge-base articles
// (protocols, intake checklists, pricing notes) in Redis.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound indicates the article does not exist.
	ErrNotFound = errors.New("knowledge: article not found")

	// ErrMissingTitle indicates a blank article title.
	ErrMissingTitle = errors.New("knowledge: title is required")
)

// Article is one knowledge-base entry.
type Article struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags,omitempty"`
	UpdatedBy string   `json:"updated_by,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// Store provides persistence for knowledge articles.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new knowledge store.
func NewStore(redisClient *redis.Client) *Store {
	if redisClient == nil {
		panic("knowledge: redis client cannot be nil")
	}
	return &Store{redis: redisClient}
}

const indexKey = "knowledge:index"

func (s *Store) key(id string) string {
	return fmt.Sprintf("knowledge:article:%s", id)
}

// Save stores a new article or replaces an existing one by ID.
func (s *Store) Save(ctx context.Context, a *Article) (*Article, error) {
	if strings.TrimSpace(a.Title) == "" {
		return nil, ErrMissingTitle
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if a.ID == "" {
		a.ID = uuid.NewString()
		a.CreatedAt = now
	} else if a.CreatedAt == "" {
		existing, err := s.Get(ctx, a.ID)
		if err == nil {
			a.CreatedAt = existing.CreatedAt
		} else {
			a.CreatedAt = now
		}
	}
	a.UpdatedAt = now

	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("knowledge: marshal article: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(a.ID), data, 0).Err(); err != nil {
		return nil, fmt.Errorf("knowledge: set article: %w", err)
	}
	if err := s.redis.SAdd(ctx, indexKey, a.ID).Err(); err != nil {
		return nil, fmt.Errorf("knowledge: index article: %w", err)
	}
	return a, nil
}

// Get retrieves one article.
func (s *Store) Get(ctx context.Context, id string) (*Article, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("knowledge: get article: %w", err)
	}

	var a Article
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("knowledge: unmarshal article: %w", err)
	}
	return &a, nil
}

// List returns every article. Entries whose payload has expired or been
// removed out-of-band are skipped and unindexed.
func (s *Store) List(ctx context.Context) ([]*Article, error) {
	ids, err := s.redis.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("knowledge: list index: %w", err)
	}

	out := make([]*Article, 0, len(ids))
	for _, id := range ids {
		a, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			_ = s.redis.SRem(ctx, indexKey, id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Delete removes an article and its index entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("knowledge: delete article: %w", err)
	}
	if err := s.redis.SRem(ctx, indexKey, id).Err(); err != nil {
		return fmt.Errorf("knowledge: unindex article: %w", err)
	}
	return nil
}
