package triageRepository

import (
	"PanicButton/internal/entity"
	"PanicButton/pkg/redis"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultTTL = 24 * time.Hour

// Repository stores incidents for the lifetime of one recording cycle.
type Repository interface {
	Create(ctx context.Context, incident entity.Incident) error
	Get(ctx context.Context, id string) (entity.Incident, error)
	// Update runs fn on a private copy and persists it when fn returns nil.
	Update(ctx context.Context, id string, fn func(incident *entity.Incident) error) (entity.Incident, error)
	// MarkAutoFired flips AutoFired to true and reports whether this call did it.
	MarkAutoFired(ctx context.Context, id string) (bool, error)
}

func New(redisClient redis.IRedis, ttl time.Duration, log *logrus.Logger) Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if redisClient != nil {
		return &redisRepository{client: redisClient, ttl: ttl, log: log}
	}

	return &memoryRepository{
		items: make(map[string]memoryItem),
		ttl:   ttl,
		now:   time.Now,
		log:   log,
	}
}
