package triageRepository

import (
	"PanicButton/internal/api/triage"
	"PanicButton/internal/entity"
	contextPkg "PanicButton/pkg/context"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type memoryItem struct {
	incident  entity.Incident
	expiresAt time.Time
}

type memoryRepository struct {
	mu    sync.Mutex
	items map[string]memoryItem
	ttl   time.Duration
	now   func() time.Time
	log   *logrus.Logger
}

func (r *memoryRepository) Create(ctx context.Context, incident entity.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictExpiredLocked()

	if _, exists := r.items[incident.ID]; exists {
		return fmt.Errorf("incident %s already exists", incident.ID)
	}

	r.items[incident.ID] = memoryItem{incident: incident.Clone(), expiresAt: r.now().Add(r.ttl)}

	r.log.WithFields(logrus.Fields{
		"request_id":  contextPkg.GetRequestID(ctx),
		"incident_id": incident.ID,
	}).Debug("Incident stored in memory")

	return nil
}

func (r *memoryRepository) Get(ctx context.Context, id string) (entity.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.liveLocked(id)
	if !ok {
		return entity.Incident{}, triage.ErrIncidentNotFound
	}

	return item.incident.Clone(), nil
}

func (r *memoryRepository) Update(ctx context.Context, id string, fn func(incident *entity.Incident) error) (entity.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.liveLocked(id)
	if !ok {
		return entity.Incident{}, triage.ErrIncidentNotFound
	}

	next := item.incident.Clone()
	if err := fn(&next); err != nil {
		return entity.Incident{}, err
	}

	item.incident = next.Clone()
	r.items[id] = item

	return next, nil
}

func (r *memoryRepository) MarkAutoFired(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.liveLocked(id)
	if !ok {
		return false, triage.ErrIncidentNotFound
	}

	if item.incident.AutoFired {
		return false, nil
	}

	item.incident.AutoFired = true
	r.items[id] = item

	return true, nil
}

func (r *memoryRepository) liveLocked(id string) (memoryItem, bool) {
	item, ok := r.items[id]
	if !ok {
		return memoryItem{}, false
	}
	if r.now().After(item.expiresAt) {
		delete(r.items, id)
		return memoryItem{}, false
	}
	return item, true
}

func (r *memoryRepository) evictExpiredLocked() {
	now := r.now()
	for id, item := range r.items {
		if now.After(item.expiresAt) {
			delete(r.items, id)
		}
	}
}
