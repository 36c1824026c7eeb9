package triageRepository

import (
	"PanicButton/internal/api/triage"
	"PanicButton/internal/entity"
	contextPkg "PanicButton/pkg/context"
	"PanicButton/pkg/redis"
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type redisRepository struct {
	client redis.IRedis
	ttl    time.Duration
	log    *logrus.Logger
}

func incidentKey(id string) string {
	return "incident:" + id
}

func autoFiredKey(id string) string {
	return "incident:" + id + ":auto_fired"
}

func (r *redisRepository) Create(ctx context.Context, incident entity.Incident) error {
	payload, err := json.MarshalToString(incident)
	if err != nil {
		return err
	}

	created, err := r.client.SetNX(ctx, incidentKey(incident.ID), payload, r.ttl)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id":  contextPkg.GetRequestID(ctx),
			"incident_id": incident.ID,
			"error":       err.Error(),
		}).Error("Failed to store incident")
		return err
	}
	if !created {
		return errors.New("incident " + incident.ID + " already exists")
	}

	return nil
}

func (r *redisRepository) Get(ctx context.Context, id string) (entity.Incident, error) {
	payload, err := r.client.Get(ctx, incidentKey(id))
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return entity.Incident{}, triage.ErrIncidentNotFound
		}
		return entity.Incident{}, err
	}

	var incident entity.Incident
	if err := json.UnmarshalFromString(payload, &incident); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id":  contextPkg.GetRequestID(ctx),
			"incident_id": id,
			"error":       err.Error(),
		}).Error("Stored incident is not valid JSON")
		return entity.Incident{}, err
	}

	return incident, nil
}

func (r *redisRepository) Update(ctx context.Context, id string, fn func(incident *entity.Incident) error) (entity.Incident, error) {
	var updated entity.Incident

	err := r.client.Update(ctx, incidentKey(id), r.ttl, func(current string) (string, error) {
		var incident entity.Incident
		if err := json.UnmarshalFromString(current, &incident); err != nil {
			return "", err
		}

		if err := fn(&incident); err != nil {
			return "", err
		}

		updated = incident
		return json.MarshalToString(incident)
	})
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return entity.Incident{}, triage.ErrIncidentNotFound
		}
		return entity.Incident{}, err
	}

	return updated, nil
}

// MarkAutoFired uses a SETNX guard key so only one process wins the
// transition, then mirrors the flag into the incident document.
func (r *redisRepository) MarkAutoFired(ctx context.Context, id string) (bool, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return false, err
	}

	won, err := r.client.SetNX(ctx, autoFiredKey(id), "1", r.ttl)
	if err != nil {
		return false, err
	}
	if !won {
		return false, nil
	}

	if _, err := r.Update(ctx, id, func(incident *entity.Incident) error {
		incident.AutoFired = true
		return nil
	}); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id":  contextPkg.GetRequestID(ctx),
			"incident_id": id,
			"error":       err.Error(),
		}).Warn("Auto-fire guard set but incident flag update failed")
	}

	return true, nil
}
