package triageRepository

import (
	"PanicButton/internal/api/triage"
	"PanicButton/internal/entity"
	"PanicButton/pkg/redis"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeRedis is an in-process stand-in for redis.IRedis.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", redis.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeRedis) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value
	return true, nil
}

func (f *fakeRedis) Update(ctx context.Context, key string, expiration time.Duration, fn func(current string) (string, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.ErrKeyNotFound
	}
	next, err := fn(v)
	if err != nil {
		return err
	}
	f.data[key] = next
	return nil
}

func (f *fakeRedis) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeRedis) Close() error { return nil }

func repositories() map[string]func() Repository {
	return map[string]func() Repository{
		"memory": func() Repository { return New(nil, time.Hour, quietLogger()) },
		"redis":  func() Repository { return New(newFakeRedis(), time.Hour, quietLogger()) },
	}
}

func sampleIncident(id string) entity.Incident {
	return entity.Incident{
		ID:              id,
		Transcript:      "help me",
		LiveCoordinates: &entity.Coordinates{Latitude: 33.749, Longitude: -84.388},
		Archives:        map[string]entity.ArchiveRef{},
		CreatedAt:       time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestRepository_CreateGetUpdate(t *testing.T) {
	for name, build := range repositories() {
		t.Run(name, func(t *testing.T) {
			repo := build()
			ctx := context.Background()

			if err := repo.Create(ctx, sampleIncident("inc-1")); err != nil {
				t.Fatalf("create: %v", err)
			}
			if err := repo.Create(ctx, sampleIncident("inc-1")); err == nil {
				t.Fatal("expected duplicate create to fail")
			}

			updated, err := repo.Update(ctx, "inc-1", func(incident *entity.Incident) error {
				incident.Analysis = "assessment"
				incident.Archives["manual"] = entity.ArchiveRef{Name: "panic_encounter_1.zip"}
				return nil
			})
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			if updated.Analysis != "assessment" {
				t.Errorf("expected updated copy, got %+v", updated)
			}

			got, err := repo.Get(ctx, "inc-1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Analysis != "assessment" || got.Archives["manual"].Name != "panic_encounter_1.zip" {
				t.Errorf("update not persisted: %+v", got)
			}
		})
	}
}

func TestRepository_UpdateErrorDiscardsChanges(t *testing.T) {
	for name, build := range repositories() {
		t.Run(name, func(t *testing.T) {
			repo := build()
			ctx := context.Background()
			_ = repo.Create(ctx, sampleIncident("inc-2"))

			boom := errors.New("boom")
			_, err := repo.Update(ctx, "inc-2", func(incident *entity.Incident) error {
				incident.Analysis = "should not persist"
				return boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("expected fn error, got %v", err)
			}

			got, _ := repo.Get(ctx, "inc-2")
			if got.Analysis != "" {
				t.Errorf("expected no change, got %q", got.Analysis)
			}
		})
	}
}

func TestRepository_NotFound(t *testing.T) {
	for name, build := range repositories() {
		t.Run(name, func(t *testing.T) {
			repo := build()
			ctx := context.Background()

			if _, err := repo.Get(ctx, "missing"); !errors.Is(err, triage.ErrIncidentNotFound) {
				t.Errorf("get: expected ErrIncidentNotFound, got %v", err)
			}
			if _, err := repo.Update(ctx, "missing", func(*entity.Incident) error { return nil }); !errors.Is(err, triage.ErrIncidentNotFound) {
				t.Errorf("update: expected ErrIncidentNotFound, got %v", err)
			}
			if _, err := repo.MarkAutoFired(ctx, "missing"); !errors.Is(err, triage.ErrIncidentNotFound) {
				t.Errorf("mark: expected ErrIncidentNotFound, got %v", err)
			}
		})
	}
}

func TestRepository_MarkAutoFiredOnce(t *testing.T) {
	for name, build := range repositories() {
		t.Run(name, func(t *testing.T) {
			repo := build()
			ctx := context.Background()
			_ = repo.Create(ctx, sampleIncident("inc-3"))

			var wins int32
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					won, err := repo.MarkAutoFired(ctx, "inc-3")
					if err != nil {
						t.Errorf("mark: %v", err)
						return
					}
					if won {
						atomic.AddInt32(&wins, 1)
					}
				}()
			}
			wg.Wait()

			if wins != 1 {
				t.Fatalf("expected exactly one winner, got %d", wins)
			}

			got, _ := repo.Get(ctx, "inc-3")
			if !got.AutoFired {
				t.Error("expected incident to record the auto-fire")
			}
		})
	}
}

func TestMemoryRepository_Expiry(t *testing.T) {
	repo := New(nil, time.Minute, quietLogger()).(*memoryRepository)
	now := time.Now()
	repo.now = func() time.Time { return now }

	_ = repo.Create(context.Background(), sampleIncident("inc-4"))

	now = now.Add(2 * time.Minute)
	if _, err := repo.Get(context.Background(), "inc-4"); !errors.Is(err, triage.ErrIncidentNotFound) {
		t.Errorf("expected expired incident to be gone, got %v", err)
	}
}

func TestMemoryRepository_GetReturnsCopy(t *testing.T) {
	repo := New(nil, time.Hour, quietLogger())
	ctx := context.Background()
	_ = repo.Create(ctx, sampleIncident("inc-5"))

	got, _ := repo.Get(ctx, "inc-5")
	got.Archives["manual"] = entity.ArchiveRef{Name: "mutated"}
	got.LiveCoordinates.Latitude = 0

	again, _ := repo.Get(ctx, "inc-5")
	if _, ok := again.Archives["manual"]; ok {
		t.Error("mutating a returned incident leaked into the store")
	}
	if again.LiveCoordinates.Latitude != 33.749 {
		t.Error("mutating returned coordinates leaked into the store")
	}
}
