package triageService

import (
	"PanicButton/internal/api/triage"
	"sync"
)

// notificationHub fans server frames out to the sessions watching an
// incident.
type notificationHub struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]func(frame triage.ServerFrame)
}

func newNotificationHub() *notificationHub {
	return &notificationHub{subs: make(map[string]map[int]func(frame triage.ServerFrame))}
}

func (h *notificationHub) Subscribe(incidentID string, fn func(frame triage.ServerFrame)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := h.next
	if h.subs[incidentID] == nil {
		h.subs[incidentID] = make(map[int]func(frame triage.ServerFrame))
	}
	h.subs[incidentID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[incidentID], id)
			if len(h.subs[incidentID]) == 0 {
				delete(h.subs, incidentID)
			}
		})
	}
}

// Publish reports how many subscribers received the frame.
func (h *notificationHub) Publish(incidentID string, frame triage.ServerFrame) int {
	h.mu.RLock()
	fns := make([]func(frame triage.ServerFrame), 0, len(h.subs[incidentID]))
	for _, fn := range h.subs[incidentID] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(frame)
	}
	return len(fns)
}
