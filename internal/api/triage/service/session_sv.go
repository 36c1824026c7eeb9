package triageService

import (
	"PanicButton/internal/api/triage"
	"PanicButton/internal/entity"
	"PanicButton/pkg/geo"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Session drives one websocket connection through
// Idle -> Recording -> Finalizing -> Classified. Classification runs at most
// once per recording, either on the final frame or when the grace timer
// expires after stop.
type Session struct {
	mu sync.Mutex
	wg sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
	log    *logrus.Logger

	incidents IncidentDomain
	policy    PolicyDomain
	hub       *notificationHub
	grace     time.Duration
	userID    string
	emit      func(frame triage.ServerFrame)

	state      triage.SessionState
	incidentID string
	segments   []string
	location   *entity.Coordinates
	timer      *time.Timer
	detach     func()
	closed     bool
}

func (s *sessionDomainImpl) NewSession(ctx context.Context, userID string, emit func(frame triage.ServerFrame)) *Session {
	ctx, cancel := context.WithCancel(ctx)
	return &Session{
		ctx:       ctx,
		cancel:    cancel,
		log:       s.log,
		incidents: s.incidents,
		policy:    s.policy,
		hub:       s.hub,
		grace:     s.grace,
		userID:    userID,
		emit:      emit,
		state:     triage.SessionIdle,
	}
}

func (s *Session) State() triage.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) IncidentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incidentID
}

// Handle applies one client frame. Protocol errors are returned and leave the
// state unchanged.
func (s *Session) Handle(frame triage.ClientFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return context.Canceled
	}

	switch frame.Type {
	case triage.FrameStart:
		return s.start()
	case triage.FramePartial:
		if s.state != triage.SessionRecording && s.state != triage.SessionFinalizing {
			return triage.ErrSessionNotRecording
		}
		s.appendSegment(frame.Text)
		return nil
	case triage.FrameStop:
		if !validLocation(frame.Location) {
			return triage.ErrInvalidLocation
		}
		if s.state != triage.SessionRecording {
			return triage.ErrSessionNotRecording
		}
		s.stop(frame.Location)
		return nil
	case triage.FrameFinal:
		if !validLocation(frame.Location) {
			return triage.ErrInvalidLocation
		}
		if s.state == triage.SessionRecording {
			s.stop(frame.Location)
		}
		if s.state != triage.SessionFinalizing {
			return triage.ErrSessionNotRecording
		}
		s.appendSegment(frame.Text)
		s.finalize()
		return nil
	}

	return triage.ErrSessionNotRecording
}

// validLocation accepts a missing fix; a present one must be on the globe.
func validLocation(c *entity.Coordinates) bool {
	return c == nil || geo.ValidCoordinates(c.Latitude, c.Longitude)
}

func (s *Session) start() error {
	if s.state == triage.SessionRecording || s.state == triage.SessionFinalizing {
		return triage.ErrSessionBusy
	}

	incident, err := s.incidents.Open(s.ctx, s.userID)
	if err != nil {
		return err
	}

	if s.detach != nil {
		s.detach()
	}
	s.detach = s.hub.Subscribe(incident.ID, s.emit)

	s.state = triage.SessionRecording
	s.incidentID = incident.ID
	s.segments = nil
	s.location = nil

	s.emitState()
	return nil
}

func (s *Session) stop(location *entity.Coordinates) {
	s.location = location
	s.state = triage.SessionFinalizing
	s.emitState()

	s.timer = time.AfterFunc(s.grace, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.state != triage.SessionFinalizing {
			return
		}
		s.finalize()
	})
}

func (s *Session) appendSegment(text string) {
	if text = strings.TrimSpace(text); text != "" {
		s.segments = append(s.segments, text)
	}
}

// finalize must be called with the lock held while Finalizing.
func (s *Session) finalize() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = triage.SessionClassified

	transcript := strings.Join(s.segments, " ")
	incidentID := s.incidentID
	location := s.location

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.classify(incidentID, transcript, location)
	}()
}

func (s *Session) classify(incidentID, transcript string, location *entity.Coordinates) {
	resp, err := s.incidents.Complete(s.ctx, incidentID, transcript, location, s.userID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"incident_id": incidentID,
			"error":       err.Error(),
		}).Warn("Session classification failed")
		s.emit(triage.ServerFrame{Type: triage.FrameError, IncidentID: incidentID, Message: err.Error()})
		s.emit(triage.ServerFrame{Type: triage.FrameState, State: triage.SessionClassified, IncidentID: incidentID})
		return
	}

	s.emit(triage.ServerFrame{Type: triage.FrameAnalysis, IncidentID: incidentID, Analysis: &resp})
	s.emit(triage.ServerFrame{Type: triage.FrameState, State: triage.SessionClassified, IncidentID: incidentID})

	// The notification frame reaches this session through the hub.
	if _, err := s.policy.Evaluate(s.ctx, incidentID, s.userID); err != nil {
		s.log.WithFields(logrus.Fields{
			"incident_id": incidentID,
			"error":       err.Error(),
		}).Error("Failed to evaluate incident")
	}
}

func (s *Session) emitState() {
	s.emit(triage.ServerFrame{Type: triage.FrameState, State: s.state, IncidentID: s.incidentID})
}

// Close waits for an in-flight classification. A recording that was already
// stopped is classified right away so a dropped connection still triages.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == triage.SessionFinalizing {
		s.finalize()
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.detach != nil {
		s.detach()
		s.detach = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.cancel()
}
