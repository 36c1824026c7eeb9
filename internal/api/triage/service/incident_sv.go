package triageService

import (
	"PanicButton/internal/api/triage"
	triageRepository "PanicButton/internal/api/triage/repository"
	"PanicButton/internal/entity"
	"PanicButton/pkg/utils"
	"context"
	"errors"
	"mime/multipart"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

func (s *incidentDomainImpl) Analyze(ctx context.Context, req triage.AnalyzeRequest, userID string) (triage.AnalyzeResponse, error) {
	if strings.TrimSpace(req.Transcript) == "" {
		return triage.AnalyzeResponse{}, triage.ErrEmptyTranscript
	}

	user := s.lookupUser(ctx, userID)

	ic, err := s.assembler.Assemble(ctx, req.Transcript, req.Location, user)
	if err != nil {
		return triage.AnalyzeResponse{}, err
	}

	// The incident is only opened once classification succeeds, so a failed
	// upstream call leaves nothing behind.
	classification, err := s.classify.Classify(ctx, ic)
	if err != nil {
		return triage.AnalyzeResponse{}, err
	}

	incident, err := s.open(ctx, userID, func(incident *entity.Incident) {
		applyClassification(incident, ic, classification)
	})
	if err != nil {
		return triage.AnalyzeResponse{}, err
	}

	resp := s.analyzeResponse(incident, classification)

	eval, err := s.policy.Evaluate(ctx, incident.ID, userID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"incident_id": incident.ID,
			"error":       err.Error(),
		}).Error("Failed to evaluate incident")
		return resp, nil
	}

	resp.Evaluation = &eval
	if eval.Fired || eval.AlreadyFired {
		resp.Decision.AutoFired = true
		resp.Decision.ShouldAutoFire = false
	}

	return resp, nil
}

func (s *incidentDomainImpl) Open(ctx context.Context, userID string) (entity.Incident, error) {
	return s.open(ctx, userID, nil)
}

func (s *incidentDomainImpl) open(ctx context.Context, userID string, fill func(*entity.Incident)) (entity.Incident, error) {
	now := s.now()

	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Failed to generate incident ID")
		return entity.Incident{}, err
	}

	incident := entity.Incident{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
	}
	if fill != nil {
		fill(&incident)
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		return entity.Incident{}, err
	}

	return incident, nil
}

func (s *incidentDomainImpl) Complete(ctx context.Context, incidentID string, transcript string, live *entity.Coordinates, userID string) (triage.AnalyzeResponse, error) {
	if _, err := loadOwned(ctx, s.repo, incidentID, userID); err != nil {
		return triage.AnalyzeResponse{}, err
	}

	if strings.TrimSpace(transcript) == "" {
		return triage.AnalyzeResponse{}, triage.ErrEmptyTranscript
	}

	ic, err := s.assembler.Assemble(ctx, transcript, live, s.lookupUser(ctx, userID))
	if err != nil {
		return triage.AnalyzeResponse{}, err
	}

	return s.classifyInto(ctx, incidentID, ic)
}

func (s *incidentDomainImpl) classifyInto(ctx context.Context, incidentID string, ic entity.IncidentContext) (triage.AnalyzeResponse, error) {
	classification, err := s.classify.Classify(ctx, ic)
	if err != nil {
		return triage.AnalyzeResponse{}, err
	}

	updated, err := s.repo.Update(ctx, incidentID, func(incident *entity.Incident) error {
		applyClassification(incident, ic, classification)
		return nil
	})
	if err != nil {
		return triage.AnalyzeResponse{}, err
	}

	return s.analyzeResponse(updated, classification), nil
}

func applyClassification(incident *entity.Incident, ic entity.IncidentContext, classification entity.Classification) {
	incident.Transcript = ic.Transcript
	incident.LiveCoordinates = ic.LiveCoordinates
	incident.Classification = classification
	incident.Analysis = classification.Raw
}

func (s *incidentDomainImpl) analyzeResponse(incident entity.Incident, classification entity.Classification) triage.AnalyzeResponse {
	return triage.AnalyzeResponse{
		Analysis:   classification.Raw,
		IncidentID: incident.ID,
		Kind:       classification.Kind,
		Assessment: classification.Assessment,
		ParseError: classification.ParseError,
		Decision:   s.policy.Decide(incident),
	}
}

func (s *incidentDomainImpl) Get(ctx context.Context, incidentID string, userID string) (triage.IncidentResponse, error) {
	incident, err := loadOwned(ctx, s.repo, incidentID, userID)
	if err != nil {
		return triage.IncidentResponse{}, err
	}

	archives := make([]entity.ArchiveRef, 0, len(incident.Archives))
	for _, ref := range incident.Archives {
		archives = append(archives, ref)
	}
	sort.Slice(archives, func(i, j int) bool {
		return archives[i].CreatedAt.Before(archives[j].CreatedAt)
	})

	return triage.IncidentResponse{
		ID:              incident.ID,
		Transcript:      incident.Transcript,
		LiveCoordinates: incident.LiveCoordinates,
		Analysis:        incident.Analysis,
		Kind:            incident.Classification.Kind,
		Assessment:      incident.Assessment(),
		ParseError:      incident.Classification.ParseError,
		HasRecording:    incident.Recording.Available(),
		Archives:        archives,
		Alerts:          incident.Alerts,
		Advisory:        incident.Advisory,
		Decision:        s.policy.Decide(incident),
		CreatedAt:       incident.CreatedAt,
	}, nil
}

func (s *incidentDomainImpl) AttachRecording(ctx context.Context, incidentID string, userID string, file *multipart.FileHeader) (triage.RecordingResponse, error) {
	if _, err := loadOwned(ctx, s.repo, incidentID, userID); err != nil {
		return triage.RecordingResponse{}, err
	}

	if err := s.utils.ValidateAudioFile(file); err != nil {
		return triage.RecordingResponse{}, audioError(err)
	}

	data, err := s.utils.ReadFile(file)
	if err != nil {
		return triage.RecordingResponse{}, audioError(err)
	}

	contentType := file.Header.Get("Content-Type")
	if _, err := s.repo.Update(ctx, incidentID, func(incident *entity.Incident) error {
		incident.Recording = &entity.RecordingRef{Data: data, ContentType: contentType}
		return nil
	}); err != nil {
		return triage.RecordingResponse{}, err
	}

	return triage.RecordingResponse{
		IncidentID:  incidentID,
		ContentType: contentType,
		Size:        len(data),
	}, nil
}

// lookupUser degrades to an anonymous context when the user cannot be loaded.
func (s *incidentDomainImpl) lookupUser(ctx context.Context, userID string) *entity.User {
	if userID == "" || s.users == nil {
		return nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Warn("Saved locations unavailable, continuing without user context")
		return nil
	}

	return &user
}

// loadOwned hides incidents of other users behind not found. Anonymous
// incidents are reachable by ID alone.
func loadOwned(ctx context.Context, repo triageRepository.Repository, incidentID string, userID string) (entity.Incident, error) {
	incident, err := repo.Get(ctx, incidentID)
	if err != nil {
		return entity.Incident{}, err
	}

	if incident.UserID != "" && incident.UserID != userID {
		return entity.Incident{}, triage.ErrIncidentNotFound
	}

	return incident, nil
}

func audioError(err error) error {
	if errors.Is(err, utils.ErrFileTooLarge) {
		return triage.ErrAudioTooLarge
	}
	return triage.ErrInvalidAudioFile
}
