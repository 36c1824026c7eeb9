package triageService

import (
	"PanicButton/internal/api/triage"
	"PanicButton/internal/entity"
	"PanicButton/pkg/archive"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	framingManual    = "manual"
	framingEmergency = "emergency"
	maxNameAttempts  = 5
)

func (s *evidenceDomainImpl) SaveEncounter(ctx context.Context, incidentID string, userID string) (triage.SaveResponse, error) {
	incident, err := loadOwned(ctx, s.repo, incidentID, userID)
	if err != nil {
		return triage.SaveResponse{}, err
	}

	ref, already, err := s.save(ctx, incident, false)
	if err != nil {
		return triage.SaveResponse{}, err
	}

	return triage.SaveResponse{Archive: ref, AlreadySaved: already}, nil
}

// OpenArchive streams an archive that belongs to the incident. Names the
// incident never produced are reported as not found.
func (s *evidenceDomainImpl) OpenArchive(ctx context.Context, incidentID string, userID string, name string) (io.ReadCloser, int64, error) {
	if !archive.ValidName(name) {
		return nil, 0, triage.ErrInvalidArchiveName
	}

	incident, err := loadOwned(ctx, s.repo, incidentID, userID)
	if err != nil {
		return nil, 0, err
	}
	if !ownsArchive(incident, name) {
		return nil, 0, triage.ErrArchiveNotFound
	}

	opener, ok := s.store.(archive.Opener)
	if !ok {
		return nil, 0, triage.ErrArchiveNotFound
	}

	rc, size, err := opener.Open(ctx, name)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			return nil, 0, triage.ErrArchiveNotFound
		}
		return nil, 0, err
	}

	return rc, size, nil
}

// save writes at most one archive per incident and framing. A repeat call
// returns the archive produced the first time.
func (s *evidenceDomainImpl) save(ctx context.Context, incident entity.Incident, emergency bool) (entity.ArchiveRef, bool, error) {
	framing := framingManual
	if emergency {
		framing = framingEmergency
	}

	if ref, ok := incident.Archives[framing]; ok {
		return ref, true, nil
	}

	if incident.Analysis == "" || strings.TrimSpace(incident.Transcript) == "" {
		return entity.ArchiveRef{}, false, triage.ErrAssessmentNotReady
	}

	if s.store == nil {
		return entity.ArchiveRef{}, false, errors.New("no archive store configured")
	}

	now := s.now()
	members := []archive.Member{
		{Name: "analysis.txt", Data: []byte(incident.Analysis)},
		{Name: "transcript.txt", Data: []byte(incident.Transcript)},
		{Name: "location.txt", Data: []byte(locationInfo(incident))},
	}
	if emergency {
		members = append(members, archive.Member{Name: "emergency_metadata.txt", Data: []byte(emergencyMetadata(incident, now))})
	}
	if audio := recordingBytes(incident); audio != nil {
		members = append(members, archive.Member{Name: "recording.webm", Data: audio})
	}

	data, err := archive.Build(members, now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"incident_id": incident.ID,
			"error":       err.Error(),
		}).Error("Failed to build archive")
		return entity.ArchiveRef{}, false, err
	}

	obj, err := s.put(ctx, now, emergency, data)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"incident_id": incident.ID,
			"error":       err.Error(),
		}).Error("Failed to store archive")
		return entity.ArchiveRef{}, false, err
	}

	ref := entity.ArchiveRef{
		Name:      obj.Name,
		Location:  obj.Location,
		Size:      obj.Size,
		Emergency: emergency,
		CreatedAt: now,
	}
	if url, err := s.store.DownloadURL(ctx, obj.Name); err != nil {
		s.log.WithFields(logrus.Fields{
			"archive": obj.Name,
			"error":   err.Error(),
		}).Warn("Failed to create archive download URL")
	} else if url != "" {
		ref.DownloadURL = url
	} else {
		ref.DownloadURL = archivePath(incident.ID, obj.Name)
	}

	var winner *entity.ArchiveRef
	if _, err := s.repo.Update(ctx, incident.ID, func(current *entity.Incident) error {
		if existing, ok := current.Archives[framing]; ok {
			winner = &existing
			return nil
		}
		if current.Archives == nil {
			current.Archives = make(map[string]entity.ArchiveRef)
		}
		current.Archives[framing] = ref
		return nil
	}); err != nil {
		return entity.ArchiveRef{}, false, err
	}

	if winner != nil {
		if err := s.store.Delete(ctx, obj.Name); err != nil {
			s.log.WithFields(logrus.Fields{
				"archive": obj.Name,
				"error":   err.Error(),
			}).Warn("Failed to remove duplicate archive")
		}
		return *winner, true, nil
	}

	s.log.WithFields(logrus.Fields{
		"incident_id": incident.ID,
		"archive":     ref.Name,
		"emergency":   emergency,
	}).Info("Encounter archive saved")

	return ref, false, nil
}

// put retries on a name collision by moving the timestamp forward.
func (s *evidenceDomainImpl) put(ctx context.Context, at time.Time, emergency bool, data []byte) (archive.Object, error) {
	ms := at.UnixMilli()
	for i := 0; i < maxNameAttempts; i++ {
		obj, err := s.store.Put(ctx, archiveName(emergency, ms+int64(i)), data)
		if errors.Is(err, archive.ErrExists) {
			continue
		}
		return obj, err
	}
	return archive.Object{}, archive.ErrExists
}

func ownsArchive(incident entity.Incident, name string) bool {
	for _, ref := range incident.Archives {
		if ref.Name == name {
			return true
		}
	}
	return false
}

func archivePath(incidentID, name string) string {
	return incidentRoute + "/" + incidentID + "/archives/" + name
}

func archiveName(emergency bool, ms int64) string {
	if emergency {
		return fmt.Sprintf("EMERGENCY_%d.zip", ms)
	}
	return fmt.Sprintf("panic_encounter_%d.zip", ms)
}

func recordingBytes(incident entity.Incident) []byte {
	if !incident.Recording.Available() {
		return nil
	}
	return incident.Recording.Data
}
