package triageService

import (
	"PanicButton/internal/api/triage"
	"PanicButton/internal/entity"
	"PanicButton/pkg/broker"
	"PanicButton/pkg/whatsapp"
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	channelWhatsApp = "whatsapp"
	channelEmail    = "email"
	channelNATS     = "nats"

	alertSubject = "EMERGENCY: panic button activated"
)

// ShouldAutoFire holds only above the high urgency floor. A score of exactly
// 7 is high but does not fire.
func ShouldAutoFire(a *entity.SeverityAssessment, alreadyFired bool) bool {
	return a != nil &&
		!alreadyFired &&
		a.UrgencyScore > entity.AutoFireAbove &&
		a.RecommendedActions.CallEmergencyServices
}

func (p *policyDomainImpl) Decide(incident entity.Incident) triage.PolicyDecision {
	assessment := incident.Assessment()
	available := incident.Analysis != "" && strings.TrimSpace(incident.Transcript) != ""

	decision := triage.PolicyDecision{
		Actions:   make([]triage.ActionAffordance, 0, len(entity.AllActions)),
		AutoFired: incident.AutoFired,
	}

	for _, action := range entity.AllActions {
		decision.Actions = append(decision.Actions, triage.ActionAffordance{
			Action:      action,
			Recommended: assessment != nil && assessment.RecommendedActions.Has(action),
			Available:   available,
		})
	}

	if assessment != nil {
		score := assessment.UrgencyScore
		decision.UrgencyScore = &score
		decision.UrgencyLevel = assessment.UrgencyLevel
		decision.ShouldAutoFire = available && ShouldAutoFire(assessment, incident.AutoFired)
	}

	return decision
}

func (p *policyDomainImpl) Evaluate(ctx context.Context, incidentID string, userID string) (triage.EvaluationResult, error) {
	incident, err := loadOwned(ctx, p.repo, incidentID, userID)
	if err != nil {
		return triage.EvaluationResult{}, err
	}

	if incident.AutoFired {
		return triage.EvaluationResult{AlreadyFired: true}, nil
	}

	if !p.Decide(incident).ShouldAutoFire {
		return triage.EvaluationResult{}, nil
	}

	won, err := p.repo.MarkAutoFired(ctx, incident.ID)
	if err != nil {
		return triage.EvaluationResult{}, err
	}
	if !won {
		return triage.EvaluationResult{AlreadyFired: true}, nil
	}
	incident.AutoFired = true

	notification := autoFireNotification(incident)
	p.hub.Publish(incident.ID, triage.ServerFrame{
		Type:       triage.FrameNotification,
		IncidentID: incident.ID,
		Message:    notification,
	})

	p.log.WithFields(logrus.Fields{
		"incident_id":   incident.ID,
		"urgency_score": urgencyLabel(incident),
	}).Warn("Automatic emergency sequence triggered")

	result := triage.EvaluationResult{
		Fired:        true,
		Notification: notification,
	}

	ref, _, err := p.evidence.save(ctx, incident, true)
	if err != nil {
		p.log.WithFields(logrus.Fields{
			"incident_id": incident.ID,
			"error":       err.Error(),
		}).Error("Emergency archive could not be saved")
		result.ArchiveError = err.Error()
		return result, nil
	}
	result.Archive = &ref

	return result, nil
}

func (p *policyDomainImpl) CallEmergencyServices(ctx context.Context, incidentID string, userID string) (triage.CallResponse, error) {
	incident, err := loadOwned(ctx, p.repo, incidentID, userID)
	if err != nil {
		return triage.CallResponse{}, err
	}

	return triage.CallResponse{
		Message:     callMessage(incident),
		Coordinates: incident.LiveCoordinates,
		Simulated:   true,
	}, nil
}

func (p *policyDomainImpl) AlertEmergencyContact(ctx context.Context, incidentID string, userID string, destination string) (triage.DeliveryResponse, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return triage.DeliveryResponse{}, triage.ErrDestinationRequired
	}

	channel, normalized, ok := routeDestination(destination)
	if !ok {
		return triage.DeliveryResponse{}, triage.ErrInvalidDestination
	}

	incident, err := loadOwned(ctx, p.repo, incidentID, userID)
	if err != nil {
		return triage.DeliveryResponse{}, err
	}

	key := channel + ":" + normalized
	if d, ok := incident.Alerts[key]; ok {
		return triage.DeliveryResponse{Delivery: d, AlreadySent: true}, nil
	}

	if incident.Analysis == "" {
		return triage.DeliveryResponse{}, triage.ErrAssessmentNotReady
	}

	delivery := entity.Delivery{
		Channel:     channel,
		Destination: normalized,
		Message:     alertMessage(incident),
		Status:      entity.DeliverySimulated,
		SentAt:      p.now(),
	}

	var sendErr error
	switch {
	case channel == channelWhatsApp && p.whatsapp != nil:
		sendErr = p.whatsapp.SendMessage(ctx, normalized, delivery.Message)
		delivery.Status = entity.DeliverySent
	case channel == channelEmail && p.mailer != nil:
		sendErr = p.mailer.SendMail(ctx, normalized, alertSubject, delivery.Message)
		delivery.Status = entity.DeliverySent
	}
	if sendErr != nil {
		p.log.WithFields(logrus.Fields{
			"incident_id": incident.ID,
			"channel":     channel,
			"error":       sendErr.Error(),
		}).Error("Failed to alert emergency contact")
		return triage.DeliveryResponse{}, fmt.Errorf("%w: %w", triage.ErrDeliveryFailed, sendErr)
	}

	return p.recordAlert(ctx, incident.ID, key, delivery)
}

func (p *policyDomainImpl) recordAlert(ctx context.Context, incidentID, key string, delivery entity.Delivery) (triage.DeliveryResponse, error) {
	var existing *entity.Delivery
	if _, err := p.repo.Update(ctx, incidentID, func(incident *entity.Incident) error {
		if d, ok := incident.Alerts[key]; ok {
			existing = &d
			return nil
		}
		if incident.Alerts == nil {
			incident.Alerts = make(map[string]entity.Delivery)
		}
		incident.Alerts[key] = delivery
		return nil
	}); err != nil {
		return triage.DeliveryResponse{}, err
	}

	if existing != nil {
		return triage.DeliveryResponse{Delivery: *existing, AlreadySent: true}, nil
	}
	return triage.DeliveryResponse{Delivery: delivery}, nil
}

func (p *policyDomainImpl) AdviseResponders(ctx context.Context, incidentID string, userID string) (triage.DeliveryResponse, error) {
	incident, err := loadOwned(ctx, p.repo, incidentID, userID)
	if err != nil {
		return triage.DeliveryResponse{}, err
	}

	if incident.Advisory != nil {
		return triage.DeliveryResponse{Delivery: *incident.Advisory, AlreadySent: true}, nil
	}

	if incident.Analysis == "" {
		return triage.DeliveryResponse{}, triage.ErrAssessmentNotReady
	}

	delivery := entity.Delivery{
		Channel: channelNATS,
		Message: advisoryMessage(incident),
		Status:  entity.DeliverySimulated,
		SentAt:  p.now(),
	}

	if p.broker != nil {
		advisory := triage.Advisory{
			IncidentID: incident.ID,
			Location:   incident.LiveCoordinates,
			Message:    delivery.Message,
			SentAt:     delivery.SentAt,
		}
		if a := incident.Assessment(); a != nil {
			score := a.UrgencyScore
			advisory.UrgencyScore = &score
			advisory.EmergencyType = a.EmergencyType
		}

		if err := p.broker.Publish(broker.SubjectResponderAdvisories, advisory); err != nil {
			p.log.WithFields(logrus.Fields{
				"incident_id": incident.ID,
				"error":       err.Error(),
			}).Error("Failed to publish responder advisory")
			return triage.DeliveryResponse{}, fmt.Errorf("%w: %w", triage.ErrDeliveryFailed, err)
		}
		delivery.Destination = broker.SubjectResponderAdvisories
		delivery.Status = entity.DeliverySent
	}

	var existing *entity.Delivery
	if _, err := p.repo.Update(ctx, incident.ID, func(current *entity.Incident) error {
		if current.Advisory != nil {
			d := *current.Advisory
			existing = &d
			return nil
		}
		current.Advisory = &delivery
		return nil
	}); err != nil {
		return triage.DeliveryResponse{}, err
	}

	if existing != nil {
		return triage.DeliveryResponse{Delivery: *existing, AlreadySent: true}, nil
	}
	return triage.DeliveryResponse{Delivery: delivery}, nil
}

// routeDestination picks the channel from the shape of the destination.
func routeDestination(destination string) (string, string, bool) {
	if strings.Contains(destination, "@") {
		addr, err := mail.ParseAddress(destination)
		if err != nil {
			return "", "", false
		}
		return channelEmail, strings.ToLower(addr.Address), true
	}

	if phone, ok := whatsapp.NormalizePhoneNumber(destination); ok {
		return channelWhatsApp, phone, true
	}

	return "", "", false
}
