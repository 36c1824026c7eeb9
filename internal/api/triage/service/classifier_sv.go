package triageService

import (
	"PanicButton/internal/api/triage"
	"PanicButton/internal/entity"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	templatePreviewRunes = 100
	classifierPrompt     = `You are an emergency triage assistant. Analyze the panic button transcript below and assess how urgent the situation is.
Respond with ONLY valid JSON. Do not use markdown, code fences or any text outside the JSON object.
Use exactly this structure:
{
	"overall_tone_urgency": {
		"score": 0,
		"rationale": "why this score was chosen"
	},
	"keywords_and_topics": ["keyword"],
	"emergency_type": "medical/assault/fire/accident/harassment/other/none",
	"recommended_actions": {
		"911_immediate_help": false,
		"save_encounter": false,
		"alert_emergency_contact": false,
		"advise_responders": false
	},
	"summary": "one or two sentences"
}
The score is an integer from 0 (no danger) to 10 (life threatening). Scores of 7 or more mean high urgency.
Take the user's saved home and work locations into account when judging whether the live location is unusual.`
)

func (c *classifierDomainImpl) Classify(ctx context.Context, ic entity.IncidentContext) (entity.Classification, error) {
	if strings.TrimSpace(ic.Transcript) == "" {
		return entity.Classification{}, triage.ErrEmptyTranscript
	}

	if c.generator == nil {
		return entity.Classification{
			Kind: entity.ClassificationTemplate,
			Raw:  AnalysisTemplate(ic),
		}, nil
	}

	raw, err := c.generator.GenerateText(ctx, buildClassifierPrompt(ic))
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Severity classification failed")
		return entity.Classification{}, fmt.Errorf("%w: %w", triage.ErrClassificationFailed, err)
	}

	assessment, err := ParseAssessment(raw)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Classifier output could not be parsed")
		return entity.Classification{
			Kind:       entity.ClassificationUnparseable,
			Raw:        raw,
			ParseError: err.Error(),
		}, nil
	}

	return entity.Classification{
		Kind:       entity.ClassificationParsed,
		Raw:        raw,
		Assessment: assessment,
	}, nil
}

// AnalysisTemplate is returned when no text generator is configured.
func AnalysisTemplate(ic entity.IncidentContext) string {
	var b strings.Builder
	b.WriteString("Gemini API key not configured. Template analysis:\n\n")
	b.WriteString("Transcript preview: ")
	b.WriteString(truncateRunes(ic.Transcript, templatePreviewRunes))
	b.WriteString("\n\nLocation: ")
	b.WriteString(formatCoordinates(ic.LiveCoordinates, "Not available"))
	b.WriteString("\n\n")
	b.WriteString(ic.ContextBlock)
	return b.String()
}

func buildClassifierPrompt(ic entity.IncidentContext) string {
	var b strings.Builder
	b.WriteString(classifierPrompt)
	b.WriteString("\n\nTranscript:\n")
	b.WriteString(strings.TrimSpace(ic.Transcript))
	b.WriteString("\n\nLive location: ")
	b.WriteString(formatCoordinates(ic.LiveCoordinates, "Not available"))
	b.WriteString("\n\nUser location context:\n")
	b.WriteString(ic.ContextBlock)
	return b.String()
}

type assessmentPayload struct {
	OverallToneUrgency *struct {
		Score     *float64 `json:"score"`
		Rationale string   `json:"rationale"`
	} `json:"overall_tone_urgency"`
	KeywordsAndTopics  []string                  `json:"keywords_and_topics"`
	EmergencyType      string                    `json:"emergency_type"`
	RecommendedActions entity.RecommendedActions `json:"recommended_actions"`
	Summary            string                    `json:"summary"`
}

// ParseAssessment reads the outermost JSON object of the model output. The
// urgency level is always derived from the score.
func ParseAssessment(raw string) (*entity.SeverityAssessment, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, errors.New("cannot find valid JSON in classifier output")
	}

	var payload assessmentPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("invalid assessment JSON: %w", err)
	}

	if payload.OverallToneUrgency == nil || payload.OverallToneUrgency.Score == nil {
		return nil, errors.New("assessment has no urgency score")
	}

	score := *payload.OverallToneUrgency.Score
	if score != math.Trunc(score) {
		return nil, fmt.Errorf("urgency score %v is not an integer", score)
	}
	if score < 0 || score > 10 {
		return nil, fmt.Errorf("urgency score %v is outside 0..10", score)
	}

	s := int(score)
	return &entity.SeverityAssessment{
		UrgencyScore:       s,
		UrgencyLevel:       entity.LevelForScore(s),
		Rationale:          payload.OverallToneUrgency.Rationale,
		KeywordsAndTopics:  payload.KeywordsAndTopics,
		EmergencyType:      payload.EmergencyType,
		RecommendedActions: payload.RecommendedActions,
		Summary:            payload.Summary,
	}, nil
}
