package triage

import (
	"PanicButton/internal/entity"
	"time"
)

type AnalyzeRequest struct {
	Transcript string              `json:"transcript"`
	Location   *entity.Coordinates `json:"location" validate:"omitempty"`
}

type AnalyzeResponse struct {
	Analysis   string                     `json:"analysis"`
	IncidentID string                     `json:"incidentId"`
	Kind       entity.ClassificationKind  `json:"kind"`
	Assessment *entity.SeverityAssessment `json:"assessment,omitempty"`
	ParseError string                     `json:"parseError,omitempty"`
	Decision   PolicyDecision             `json:"decision"`
	Evaluation *EvaluationResult          `json:"evaluation,omitempty"`
}

type ActionAffordance struct {
	Action      entity.Action `json:"action"`
	Recommended bool          `json:"recommended"`
	Available   bool          `json:"available"`
}

// PolicyDecision is the UI facing view of an incident. UrgencyScore is nil
// unless the classification was parsed.
type PolicyDecision struct {
	UrgencyScore   *int                `json:"urgencyScore,omitempty"`
	UrgencyLevel   entity.UrgencyLevel `json:"urgencyLevel,omitempty"`
	Actions        []ActionAffordance  `json:"actions"`
	ShouldAutoFire bool                `json:"shouldAutoFire"`
	AutoFired      bool                `json:"autoFired"`
}

type EvaluationResult struct {
	Fired        bool               `json:"fired"`
	AlreadyFired bool               `json:"alreadyFired"`
	Notification string             `json:"notification,omitempty"`
	Archive      *entity.ArchiveRef `json:"archive,omitempty"`
	ArchiveError string             `json:"archiveError,omitempty"`
}

type IncidentResponse struct {
	ID              string                     `json:"id"`
	Transcript      string                     `json:"transcript"`
	LiveCoordinates *entity.Coordinates        `json:"location,omitempty"`
	Analysis        string                     `json:"analysis"`
	Kind            entity.ClassificationKind  `json:"kind,omitempty"`
	Assessment      *entity.SeverityAssessment `json:"assessment,omitempty"`
	ParseError      string                     `json:"parseError,omitempty"`
	HasRecording    bool                       `json:"hasRecording"`
	Archives        []entity.ArchiveRef        `json:"archives"`
	Alerts          map[string]entity.Delivery `json:"alerts,omitempty"`
	Advisory        *entity.Delivery           `json:"advisory,omitempty"`
	Decision        PolicyDecision             `json:"decision"`
	CreatedAt       time.Time                  `json:"createdAt"`
}

type CallResponse struct {
	Message     string              `json:"message"`
	Coordinates *entity.Coordinates `json:"coordinates,omitempty"`
	Simulated   bool                `json:"simulated"`
}

type SaveResponse struct {
	Archive      entity.ArchiveRef `json:"archive"`
	AlreadySaved bool              `json:"alreadySaved"`
}

type AlertRequest struct {
	Destination string `json:"destination" validate:"max=254"`
}

type DeliveryResponse struct {
	Delivery    entity.Delivery `json:"delivery"`
	AlreadySent bool            `json:"alreadySent"`
}

type RecordingResponse struct {
	IncidentID  string `json:"incidentId"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// Advisory is the payload published to responders.
type Advisory struct {
	IncidentID    string              `json:"incident_id"`
	Location      *entity.Coordinates `json:"location,omitempty"`
	UrgencyScore  *int                `json:"urgency_score,omitempty"`
	EmergencyType string              `json:"emergency_type,omitempty"`
	Message       string              `json:"message"`
	SentAt        time.Time           `json:"sent_at"`
}

type SessionState string

const (
	SessionIdle       SessionState = "idle"
	SessionRecording  SessionState = "recording"
	SessionFinalizing SessionState = "finalizing"
	SessionClassified SessionState = "classified"
)

type ClientFrameType string

const (
	FrameStart   ClientFrameType = "start"
	FramePartial ClientFrameType = "partial"
	FrameStop    ClientFrameType = "stop"
	FrameFinal   ClientFrameType = "final"
)

type ClientFrame struct {
	Type     ClientFrameType     `json:"type"`
	Text     string              `json:"text,omitempty"`
	Location *entity.Coordinates `json:"location,omitempty"`
}

type ServerFrameType string

const (
	FrameState        ServerFrameType = "state"
	FrameAnalysis     ServerFrameType = "analysis"
	FrameNotification ServerFrameType = "notification"
	FrameError        ServerFrameType = "error"
)

type ServerFrame struct {
	Type       ServerFrameType  `json:"type"`
	State      SessionState     `json:"state,omitempty"`
	IncidentID string           `json:"incidentId,omitempty"`
	Analysis   *AnalyzeResponse `json:"analysis,omitempty"`
	Message    string           `json:"message,omitempty"`
}
