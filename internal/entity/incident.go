package entity

import "time"

type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// ReferenceLocations holds the saved home/work labels of a user and whatever
// coordinates could be resolved for them.
type ReferenceLocations struct {
	HomeLabel       string
	WorkLabel       string
	HomeCoordinates *Coordinates
	WorkCoordinates *Coordinates
}

// IncidentContext is request scoped and never persisted.
type IncidentContext struct {
	Transcript         string
	LiveCoordinates    *Coordinates
	ReferenceLocations ReferenceLocations
	SameLocation       *bool
	DistanceKm         *float64
	ContextBlock       string
}

type UrgencyLevel string

const (
	UrgencyLow  UrgencyLevel = "low"
	UrgencyHigh UrgencyLevel = "high"
)

const (
	// HighUrgencyFloor is the lowest score labelled high.
	HighUrgencyFloor = 7
	// AutoFireAbove must be strictly exceeded for the automatic emergency sequence.
	AutoFireAbove = 7
)

func LevelForScore(score int) UrgencyLevel {
	if score >= HighUrgencyFloor {
		return UrgencyHigh
	}
	return UrgencyLow
}

type Action string

const (
	ActionCallEmergencyServices Action = "911_immediate_help"
	ActionSaveEncounter         Action = "save_encounter"
	ActionAlertEmergencyContact Action = "alert_emergency_contact"
	ActionAdviseResponders      Action = "advise_responders"
)

var AllActions = []Action{
	ActionCallEmergencyServices,
	ActionSaveEncounter,
	ActionAlertEmergencyContact,
	ActionAdviseResponders,
}

type RecommendedActions struct {
	CallEmergencyServices bool `json:"911_immediate_help"`
	SaveEncounter         bool `json:"save_encounter"`
	AlertEmergencyContact bool `json:"alert_emergency_contact"`
	AdviseResponders      bool `json:"advise_responders"`
}

func (r RecommendedActions) Has(a Action) bool {
	switch a {
	case ActionCallEmergencyServices:
		return r.CallEmergencyServices
	case ActionSaveEncounter:
		return r.SaveEncounter
	case ActionAlertEmergencyContact:
		return r.AlertEmergencyContact
	case ActionAdviseResponders:
		return r.AdviseResponders
	}
	return false
}

type SeverityAssessment struct {
	UrgencyScore       int                `json:"urgency_score"`
	UrgencyLevel       UrgencyLevel       `json:"urgency_level"`
	Rationale          string             `json:"rationale"`
	KeywordsAndTopics  []string           `json:"keywords_and_topics"`
	EmergencyType      string             `json:"emergency_type"`
	RecommendedActions RecommendedActions `json:"recommended_actions"`
	Summary            string             `json:"summary"`
}

type ClassificationKind string

const (
	ClassificationTemplate    ClassificationKind = "template"
	ClassificationParsed      ClassificationKind = "parsed"
	ClassificationUnparseable ClassificationKind = "unparseable"
)

// Classification is the tagged result of one classifier call. Assessment is
// set only for ClassificationParsed.
type Classification struct {
	Kind       ClassificationKind  `json:"kind"`
	Raw        string              `json:"raw"`
	Assessment *SeverityAssessment `json:"assessment,omitempty"`
	ParseError string              `json:"parse_error,omitempty"`
}

// RecordingRef holds audio uploaded by the client. The server never fetches
// recordings from URLs it is handed.
type RecordingRef struct {
	Data        []byte `json:"data,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

func (r *RecordingRef) Available() bool {
	return r != nil && len(r.Data) > 0
}

type ArchiveRef struct {
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Size        int       `json:"size"`
	Emergency   bool      `json:"emergency"`
	DownloadURL string    `json:"download_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliverySimulated DeliveryStatus = "simulated"
	DeliveryFailed    DeliveryStatus = "failed"
)

type Delivery struct {
	Channel     string         `json:"channel"`
	Destination string         `json:"destination,omitempty"`
	Message     string         `json:"message"`
	Status      DeliveryStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	SentAt      time.Time      `json:"sent_at"`
}

// Incident is one recording-to-assessment cycle. AutoFired flips false to true
// at most once; a new recording creates a new Incident.
type Incident struct {
	ID              string                `json:"id"`
	UserID          string                `json:"user_id,omitempty"`
	Transcript      string                `json:"transcript"`
	LiveCoordinates *Coordinates          `json:"live_coordinates,omitempty"`
	Analysis        string                `json:"analysis"`
	Classification  Classification        `json:"classification"`
	AutoFired       bool                  `json:"auto_fired"`
	Recording       *RecordingRef         `json:"recording,omitempty"`
	Archives        map[string]ArchiveRef `json:"archives,omitempty"`
	Alerts          map[string]Delivery   `json:"alerts,omitempty"`
	Advisory        *Delivery             `json:"advisory,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

func (i *Incident) Assessment() *SeverityAssessment {
	if i == nil || i.Classification.Kind != ClassificationParsed {
		return nil
	}
	return i.Classification.Assessment
}

// Clone copies the maps and pointer fields so the result can be mutated
// independently. Recording bytes are shared and treated as immutable.
func (i Incident) Clone() Incident {
	out := i
	if i.LiveCoordinates != nil {
		c := *i.LiveCoordinates
		out.LiveCoordinates = &c
	}
	if i.Classification.Assessment != nil {
		a := *i.Classification.Assessment
		a.KeywordsAndTopics = append([]string(nil), i.Classification.Assessment.KeywordsAndTopics...)
		out.Classification.Assessment = &a
	}
	if i.Recording != nil {
		r := *i.Recording
		out.Recording = &r
	}
	if i.Archives != nil {
		out.Archives = make(map[string]ArchiveRef, len(i.Archives))
		for k, v := range i.Archives {
			out.Archives[k] = v
		}
	}
	if i.Alerts != nil {
		out.Alerts = make(map[string]Delivery, len(i.Alerts))
		for k, v := range i.Alerts {
			out.Alerts[k] = v
		}
	}
	if i.Advisory != nil {
		d := *i.Advisory
		out.Advisory = &d
	}
	return out
}
