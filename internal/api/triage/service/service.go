package triageService

import (
	"PanicButton/internal/api/triage"
	triageRepository "PanicButton/internal/api/triage/repository"
	"PanicButton/internal/entity"
	"PanicButton/pkg/archive"
	"PanicButton/pkg/broker"
	"PanicButton/pkg/geo"
	"PanicButton/pkg/llm"
	"PanicButton/pkg/smtp"
	"PanicButton/pkg/utils"
	"PanicButton/pkg/whatsapp"
	"context"
	"io"
	"mime/multipart"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultFinalizeGrace = 1500 * time.Millisecond

// incidentRoute is where archives without a direct link are served, scoped
// to their incident so ownership is checked on download.
const incidentRoute = "/api/v1/triage/incidents"

type TriageService interface {
	Assembler() AssemblerDomain
	Classifier() ClassifierDomain
	Incident() IncidentDomain
	Policy() PolicyDomain
	Evidence() EvidenceDomain
	Session() SessionDomain
}

type AssemblerDomain interface {
	BuildContextBlock(ctx context.Context, user *entity.User) string
	Assemble(ctx context.Context, transcript string, live *entity.Coordinates, user *entity.User) (entity.IncidentContext, error)
}

type ClassifierDomain interface {
	Classify(ctx context.Context, ic entity.IncidentContext) (entity.Classification, error)
}

type IncidentDomain interface {
	Analyze(ctx context.Context, req triage.AnalyzeRequest, userID string) (triage.AnalyzeResponse, error)
	Open(ctx context.Context, userID string) (entity.Incident, error)
	Complete(ctx context.Context, incidentID string, transcript string, live *entity.Coordinates, userID string) (triage.AnalyzeResponse, error)
	Get(ctx context.Context, incidentID string, userID string) (triage.IncidentResponse, error)
	AttachRecording(ctx context.Context, incidentID string, userID string, file *multipart.FileHeader) (triage.RecordingResponse, error)
}

type PolicyDomain interface {
	Decide(incident entity.Incident) triage.PolicyDecision
	Evaluate(ctx context.Context, incidentID string, userID string) (triage.EvaluationResult, error)
	CallEmergencyServices(ctx context.Context, incidentID string, userID string) (triage.CallResponse, error)
	AlertEmergencyContact(ctx context.Context, incidentID string, userID string, destination string) (triage.DeliveryResponse, error)
	AdviseResponders(ctx context.Context, incidentID string, userID string) (triage.DeliveryResponse, error)
}

type EvidenceDomain interface {
	SaveEncounter(ctx context.Context, incidentID string, userID string) (triage.SaveResponse, error)
	OpenArchive(ctx context.Context, incidentID string, userID string, name string) (io.ReadCloser, int64, error)
}

type SessionDomain interface {
	NewSession(ctx context.Context, userID string, emit func(frame triage.ServerFrame)) *Session
}

// UserReader loads the saved locations of the authenticated user.
type UserReader interface {
	GetByID(ctx context.Context, id string) (entity.User, error)
}

// Dependencies are the collaborators of the triage pipeline. Optional
// channels left nil fall back to simulated delivery.
type Dependencies struct {
	Log        *logrus.Logger
	Repository triageRepository.Repository
	Users      UserReader
	Resolver   geo.IResolver
	Generator  llm.TextGenerator
	Archives   archive.Store
	WhatsApp   whatsapp.IWhatsappSender
	Mailer     smtp.ItfSmtp
	Broker     broker.IBroker
	Utils      utils.IUtils

	FinalizeGrace time.Duration
	Now           func() time.Time
}

type triageService struct {
	assemblerDomain  AssemblerDomain
	classifierDomain ClassifierDomain
	incidentDomain   IncidentDomain
	policyDomain     PolicyDomain
	evidenceDomain   EvidenceDomain
	sessionDomain    SessionDomain
}

func (t *triageService) Assembler() AssemblerDomain {
	return t.assemblerDomain
}

func (t *triageService) Classifier() ClassifierDomain {
	return t.classifierDomain
}

func (t *triageService) Incident() IncidentDomain {
	return t.incidentDomain
}

func (t *triageService) Policy() PolicyDomain {
	return t.policyDomain
}

func (t *triageService) Evidence() EvidenceDomain {
	return t.evidenceDomain
}

func (t *triageService) Session() SessionDomain {
	return t.sessionDomain
}

type assemblerDomainImpl struct {
	log      *logrus.Logger
	resolver geo.IResolver
}

type classifierDomainImpl struct {
	log       *logrus.Logger
	generator llm.TextGenerator
}

type incidentDomainImpl struct {
	log       *logrus.Logger
	repo      triageRepository.Repository
	users     UserReader
	assembler AssemblerDomain
	classify  ClassifierDomain
	policy    PolicyDomain
	utils     utils.IUtils
	now       func() time.Time
}

type policyDomainImpl struct {
	log      *logrus.Logger
	repo     triageRepository.Repository
	evidence *evidenceDomainImpl
	hub      *notificationHub
	whatsapp whatsapp.IWhatsappSender
	mailer   smtp.ItfSmtp
	broker   broker.IBroker
	now      func() time.Time
}

type evidenceDomainImpl struct {
	log   *logrus.Logger
	repo  triageRepository.Repository
	store archive.Store
	now   func() time.Time
}

type sessionDomainImpl struct {
	log       *logrus.Logger
	incidents IncidentDomain
	policy    PolicyDomain
	hub       *notificationHub
	grace     time.Duration
}

func New(deps Dependencies) TriageService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	grace := deps.FinalizeGrace
	if grace <= 0 {
		grace = DefaultFinalizeGrace
	}

	u := deps.Utils
	if u == nil {
		u = utils.New()
	}

	hub := newNotificationHub()

	assembler := &assemblerDomainImpl{log: deps.Log, resolver: deps.Resolver}
	classifier := &classifierDomainImpl{log: deps.Log, generator: deps.Generator}
	evidence := &evidenceDomainImpl{
		log:   deps.Log,
		repo:  deps.Repository,
		store: deps.Archives,
		now:   now,
	}
	policy := &policyDomainImpl{
		log:      deps.Log,
		repo:     deps.Repository,
		evidence: evidence,
		hub:      hub,
		whatsapp: deps.WhatsApp,
		mailer:   deps.Mailer,
		broker:   deps.Broker,
		now:      now,
	}
	incidents := &incidentDomainImpl{
		log:       deps.Log,
		repo:      deps.Repository,
		users:     deps.Users,
		assembler: assembler,
		classify:  classifier,
		policy:    policy,
		utils:     u,
		now:       now,
	}

	return &triageService{
		assemblerDomain:  assembler,
		classifierDomain: classifier,
		incidentDomain:   incidents,
		policyDomain:     policy,
		evidenceDomain:   evidence,
		sessionDomain: &sessionDomainImpl{
			log:       deps.Log,
			incidents: incidents,
			policy:    policy,
			hub:       hub,
			grace:     grace,
		},
	}
}
