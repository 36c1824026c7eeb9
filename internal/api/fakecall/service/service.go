package fakecallService

import (
	"PanicButton/internal/api/fakecall"
	"PanicButton/pkg/audio"
	"PanicButton/pkg/llm"
	"context"

	"github.com/sirupsen/logrus"
)

type FakeCallService interface {
	Call() CallDomain
}

type CallDomain interface {
	Generate(ctx context.Context, req fakecall.GenerateRequest) (fakecall.Speech, error)
	Respond(ctx context.Context, req fakecall.RespondRequest) (fakecall.Speech, error)
}

type fakeCallService struct {
	callDomain CallDomain
}

func (s *fakeCallService) Call() CallDomain {
	return s.callDomain
}

type callDomainImpl struct {
	log *logrus.Logger
	// tts is nil when no ElevenLabs key is configured.
	tts  audio.ITTS
	conv llm.Conversational
}

// New wires the fake call. A nil conv uses the built in scripts.
func New(log *logrus.Logger, tts audio.ITTS, conv llm.Conversational) FakeCallService {
	return &fakeCallService{
		callDomain: &callDomainImpl{log: log, tts: tts, conv: conv},
	}
}
