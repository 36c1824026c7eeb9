package fakecallService

import (
	"PanicButton/internal/api/fakecall"
	contextPkg "PanicButton/pkg/context"
	"PanicButton/pkg/llm"
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	maxSpokenRunes = 600
	openingCue     = "(The call was just answered. Say your first line.)"
)

func systemPrompt(languageName string) string {
	return fmt.Sprintf(`You are a close friend phoning the user so they have a believable reason to leave an uncomfortable situation.
Speak only in %s.
Keep every reply to one or two short, casual sentences.
Sound warm and a little urgent, and ask them to come meet you soon.
Never say that the call is staged and never mention being an AI.`, languageName)
}

func normalizeLanguage(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}

func (s *callDomainImpl) Generate(ctx context.Context, req fakecall.GenerateRequest) (fakecall.Speech, error) {
	if s.tts == nil {
		return fakecall.Speech{}, fakecall.ErrTTSNotConfigured
	}

	language, sc := scriptFor(normalizeLanguage(req.Language))
	text, scripted := s.line(ctx, language, sc, nil, openingCue, sc.Opening)

	return s.speak(ctx, language, text, scripted)
}

func (s *callDomainImpl) Respond(ctx context.Context, req fakecall.RespondRequest) (fakecall.Speech, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return fakecall.Speech{}, fakecall.ErrUserMessageRequired
	}
	if s.tts == nil {
		return fakecall.Speech{}, fakecall.ErrTTSNotConfigured
	}

	language, sc := scriptFor(normalizeLanguage(req.Language))
	turn := 0
	for _, m := range req.ConversationHistory {
		if m.Role == llm.RoleUser {
			turn++
		}
	}
	fallback := sc.Replies[turn%len(sc.Replies)]
	text, scripted := s.line(ctx, language, sc, req.ConversationHistory, req.UserMessage, fallback)

	return s.speak(ctx, language, text, scripted)
}

// line asks the model for the next caller line and falls back to the script
// when no model is configured or it fails.
func (s *callDomainImpl) line(ctx context.Context, language string, sc script, history []llm.Message, userMessage, fallback string) (string, bool) {
	if s.conv == nil {
		return fallback, true
	}

	text, err := s.conv.Converse(ctx, systemPrompt(sc.Name), history, userMessage)
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		fields := logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"language":   language,
		}
		if err != nil {
			fields["error"] = err.Error()
		}
		s.log.WithFields(fields).Warn("Fake call model unavailable, using script")
		return fallback, true
	}

	if r := []rune(text); len(r) > maxSpokenRunes {
		text = string(r[:maxSpokenRunes])
	}
	return text, false
}

func (s *callDomainImpl) speak(ctx context.Context, language, text string, scripted bool) (fakecall.Speech, error) {
	data, err := s.tts.GenerateAudio(ctx, text)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("Speech synthesis failed")
		return fakecall.Speech{}, fmt.Errorf("%w: %w", fakecall.ErrSpeechFailed, err)
	}

	return fakecall.Speech{
		Language:    language,
		Text:        text,
		Audio:       data,
		ContentType: "audio/mpeg",
		Scripted:    scripted,
	}, nil
}
