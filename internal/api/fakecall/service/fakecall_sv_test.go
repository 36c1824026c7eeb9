package fakecallService

import (
	"PanicButton/internal/api/fakecall"
	"PanicButton/internal/entity"
	"PanicButton/pkg/llm"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

type fakeTTS struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeTTS) GenerateAudio(_ context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("mp3:" + text), nil
}

type fakeConv struct {
	system  string
	history []llm.Message
	message string
	reply   string
	err     error
}

func (f *fakeConv) Converse(_ context.Context, system string, history []llm.Message, userMessage string) (string, error) {
	f.system, f.history, f.message = system, history, userMessage
	return f.reply, f.err
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestGenerateUsesScriptWithoutModel(t *testing.T) {
	tts := &fakeTTS{}
	svc := New(quiet(), tts, nil)

	speech, err := svc.Call().Generate(context.Background(), fakecall.GenerateRequest{Language: "ES"})
	if err != nil {
		t.Fatal(err)
	}
	if !speech.Scripted || speech.Language != "es" || speech.Text != scripts["es"].Opening {
		t.Errorf("unexpected speech %+v", speech)
	}
	if speech.ContentType != "audio/mpeg" || string(speech.Audio) != "mp3:"+scripts["es"].Opening {
		t.Errorf("unexpected audio %q", speech.Audio)
	}
}

func TestUnknownLanguageFallsBackToEnglish(t *testing.T) {
	svc := New(quiet(), &fakeTTS{}, nil)

	speech, err := svc.Call().Generate(context.Background(), fakecall.GenerateRequest{Language: "tlh"})
	if err != nil {
		t.Fatal(err)
	}
	if speech.Language != "en" {
		t.Errorf("expected en, got %q", speech.Language)
	}
}

func TestEverySupportedLanguageHasAScript(t *testing.T) {
	for code := range entity.SupportedLanguages {
		sc, ok := scripts[code]
		if !ok {
			t.Errorf("no script for %s", code)
			continue
		}
		if sc.Opening == "" || len(sc.Replies) == 0 || sc.Name == "" {
			t.Errorf("incomplete script for %s", code)
		}
	}
}

func TestRespondWithModel(t *testing.T) {
	conv := &fakeConv{reply: "  Come outside, I'm parked by the door.  "}
	svc := New(quiet(), &fakeTTS{}, conv)

	history := []llm.Message{
		{Role: llm.RoleAssistant, Content: "Hey, where are you?"},
		{Role: llm.RoleUser, Content: "At the bar."},
	}
	speech, err := svc.Call().Respond(context.Background(), fakecall.RespondRequest{
		Language:            "fr",
		UserMessage:         "I can leave now",
		ConversationHistory: history,
	})
	if err != nil {
		t.Fatal(err)
	}
	if speech.Scripted || speech.Text != "Come outside, I'm parked by the door." {
		t.Errorf("unexpected speech %+v", speech)
	}
	if !strings.Contains(conv.system, "Speak only in French.") {
		t.Errorf("system prompt missing language: %q", conv.system)
	}
	if conv.message != "I can leave now" || len(conv.history) != 2 {
		t.Errorf("history not forwarded: %q %v", conv.message, conv.history)
	}
}

func TestRespondFallsBackWhenModelFails(t *testing.T) {
	conv := &fakeConv{err: &llm.UpstreamError{Provider: "gemini", Status: 500, Message: "boom"}}
	svc := New(quiet(), &fakeTTS{}, conv)

	speech, err := svc.Call().Respond(context.Background(), fakecall.RespondRequest{
		Language:    "en",
		UserMessage: "hello?",
		ConversationHistory: []llm.Message{
			{Role: llm.RoleUser, Content: "hi"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !speech.Scripted || speech.Text != scripts["en"].Replies[1] {
		t.Errorf("expected second scripted reply, got %+v", speech)
	}
}

func TestFakeCallErrors(t *testing.T) {
	t.Run("tts not configured", func(t *testing.T) {
		svc := New(quiet(), nil, nil)
		if _, err := svc.Call().Generate(context.Background(), fakecall.GenerateRequest{}); !errors.Is(err, fakecall.ErrTTSNotConfigured) {
			t.Errorf("expected ErrTTSNotConfigured, got %v", err)
		}
	})

	t.Run("empty user message", func(t *testing.T) {
		svc := New(quiet(), &fakeTTS{}, nil)
		if _, err := svc.Call().Respond(context.Background(), fakecall.RespondRequest{UserMessage: "  "}); !errors.Is(err, fakecall.ErrUserMessageRequired) {
			t.Errorf("expected ErrUserMessageRequired, got %v", err)
		}
	})

	t.Run("synthesis failure", func(t *testing.T) {
		svc := New(quiet(), &fakeTTS{err: errors.New("ElevenLabs API error: 401")}, nil)
		_, err := svc.Call().Generate(context.Background(), fakecall.GenerateRequest{})
		if !errors.Is(err, fakecall.ErrSpeechFailed) || !strings.Contains(err.Error(), "401") {
			t.Errorf("expected wrapped ErrSpeechFailed, got %v", err)
		}
	})
}
