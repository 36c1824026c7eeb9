package triageService

import (
	"PanicButton/internal/api/triage"
	"PanicButton/internal/entity"
	"PanicButton/pkg/llm"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestClassify_TemplateWithoutGenerator(t *testing.T) {
	env := newTestEnv(t, withoutGenerator)

	transcript := strings.Repeat("a", 100) + "BEYOND-PREVIEW"
	ic := entity.IncidentContext{
		Transcript:      transcript,
		LiveCoordinates: &entity.Coordinates{Latitude: 33.749012, Longitude: -84.388034},
		ContextBlock:    noUserContext,
	}

	got, err := env.svc.Classifier().Classify(context.Background(), ic)
	if err != nil {
		t.Fatalf("template path must not fail: %v", err)
	}

	if got.Kind != entity.ClassificationTemplate {
		t.Errorf("kind = %s", got.Kind)
	}
	if !strings.HasPrefix(got.Raw, "Gemini API key not configured. Template analysis:") {
		t.Errorf("unexpected template %q", got.Raw)
	}
	if !strings.Contains(got.Raw, strings.Repeat("a", 100)+"...") {
		t.Error("expected 100 character preview followed by an ellipsis")
	}
	if strings.Contains(got.Raw, "BEYOND-PREVIEW") {
		t.Error("preview was not truncated")
	}
	if !strings.Contains(got.Raw, "Location: 33.7490, -84.3880") {
		t.Errorf("expected 4 decimal coordinates in %q", got.Raw)
	}
	if !strings.HasSuffix(got.Raw, noUserContext) {
		t.Error("expected context block at the end")
	}
	if got.Assessment != nil {
		t.Error("template must not carry an assessment")
	}
}

func TestClassify_TemplateShortTranscript(t *testing.T) {
	env := newTestEnv(t, withoutGenerator)

	got, err := env.svc.Classifier().Classify(context.Background(), entity.IncidentContext{Transcript: "help"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got.Raw, "Transcript preview: help\n") {
		t.Errorf("short transcript should not get an ellipsis: %q", got.Raw)
	}
	if !strings.Contains(got.Raw, "Location: Not available") {
		t.Errorf("expected missing location marker: %q", got.Raw)
	}
}

func TestClassify_EmptyTranscriptNeverCallsGenerator(t *testing.T) {
	env := newTestEnv(t)

	for _, transcript := range []string{"", "  ", "\t\n"} {
		_, err := env.svc.Classifier().Classify(context.Background(), entity.IncidentContext{Transcript: transcript})
		if !errors.Is(err, triage.ErrEmptyTranscript) {
			t.Errorf("transcript %q: got %v", transcript, err)
		}
	}
	if env.generator.Calls() != 0 {
		t.Errorf("generator called %d times", env.generator.Calls())
	}
}

func TestClassify_Parsed(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantScore int
		wantLevel entity.UrgencyLevel
	}{
		{"plain json", assessmentJSON(8, true), 8, entity.UrgencyHigh},
		{"boundary seven is high", assessmentJSON(7, true), 7, entity.UrgencyHigh},
		{"six is low", assessmentJSON(6, false), 6, entity.UrgencyLow},
		{"fenced json", "```json\n" + assessmentJSON(2, false) + "\n```", 2, entity.UrgencyLow},
		{"score as float literal", strings.Replace(assessmentJSON(9, true), `"score":9`, `"score":9.0`, 1), 9, entity.UrgencyHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.respond(tt.response)

			got, err := env.svc.Classifier().Classify(context.Background(), entity.IncidentContext{
				Transcript:   "someone is following me",
				ContextBlock: noUserContext,
			})
			if err != nil {
				t.Fatal(err)
			}
			if got.Kind != entity.ClassificationParsed {
				t.Fatalf("kind = %s (%s)", got.Kind, got.ParseError)
			}
			if got.Assessment.UrgencyScore != tt.wantScore || got.Assessment.UrgencyLevel != tt.wantLevel {
				t.Errorf("got %d/%s, want %d/%s", got.Assessment.UrgencyScore, got.Assessment.UrgencyLevel, tt.wantScore, tt.wantLevel)
			}
			if got.Raw != tt.response {
				t.Error("raw output must be kept verbatim")
			}
		})
	}
}

func TestClassify_Unparseable(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"prose", "The caller seems to be in danger."},
		{"score above range", assessmentJSON(11, true)},
		{"negative score", assessmentJSON(-1, false)},
		{"fractional score", strings.Replace(assessmentJSON(7, true), `"score":7`, `"score":7.5`, 1)},
		{"missing score", `{"overall_tone_urgency":{"rationale":"x"}}`},
		{"missing urgency block", `{"summary":"x"}`},
		{"score as string", `{"overall_tone_urgency":{"score":"8"}}`},
		{"broken json", `{"overall_tone_urgency": {"score": 8,}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.respond(tt.response)

			got, err := env.svc.Classifier().Classify(context.Background(), entity.IncidentContext{Transcript: "help"})
			if err != nil {
				t.Fatal(err)
			}
			if got.Kind != entity.ClassificationUnparseable {
				t.Fatalf("kind = %s", got.Kind)
			}
			if got.ParseError == "" || got.Assessment != nil {
				t.Errorf("expected parse error without assessment, got %+v", got)
			}
			if got.Raw != tt.response {
				t.Error("raw output must be kept verbatim")
			}
		})
	}
}

func TestClassify_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.generator.err = &llm.UpstreamError{Provider: "gemini", Status: 503, Message: "overloaded"}

	_, err := env.svc.Classifier().Classify(context.Background(), entity.IncidentContext{Transcript: "help"})
	if !errors.Is(err, triage.ErrClassificationFailed) {
		t.Fatalf("expected classification failure, got %v", err)
	}

	var upstream *llm.UpstreamError
	if !errors.As(err, &upstream) || upstream.Status != 503 {
		t.Errorf("upstream detail lost: %v", err)
	}
	if env.generator.Calls() != 1 {
		t.Errorf("expected a single attempt, got %d", env.generator.Calls())
	}
}

func TestClassify_PromptCarriesContext(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Classifier().Classify(context.Background(), entity.IncidentContext{
		Transcript:      "a man is following me",
		LiveCoordinates: &entity.Coordinates{Latitude: 1.5, Longitude: 2.25},
		ContextBlock:    "Home location: Not set",
	})
	if err != nil {
		t.Fatal(err)
	}

	prompt := env.generator.prompts[0]
	for _, want := range []string{
		"ONLY valid JSON",
		"Transcript:\na man is following me",
		"Live location: 1.5000, 2.2500",
		"User location context:\nHome location: Not set",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
