package triageService

import (
	"PanicButton/internal/api/triage"
	"PanicButton/internal/entity"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBuildContextBlock_NoUser(t *testing.T) {
	env := newTestEnv(t)

	got := env.svc.Assembler().BuildContextBlock(context.Background(), nil)
	if got != "User location context: Not available (no authenticated user)." {
		t.Errorf("unexpected sentinel %q", got)
	}
	if len(env.resolver.calls) != 0 {
		t.Errorf("expected no lookups, got %v", env.resolver.calls)
	}
}

func TestBuildContextBlock(t *testing.T) {
	tests := []struct {
		name string
		user entity.User
		want []string
	}{
		{
			name: "both resolved",
			user: entity.User{HomeLocation: "Atlanta City Hall", WorkLocation: "Georgia Tech"},
			want: []string{
				"Home location: Atlanta City Hall (33.7490, -84.3880)",
				"Work/School location: Georgia Tech (33.7756, -84.3963)",
				"Home and work are the same location: No",
				"Distance between home and work: 3.06 km (1.90 miles)",
			},
		},
		{
			name: "same label ignoring case",
			user: entity.User{HomeLocation: "Midtown Office", WorkLocation: "MIDTOWN OFFICE"},
			want: []string{
				"Home location: Midtown Office",
				"Work/School location: MIDTOWN OFFICE",
				"Home and work are the same location: Yes",
				"Distance between home and work: Not available.",
			},
		},
		{
			name: "nothing saved",
			user: entity.User{},
			want: []string{
				"Home location: Not set",
				"Work/School location: Not set",
				"Home and work are the same location: Unknown",
				"Distance between home and work: Not available.",
			},
		},
		{
			name: "only home",
			user: entity.User{HomeLocation: "Atlanta City Hall"},
			want: []string{
				"Home location: Atlanta City Hall (33.7490, -84.3880)",
				"Work/School location: Not set",
				"Home and work are the same location: Unknown",
				"Distance between home and work: Not available.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			user := tt.user

			got := env.svc.Assembler().BuildContextBlock(context.Background(), &user)
			lines := strings.Split(got, "\n")
			if len(lines) != 4 {
				t.Fatalf("expected 4 lines, got %d: %q", len(lines), got)
			}
			for i, want := range tt.want {
				if lines[i] != want {
					t.Errorf("line %d = %q, want %q", i, lines[i], want)
				}
			}
		})
	}
}

func TestAssemble_RejectsEmptyTranscript(t *testing.T) {
	env := newTestEnv(t)
	user := entity.User{HomeLocation: "Atlanta City Hall"}

	for _, transcript := range []string{"", "   ", "\n\t"} {
		_, err := env.svc.Assembler().Assemble(context.Background(), transcript, nil, &user)
		if !errors.Is(err, triage.ErrEmptyTranscript) {
			t.Errorf("transcript %q: got %v", transcript, err)
		}
	}
	if len(env.resolver.calls) != 0 {
		t.Errorf("expected no lookups, got %v", env.resolver.calls)
	}
}

func TestAssemble_DerivedFields(t *testing.T) {
	env := newTestEnv(t)
	user := entity.User{HomeLocation: "Atlanta City Hall", WorkLocation: "Georgia Tech"}
	live := &entity.Coordinates{Latitude: 33.75, Longitude: -84.39}

	ic, err := env.svc.Assembler().Assemble(context.Background(), "help me", live, &user)
	if err != nil {
		t.Fatal(err)
	}

	if ic.SameLocation == nil || *ic.SameLocation {
		t.Errorf("expected different locations, got %v", ic.SameLocation)
	}
	if ic.DistanceKm == nil || *ic.DistanceKm < 2.9 || *ic.DistanceKm > 3.3 {
		t.Errorf("unexpected distance %v", ic.DistanceKm)
	}
	if ic.LiveCoordinates != live {
		t.Error("live coordinates not carried")
	}
	if !strings.HasPrefix(ic.ContextBlock, "Home location: Atlanta City Hall") {
		t.Errorf("unexpected block %q", ic.ContextBlock)
	}
}
