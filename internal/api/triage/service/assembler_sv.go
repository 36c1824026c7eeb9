package triageService

import (
	"PanicButton/internal/api/triage"
	"PanicButton/internal/entity"
	"PanicButton/pkg/geo"
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
)

const noUserContext = "User location context: Not available (no authenticated user)."

type referenceSummary struct {
	refs         entity.ReferenceLocations
	sameLocation *bool
	distanceKm   *float64
}

func (a *assemblerDomainImpl) BuildContextBlock(ctx context.Context, user *entity.User) string {
	if user == nil {
		return noUserContext
	}
	return renderContextBlock(a.summarize(ctx, user))
}

func (a *assemblerDomainImpl) Assemble(ctx context.Context, transcript string, live *entity.Coordinates, user *entity.User) (entity.IncidentContext, error) {
	if strings.TrimSpace(transcript) == "" {
		return entity.IncidentContext{}, triage.ErrEmptyTranscript
	}

	ic := entity.IncidentContext{
		Transcript:      transcript,
		LiveCoordinates: live,
	}

	if user == nil {
		ic.ContextBlock = noUserContext
		return ic, nil
	}

	summary := a.summarize(ctx, user)
	ic.ReferenceLocations = summary.refs
	ic.SameLocation = summary.sameLocation
	ic.DistanceKm = summary.distanceKm
	ic.ContextBlock = renderContextBlock(summary)

	return ic, nil
}

// summarize resolves home and work in parallel. Resolution never fails, so the
// group only serves as a join point.
func (a *assemblerDomainImpl) summarize(ctx context.Context, user *entity.User) referenceSummary {
	refs := entity.ReferenceLocations{
		HomeLabel: strings.TrimSpace(user.HomeLocation),
		WorkLabel: strings.TrimSpace(user.WorkLocation),
	}

	if a.resolver != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			refs.HomeCoordinates = a.resolver.Resolve(gctx, refs.HomeLabel)
			return nil
		})
		g.Go(func() error {
			refs.WorkCoordinates = a.resolver.Resolve(gctx, refs.WorkLabel)
			return nil
		})
		_ = g.Wait()
	}

	summary := referenceSummary{refs: refs}

	if refs.HomeLabel != "" && refs.WorkLabel != "" {
		fold := cases.Fold()
		same := fold.String(refs.HomeLabel) == fold.String(refs.WorkLabel)
		summary.sameLocation = &same
	}

	if refs.HomeCoordinates != nil && refs.WorkCoordinates != nil {
		d := geo.DistanceKm(*refs.HomeCoordinates, *refs.WorkCoordinates)
		summary.distanceKm = &d
	}

	return summary
}

func renderContextBlock(s referenceSummary) string {
	lines := []string{
		"Home location: " + locationLine(s.refs.HomeLabel, s.refs.HomeCoordinates),
		"Work/School location: " + locationLine(s.refs.WorkLabel, s.refs.WorkCoordinates),
	}

	same := "Unknown"
	if s.sameLocation != nil {
		same = "No"
		if *s.sameLocation {
			same = "Yes"
		}
	}
	lines = append(lines, "Home and work are the same location: "+same)

	if s.distanceKm != nil {
		km := *s.distanceKm
		lines = append(lines, fmt.Sprintf("Distance between home and work: %.2f km (%.2f miles)", km, km*geo.KmToMiles))
	} else {
		lines = append(lines, "Distance between home and work: Not available.")
	}

	return strings.Join(lines, "\n")
}

func locationLine(label string, coords *entity.Coordinates) string {
	if label == "" {
		return "Not set"
	}
	if coords == nil {
		return label
	}
	return fmt.Sprintf("%s (%.4f, %.4f)", label, coords.Latitude, coords.Longitude)
}
