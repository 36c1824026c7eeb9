package geo

import (
	"PanicButton/internal/entity"
	"context"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/golang/geo/s2"
	"github.com/sirupsen/logrus"
)

const (
	EarthRadiusKm = 6371.0
	KmToMiles     = 0.621371
)

// Geocoder performs a forward lookup of a free-text place and reports the
// first match only. A nil result with a nil error means no match.
type Geocoder interface {
	Forward(ctx context.Context, query string) (*entity.Coordinates, error)
}

type IResolver interface {
	Resolve(ctx context.Context, text string) *entity.Coordinates
}

type resolver struct {
	geocoder Geocoder
	log      *logrus.Logger
}

func NewResolver(geocoder Geocoder, log *logrus.Logger) IResolver {
	return &resolver{
		geocoder: geocoder,
		log:      log,
	}
}

// Resolve is best effort: it never returns an error, only nil when the text
// cannot be turned into coordinates.
func (r *resolver) Resolve(ctx context.Context, text string) *entity.Coordinates {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if coords, ok := ParseCoordinates(text); ok {
		return &coords
	}

	if r.geocoder == nil {
		return nil
	}

	coords, err := r.geocoder.Forward(ctx, text)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"query": text,
			"error": err.Error(),
		}).Warn("Forward geocoding failed")
		return nil
	}

	return coords
}

// ParseCoordinates accepts "lat, lng", "lat lng" and "(lat,lng)".
func ParseCoordinates(text string) (entity.Coordinates, bool) {
	cleaned := strings.NewReplacer("(", " ", ")", " ").Replace(text)
	parts := strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(parts) != 2 {
		return entity.Coordinates{}, false
	}

	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return entity.Coordinates{}, false
	}
	lng, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return entity.Coordinates{}, false
	}

	if !ValidCoordinates(lat, lng) {
		return entity.Coordinates{}, false
	}

	return entity.Coordinates{Latitude: lat, Longitude: lng}, true
}

func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return math.Abs(lat) <= 90 && math.Abs(lng) <= 180
}

// DistanceKm is the haversine distance on a sphere of EarthRadiusKm.
func DistanceKm(a, b entity.Coordinates) float64 {
	// evaluate in a fixed order so the result is bit-for-bit symmetric
	if b.Latitude < a.Latitude || (b.Latitude == a.Latitude && b.Longitude < a.Longitude) {
		a, b = b, a
	}

	from := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	to := s2.LatLngFromDegrees(b.Latitude, b.Longitude)

	return from.Distance(to).Radians() * EarthRadiusKm
}
