package geo

import (
	"PanicButton/internal/entity"
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

type googleMaps struct {
	client *maps.Client
}

func NewGoogleMaps(apiKey string, options ...maps.ClientOption) (Geocoder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google maps api key is required")
	}

	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}

	return &googleMaps{client: client}, nil
}

func (g *googleMaps) Forward(ctx context.Context, query string) (*entity.Coordinates, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: query,
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	location := results[0].Geometry.Location
	return &entity.Coordinates{Latitude: location.Lat, Longitude: location.Lng}, nil
}
