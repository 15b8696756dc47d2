package generation

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/FACorreiaa/kanso/internal/app/models"
)

const (
	nearbyLimit        = 5
	nearbyFirstID      = 100
	nearbyDefaultScore = 4.5
	nearbyOpenTime     = "09:00 - 18:00"
)

type rawPlace struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Rating      *float64 `json:"rating"`
}

// SearchNearby asks a maps grounded model for places around a point. Any
// provider or parse failure yields an empty list.
func (g *Gateway) SearchNearby(ctx context.Context, lat, lng float64, query string) ([]models.NearbyPlace, error) {
	l := g.logger.With(zap.String("method", "SearchNearby"))

	if err := g.admit(ctx, opNearby); err != nil {
		return nil, err
	}
	if lat < -90 || lat > 90 {
		return nil, models.NewValidationError("lat", "must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return nil, models.NewValidationError("lng", "must be between -180 and 180")
	}

	safe := orDefault(g.gate.Sanitize(query), defaultNearbyQuery)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(nearbySystemPrompt),
		Tools:             []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}},
		ToolConfig: &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{
				LatLng: &genai.LatLng{Latitude: genai.Ptr(lat), Longitude: genai.Ptr(lng)},
			},
		},
	}
	resp, elapsed, err := g.generate(ctx, opNearby, g.textModel, genai.Text(nearbyPrompt(lat, lng, safe)), cfg)
	if err != nil {
		g.record(ctx, opNearby, outcomeFallback, elapsed)
		return []models.NearbyPlace{}, nil
	}

	raw, ok := extractJSON(responseText(resp), '[')
	var places []rawPlace
	if ok {
		err = json.Unmarshal([]byte(raw), &places)
	}
	if !ok || err != nil {
		l.Warn("Could not parse nearby places", zap.Bool("found_array", ok), zap.Error(err))
		g.record(ctx, opNearby, outcomeFallback, elapsed)
		return []models.NearbyPlace{}, nil
	}

	out := make([]models.NearbyPlace, 0, nearbyLimit)
	for _, p := range places {
		if p.Name == "" {
			continue
		}
		place := models.NearbyPlace{
			ID:          nearbyFirstID + len(out),
			Name:        p.Name,
			Category:    orDefault(p.Category, "General"),
			Description: p.Description,
			Lat:         lat,
			Lng:         lng,
			Rating:      nearbyDefaultScore,
			OpenTime:    nearbyOpenTime,
		}
		if p.Lat != nil && p.Lng != nil {
			place.Lat, place.Lng = *p.Lat, *p.Lng
		}
		if p.Rating != nil && *p.Rating > 0 {
			place.Rating = *p.Rating
		}
		out = append(out, place)
		if len(out) == nearbyLimit {
			break
		}
	}
	g.record(ctx, opNearby, outcomeSuccess, elapsed)
	return out, nil
}
