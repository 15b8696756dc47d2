package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/FACorreiaa/kanso/internal/app/models"
)

// FallbackSuggestions is returned whenever grounded suggestions are unavailable.
func FallbackSuggestions() models.TravelSuggestions {
	return models.TravelSuggestions{
		Flight: models.FlightSuggestion{
			Airline: "Search airlines",
			Price:   "$---",
			Route:   "Direct/Connecting",
			Note:    "Live data unavailable",
		},
		Hotel: models.HotelSuggestion{
			Name:        "Boutique Stay",
			Price:       "$---",
			Rating:      "4.5",
			Description: "Minimalist accommodation nearby.",
		},
	}
}

func suggestionsCacheKey(prefs models.UserPreferences, destination string) string {
	return fmt.Sprintf("suggestions:%s:%s:%s:%d",
		strings.ToLower(destination), prefs.Budget, prefs.StartDate, prefs.Travelers)
}

// GetTravelSuggestions asks a search grounded model for one flight and one
// hotel. Only rate limiting is reported as an error; every other failure
// degrades to FallbackSuggestions.
func (g *Gateway) GetTravelSuggestions(ctx context.Context, prefs models.UserPreferences) (models.TravelSuggestions, error) {
	l := g.logger.With(zap.String("method", "GetTravelSuggestions"))

	if err := g.admit(ctx, opSuggestions); err != nil {
		return models.TravelSuggestions{}, err
	}

	destination := g.gate.Sanitize(prefs.Destination)
	if destination == "" {
		g.record(ctx, opSuggestions, outcomeFallback, 0)
		return FallbackSuggestions(), nil
	}

	key := suggestionsCacheKey(prefs, destination)
	if cached, ok := g.suggestions.Get(key); ok {
		l.Debug("Suggestions cache hit", zap.String("key", key))
		g.record(ctx, opSuggestions, outcomeSuccess, 0)
		return cached.(models.TravelSuggestions), nil
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(suggestionsSystemPrompt),
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	resp, elapsed, err := g.generate(ctx, opSuggestions, g.textModel, genai.Text(suggestionsPrompt(prefs, destination)), cfg)
	if err != nil {
		g.record(ctx, opSuggestions, outcomeFallback, elapsed)
		return FallbackSuggestions(), nil
	}

	suggestions, err := parseSuggestions(responseText(resp))
	if err != nil {
		l.Warn("Could not parse suggestions, using fallback", zap.Error(err))
		g.record(ctx, opSuggestions, outcomeFallback, elapsed)
		return FallbackSuggestions(), nil
	}

	g.suggestions.Set(key, suggestions, cache.DefaultExpiration)
	g.record(ctx, opSuggestions, outcomeSuccess, elapsed)
	return suggestions, nil
}

func parseSuggestions(text string) (models.TravelSuggestions, error) {
	raw, ok := extractJSON(text, '{')
	if !ok {
		return models.TravelSuggestions{}, fmt.Errorf("no JSON object in response")
	}
	var out models.TravelSuggestions
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return models.TravelSuggestions{}, fmt.Errorf("decode suggestions: %w", err)
	}
	if out.Flight == (models.FlightSuggestion{}) && out.Hotel == (models.HotelSuggestion{}) {
		return models.TravelSuggestions{}, fmt.Errorf("suggestions object has neither flight nor hotel")
	}
	return out, nil
}
