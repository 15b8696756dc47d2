package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/FACorreiaa/kanso/internal/app/models"
)

type generatedItinerary struct {
	Destination string                `json:"destination"`
	Duration    int                   `json:"duration"`
	Budget      string                `json:"budget"`
	Days        []models.DayItinerary `json:"days"`
}

// GenerateItinerary produces a day-by-day plan constrained by the itinerary
// schema. It never returns a partial itinerary.
func (g *Gateway) GenerateItinerary(ctx context.Context, prefs models.UserPreferences) (*models.Itinerary, error) {
	l := g.logger.With(zap.String("method", "GenerateItinerary"))

	if err := g.admit(ctx, opItinerary); err != nil {
		return nil, err
	}
	if err := prefs.Validate(); err != nil {
		return nil, err
	}

	destination := g.gate.Sanitize(prefs.Destination)
	if destination == "" {
		return nil, models.NewValidationError("destination", "is required")
	}
	interests := g.gate.SanitizeAll(prefs.Interests)
	group := g.gate.SanitizeAll(prefs.GroupComposition)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(itinerarySystemPrompt),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    itinerarySchema(),
	}
	prompt := itineraryPrompt(prefs, destination, interests, group)

	resp, elapsed, err := g.generate(ctx, opItinerary, g.textModel, genai.Text(prompt), cfg)
	if err != nil {
		g.record(ctx, opItinerary, outcomeError, elapsed)
		return nil, &models.GenerationError{Operation: opItinerary, Kind: models.ProviderError, Err: err}
	}

	days, err := parseItineraryDays(responseText(resp))
	if err == nil {
		err = checkDuration(days, prefs.Days)
	}
	if err != nil {
		l.Warn("Unusable itinerary response", zap.Error(err))
		g.record(ctx, opItinerary, outcomeError, elapsed)
		return nil, &models.GenerationError{Operation: opItinerary, Kind: models.ParseError, Err: err}
	}

	itinerary := &models.Itinerary{
		ID:          g.newID(),
		Destination: destination,
		Duration:    prefs.Days,
		StartDate:   prefs.StartDate,
		Travelers:   prefs.Travelers,
		GroupType:   group,
		Budget:      prefs.Budget,
		Days:        days,
		CreatedAt:   g.now().UnixMilli(),
	}
	if err := itinerary.Validate(); err != nil {
		l.Warn("Generated itinerary failed validation", zap.Error(err))
		g.record(ctx, opItinerary, outcomeError, elapsed)
		return nil, &models.GenerationError{Operation: opItinerary, Kind: models.ParseError, Err: err}
	}

	g.record(ctx, opItinerary, outcomeSuccess, elapsed)
	l.Info("Itinerary generated",
		zap.String("itinerary_id", itinerary.ID),
		zap.Int("days", len(itinerary.Days)),
		zap.Duration("elapsed", elapsed))
	return itinerary, nil
}

func parseItineraryDays(text string) ([]models.DayItinerary, error) {
	if text == "" {
		return nil, errors.New("empty response")
	}
	var out generatedItinerary
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		// Schema mode should return bare JSON; tolerate a fenced block anyway.
		raw, ok := extractJSON(text, '{')
		if !ok {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
	}
	if len(out.Days) == 0 {
		return nil, errors.New("response has no days")
	}
	for i := range out.Days {
		if out.Days[i].Activities == nil {
			out.Days[i].Activities = []models.Activity{}
		}
	}
	return out.Days, nil
}

// checkDuration requires exactly one entry per requested day, numbered
// 1..duration in any order.
func checkDuration(days []models.DayItinerary, duration int) error {
	if len(days) != duration {
		return fmt.Errorf("response has %d days, requested %d", len(days), duration)
	}
	seen := make(map[int]struct{}, len(days))
	for _, d := range days {
		if d.Day < 1 || d.Day > duration {
			return fmt.Errorf("day %d outside 1..%d", d.Day, duration)
		}
		if _, dup := seen[d.Day]; dup {
			return fmt.Errorf("duplicate day %d", d.Day)
		}
		seen[d.Day] = struct{}{}
	}
	return nil
}
