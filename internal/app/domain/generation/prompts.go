package generation

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/kanso/internal/app/models"
)

const (
	itinerarySystemPrompt   = "You are an expert travel guide. Create authentic, personalized travel itineraries."
	suggestionsSystemPrompt = "You are a travel booking expert. Provide realistic, grounded suggestions using current market data. " +
		"Always respond with a single JSON object in a markdown code block."
	chatSystemPrompt   = "You are a helpful, knowledgeable AI travel assistant for the Kanso app."
	nearbySystemPrompt = "You are a location finder. Format the response as a JSON array."

	defaultNearbyQuery = "interesting places"
)

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// itineraryPrompt expects destination, interests and group already sanitized.
func itineraryPrompt(prefs models.UserPreferences, destination string, interests, group []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a detailed %d-day travel itinerary for a trip to %s.\n", prefs.Days, destination)
	fmt.Fprintf(&sb, "Start Date: %s.\n", orDefault(prefs.StartDate, "flexible"))
	fmt.Fprintf(&sb, "Travelers: %d person(s).\n", prefs.Travelers)
	fmt.Fprintf(&sb, "Group Composition: %s.\n", orDefault(strings.Join(group, ", "), "Standard"))
	fmt.Fprintf(&sb, "Budget level: %s.\n", prefs.Budget)
	fmt.Fprintf(&sb, "Interests: %s.\n", orDefault(strings.Join(interests, ", "), "general sightseeing"))
	sb.WriteString("Include accurate geolocation data.")
	return sb.String()
}

func suggestionsPrompt(prefs models.UserPreferences, destination string) string {
	return fmt.Sprintf(`Using Google Search, find one specific recommended flight and one specific recommended hotel for a trip to %s.
Dates: %s.
Budget level: %s.
Travelers: %d.

IMPORTANT: Your response MUST be valid JSON wrapped in a code block.

JSON Schema:
{
  "flight": {"airline": string, "price": string, "route": string, "note": string},
  "hotel": {"name": string, "price": string, "rating": string, "description": string}
}`, destination, orDefault(prefs.StartDate, "Upcoming months"), prefs.Budget, prefs.Travelers)
}

func chatInstruction(itineraryJSON []byte) string {
	if itineraryJSON == nil {
		return chatSystemPrompt
	}
	return chatSystemPrompt + "\n\nCURRENT ITINERARY CONTEXT:\n" + string(itineraryJSON)
}

func nearbyPrompt(lat, lng float64, query string) string {
	return fmt.Sprintf(`Find 5 %s near latitude %.6f, longitude %.6f. Return a JSON array where each element has
"name", "category", "description", "lat", "lng" and "rating".`, query, lat, lng)
}
