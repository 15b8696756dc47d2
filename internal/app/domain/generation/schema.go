package generation

import (
	"google.golang.org/genai"

	"github.com/FACorreiaa/kanso/internal/app/models"
)

func categoryEnum() []string {
	out := make([]string, 0, len(models.ActivityCategories))
	for _, c := range models.ActivityCategories {
		out = append(out, string(c))
	}
	return out
}

func activitySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"time":          {Type: genai.TypeString, Description: "Time of day (e.g., 09:00 AM)"},
			"activity":      {Type: genai.TypeString, Description: "Name of the activity"},
			"location":      {Type: genai.TypeString, Description: "Location name or address"},
			"description":   {Type: genai.TypeString, Description: "Brief description of what to do there"},
			"type":          {Type: genai.TypeString, Enum: categoryEnum()},
			"cost_estimate": {Type: genai.TypeString, Description: "Estimated cost in local currency"},
			"coordinates": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"lat": {Type: genai.TypeNumber, Description: "Latitude of the location"},
					"lng": {Type: genai.TypeNumber, Description: "Longitude of the location"},
				},
				Required: []string{"lat", "lng"},
			},
		},
		Required: []string{"time", "activity", "location", "type", "coordinates"},
	}
}

func daySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"day":        {Type: genai.TypeInteger},
			"theme":      {Type: genai.TypeString, Description: "Theme for the day"},
			"activities": {Type: genai.TypeArray, Items: activitySchema()},
		},
		Required: []string{"day", "activities"},
	}
}

// itinerarySchema constrains GenerateItinerary output.
func itinerarySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"destination": {Type: genai.TypeString},
			"duration":    {Type: genai.TypeInteger},
			"budget":      {Type: genai.TypeString},
			"days":        {Type: genai.TypeArray, Items: daySchema()},
		},
		Required: []string{"destination", "days"},
	}
}

// updateDayDeclaration is advertised only when the chat has an itinerary.
func updateDayDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        models.ToolUpdateDayActivities,
		Description: "Update the activities for a specific day in the itinerary.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"day":   {Type: genai.TypeInteger, Description: "The day number to update (e.g., 1)"},
				"theme": {Type: genai.TypeString, Description: "New theme for the day if changed"},
				"activities": {
					Type:        genai.TypeArray,
					Items:       activitySchema(),
					Description: "The complete new list of activities for this day.",
				},
			},
			Required: []string{"day", "activities"},
		},
	}
}
