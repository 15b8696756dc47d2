package models

import (
	"fmt"
	"slices"
	"time"
)

// ActivityCategory is the closed set of activity kinds the model may emit.
type ActivityCategory string

const (
	CategoryFood      ActivityCategory = "food"
	CategoryCulture   ActivityCategory = "culture"
	CategoryNature    ActivityCategory = "nature"
	CategoryAdventure ActivityCategory = "adventure"
	CategoryRelax     ActivityCategory = "relax"
)

// ActivityCategories lists every valid category in schema order.
var ActivityCategories = []ActivityCategory{
	CategoryFood, CategoryCulture, CategoryNature, CategoryAdventure, CategoryRelax,
}

func (c ActivityCategory) Valid() bool {
	return slices.Contains(ActivityCategories, c)
}

// BudgetTier is the closed set of budget levels.
type BudgetTier string

const (
	BudgetLow      BudgetTier = "Budget"
	BudgetModerate BudgetTier = "Moderate"
	BudgetLuxury   BudgetTier = "Luxury"
)

var BudgetTiers = []BudgetTier{BudgetLow, BudgetModerate, BudgetLuxury}

func (b BudgetTier) Valid() bool {
	return slices.Contains(BudgetTiers, b)
}

const (
	MaxTripDays  = 14
	MaxTravelers = 20
)

// UserPreferences is the planner input consumed once by the generation gateway.
type UserPreferences struct {
	Destination      string     `json:"destination"`
	Days             int        `json:"days"`
	StartDate        string     `json:"startDate,omitempty"`
	Travelers        int        `json:"travelers"`
	GroupComposition []string   `json:"groupComposition,omitempty"`
	Budget           BudgetTier `json:"budget"`
	Interests        []string   `json:"interests,omitempty"`
}

// Validate checks the structural fields. Free text is checked again after
// sanitization by the gateway.
func (p UserPreferences) Validate() error {
	if p.Days < 1 || p.Days > MaxTripDays {
		return NewValidationError("days", fmt.Sprintf("must be between 1 and %d", MaxTripDays))
	}
	if p.Travelers < 1 || p.Travelers > MaxTravelers {
		return NewValidationError("travelers", fmt.Sprintf("must be between 1 and %d", MaxTravelers))
	}
	if !p.Budget.Valid() {
		return NewValidationError("budget", "must be one of Budget, Moderate, Luxury")
	}
	if p.StartDate != "" {
		if _, err := time.Parse(time.DateOnly, p.StartDate); err != nil {
			return NewValidationError("startDate", "must be formatted as YYYY-MM-DD")
		}
	}
	return nil
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Activity struct {
	Time         string           `json:"time"`
	Activity     string           `json:"activity"`
	Location     string           `json:"location"`
	Description  string           `json:"description"`
	Type         ActivityCategory `json:"type"`
	CostEstimate string           `json:"cost_estimate"`
	Coordinates  *Coordinates     `json:"coordinates,omitempty"`
	Booked       bool             `json:"booked,omitempty"`
}

type DayItinerary struct {
	Day        int        `json:"day"`
	Theme      string     `json:"theme"`
	Activities []Activity `json:"activities"`
}

type FlightSuggestion struct {
	Airline string `json:"airline"`
	Price   string `json:"price"`
	Route   string `json:"route"`
	Note    string `json:"note"`
}

type HotelSuggestion struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Rating      string `json:"rating"`
	Description string `json:"description"`
}

// TravelSuggestions is the best-effort, search grounded flight and hotel pick.
type TravelSuggestions struct {
	Flight FlightSuggestion `json:"flight"`
	Hotel  HotelSuggestion  `json:"hotel"`
}

type Itinerary struct {
	ID          string             `json:"id"`
	Destination string             `json:"destination"`
	Duration    int                `json:"duration"`
	StartDate   string             `json:"startDate,omitempty"`
	Travelers   int                `json:"travelers,omitempty"`
	GroupType   []string           `json:"groupType,omitempty"`
	Budget      BudgetTier         `json:"budget"`
	Days        []DayItinerary     `json:"days"`
	CreatedAt   int64              `json:"createdAt,omitempty"`
	Suggestions *TravelSuggestions `json:"suggestions,omitempty"`
}

// DayByNumber returns the index of the day with the given number, or -1.
func (it *Itinerary) DayByNumber(day int) int {
	for i := range it.Days {
		if it.Days[i].Day == day {
			return i
		}
	}
	return -1
}

// Validate checks an itinerary before it is written to or after it is read
// from storage. The store itself enforces no schema.
func (it *Itinerary) Validate() error {
	if it.ID == "" {
		return NewValidationError("id", "is required")
	}
	if it.Destination == "" {
		return NewValidationError("destination", "is required")
	}
	if it.Budget != "" && !it.Budget.Valid() {
		return NewValidationError("budget", fmt.Sprintf("unknown tier %q", it.Budget))
	}
	seen := make(map[int]struct{}, len(it.Days))
	for _, d := range it.Days {
		if d.Day < 1 {
			return NewValidationError("days", fmt.Sprintf("invalid day number %d", d.Day))
		}
		if _, dup := seen[d.Day]; dup {
			return NewValidationError("days", fmt.Sprintf("duplicate day number %d", d.Day))
		}
		seen[d.Day] = struct{}{}
		for _, a := range d.Activities {
			if !a.Type.Valid() {
				return NewValidationError("activities", fmt.Sprintf("day %d has unknown category %q", d.Day, a.Type))
			}
		}
	}
	return nil
}

// ToggleBooked flips the booked flag of one activity. It reports false when
// the day or index does not exist.
func (it *Itinerary) ToggleBooked(day, index int) bool {
	i := it.DayByNumber(day)
	if i < 0 || index < 0 || index >= len(it.Days[i].Activities) {
		return false
	}
	it.Days[i].Activities[index].Booked = !it.Days[i].Activities[index].Booked
	return true
}

// NearbyPlace is one result of a grounded nearby search.
type NearbyPlace struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Rating      float64 `json:"rating"`
	OpenTime    string  `json:"openTime"`
}

// UserProfile is stored as an opaque JSON document keyed by email.
type UserProfile struct {
	Name                   string     `json:"name"`
	Bio                    string     `json:"bio"`
	HomeBase               string     `json:"homeBase"`
	DefaultBudget          BudgetTier `json:"defaultBudget"`
	DefaultInterests       []string   `json:"defaultInterests"`
	HasCompletedOnboarding bool       `json:"hasCompletedOnboarding"`
}
