package itineraries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/kanso/internal/app/domain/tools"
	"github.com/FACorreiaa/kanso/internal/app/models"
)

const placeholderTBD = "TBD"

// Generator is the part of the generation gateway this package drives.
type Generator interface {
	GenerateItinerary(ctx context.Context, prefs models.UserPreferences) (*models.Itinerary, error)
	GetTravelSuggestions(ctx context.Context, prefs models.UserPreferences) (models.TravelSuggestions, error)
	Chat(ctx context.Context, history []models.ChatTurn, message string, itinerary *models.Itinerary) (*models.ChatResponse, error)
}

// Dispatcher applies tool calls returned by a chat turn.
type Dispatcher interface {
	Dispatch(ctx context.Context, itinerary *models.Itinerary, calls []models.ToolCall) []tools.Confirmation
}

var _ Dispatcher = (*tools.Dispatcher)(nil)

// PlanRequest asks for a new itinerary. With IncludeSuggestions the flight
// and hotel picks are fetched alongside; unselected picks are replaced by
// TBD placeholders.
type PlanRequest struct {
	Preferences        models.UserPreferences `json:"preferences"`
	IncludeSuggestions bool                   `json:"includeSuggestions"`
	SelectFlight       bool                   `json:"selectFlight"`
	SelectHotel        bool                   `json:"selectHotel"`
}

type ChatRequest struct {
	Message string            `json:"message"`
	History []models.ChatTurn `json:"history"`
}

// ChatResult is the reply to one chat turn. Itinerary is set when the turn
// changed it.
type ChatResult struct {
	Message   models.ChatMessage   `json:"message"`
	Applied   []tools.Confirmation `json:"applied,omitempty"`
	Itinerary *models.Itinerary    `json:"itinerary,omitempty"`
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Plan(ctx context.Context, email string, req PlanRequest) (*models.Itinerary, error)
	List(ctx context.Context, email string) ([]models.Itinerary, error)
	Get(ctx context.Context, email, id string) (*models.Itinerary, error)
	Save(ctx context.Context, email string, itinerary models.Itinerary) (*models.Itinerary, error)
	Delete(ctx context.Context, email, id string) error
	ToggleBooked(ctx context.Context, email, id string, day, index int) (*models.Itinerary, error)
	Chat(ctx context.Context, email, id string, req ChatRequest) (*ChatResult, error)
}

type ServiceImpl struct {
	logger     *zap.Logger
	repo       Repository
	generator  Generator
	dispatcher Dispatcher
	now        func() time.Time
	newID      func() string
}

func NewService(repo Repository, generator Generator, dispatcher Dispatcher, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		repo:       repo,
		generator:  generator,
		dispatcher: dispatcher,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Plan generates an itinerary, optionally fetching travel suggestions
// concurrently, and stores it for the owner. Suggestions are best effort:
// their failure never fails the plan.
func (s *ServiceImpl) Plan(ctx context.Context, email string, req PlanRequest) (*models.Itinerary, error) {
	l := s.logger.With(zap.String("method", "Plan"), zap.String("email", email))
	ctx, span := otel.Tracer("ItinerariesService").Start(ctx, "ItinerariesService.Plan")
	defer span.End()

	var (
		itinerary   *models.Itinerary
		suggestions *models.TravelSuggestions
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		it, err := s.generator.GenerateItinerary(gctx, req.Preferences)
		if err != nil {
			return err
		}
		itinerary = it
		return nil
	})
	if req.IncludeSuggestions {
		g.Go(func() error {
			sug, err := s.generator.GetTravelSuggestions(gctx, req.Preferences)
			if err != nil {
				l.Warn("Travel suggestions unavailable", zap.Error(err))
				return nil
			}
			suggestions = &sug
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if suggestions != nil {
		itinerary.Suggestions = selectSuggestions(*suggestions, req.SelectFlight, req.SelectHotel)
	}
	if err := s.repo.Save(ctx, email, itinerary); err != nil {
		return nil, err
	}
	l.Info("Itinerary planned", zap.String("id", itinerary.ID), zap.Int("days", len(itinerary.Days)))
	return itinerary, nil
}

func selectSuggestions(sug models.TravelSuggestions, flight, hotel bool) *models.TravelSuggestions {
	out := sug
	if !flight {
		out.Flight = models.FlightSuggestion{Airline: placeholderTBD, Price: "---", Route: "---"}
	}
	if !hotel {
		out.Hotel = models.HotelSuggestion{Name: placeholderTBD, Price: "---", Rating: "---"}
	}
	return &out
}

func (s *ServiceImpl) List(ctx context.Context, email string) ([]models.Itinerary, error) {
	return s.repo.List(ctx, email)
}

func (s *ServiceImpl) Get(ctx context.Context, email, id string) (*models.Itinerary, error) {
	return s.repo.Get(ctx, email, id)
}

// Save stores a client supplied itinerary. A missing id or timestamp is
// assigned here.
func (s *ServiceImpl) Save(ctx context.Context, email string, itinerary models.Itinerary) (*models.Itinerary, error) {
	if itinerary.ID == "" {
		itinerary.ID = s.newID()
	}
	if itinerary.CreatedAt == 0 {
		itinerary.CreatedAt = s.now().UnixMilli()
	}
	if itinerary.Days == nil {
		itinerary.Days = []models.DayItinerary{}
	}
	if err := s.repo.Save(ctx, email, &itinerary); err != nil {
		return nil, err
	}
	return &itinerary, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, email, id string) error {
	return s.repo.Delete(ctx, email, id)
}

func (s *ServiceImpl) ToggleBooked(ctx context.Context, email, id string, day, index int) (*models.Itinerary, error) {
	itinerary, err := s.repo.Get(ctx, email, id)
	if err != nil {
		return nil, err
	}
	if !itinerary.ToggleBooked(day, index) {
		return nil, fmt.Errorf("day %d activity %d: %w", day, index, models.ErrNotFound)
	}
	if err := s.repo.Save(ctx, email, itinerary); err != nil {
		return nil, err
	}
	return itinerary, nil
}

// Chat runs one assistant turn against a stored itinerary. An empty id
// chats without itinerary context. Applied tool calls are persisted before
// the reply is returned.
func (s *ServiceImpl) Chat(ctx context.Context, email, id string, req ChatRequest) (*ChatResult, error) {
	l := s.logger.With(zap.String("method", "Chat"))

	var itinerary *models.Itinerary
	if id != "" {
		var err error
		if itinerary, err = s.repo.Get(ctx, email, id); err != nil {
			return nil, err
		}
	}

	resp, err := s.generator.Chat(ctx, req.History, req.Message, itinerary)
	if err != nil {
		return nil, err
	}

	result := &ChatResult{
		Message: models.ChatMessage{
			ID:        s.newID(),
			Role:      models.RoleModel,
			Text:      resp.Text,
			Timestamp: s.now().UnixMilli(),
			Sources:   resp.Sources,
		},
	}
	if itinerary == nil || len(resp.ToolCalls) == 0 {
		return result, nil
	}

	applied := s.dispatcher.Dispatch(ctx, itinerary, resp.ToolCalls)
	if len(applied) == 0 {
		return result, nil
	}
	if err := s.repo.Save(ctx, email, itinerary); err != nil {
		if errors.Is(err, models.ErrValidation) {
			l.Warn("Tool call produced an invalid itinerary, not saved", zap.Error(err))
			return result, nil
		}
		return nil, err
	}

	result.Applied = applied
	result.Itinerary = itinerary
	result.Message.Text = fmt.Sprintf("I've updated Day %d of your itinerary.", applied[len(applied)-1].Day)
	l.Info("Itinerary updated from chat", zap.String("id", itinerary.ID), zap.Int("applied", len(applied)))
	return result, nil
}
