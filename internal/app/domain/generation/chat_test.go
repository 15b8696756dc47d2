package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/FACorreiaa/kanso/internal/app/models"
)

func sampleItinerary() *models.Itinerary {
	return &models.Itinerary{
		ID:          "itin-1",
		Destination: "Lisbon",
		Duration:    2,
		Budget:      models.BudgetModerate,
		Days: []models.DayItinerary{
			{Day: 1, Theme: "Old town", Activities: []models.Activity{{Activity: "Alfama walk", Type: models.CategoryCulture}}},
			{Day: 2, Theme: "Coast", Activities: []models.Activity{{Activity: "Cascais", Type: models.CategoryNature}}},
		},
	}
}

func TestChat(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyMessageSkipsProvider", func(t *testing.T) {
		gw, provider := newTestGateway(t, 10)

		resp, err := gw.Chat(ctx, nil, "   \n", nil)
		require.NoError(t, err)
		assert.Equal(t, "", resp.Text)
		assert.Empty(t, resp.ToolCalls)
		provider.AssertNotCalled(t, "GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PlainAnswerWithSources", func(t *testing.T) {
		gw, provider := newTestGateway(t, 10)
		history := []models.ChatTurn{
			{Role: models.RoleUser, Text: "Hi"},
			{Role: models.RoleModel, Text: "Hello! Where to?"},
		}
		resp := textResponse("Try the Time Out Market.")
		resp.Candidates[0].GroundingMetadata = &genai.GroundingMetadata{
			GroundingChunks: []*genai.GroundingChunk{
				{Web: &genai.GroundingChunkWeb{Title: "Time Out", URI: "https://timeout.example"}},
				{Web: &genai.GroundingChunkWeb{Title: "", URI: "https://untitled.example"}},
				{Web: &genai.GroundingChunkWeb{Title: "Time Out", URI: "https://timeout.example"}},
				{},
			},
		}
		provider.On("GenerateContent", mock.Anything, "text-model",
			mock.MatchedBy(func(contents []*genai.Content) bool {
				return len(contents) == 3 &&
					contents[1].Role == "model" &&
					contents[2].Role == "user" &&
					contents[2].Parts[0].Text == "Where should I eat?"
			}),
			mock.MatchedBy(func(cfg *genai.GenerateContentConfig) bool {
				return len(cfg.Tools) == 1 && cfg.Tools[0].GoogleSearch != nil
			})).Return(resp, nil).Once()

		got, err := gw.Chat(ctx, history, "  Where should I eat?  ", nil)
		require.NoError(t, err)
		assert.Equal(t, "Try the Time Out Market.", got.Text)
		assert.Equal(t, []models.GroundingSource{{Title: "Time Out", URI: "https://timeout.example"}}, got.Sources)
		provider.AssertExpectations(t)
	})

	t.Run("ToolCallWithItineraryContext", func(t *testing.T) {
		gw, provider := newTestGateway(t, 10)
		call := &genai.FunctionCall{
			Name: models.ToolUpdateDayActivities,
			Args: map[string]any{
				"day":   float64(2),
				"theme": "Beaches",
				"activities": []any{
					map[string]any{"time": "10:00 AM", "activity": "Guincho", "location": "Cascais",
						"type": "nature", "coordinates": map[string]any{"lat": 38.73, "lng": -9.47}},
					map[string]any{"time": "01:00 PM", "activity": "Seafood lunch", "location": "Cascais", "type": "food"},
				},
			},
		}
		provider.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything,
			mock.MatchedBy(func(cfg *genai.GenerateContentConfig) bool {
				if len(cfg.Tools) != 2 || cfg.Tools[1].FunctionDeclarations[0].Name != models.ToolUpdateDayActivities {
					return false
				}
				return strings.Contains(cfg.SystemInstruction.Parts[0].Text, `"destination":"Lisbon"`)
			})).Return(responseWithParts(&genai.Part{FunctionCall: call}), nil).Once()

		got, err := gw.Chat(ctx, nil, "Make day 2 about beaches", sampleItinerary())
		require.NoError(t, err)
		assert.Equal(t, "Processed.", got.Text)
		require.Len(t, got.ToolCalls, 1)

		update, ok := got.ToolCalls[0].(models.UpdateDayActivities)
		require.True(t, ok)
		assert.Equal(t, 2, update.Day)
		require.NotNil(t, update.Theme)
		assert.Equal(t, "Beaches", *update.Theme)
		require.Len(t, update.Activities, 2)
		assert.Equal(t, "Guincho", update.Activities[0].Activity)
		assert.Equal(t, -9.47, update.Activities[0].Coordinates.Lng)
		assert.Equal(t, models.CategoryFood, update.Activities[1].Type)
	})

	t.Run("DropsUnknownAndUncontextualisedCalls", func(t *testing.T) {
		gw, provider := newTestGateway(t, 10)
		provider.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(responseWithParts(
				&genai.Part{Text: "Done."},
				&genai.Part{FunctionCall: &genai.FunctionCall{Name: "book_flight", Args: map[string]any{}}},
				&genai.Part{FunctionCall: &genai.FunctionCall{Name: models.ToolUpdateDayActivities,
					Args: map[string]any{"day": "two"}}},
			), nil).Twice()

		got, err := gw.Chat(ctx, nil, "go", sampleItinerary())
		require.NoError(t, err)
		assert.Equal(t, "Done.", got.Text)
		assert.Empty(t, got.ToolCalls)

		got, err = gw.Chat(ctx, nil, "go", nil)
		require.NoError(t, err)
		assert.Empty(t, got.ToolCalls)
	})

	t.Run("ProviderFailureApologises", func(t *testing.T) {
		gw, provider := newTestGateway(t, 10)
		provider.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("connection refused")).Once()

		got, err := gw.Chat(ctx, nil, "hello", nil)
		require.NoError(t, err)
		assert.Equal(t, "I am having trouble connecting right now.", got.Text)
	})

	t.Run("RateLimitedBeforeEmptyCheck", func(t *testing.T) {
		gw, provider := newTestGateway(t, 1)

		_, err := gw.Chat(ctx, nil, "", nil)
		require.NoError(t, err)

		_, err = gw.Chat(ctx, nil, "hello", nil)
		assert.ErrorIs(t, err, models.ErrRateLimited)
		provider.AssertNotCalled(t, "GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
