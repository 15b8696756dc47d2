package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/kanso/internal/app/models"
)

func threeDayItinerary() *models.Itinerary {
	return &models.Itinerary{
		ID:          "it-1",
		Destination: "Porto",
		Days: []models.DayItinerary{
			{Day: 1, Theme: "Ribeira", Activities: []models.Activity{{Activity: "Bridge walk", Type: models.CategoryCulture}}},
			{Day: 2, Theme: "Wine", Activities: []models.Activity{
				{Activity: "Cellar tour", Type: models.CategoryFood},
				{Activity: "Boat ride", Type: models.CategoryRelax},
			}},
			{Day: 3, Theme: "Beach", Activities: []models.Activity{{Activity: "Foz", Type: models.CategoryNature}}},
		},
	}
}

func TestDispatch_ReplacesOnlyTargetDay(t *testing.T) {
	it := threeDayItinerary()
	before := threeDayItinerary()
	replacement := []models.Activity{
		{Activity: "Livraria Lello", Type: models.CategoryCulture},
		{Activity: "Francesinha", Type: models.CategoryFood},
		{Activity: "Serralves", Type: models.CategoryNature},
	}

	confs := NewDispatcher(nil).Dispatch(context.Background(), it, []models.ToolCall{
		models.UpdateDayActivities{Day: 2, Activities: replacement},
	})

	require.Len(t, confs, 1)
	assert.Equal(t, "Day 2 updated", confs[0].Text)
	assert.Equal(t, 2, confs[0].Day)

	assert.Equal(t, replacement, it.Days[1].Activities)
	assert.Equal(t, "Wine", it.Days[1].Theme, "theme kept when not provided")
	assert.Equal(t, before.Days[0], it.Days[0])
	assert.Equal(t, before.Days[2], it.Days[2])
}

func TestDispatch_ThemeReplacedWhenProvided(t *testing.T) {
	it := threeDayItinerary()
	theme := "Art"

	NewDispatcher(nil).Dispatch(context.Background(), it, []models.ToolCall{
		models.UpdateDayActivities{Day: 1, Activities: nil, Theme: &theme},
	})

	assert.Equal(t, "Art", it.Days[0].Theme)
	assert.NotNil(t, it.Days[0].Activities)
	assert.Empty(t, it.Days[0].Activities)
}

func TestDispatch_MissingDayIsNoOp(t *testing.T) {
	it := threeDayItinerary()

	confs := NewDispatcher(nil).Dispatch(context.Background(), it, []models.ToolCall{
		models.UpdateDayActivities{Day: 9, Activities: []models.Activity{{Activity: "Ghost"}}},
	})

	assert.Empty(t, confs)
	assert.Equal(t, threeDayItinerary(), it)
}

func TestDispatch_AppliesCallsInOrder(t *testing.T) {
	it := threeDayItinerary()

	confs := NewDispatcher(nil).Dispatch(context.Background(), it, []models.ToolCall{
		models.UpdateDayActivities{Day: 3, Activities: []models.Activity{{Activity: "First"}}},
		models.UpdateDayActivities{Day: 7, Activities: []models.Activity{{Activity: "Skipped"}}},
		models.UpdateDayActivities{Day: 3, Activities: []models.Activity{{Activity: "Second"}}},
	})

	require.Len(t, confs, 2)
	assert.Equal(t, "Second", it.Days[2].Activities[0].Activity)
}

func TestDispatch_NilItinerary(t *testing.T) {
	confs := NewDispatcher(nil).Dispatch(context.Background(), nil, []models.ToolCall{
		models.UpdateDayActivities{Day: 1},
	})
	assert.Nil(t, confs)
}
