// Package tools applies model issued tool calls to an itinerary.
package tools

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/models"
	"github.com/FACorreiaa/kanso/internal/app/observability/metrics"
)

// Confirmation describes one applied tool call.
type Confirmation struct {
	Tool string `json:"tool"`
	Day  int    `json:"day"`
	Text string `json:"text"`
}

type Dispatcher struct {
	logger *zap.Logger
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{logger: logger}
}

// Dispatch applies calls to itinerary in order and returns one confirmation
// per applied call. A call naming a day the itinerary does not have is
// skipped. The caller persists the itinerary when the result is non-empty.
func (d *Dispatcher) Dispatch(ctx context.Context, itinerary *models.Itinerary, calls []models.ToolCall) []Confirmation {
	if itinerary == nil {
		return nil
	}
	var applied []Confirmation
	for _, call := range calls {
		switch c := call.(type) {
		case nil:
			continue
		case models.UpdateDayActivities:
			if conf, ok := d.updateDay(itinerary, c); ok {
				applied = append(applied, conf)
				metrics.Get().ToolCallsAppliedTotal.Add(ctx, 1,
					metric.WithAttributes(attribute.String("tool", c.ToolName())))
			}
		default:
			d.logger.Warn("Unhandled tool call", zap.String("tool", call.ToolName()))
		}
	}
	return applied
}

func (d *Dispatcher) updateDay(itinerary *models.Itinerary, call models.UpdateDayActivities) (Confirmation, bool) {
	i := itinerary.DayByNumber(call.Day)
	if i < 0 {
		d.logger.Info("Tool call targets a missing day, skipping",
			zap.String("itinerary_id", itinerary.ID),
			zap.Int("day", call.Day))
		return Confirmation{}, false
	}

	activities := slices.Clone(call.Activities)
	if activities == nil {
		activities = []models.Activity{}
	}
	itinerary.Days[i].Activities = activities
	if call.Theme != nil {
		itinerary.Days[i].Theme = *call.Theme
	}

	d.logger.Info("Day activities replaced",
		zap.String("itinerary_id", itinerary.ID),
		zap.Int("day", call.Day),
		zap.Int("activities", len(activities)))
	return Confirmation{
		Tool: call.ToolName(),
		Day:  call.Day,
		Text: fmt.Sprintf("Day %d updated", call.Day),
	}, true
}
