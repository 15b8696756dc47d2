// Package assistant exposes the stateless generation endpoints: travel
// suggestions, speech synthesis and nearby search.
package assistant

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/domain/generation"
	"github.com/FACorreiaa/kanso/internal/app/handlers"
	"github.com/FACorreiaa/kanso/internal/app/models"
)

type Generator interface {
	GetTravelSuggestions(ctx context.Context, prefs models.UserPreferences) (models.TravelSuggestions, error)
	SynthesizeSpeech(ctx context.Context, text string) (string, error)
	SearchNearby(ctx context.Context, lat, lng float64, query string) ([]models.NearbyPlace, error)
}

var _ Generator = (*generation.Gateway)(nil)

type SpeechRequest struct {
	Text string `json:"text" binding:"required"`
}

type SpeechResponse struct {
	Audio    string `json:"audio"`
	MIMEType string `json:"mimeType"`
}

type AssistantHandler struct {
	*handlers.BaseHandler
	generator Generator
}

func NewAssistantHandler(generator Generator, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{
		BaseHandler: handlers.NewBaseHandler(logger),
		generator:   generator,
	}
}

// Suggestions godoc
// @Summary Flight and hotel suggestions for a trip
// @Tags assistant
// @Accept json
// @Produce json
// @Param preferences body models.UserPreferences true "Trip preferences"
// @Success 200 {object} models.TravelSuggestions
// @Failure 429 {object} handlers.ErrorResponse
// @Router /api/suggestions [post]
func (h *AssistantHandler) Suggestions(c *gin.Context) {
	var prefs models.UserPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		h.BadRequest(c, "invalid preferences")
		return
	}
	suggestions, err := h.generator.GetTravelSuggestions(c.Request.Context(), prefs)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestions)
}

// Speech godoc
// @Summary Synthesize speech for a piece of text
// @Tags assistant
// @Accept json
// @Produce json
// @Param request body SpeechRequest true "Text to read"
// @Success 200 {object} SpeechResponse
// @Failure 502 {object} handlers.ErrorResponse
// @Router /api/speech [post]
func (h *AssistantHandler) Speech(c *gin.Context) {
	var req SpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "text is required")
		return
	}
	audio, err := h.generator.SynthesizeSpeech(c.Request.Context(), req.Text)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SpeechResponse{Audio: audio, MIMEType: "audio/pcm;rate=24000"})
}

// Nearby godoc
// @Summary Places of interest around a point
// @Tags assistant
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param q query string false "What to look for"
// @Success 200 {array} models.NearbyPlace
// @Router /api/nearby [get]
func (h *AssistantHandler) Nearby(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		h.BadRequest(c, "lat must be a number")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		h.BadRequest(c, "lng must be a number")
		return
	}
	places, err := h.generator.SearchNearby(c.Request.Context(), lat, lng, c.Query("q"))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, places)
}
