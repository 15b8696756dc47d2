package itineraries

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/handlers"
	"github.com/FACorreiaa/kanso/internal/app/models"
)

type ItinerariesHandler struct {
	*handlers.BaseHandler
	service Service
}

func NewItinerariesHandler(service Service, logger *zap.Logger) *ItinerariesHandler {
	return &ItinerariesHandler{
		BaseHandler: handlers.NewBaseHandler(logger),
		service:     service,
	}
}

func (h *ItinerariesHandler) user(c *gin.Context) (string, bool) {
	email, ok := handlers.CurrentUser(c)
	if !ok {
		h.RespondError(c, models.ErrUnauthenticated)
	}
	return email, ok
}

// Plan godoc
// @Summary Generate and store a new itinerary
// @Tags itineraries
// @Accept json
// @Produce json
// @Param request body PlanRequest true "Planner input"
// @Success 201 {object} models.Itinerary
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 429 {object} handlers.ErrorResponse
// @Failure 502 {object} handlers.ErrorResponse
// @Router /api/plan [post]
func (h *ItinerariesHandler) Plan(c *gin.Context) {
	email, ok := h.user(c)
	if !ok {
		return
	}
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid plan request")
		return
	}

	itinerary, err := h.service.Plan(c.Request.Context(), email, req)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, itinerary)
}

// List godoc
// @Summary List saved itineraries, newest first
// @Tags itineraries
// @Produce json
// @Success 200 {array} models.Itinerary
// @Router /api/itineraries [get]
func (h *ItinerariesHandler) List(c *gin.Context) {
	email, ok := h.user(c)
	if !ok {
		return
	}
	list, err := h.service.List(c.Request.Context(), email)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ItinerariesHandler) Get(c *gin.Context) {
	email, ok := h.user(c)
	if !ok {
		return
	}
	itinerary, err := h.service.Get(c.Request.Context(), email, c.Param("id"))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, itinerary)
}

// Save godoc
// @Summary Create or replace an itinerary
// @Tags itineraries
// @Accept json
// @Produce json
// @Param itinerary body models.Itinerary true "Itinerary"
// @Success 200 {object} models.Itinerary
// @Router /api/itineraries [post]
// @Router /api/itineraries/{id} [put]
func (h *ItinerariesHandler) Save(c *gin.Context) {
	email, ok := h.user(c)
	if !ok {
		return
	}
	var itinerary models.Itinerary
	if err := c.ShouldBindJSON(&itinerary); err != nil {
		h.BadRequest(c, "invalid itinerary body")
		return
	}
	if id := c.Param("id"); id != "" {
		itinerary.ID = id
	}

	saved, err := h.service.Save(c.Request.Context(), email, itinerary)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *ItinerariesHandler) Delete(c *gin.Context) {
	email, ok := h.user(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), email, c.Param("id")); err != nil {
		h.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleBooked godoc
// @Summary Flip the booked flag of one activity
// @Tags itineraries
// @Produce json
// @Param id path string true "Itinerary ID"
// @Param day path int true "Day number"
// @Param index path int true "Activity index"
// @Success 200 {object} models.Itinerary
// @Failure 404 {object} handlers.ErrorResponse
// @Router /api/itineraries/{id}/days/{day}/activities/{index}/booked [patch]
func (h *ItinerariesHandler) ToggleBooked(c *gin.Context) {
	email, ok := h.user(c)
	if !ok {
		return
	}
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		h.BadRequest(c, "day must be a number")
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.BadRequest(c, "index must be a number")
		return
	}

	itinerary, err := h.service.ToggleBooked(c.Request.Context(), email, c.Param("id"), day, index)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, itinerary)
}

// Chat godoc
// @Summary Run one assistant turn, optionally against a stored itinerary
// @Tags chat
// @Accept json
// @Produce json
// @Param request body ChatRequest true "Message and history"
// @Success 200 {object} ChatResult
// @Failure 429 {object} handlers.ErrorResponse
// @Router /api/chat [post]
// @Router /api/itineraries/{id}/chat [post]
func (h *ItinerariesHandler) Chat(c *gin.Context) {
	email, ok := h.user(c)
	if !ok {
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid chat request")
		return
	}

	result, err := h.service.Chat(c.Request.Context(), email, c.Param("id"), req)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
