package profiles

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/handlers"
	"github.com/FACorreiaa/kanso/internal/app/models"
)

type ProfilesHandler struct {
	*handlers.BaseHandler
	profileService Service
}

func NewProfilesHandler(profileService Service, logger *zap.Logger) *ProfilesHandler {
	return &ProfilesHandler{
		BaseHandler:    handlers.NewBaseHandler(logger),
		profileService: profileService,
	}
}

// GetProfile godoc
// @Summary Get the caller's profile
// @Tags profiles
// @Produce json
// @Success 200 {object} models.UserProfile
// @Failure 401 {object} handlers.ErrorResponse
// @Router /api/profile [get]
func (h *ProfilesHandler) GetProfile(c *gin.Context) {
	email, ok := handlers.CurrentUser(c)
	if !ok {
		h.RespondError(c, models.ErrUnauthenticated)
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), email)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Replace the caller's profile
// @Tags profiles
// @Accept json
// @Produce json
// @Param profile body models.UserProfile true "Profile"
// @Success 200 {object} models.UserProfile
// @Failure 400 {object} handlers.ErrorResponse
// @Router /api/profile [put]
func (h *ProfilesHandler) UpdateProfile(c *gin.Context) {
	email, ok := handlers.CurrentUser(c)
	if !ok {
		h.RespondError(c, models.ErrUnauthenticated)
		return
	}

	var req models.UserProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid profile body")
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), email, req)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
