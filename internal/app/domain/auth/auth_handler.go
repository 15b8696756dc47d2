package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/handlers"
	"github.com/FACorreiaa/kanso/internal/app/models"
)

const msgAccountExists = "Account already exists. Please log in."

type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthHandlers struct {
	*handlers.BaseHandler
	authService AuthService
}

func NewAuthHandlers(authService AuthService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		BaseHandler: handlers.NewBaseHandler(logger),
		authService: authService,
	}
}

func (h *AuthHandlers) SignupHandler(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "email and password are required")
		return
	}

	session, err := h.authService.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			c.AbortWithStatusJSON(http.StatusConflict, handlers.ErrorResponse{Error: msgAccountExists})
			return
		}
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *AuthHandlers) LoginHandler(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "email and password are required")
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrUnauthenticated) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handlers.ErrorResponse{Error: "Invalid email or password"})
			return
		}
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// MeHandler returns the identity carried by the session token.
func (h *AuthHandlers) MeHandler(c *gin.Context) {
	email, ok := handlers.CurrentUser(c)
	if !ok {
		h.RespondError(c, models.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"email": email,
		"name":  c.GetString(handlers.UserNameKey),
	})
}

// JWTAuthMiddleware requires a valid session token in the Authorization
// header, falling back to the auth_token cookie.
func JWTAuthMiddleware(authService AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string
		if parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
		if tokenString == "" {
			if cookie, err := c.Cookie("auth_token"); err == nil {
				tokenString = cookie
			}
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handlers.ErrorResponse{Error: "Authentication required"})
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			logger.Debug("Rejected session token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, handlers.ErrorResponse{Error: "Invalid or expired token"})
			return
		}

		c.Set(handlers.UserEmailKey, claims.Email)
		c.Set(handlers.UserNameKey, claims.Name)
		c.Next()
	}
}
