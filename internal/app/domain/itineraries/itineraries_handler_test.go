package itineraries

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/handlers"
	"github.com/FACorreiaa/kanso/internal/app/models"
)

func newItinerariesRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewItinerariesHandler(svc, zap.NewNop())
	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		c.Set(handlers.UserEmailKey, "a@b.c")
		c.Next()
	})
	api.POST("/plan", h.Plan)
	api.POST("/chat", h.Chat)
	api.GET("/itineraries", h.List)
	api.POST("/itineraries", h.Save)
	api.GET("/itineraries/:id", h.Get)
	api.PUT("/itineraries/:id", h.Save)
	api.DELETE("/itineraries/:id", h.Delete)
	api.PATCH("/itineraries/:id/days/:day/activities/:index/booked", h.ToggleBooked)
	api.POST("/itineraries/:id/chat", h.Chat)
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestItinerariesHandler(t *testing.T) {
	svc, repo, gen := newTestService()
	r := newItinerariesRouter(svc)

	t.Run("List", func(t *testing.T) {
		repo.On("List", mock.Anything, "a@b.c").Return([]models.Itinerary{*sampleItinerary(testID)}, nil).Once()
		w := serve(r, http.MethodGet, "/api/itineraries", "")
		require.Equal(t, http.StatusOK, w.Code)
		var list []models.Itinerary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		assert.Len(t, list, 1)
	})

	t.Run("PlanRateLimited", func(t *testing.T) {
		gen.On("GenerateItinerary", mock.Anything, mock.Anything).
			Return(nil, &models.RateLimitError{Purpose: "ai", RetryAfter: 12}).Once()
		w := serve(r, http.MethodPost, "/api/plan", `{"preferences":{"destination":"Kyoto","days":2,"travelers":1,"budget":"Budget"}}`)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "12", w.Header().Get("Retry-After"))
	})

	t.Run("ToggleBadDay", func(t *testing.T) {
		w := serve(r, http.MethodPatch, "/api/itineraries/"+testID+"/days/two/activities/0/booked", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ToggleOK", func(t *testing.T) {
		repo.On("Get", mock.Anything, "a@b.c", testID).Return(sampleItinerary(testID), nil).Once()
		repo.On("Save", mock.Anything, "a@b.c", mock.Anything).Return(nil).Once()
		w := serve(r, http.MethodPatch, "/api/itineraries/"+testID+"/days/1/activities/0/booked", "")
		require.Equal(t, http.StatusOK, w.Code)
		var it models.Itinerary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &it))
		assert.True(t, it.Days[0].Activities[0].Booked)
	})

	t.Run("PutUsesPathID", func(t *testing.T) {
		repo.On("Save", mock.Anything, "a@b.c", mock.MatchedBy(func(it *models.Itinerary) bool {
			return it.ID == testID
		})).Return(nil).Once()
		w := serve(r, http.MethodPut, "/api/itineraries/"+testID, `{"id":"other","destination":"Porto","budget":"Luxury","days":[]}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		repo.On("Delete", mock.Anything, "a@b.c", testID).Return(models.ErrNotFound).Once()
		w := serve(r, http.MethodDelete, "/api/itineraries/"+testID, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		repo.On("Delete", mock.Anything, "a@b.c", testID).Return(nil).Once()
		w := serve(r, http.MethodDelete, "/api/itineraries/"+testID, "")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("ChatWithoutItinerary", func(t *testing.T) {
		gen.On("Chat", mock.Anything, mock.Anything, "hello", (*models.Itinerary)(nil)).
			Return(&models.ChatResponse{Text: "Hi!"}, nil).Once()
		w := serve(r, http.MethodPost, "/api/chat", `{"message":"hello"}`)
		require.Equal(t, http.StatusOK, w.Code)
		var res ChatResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "Hi!", res.Message.Text)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		w := serve(r, http.MethodPost, "/api/chat", `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
