// Package apiserver exposes the shelf as a JSON API. The router is mounted
// under /api by the web server and shares its session cookie.
package apiserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/spiceshelf/shelf/internal/domain/spice"
	"github.com/spiceshelf/shelf/internal/infrastructure/http/session"
	"github.com/spiceshelf/shelf/internal/ports/inbound"
	"github.com/spiceshelf/shelf/pkg/errors"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// SpiceResponse is a shelf entry
type SpiceResponse struct {
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
	Color string `json:"color"`
}

// DishResponse is a dish card
type DishResponse struct {
	Name     string   `json:"name"`
	Region   string   `json:"region,omitempty"`
	Category string   `json:"category,omitempty"`
	Heat     string   `json:"heat,omitempty"`
	Spices   []string `json:"spices"`
	ImageURL string   `json:"image_url,omitempty"`
	WikiURL  string   `json:"wiki_url,omitempty"`
}

// BasketResponse is the session's basket and, once searched, its results
type BasketResponse struct {
	Spices          []string       `json:"spices"`
	SearchTriggered bool           `json:"search_triggered"`
	Results         []DishResponse `json:"results,omitempty"`
	ResultCount     int            `json:"result_count"`
}

// AddSpiceRequest is the body of POST /basket/spices
type AddSpiceRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// Handlers serves the JSON API
type Handlers struct {
	service inbound.ShelfService
	openAPI *OpenAPIHandler
	logger  *zap.Logger
}

// NewRouter builds the gin engine for /api/v1.
func NewRouter(service inbound.ShelfService, logger *zap.Logger) *gin.Engine {
	h := &Handlers{
		service: service,
		openAPI: NewOpenAPIHandler(logger),
		logger:  logger.Named("api"),
	}

	r := gin.New()
	r.Use(h.errorHandler())

	v1 := r.Group("/api/v1")
	{
		v1.GET("/openapi.yaml", h.openAPI.ServeSpec)
		v1.GET("/spices", h.ListSpices)
		v1.GET("/dishes", h.ListDishes)

		basket := v1.Group("/basket")
		basket.GET("", h.GetBasket)
		basket.POST("/spices", h.AddSpice)
		basket.POST("/clear", h.ClearBasket)
		basket.POST("/search", h.TriggerSearch)
	}

	r.NoRoute(func(c *gin.Context) {
		c.Error(errors.NewAppError(errors.CodeNotFound, "Route not found", c.Request.URL.Path))
	})

	return r
}

// ListSpices handles GET /api/v1/spices
func (h *Handlers) ListSpices(c *gin.Context) {
	spices := h.service.Spices(c.Request.Context())

	out := make([]SpiceResponse, len(spices))
	for i, s := range spices {
		out[i] = SpiceResponse{Name: s.Name, Alias: s.Alias, Color: s.Color}
	}

	c.JSON(http.StatusOK, APIResponse{Success: true, Data: out})
}

// ListDishes handles GET /api/v1/dishes?spice=A&spice=B
func (h *Handlers) ListDishes(c *gin.Context) {
	dishes, err := h.service.Match(c.Request.Context(), c.QueryArray("spice"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{Success: true, Data: NewDishResponses(dishes)})
}

// GetBasket handles GET /api/v1/basket
func (h *Handlers) GetBasket(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	h.respondBasket(c, sess.ID, "")
}

// AddSpice handles POST /api/v1/basket/spices
func (h *Handlers) AddSpice(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req AddSpiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err.Error()))
		return
	}

	added, err := h.service.AddSpice(c.Request.Context(), sess.ID, req.Name)
	if err != nil {
		c.Error(err)
		return
	}

	message := "Added: " + req.Name
	if !added {
		message = req.Name + " is already in basket"
	}
	h.respondBasket(c, sess.ID, message)
}

// ClearBasket handles POST /api/v1/basket/clear
func (h *Handlers) ClearBasket(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	if err := h.service.ClearBasket(c.Request.Context(), sess.ID); err != nil {
		c.Error(err)
		return
	}
	h.respondBasket(c, sess.ID, "Basket cleared")
}

// TriggerSearch handles POST /api/v1/basket/search
func (h *Handlers) TriggerSearch(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	if err := h.service.TriggerSearch(c.Request.Context(), sess.ID); err != nil {
		c.Error(err)
		return
	}
	h.respondBasket(c, sess.ID, "")
}

func (h *Handlers) respondBasket(c *gin.Context, sessionID, message string) {
	view, err := h.service.View(c.Request.Context(), sessionID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data: BasketResponse{
			Spices:          view.Basket,
			SearchTriggered: view.SearchTriggered,
			Results:         NewDishResponses(view.Results),
			ResultCount:     view.ResultCount(),
		},
	})
}

func (h *Handlers) session(c *gin.Context) (*session.Session, bool) {
	sess, ok := session.FromContext(c.Request.Context())
	if !ok {
		c.Error(errors.NewBadRequestError("A session cookie is required"))
	}
	return sess, ok
}

// errorHandler renders the last handler error as an ErrorResponse.
func (h *Handlers) errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := errors.Wrap(c.Errors.Last().Err, "An unexpected error occurred")
		requestID := chimiddleware.GetReqID(c.Request.Context())

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("code", string(appErr.Code)),
			zap.String("message", appErr.Message),
			zap.String("details", appErr.Details),
		}
		if appErr.StatusCode() >= http.StatusInternalServerError {
			h.logger.Error("Request error", append(fields, zap.Error(appErr.Unwrap()))...)
		} else {
			h.logger.Debug("Request rejected", fields...)
		}

		c.JSON(appErr.StatusCode(), errors.ToErrorResponse(appErr, requestID))
	}
}

// NewDishResponses converts dishes to their JSON form. Image and wiki links
// are only kept when they are http(s) URLs.
func NewDishResponses(dishes []spice.Dish) []DishResponse {
	if dishes == nil {
		return nil
	}
	out := make([]DishResponse, len(dishes))
	for i, d := range dishes {
		out[i] = DishResponse{
			Name:     d.Name,
			Region:   d.Region,
			Category: d.Category,
			Heat:     d.Heat,
			Spices:   d.Spices,
		}
		if d.HasImage() {
			out[i].ImageURL = d.ImageURL
		}
		if d.HasWiki() {
			out[i].WikiURL = d.WikiURL
		}
	}
	return out
}
