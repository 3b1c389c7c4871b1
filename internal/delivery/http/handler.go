package http

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/usecase"
)

// statusClientClosedRequest is the nginx convention for a request whose client went away
const statusClientClosedRequest = 499

// SessionHeader carries the browse session ID; the "session" query parameter is an alternative
const SessionHeader = "X-Session-ID"

// SearchService is the usecase surface the HTTP layer depends on
type SearchService interface {
	Search(ctx context.Context, request *domain.SearchRequest) (*domain.SearchResult, error)
	Vocabulary(ctx context.Context) (*domain.Vocabulary, error)
	Refresh(ctx context.Context) error
	Status(ctx context.Context) usecase.Status
	Sessions() *usecase.SessionStore
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	searchService SearchService
}

// NewHandler creates a new HTTP handler. A nil service makes every catalog
// endpoint answer 501.
func NewHandler(searchService SearchService) *Handler {
	return &Handler{searchService: searchService}
}

// searchQuery binds the query string of a search request
type searchQuery struct {
	Q           string  `form:"q"`
	Category    string  `form:"category"`
	Subcategory string  `form:"subcategory"`
	Color       string  `form:"color"`
	MinPrice    float64 `form:"minPrice" binding:"gte=0"`
	MaxPrice    float64 `form:"maxPrice" binding:"gte=0"`
	InStock     bool    `form:"inStock"`
	SortBy      string  `form:"sortBy" binding:"omitempty,oneof=default price-low price-high rating"`
	Session     string  `form:"session"`
}

// navigateRequest reports a page transition for a browse session
type navigateRequest struct {
	ToProductDetail bool `json:"toProductDetail"`
}

// sessionStateResponse is the remembered search of a browse session
type sessionStateResponse struct {
	SessionID string                 `json:"sessionId"`
	Query     string                 `json:"query"`
	Filters   domain.Filters         `json:"filters"`
	Products  []domain.ScoredProduct `json:"products"`
	HasState  bool                   `json:"hasState"`
}

// HealthCheck returns the health status of the API. With a search service
// wired it also checks the cache; an unreachable cache reports "degraded".
func (h *Handler) HealthCheck(c *gin.Context) {
	response := gin.H{
		"status":  "healthy",
		"service": "storefront-search",
		"version": "1.0.0",
	}

	if h.searchService != nil {
		status := h.searchService.Status(c.Request.Context())
		if !status.CacheReachable {
			response["status"] = "degraded"
		}
		response["catalog"] = status
	}

	c.JSON(http.StatusOK, response)
}

// SearchProducts handles catalog search requests
func (h *Handler) SearchProducts(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	var query searchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid search parameters: " + err.Error(),
		})
		return
	}

	sessionID := c.GetHeader(SessionHeader)
	if sessionID == "" {
		sessionID = query.Session
	}

	request := &domain.SearchRequest{
		Query: query.Q,
		Filters: domain.Filters{
			Category:    query.Category,
			Subcategory: query.Subcategory,
			Color:       query.Color,
			PriceRange:  domain.PriceRange{Min: query.MinPrice, Max: query.MaxPrice},
			InStock:     query.InStock,
			SortBy:      domain.SortBy(query.SortBy),
		},
		SessionID: sessionID,
	}

	result, err := h.searchService.Search(c.Request.Context(), request)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetVocabulary returns the category, subcategory and color facet values
func (h *Handler) GetVocabulary(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	vocab, err := h.searchService.Vocabulary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, vocab)
}

// RefreshCatalog drops the cached catalog snapshot; the next search refetches it
func (h *Handler) RefreshCatalog(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	if err := h.searchService.Refresh(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}

// CreateSession starts a browse session
func (h *Handler) CreateSession(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	session := h.searchService.Sessions().Create()
	c.JSON(http.StatusCreated, gin.H{"sessionId": session.ID})
}

// GetSession returns the remembered search of a session so a page can be
// restored without searching again
func (h *Handler) GetSession(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	session, err := h.searchService.Sessions().Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	query, filters, products, ok := session.Snapshot()
	c.JSON(http.StatusOK, sessionStateResponse{
		SessionID: session.ID,
		Query:     query,
		Filters:   filters,
		Products:  products,
		HasState:  ok,
	})
}

// NavigateSession applies a page transition to a session
func (h *Handler) NavigateSession(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body: " + err.Error(),
		})
		return
	}

	session, err := h.searchService.Sessions().Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	session.Navigate(req.ToProductDetail)
	c.JSON(http.StatusOK, gin.H{
		"sessionId": session.ID,
		"cleared":   !req.ToProductDetail,
	})
}

func (h *Handler) configured(c *gin.Context) bool {
	if h.searchService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "search service not configured",
		})
		return false
	}
	return true
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled):
		c.JSON(statusClientClosedRequest, gin.H{"error": "request cancelled"})
	case errors.Is(err, context.DeadlineExceeded):
		log.Printf("[HTTP] Deadline exceeded: %v", err)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	case errors.Is(err, domain.ErrCatalogUnavailable):
		log.Printf("[HTTP] Catalog unavailable: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "product catalog is temporarily unavailable"})
	case errors.Is(err, domain.ErrCacheUnavailable):
		log.Printf("[HTTP] Cache unavailable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache is temporarily unavailable"})
	default:
		log.Printf("[HTTP] Unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
