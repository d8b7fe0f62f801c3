package handler

import (
	"net/http"

	"user-browser-service/internal/usecase/userlist"
	apperrors "user-browser-service/pkg/errors"
	"user-browser-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ViewHandler exposes the user list controller to a remote view over HTTP
type ViewHandler struct {
	uc  userlist.Usecase
	log *zap.Logger
}

// NewViewHandler creates a new ViewHandler instance
func NewViewHandler(uc userlist.Usecase, log *zap.Logger) *ViewHandler {
	return &ViewHandler{
		uc:  uc,
		log: log,
	}
}

// MaxSearchQueryLength bounds the search query accepted over HTTP, in runes.
// It must match the max tag on SearchRequest.Query.
const MaxSearchQueryLength = 200

// SearchRequest represents the HTTP request body for setting the search query
type SearchRequest struct {
	Query string `json:"query" binding:"max=200"`
}

// UserResponse represents a single user row
type UserResponse struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// StateResponse represents everything a view needs to render the list
type StateResponse struct {
	Users       []UserResponse `json:"users"`
	Phase       string         `json:"phase"`
	AllLoaded   bool           `json:"all_loaded"`
	SearchQuery string         `json:"search_query"`
	Count       int            `json:"count"`
	Total       int            `json:"total"`
	CurrentPage int            `json:"current_page"`
	Error       string         `json:"error,omitempty"`
}

// GestureResponse reports whether a gesture started a fetch
type GestureResponse struct {
	Accepted bool   `json:"accepted"`
	Phase    string `json:"phase"`
}

// SelectionResponse represents the details shown for a selected user
type SelectionResponse struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// GetState handles GET /v1/users
func (h *ViewHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, toStateResponse(h.uc.Snapshot()))
}

// Start handles POST /v1/users/start
func (h *ViewHandler) Start(c *gin.Context) {
	logger.WithContext(c.Request.Context(), h.log).Info("start requested")
	h.gesture(c, h.uc.Start())
}

// Refresh handles POST /v1/users/refresh
func (h *ViewHandler) Refresh(c *gin.Context) {
	logger.WithContext(c.Request.Context(), h.log).Info("refresh requested")
	h.gesture(c, h.uc.Refresh())
}

// LoadMore handles POST /v1/users/load-more
func (h *ViewHandler) LoadMore(c *gin.Context) {
	logger.WithContext(c.Request.Context(), h.log).Debug("load more requested")
	h.gesture(c, h.uc.LoadMore())
}

// Retry handles POST /v1/users/retry
func (h *ViewHandler) Retry(c *gin.Context) {
	logger.WithContext(c.Request.Context(), h.log).Info("retry requested")
	h.gesture(c, h.uc.RetryLastOperation())
}

// Search handles PUT /v1/users/search
func (h *ViewHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid search request", zap.Error(err))
		h.handleError(c, apperrors.NewValidationError("query", err.Error()))
		return
	}

	h.uc.SetSearchQuery(req.Query)
	c.JSON(http.StatusOK, toStateResponse(h.uc.Snapshot()))
}

// Select handles GET /v1/users/:id/selection
func (h *ViewHandler) Select(c *gin.Context) {
	id := c.Param("id")

	record, ok := h.uc.Find(id)
	if !ok {
		h.handleError(c, apperrors.NewNotFoundError("user", "user not found: "+id))
		return
	}

	sel := h.uc.OnItemSelected(record)
	c.JSON(http.StatusOK, SelectionResponse{
		FullName: sel.FullName,
		Email:    sel.Email,
	})
}

func (h *ViewHandler) gesture(c *gin.Context, accepted bool) {
	c.JSON(http.StatusAccepted, GestureResponse{
		Accepted: accepted,
		Phase:    string(h.uc.Snapshot().Phase),
	})
}

func toStateResponse(s userlist.Snapshot) StateResponse {
	users := make([]UserResponse, len(s.Records))
	for i, r := range s.Records {
		users[i] = UserResponse{
			ID:           r.ID,
			FirstName:    r.FirstName,
			LastName:     r.LastName,
			Email:        r.Email,
			ThumbnailURL: r.ThumbnailURL,
		}
	}

	return StateResponse{
		Users:       users,
		Phase:       string(s.Phase),
		AllLoaded:   s.AllLoaded,
		SearchQuery: s.SearchQuery,
		Count:       s.Count,
		Total:       s.Total,
		CurrentPage: s.CurrentPage,
		Error:       s.LastError,
	}
}

// handleError converts application errors to HTTP responses
func (h *ViewHandler) handleError(c *gin.Context, err error) {
	status := apperrors.StatusOf(err)

	code := "internal_error"
	message := "An internal error occurred"
	switch status {
	case http.StatusNotFound:
		code, message = "not_found", err.Error()
	case http.StatusBadRequest:
		code, message = "validation_error", err.Error()
	case http.StatusBadGateway:
		code, message = "fetch_failed", err.Error()
	default:
		h.log.Error("unhandled error", zap.Error(err))
	}

	c.JSON(status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}
