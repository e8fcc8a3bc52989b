package handlers

import (
	"net/http"
	"strconv"

	"github.com/ndrake454/QuizLight-sub001/internal/apperr"
	"github.com/ndrake454/QuizLight-sub001/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHandler exposes the host control surface: create, start, next, end,
// close, plus the roster and leaderboard projections.
type SessionHandler struct {
	sessionService  *services.SessionService
	registryService *services.RegistryService
	logger          *zap.Logger
}

func NewSessionHandler(sessionService *services.SessionService, registryService *services.RegistryService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, registryService: registryService, logger: logger}
}

type CreateSessionRequest struct {
	Name               string `json:"name" binding:"required,min=1,max=255" example:"Friday trivia"`
	CategoryID         uint   `json:"category_id" binding:"required" example:"1"`
	SecondsPerQuestion int    `json:"seconds_per_question" example:"20"`
}

// CreateSession godoc
// @Summary      Create a session
// @Description  Snapshot a category's questions and open a waiting session with a join code
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateSessionRequest true "Session data"
// @Success      201 {object} services.SessionState
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	hostID := c.GetUint("host_id")

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	state, err := h.sessionService.CreateSession(hostID, req.CategoryID, req.Name, req.SecondsPerQuestion)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, state)
}

// ListSessions godoc
// @Summary      List host sessions
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} services.SessionSummary
// @Router       /api/v1/sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	hostID := c.GetUint("host_id")

	sessions, err := h.sessionService.ListSessions(hostID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// GetSession godoc
// @Summary      Get session state
// @Description  Current session state including the active question and its answer count
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} services.SessionState
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	hostID := c.GetUint("host_id")
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	state, err := h.sessionService.GetSession(sessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if state.Session.HostID != hostID {
		respondError(c, h.logger, apperr.Forbidden("only the session host can view this session"))
		return
	}

	c.JSON(http.StatusOK, state)
}

// Start godoc
// @Summary      Start the session
// @Description  Move a waiting session to in_progress and activate the first question
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} services.SessionState
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/start [post]
func (h *SessionHandler) Start(c *gin.Context) {
	h.transition(c, h.sessionService.Start)
}

// Next godoc
// @Summary      Advance to the next question
// @Description  Retire the active question and activate the next, or complete the session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} services.SessionState
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/next [post]
func (h *SessionHandler) Next(c *gin.Context) {
	h.transition(c, h.sessionService.Next)
}

// End godoc
// @Summary      End the session early
// @Description  Retire the active question, skip the rest and complete the session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} services.SessionState
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/end [post]
func (h *SessionHandler) End(c *gin.Context) {
	h.transition(c, h.sessionService.End)
}

// Close godoc
// @Summary      Close a completed session
// @Description  Terminal transition; frees the host to create a new session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} services.SessionState
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/close [post]
func (h *SessionHandler) Close(c *gin.Context) {
	h.transition(c, h.sessionService.Close)
}

// GetLeaderboard godoc
// @Summary      Get the session leaderboard
// @Description  Top 10 participants by score
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {array} services.LeaderboardEntry
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/leaderboard [get]
func (h *SessionHandler) GetLeaderboard(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	entries, err := h.registryService.Leaderboard(sessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// GetRoster godoc
// @Summary      Get the participant roster
// @Description  All participants with score and accuracy; host only
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {array} services.RosterEntry
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/roster [get]
func (h *SessionHandler) GetRoster(c *gin.Context) {
	hostID := c.GetUint("host_id")
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	entries, err := h.registryService.Roster(sessionID, hostID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *SessionHandler) transition(c *gin.Context, fn func(sessionID, hostID uint) (*services.SessionState, error)) {
	hostID := c.GetUint("host_id")
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	state, err := fn(sessionID, hostID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *SessionHandler) sessionID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid session id"})
		return 0, false
	}
	return uint(id), true
}
