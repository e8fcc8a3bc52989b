package handlers

import (
	"net/http"
	"strconv"

	"github.com/ndrake454/QuizLight-sub001/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PlayHandler is the participant surface: join, answer, and the polling
// endpoints that keep clients converged without a push channel.
type PlayHandler struct {
	registryService *services.RegistryService
	ledgerService   *services.LedgerService
	syncService     *services.SyncService
	playPollSec     int
	boardPollSec    int
	logger          *zap.Logger
}

func NewPlayHandler(registryService *services.RegistryService, ledgerService *services.LedgerService, syncService *services.SyncService, playPollSec, boardPollSec int, logger *zap.Logger) *PlayHandler {
	return &PlayHandler{
		registryService: registryService,
		ledgerService:   ledgerService,
		syncService:     syncService,
		playPollSec:     playPollSec,
		boardPollSec:    boardPollSec,
		logger:          logger,
	}
}

type PlayJoinRequest struct {
	Code        string `json:"code" binding:"required" example:"A1B2C3"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=100" example:"Player1"`
	PlayerToken string `json:"player_token" example:"optional, replay to rejoin"`
}

type PlayAnswerRequest struct {
	SessionID      uint   `json:"session_id" binding:"required" example:"1"`
	PlayerToken    string `json:"player_token" binding:"required"`
	QuestionID     uint   `json:"question_id" binding:"required" example:"7"`
	OptionID       *uint  `json:"option_id" example:"3"`
	Text           string `json:"text" example:"mount everest"`
	ElapsedSeconds int    `json:"elapsed_seconds" example:"5"`
	TimedOut       bool   `json:"timed_out" example:"false"`
}

// Join godoc
// @Summary      Join a session by code
// @Description  Creates a participant, or reattaches an existing one when the same player token is replayed
// @Tags         play
// @Accept       json
// @Produce      json
// @Param        request body PlayJoinRequest true "Join data"
// @Success      200 {object} services.JoinResult
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/play/join [post]
func (h *PlayHandler) Join(c *gin.Context) {
	var req PlayJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.registryService.Join(req.Code, req.PlayerToken, req.DisplayName)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":             result,
		"poll_seconds":       h.playPollSec,
		"board_poll_seconds": h.boardPollSec,
	})
}

// Answer godoc
// @Summary      Submit an answer
// @Description  Scores and records one answer; a participant gets exactly one per question
// @Tags         play
// @Accept       json
// @Produce      json
// @Param        request body PlayAnswerRequest true "Answer data"
// @Success      200 {object} services.SubmitResult
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/play/answer [post]
func (h *PlayHandler) Answer(c *gin.Context) {
	var req PlayAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.ledgerService.Submit(req.SessionID, req.PlayerToken, req.QuestionID, services.Submission{
		OptionID: req.OptionID,
		Text:     req.Text,
		Elapsed:  req.ElapsedSeconds,
		TimedOut: req.TimedOut,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Poll godoc
// @Summary      Poll for state changes
// @Description  Client reports its last-known status/question/answered; server returns whether an update is needed plus the authoritative values
// @Tags         play
// @Produce      json
// @Param        code query string true "Join code"
// @Param        token query string true "Player token"
// @Param        status query string false "Last-known session status"
// @Param        question_id query int false "Last-known active question ID"
// @Param        answered query bool false "Whether the client has answered it"
// @Success      200 {object} services.PollResult
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/play/poll [get]
func (h *PlayHandler) Poll(c *gin.Context) {
	questionID, _ := strconv.ParseUint(c.Query("question_id"), 10, 64)
	answered, _ := strconv.ParseBool(c.Query("answered"))

	result, err := h.syncService.Poll(c.Query("code"), c.Query("token"), services.ClientView{
		SessionStatus: c.Query("status"),
		QuestionID:    uint(questionID),
		Answered:      answered,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Events godoc
// @Summary      Get events since the last poll
// @Description  Returns session/question/score mutations newer than the caller's poll cursor, oldest first
// @Tags         play
// @Produce      json
// @Param        code query string true "Join code"
// @Param        token query string true "Player token"
// @Success      200 {array} models.SessionEvent
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/play/events [get]
func (h *PlayHandler) Events(c *gin.Context) {
	events, err := h.syncService.Events(c.Request.Context(), c.Query("code"), c.Query("token"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// Leaderboard godoc
// @Summary      Get the leaderboard by join code
// @Description  Top 10 participants by score for the session behind the code
// @Tags         play
// @Produce      json
// @Param        code query string true "Join code"
// @Success      200 {array} services.LeaderboardEntry
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/play/leaderboard [get]
func (h *PlayHandler) Leaderboard(c *gin.Context) {
	session, err := h.syncService.SessionByCode(c.Query("code"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	entries, err := h.registryService.Leaderboard(session.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
