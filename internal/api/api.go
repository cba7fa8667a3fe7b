package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/quizflow/internal/domain"
	"github.com/victornm/quizflow/internal/errors"
	"github.com/victornm/quizflow/internal/session"
)

type Config struct {
	Engine     *gin.Engine
	Session    *session.Service
	AdminToken string
	HostToken  string
}

type API struct {
	ss *session.Service
}

// New registers the admin and play routes on the engine.
func New(c Config) *API {
	a := &API{ss: c.Session}

	auth := authenticator{
		adminToken: c.AdminToken,
		hostToken:  c.HostToken,
	}

	r := c.Engine.Group("/api", handleErrors, auth.authenticate)
	r.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Quiz Flow API"})
	})

	admin := r.Group("/admin", requireRole(RoleAdmin, RoleHost))
	admin.POST("/sessions", a.CreateSession)
	admin.GET("/sessions/:sessionId", a.GetSession)
	admin.POST("/sessions/:sessionId/phase", a.TransitionPhase)
	admin.GET("/sessions/:sessionId/leaderboard", a.GetLeaderboard)

	play := r.Group("/play")
	play.POST("/join", a.Join)
	play.GET("/sessions/:sessionId", a.GetSession)
	play.GET("/codes/:code", a.GetSessionByCode)
	play.POST("/sessions/:sessionId/answers", requireRole(RoleParticipant), a.SubmitAnswer)

	c.Engine.NoRoute(handleErrors, func(c *gin.Context) {
		abort(c, errors.NotFound(fmt.Sprintf("Route %s %s was not found.", c.Request.Method, c.Request.URL.Path)))
	})

	return a
}

type (
	CreateSessionRequest struct {
		QuizID         string `json:"quizId"`
		TotalQuestions int    `json:"totalQuestions"`
	}

	TransitionPhaseRequest struct {
		Phase *string `json:"phase"`
	}

	JoinRequest struct {
		Code        string `json:"code"`
		DisplayName string `json:"displayName"`
	}

	JoinResponse struct {
		Session          domain.SessionSummary `json:"session"`
		Participant      domain.Participant    `json:"participant"`
		ParticipantToken string                `json:"participantToken"`
	}

	SubmitAnswerRequest struct {
		QuestionIndex       *int `json:"questionIndex"`
		SelectedOptionIndex *int `json:"selectedOptionIndex"`
		IsCorrect           bool `json:"isCorrect"`
	}
)

func (a *API) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	sum, err := a.ss.CreateSession(c.Request.Context(), session.CreateSessionRequest{
		QuizID:         req.QuizID,
		TotalQuestions: req.TotalQuestions,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": sum})
}

func (a *API) GetSession(c *gin.Context) {
	sum, err := a.ss.GetSessionSummaryByID(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sum})
}

func (a *API) GetSessionByCode(c *gin.Context) {
	sum, err := a.ss.GetSessionSummaryByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sum})
}

func (a *API) TransitionPhase(c *gin.Context) {
	var req TransitionPhaseRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Phase == nil {
		abort(c, errors.BadRequest("phase is required."))
		return
	}

	phase, ok := domain.ParsePhase(*req.Phase)
	if !ok {
		abort(c, errors.BadRequest(fmt.Sprintf("Unknown phase %q.", *req.Phase)))
		return
	}

	sum, err := a.ss.TransitionPhase(c.Request.Context(), session.TransitionPhaseRequest{
		SessionID: c.Param("sessionId"),
		Phase:     phase,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sum})
}

func (a *API) GetLeaderboard(c *gin.Context) {
	lb, err := a.ss.GetLeaderboard(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": lb})
}

func (a *API) Join(c *gin.Context) {
	var req JoinRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := a.ss.JoinByCode(c.Request.Context(), session.JoinRequest{
		Code:        req.Code,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": JoinResponse{
		Session:          res.Session,
		Participant:      res.Participant,
		ParticipantToken: ParticipantToken(res.Participant.ID),
	}})
}

func (a *API) SubmitAnswer(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok || u.ID == "" {
		abort(c, errors.BadRequest("Participant context is missing from token."))
		return
	}

	var req SubmitAnswerRequest
	if !bindJSON(c, &req) {
		return
	}

	sum, err := a.ss.SubmitAnswer(c.Request.Context(), session.SubmitAnswerRequest{
		SessionID:           c.Param("sessionId"),
		ParticipantID:       u.ID,
		QuestionIndex:       valueOr(req.QuestionIndex, -1),
		SelectedOptionIndex: valueOr(req.SelectedOptionIndex, -1),
		IsCorrect:           req.IsCorrect,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": sum})
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		abort(c, errors.BadRequest("Invalid request body.",
			errors.WithCause(err),
			errors.WithDetails(err.Error()),
		))
		return false
	}

	return true
}

func valueOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	Details any         `json:"details,omitempty"`
}

// handleErrors renders the last error recorded by a handler.
func handleErrors(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 {
		return
	}

	err := c.Errors.Last().Err
	e := errors.Convert(err)

	body := errorBody{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}

	if e.HTTPStatusCode() == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "api: request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		body = errorBody{
			Code:    errors.CodeInternal,
			Message: "Unexpected server error.",
		}
	}

	c.JSON(e.HTTPStatusCode(), gin.H{"error": body})
}
