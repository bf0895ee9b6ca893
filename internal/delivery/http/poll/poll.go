package http_poll

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/livepoll/internal/delivery/http/common"
	"github.com/humanbelnik/livepoll/internal/model"
	usecase_poll "github.com/humanbelnik/livepoll/internal/usecase/poll"
)

type Controller struct {
	usecase *usecase_poll.Usecase
	logger  *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(usecase *usecase_poll.Usecase, opts ...ControllerOption) *Controller {
	c := &Controller{
		usecase: usecase,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	polls := router.Group("/polls")
	{
		polls.GET("/test", c.test)
		polls.POST("/create", c.create)
		polls.POST("/:poll_id/vote", c.vote)
		polls.GET("", c.list)
		polls.GET("/active", c.active)
		polls.GET("/history", c.history)
		polls.GET("/status", c.status)
		polls.GET("/:poll_id", c.byID)
	}
}

type MessageResponseDTO struct {
	Message string `json:"message"`
}

// Test liveness probe
// @Summary Liveness probe
// @Tags Polls
// @Produce json
// @Success 200 {object} MessageResponseDTO
// @Router /polls/test [get]
func (c *Controller) test(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, MessageResponseDTO{Message: "Test route is working"})
}

// OptionDTO accepts either a bare string or an object with a text field.
type OptionDTO string

func (o *OptionDTO) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*o = OptionDTO(text)
		return nil
	}

	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*o = OptionDTO(obj.Text)
	return nil
}

type CreateRequestDTO struct {
	Question  string      `json:"question"`
	Options   []OptionDTO `json:"options"`
	CreatedBy string      `json:"createdBy"`
	ExpiresAt *time.Time  `json:"expiresAt,omitempty"`
}

// Create opens a new poll and announces it to every connection
// @Summary Create poll
// @Description Creates a poll and broadcasts new_question. Refused while the current poll is still open.
// @Tags Polls
// @Accept json
// @Produce json
// @Param request body CreateRequestDTO true "Poll"
// @Success 201 {object} model.Poll
// @Failure 400 {object} http_common.ErrorResponse "Missing required fields or invalid options"
// @Failure 409 {object} http_common.ErrorResponse "Current poll is still open"
// @Failure 500 {object} http_common.ErrorResponse "Internal error"
// @Router /polls/create [post]
func (c *Controller) create(ctx *gin.Context) {
	var req CreateRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	options := make([]string, len(req.Options))
	for i, o := range req.Options {
		options[i] = string(o)
	}

	poll, err := c.usecase.Create(ctx, usecase_poll.CreateInput{
		Question:  req.Question,
		Options:   options,
		CreatedBy: req.CreatedBy,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		c.writeError(ctx, "failed to create poll", err)
		return
	}

	ctx.JSON(http.StatusCreated, poll)
}

type VoteRequestDTO struct {
	StudentID           string `json:"studentId" binding:"required"`
	SelectedOptionIndex *int   `json:"selectedOptionIndex" binding:"required"`
}

// Vote records a student's answer
// @Summary Vote
// @Description Stores one response per student and broadcasts poll_updated (and poll_ended once everyone answered).
// @Tags Polls
// @Accept json
// @Produce json
// @Param poll_id path string true "Poll ID"
// @Param request body VoteRequestDTO true "Vote"
// @Success 200 {object} model.Poll
// @Failure 400 {object} http_common.ErrorResponse "Already voted or bad option"
// @Failure 404 {object} http_common.ErrorResponse "Poll not found"
// @Failure 409 {object} http_common.ErrorResponse "Poll is closed"
// @Failure 500 {object} http_common.ErrorResponse "Internal error"
// @Router /polls/{poll_id}/vote [post]
func (c *Controller) vote(ctx *gin.Context) {
	pollID := ctx.Param("poll_id")

	var req VoteRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	poll, err := c.usecase.Vote(ctx, pollID, req.StudentID, *req.SelectedOptionIndex)
	if err != nil {
		c.writeError(ctx, "failed to vote", err)
		return
	}

	ctx.JSON(http.StatusOK, poll)
}

// List returns every poll, newest first
// @Summary List polls
// @Tags Polls
// @Produce json
// @Success 200 {array} model.Poll
// @Failure 500 {object} http_common.ErrorResponse "Internal error"
// @Router /polls [get]
func (c *Controller) list(ctx *gin.Context) {
	polls, err := c.usecase.List(ctx)
	if err != nil {
		c.writeError(ctx, "failed to list polls", err)
		return
	}
	ctx.JSON(http.StatusOK, polls)
}

type ActiveResponseDTO struct {
	PollID *string     `json:"pollId"`
	Poll   *model.Poll `json:"poll,omitempty"`
}

// Active returns the most recently created poll
// @Summary Active poll
// @Tags Polls
// @Produce json
// @Success 200 {object} ActiveResponseDTO "pollId is null when no poll exists"
// @Failure 500 {object} http_common.ErrorResponse "Internal error"
// @Router /polls/active [get]
func (c *Controller) active(ctx *gin.Context) {
	poll, err := c.usecase.Latest(ctx)
	if err != nil {
		c.writeError(ctx, "failed to get active poll", err)
		return
	}
	if poll == nil {
		ctx.JSON(http.StatusOK, ActiveResponseDTO{})
		return
	}
	ctx.JSON(http.StatusOK, ActiveResponseDTO{PollID: &poll.ID, Poll: poll})
}

type HistoryResponseDTO struct {
	Polls []*model.Poll `json:"polls"`
}

// History returns every poll, oldest first
// @Summary Poll history
// @Tags Polls
// @Produce json
// @Success 200 {object} HistoryResponseDTO
// @Failure 500 {object} http_common.ErrorResponse "Failed to fetch poll history"
// @Router /polls/history [get]
func (c *Controller) history(ctx *gin.Context) {
	polls, err := c.usecase.History(ctx)
	if err != nil {
		c.logger.Error("failed to fetch poll history", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "Failed to fetch poll history",
		})
		return
	}
	ctx.JSON(http.StatusOK, HistoryResponseDTO{Polls: polls})
}

type InactiveStatusDTO struct {
	Active bool `json:"active"`
}

// Status reports whether the teacher may ask the next question.
// Without any poll the body is just {"active": false}.
// @Summary Active poll status
// @Tags Polls
// @Produce json
// @Success 200 {object} model.Status
// @Failure 500 {object} http_common.ErrorResponse "Internal error"
// @Router /polls/status [get]
func (c *Controller) status(ctx *gin.Context) {
	status, err := c.usecase.Status(ctx)
	if err != nil {
		c.writeError(ctx, "failed to get poll status", err)
		return
	}
	if !status.Active {
		ctx.JSON(http.StatusOK, InactiveStatusDTO{})
		return
	}
	ctx.JSON(http.StatusOK, status)
}

// ByID returns one poll
// @Summary Get poll
// @Tags Polls
// @Produce json
// @Param poll_id path string true "Poll ID"
// @Success 200 {object} model.Poll
// @Failure 404 {object} http_common.ErrorResponse "Poll not found"
// @Failure 500 {object} http_common.ErrorResponse "Internal error"
// @Router /polls/{poll_id} [get]
func (c *Controller) byID(ctx *gin.Context) {
	poll, err := c.usecase.Get(ctx, ctx.Param("poll_id"))
	if err != nil {
		c.writeError(ctx, "failed to get poll", err)
		return
	}
	ctx.JSON(http.StatusOK, poll)
}

func (c *Controller) writeError(ctx *gin.Context, msg string, err error) {
	status, message := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, usecase_poll.ErrValidation):
		status, message = http.StatusBadRequest, "Missing required fields or invalid options"
	case errors.Is(err, usecase_poll.ErrAlreadyVoted):
		status, message = http.StatusBadRequest, "You have already voted"
	case errors.Is(err, usecase_poll.ErrIndexOutOfRange):
		status, message = http.StatusBadRequest, "Option index out of range"
	case errors.Is(err, usecase_poll.ErrResourceNotFound):
		status, message = http.StatusNotFound, "Poll not found"
	case errors.Is(err, usecase_poll.ErrPollInProgress):
		status, message = http.StatusConflict, "Current poll is still open"
	case errors.Is(err, usecase_poll.ErrPollClosed):
		status, message = http.StatusConflict, "Poll is closed"
	}

	if status == http.StatusInternalServerError {
		c.logger.Error(msg, slog.String("error", err.Error()))
	} else {
		c.logger.Debug(msg, slog.String("error", err.Error()))
	}
	ctx.JSON(status, http_common.ErrorResponse{Message: message})
}
