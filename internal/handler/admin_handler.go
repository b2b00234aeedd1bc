package handler

import (
	"net/http"
	"time"

	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler serves the poll authoring endpoints. Routes using it must be
// behind the admin middleware.
type AdminHandler struct {
	polls *services.PollService
}

func NewAdminHandler(polls *services.PollService) *AdminHandler {
	return &AdminHandler{polls: polls}
}

// CreatePoll handles POST /v1/admin/questions
func (h *AdminHandler) CreatePoll(c *gin.Context) {
	var req httpdto.CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	var publishedAt time.Time
	if req.PublishedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.PublishedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("published_at must be RFC 3339", "INVALID_REQUEST"))
			return
		}
		publishedAt = parsed
	}

	question, err := h.polls.CreatePoll(c.Request.Context(), services.CreatePollInput{
		Text:         req.Text,
		PublishedAt:  publishedAt,
		Choices:      req.Choices,
		ExtraChoices: req.ExtraChoices,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	res := httpdto.CreatePollResponse{
		ID:          question.ID.String(),
		Text:        question.Text,
		PublishedAt: question.PublishedAt.Format(time.RFC3339),
		Choices:     make([]httpdto.ChoiceDTO, 0, len(question.Choices)),
	}
	for _, ch := range question.Choices {
		res.Choices = append(res.Choices, httpdto.ChoiceDTO{ID: ch.ID.String(), Text: ch.Text})
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(res))
}

// DeleteQuestion handles DELETE /v1/admin/questions/:id
func (h *AdminHandler) DeleteQuestion(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid question id", "INVALID_REQUEST"))
		return
	}

	if err := h.polls.DeleteQuestion(c.Request.Context(), questionID); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// AddChoice handles POST /v1/admin/questions/:id/choices
func (h *AdminHandler) AddChoice(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid question id", "INVALID_REQUEST"))
		return
	}

	var req httpdto.AddChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	choice, err := h.polls.AddChoice(c.Request.Context(), questionID, req.Text)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.ChoiceDTO{
		ID:   choice.ID.String(),
		Text: choice.Text,
	}))
}

// DeleteChoice handles DELETE /v1/admin/choices/:id
func (h *AdminHandler) DeleteChoice(c *gin.Context) {
	choiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid choice id", "INVALID_REQUEST"))
		return
	}

	if err := h.polls.DeleteChoice(c.Request.Context(), choiceID); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
