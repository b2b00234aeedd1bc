package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"pollbox/internal/domain/poll"
	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
	pollbox_errors "pollbox/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PollHandler serves the voter-facing question endpoints.
type PollHandler struct {
	polls *services.PollService
	votes *services.VoteService
}

func NewPollHandler(polls *services.PollService, votes *services.VoteService) *PollHandler {
	return &PollHandler{polls: polls, votes: votes}
}

// List handles GET /v1/questions?search=&page=
func (h *PollHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	search := c.Query("search")

	questions, total, err := h.polls.ListQuestions(c.Request.Context(), search, page)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	res := httpdto.ListQuestionsResponse{
		Questions: make([]httpdto.QuestionDTO, 0, len(questions)),
		Total:     total,
		Page:      page,
		PageSize:  services.PageSize,
	}
	for _, q := range questions {
		res.Questions = append(res.Questions, toQuestionDTO(q, false))
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(res))
}

// Detail handles GET /v1/questions/:id. Includes the caller's existing vote,
// if any.
func (h *PollHandler) Detail(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid question id", "INVALID_REQUEST"))
		return
	}

	question, err := h.polls.GetQuestion(c.Request.Context(), questionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	res := httpdto.QuestionDetailResponse{Question: toQuestionDTO(question, false)}

	if userID, ok := services.UserIDFromContext(c.Request.Context()); ok {
		if vote, err := h.votes.VoteForUser(c.Request.Context(), userID, questionID); err == nil {
			res.MyChoiceID = vote.ChoiceID.String()
		} else if !errors.Is(err, pollbox_errors.ErrNotFound) {
			writeServiceError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(res))
}

// Results handles GET /v1/questions/:id/results
func (h *PollHandler) Results(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid question id", "INVALID_REQUEST"))
		return
	}

	results, err := h.polls.Results(c.Request.Context(), questionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	res := httpdto.ResultsResponse{
		QuestionID:   results.QuestionID.String(),
		QuestionText: results.QuestionText,
		Tallies:      make([]httpdto.TallyDTO, 0, len(results.Tallies)),
	}
	for _, t := range results.Tallies {
		res.Tallies = append(res.Tallies, httpdto.TallyDTO{
			ChoiceID:  t.ChoiceID.String(),
			Text:      t.Text,
			VoteCount: t.VoteCount,
		})
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(res))
}

// Vote handles POST /v1/questions/:id/vote
func (h *PollHandler) Vote(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid question id", "INVALID_REQUEST"))
		return
	}

	var req httpdto.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("no choice selected", "INVALID_REQUEST"))
		return
	}

	choiceID, err := uuid.Parse(req.ChoiceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid choice id", "INVALID_REQUEST"))
		return
	}

	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	vote, err := h.votes.CastVote(c.Request.Context(), userID, questionID, choiceID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.CastVoteResponse{
		VoteID:     vote.ID.String(),
		QuestionID: vote.QuestionID.String(),
		ChoiceID:   vote.ChoiceID.String(),
		ResultsURL: fmt.Sprintf("/v1/questions/%s/results", vote.QuestionID),
	}))
}

func toQuestionDTO(q poll.Question, withCounts bool) httpdto.QuestionDTO {
	dto := httpdto.QuestionDTO{
		ID:                q.ID.String(),
		Text:              q.Text,
		PublishedAt:       q.PublishedAt.Format("2006-01-02T15:04:05Z07:00"),
		PublishedRecently: q.PublishedRecently(),
		Choices:           make([]httpdto.ChoiceDTO, 0, len(q.Choices)),
	}
	for _, ch := range q.Choices {
		d := httpdto.ChoiceDTO{ID: ch.ID.String(), Text: ch.Text}
		if withCounts {
			d.VoteCount = ch.VoteCount
		}
		dto.Choices = append(dto.Choices, d)
	}
	return dto
}
