package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pollbox/internal/domain/poll"
	"pollbox/internal/redis"
	"pollbox/internal/repository"
	pollbox_errors "pollbox/pkg/errors"
	"pollbox/pkg/logger"

	"github.com/google/uuid"
)

type VoteService struct {
	pollRepo  repository.PollRepository
	voteRepo  repository.VoteRepository
	cache     *redis.ResultsCache
	publisher *redis.Publisher
	logger    *logger.Logger
}

func NewVoteService(pollRepo repository.PollRepository, voteRepo repository.VoteRepository, cache *redis.ResultsCache, publisher *redis.Publisher, l *logger.Logger) *VoteService {
	return &VoteService{
		pollRepo:  pollRepo,
		voteRepo:  voteRepo,
		cache:     cache,
		publisher: publisher,
		logger:    l,
	}
}

// TallyUpdate is published after every accepted vote for the live results
// feed.
type TallyUpdate struct {
	QuestionID uuid.UUID `json:"question_id"`
	ChoiceID   uuid.UUID `json:"choice_id"`
	ChoiceText string    `json:"choice_text"`
	VoteCount  int64     `json:"vote_count"`
}

// CastVote records one vote for choiceID on questionID. The duplicate check
// runs twice: optimistically before the insert, then again when the unique
// index on (user_id, question_id) rejects a concurrent winner. A duplicate is
// reported as AlreadyVotedError, never retried.
func (s *VoteService) CastVote(ctx context.Context, userID, questionID, choiceID uuid.UUID) (poll.Vote, error) {
	question, err := s.pollRepo.GetQuestion(ctx, questionID)
	if err != nil {
		return poll.Vote{}, err
	}

	var choice *poll.Choice
	for i := range question.Choices {
		if question.Choices[i].ID == choiceID {
			choice = &question.Choices[i]
			break
		}
	}
	if choice == nil {
		return poll.Vote{}, pollbox_errors.ErrNotFound
	}

	if existing, err := s.voteRepo.FindByUserAndQuestion(ctx, userID, questionID); err == nil {
		return poll.Vote{}, s.alreadyVoted(question, existing)
	} else if !errors.Is(err, pollbox_errors.ErrNotFound) {
		return poll.Vote{}, err
	}

	vote := poll.Vote{
		ID:         uuid.New(),
		UserID:     userID,
		QuestionID: questionID,
		ChoiceID:   choiceID,
		CastAt:     time.Now(),
	}

	if err := s.voteRepo.Cast(ctx, &vote); err != nil {
		if errors.Is(err, pollbox_errors.ErrAlreadyExists) {
			// Lost the check-then-act race: a concurrent request inserted
			// between our check and our insert.
			existing, ferr := s.voteRepo.FindByUserAndQuestion(ctx, userID, questionID)
			if ferr != nil {
				return poll.Vote{}, &pollbox_errors.AlreadyVotedError{}
			}
			return poll.Vote{}, s.alreadyVoted(question, existing)
		}
		return poll.Vote{}, err
	}

	s.afterVote(ctx, question, *choice)

	return vote, nil
}

// VoteForUser returns the caller's existing vote on the question, or
// ErrNotFound.
func (s *VoteService) VoteForUser(ctx context.Context, userID, questionID uuid.UUID) (poll.Vote, error) {
	return s.voteRepo.FindByUserAndQuestion(ctx, userID, questionID)
}

func (s *VoteService) alreadyVoted(question poll.Question, existing poll.Vote) error {
	text := ""
	for _, c := range question.Choices {
		if c.ID == existing.ChoiceID {
			text = c.Text
			break
		}
	}
	return &pollbox_errors.AlreadyVotedError{ChoiceText: text}
}

// afterVote invalidates the cached tally and publishes the update. Both are
// best-effort: the vote is already committed.
func (s *VoteService) afterVote(ctx context.Context, question poll.Question, choice poll.Choice) {
	if err := s.cache.Invalidate(ctx, question.ID); err != nil && s.logger != nil {
		s.logger.Warnf("results cache invalidation failed for question %s: %s", question.ID, err)
	}

	update := TallyUpdate{
		QuestionID: question.ID,
		ChoiceID:   choice.ID,
		ChoiceText: choice.Text,
		VoteCount:  choice.VoteCount + 1,
	}
	payload, err := json.Marshal(update)
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, redis.TallyChannel(question.ID), payload); err != nil && s.logger != nil {
		s.logger.Warnf("tally publish failed for question %s: %s", question.ID, err)
	}
}
