package services

import (
	"context"
	"strings"
	"time"

	"pollbox/internal/domain/poll"
	"pollbox/internal/redis"
	"pollbox/internal/repository"
	pollbox_errors "pollbox/pkg/errors"
	"pollbox/pkg/logger"

	"github.com/google/uuid"
)

// PageSize is the fixed listing page size.
const PageSize = 5

type PollService struct {
	pollRepo repository.PollRepository
	cache    *redis.ResultsCache
	logger   *logger.Logger
}

func NewPollService(pollRepo repository.PollRepository, cache *redis.ResultsCache, l *logger.Logger) *PollService {
	return &PollService{pollRepo: pollRepo, cache: cache, logger: l}
}

type CreatePollInput struct {
	Text        string
	PublishedAt time.Time
	// Choices come from two form sources: a fixed-size structured list and an
	// open-ended dynamic list. Both are merged in order.
	Choices      []string
	ExtraChoices []string
}

// CreatePoll validates the question, merges and trims the choice lists, and
// persists everything in one transaction. Every choice starts at zero votes.
// A poll with no surviving choices is accepted but logged; nobody can vote on
// it until an admin adds a choice.
func (s *PollService) CreatePoll(ctx context.Context, in CreatePollInput) (poll.Question, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" || len(text) > poll.MaxTextLen {
		return poll.Question{}, pollbox_errors.ErrInvalidInput
	}

	publishedAt := in.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now()
	}

	merged := make([]string, 0, len(in.Choices)+len(in.ExtraChoices))
	for _, c := range append(append([]string{}, in.Choices...), in.ExtraChoices...) {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if len(c) > poll.MaxTextLen {
			return poll.Question{}, pollbox_errors.ErrInvalidInput
		}
		merged = append(merged, c)
	}

	question := poll.Question{
		ID:          uuid.New(),
		Text:        text,
		PublishedAt: publishedAt,
	}
	for _, c := range merged {
		question.Choices = append(question.Choices, poll.Choice{
			ID:         uuid.New(),
			QuestionID: question.ID,
			Text:       c,
			VoteCount:  0,
		})
	}

	if err := s.pollRepo.CreateQuestion(ctx, &question); err != nil {
		return poll.Question{}, err
	}

	if len(merged) == 0 && s.logger != nil {
		s.logger.Warnf("question %s created without choices", question.ID)
	}

	return question, nil
}

func (s *PollService) AddChoice(ctx context.Context, questionID uuid.UUID, text string) (poll.Choice, error) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > poll.MaxTextLen {
		return poll.Choice{}, pollbox_errors.ErrInvalidInput
	}

	if _, err := s.pollRepo.GetQuestion(ctx, questionID); err != nil {
		return poll.Choice{}, err
	}

	choice := poll.Choice{
		ID:         uuid.New(),
		QuestionID: questionID,
		Text:       text,
		VoteCount:  0,
	}
	if err := s.pollRepo.AddChoice(ctx, &choice); err != nil {
		return poll.Choice{}, err
	}

	s.invalidate(ctx, questionID)
	return choice, nil
}

func (s *PollService) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	if err := s.pollRepo.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// DeleteChoice removes one choice and its votes. Users whose vote pointed at
// the deleted choice may vote on the question again.
func (s *PollService) DeleteChoice(ctx context.Context, choiceID uuid.UUID) error {
	choice, err := s.pollRepo.GetChoice(ctx, choiceID)
	if err != nil {
		return err
	}
	if err := s.pollRepo.DeleteChoice(ctx, choiceID); err != nil {
		return err
	}
	s.invalidate(ctx, choice.QuestionID)
	return nil
}

// ListQuestions returns one page, newest published first. page is 1-based.
func (s *PollService) ListQuestions(ctx context.Context, search string, page int) ([]poll.Question, int64, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * PageSize
	return s.pollRepo.ListQuestions(ctx, strings.TrimSpace(search), offset, PageSize)
}

func (s *PollService) GetQuestion(ctx context.Context, id uuid.UUID) (poll.Question, error) {
	return s.pollRepo.GetQuestion(ctx, id)
}

// Results returns the per-choice tallies, served from the short-TTL cache
// when redis is configured.
func (s *PollService) Results(ctx context.Context, id uuid.UUID) (redis.Results, error) {
	if cached, err := s.cache.Get(ctx, id); err == nil && cached != nil {
		return *cached, nil
	} else if err != nil && s.logger != nil {
		s.logger.Warnf("results cache read failed for question %s: %s", id, err)
	}

	question, err := s.pollRepo.GetQuestion(ctx, id)
	if err != nil {
		return redis.Results{}, err
	}

	results := redis.Results{
		QuestionID:   question.ID,
		QuestionText: question.Text,
		Tallies:      make([]redis.ChoiceTally, 0, len(question.Choices)),
	}
	for _, c := range question.Choices {
		results.Tallies = append(results.Tallies, redis.ChoiceTally{
			ChoiceID:  c.ID,
			Text:      c.Text,
			VoteCount: c.VoteCount,
		})
	}

	if err := s.cache.Set(ctx, results); err != nil && s.logger != nil {
		s.logger.Warnf("results cache write failed for question %s: %s", id, err)
	}

	return results, nil
}

func (s *PollService) invalidate(ctx context.Context, questionID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, questionID); err != nil && s.logger != nil {
		s.logger.Warnf("results cache invalidation failed for question %s: %s", questionID, err)
	}
}
