package repository

import (
	"context"

	"github.com/google/uuid"

	"pollbox/internal/domain/poll"
	"pollbox/internal/domain/user"
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)

	GetOrCreateGroup(ctx context.Context, name string) (user.Group, error)
	AssignGroup(ctx context.Context, u *user.User, g user.Group) error

	CreateSession(ctx context.Context, s *user.UserSession) error
	GetSessionByID(ctx context.Context, sessionID uuid.UUID) (user.UserSession, error)
	UpdateSession(ctx context.Context, s user.UserSession) error
	RevokeSession(ctx context.Context, sessionID uuid.UUID) error
	RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error
}

type PollRepository interface {
	CreateQuestion(ctx context.Context, q *poll.Question) error
	GetQuestion(ctx context.Context, id uuid.UUID) (poll.Question, error)
	ListQuestions(ctx context.Context, search string, offset, limit int) ([]poll.Question, int64, error)
	DeleteQuestion(ctx context.Context, id uuid.UUID) error

	AddChoice(ctx context.Context, c *poll.Choice) error
	GetChoice(ctx context.Context, id uuid.UUID) (poll.Choice, error)
	DeleteChoice(ctx context.Context, id uuid.UUID) error
}

type VoteRepository interface {
	// Cast inserts the vote and increments the target choice's tally in one
	// transaction. Returns ErrAlreadyExists when the (user, question) unique
	// index rejects the insert.
	Cast(ctx context.Context, v *poll.Vote) error
	FindByUserAndQuestion(ctx context.Context, userID, questionID uuid.UUID) (poll.Vote, error)
	CountForChoice(ctx context.Context, choiceID uuid.UUID) (int64, error)
}
