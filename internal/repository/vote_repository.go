package repository

import (
	"context"
	"errors"

	"pollbox/internal/domain/poll"
	pollbox_errors "pollbox/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresVoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &PostgresVoteRepository{db: db}
}

// Cast inserts the vote row and bumps the choice tally as one transaction. A
// unique-index rejection on (user_id, question_id) rolls everything back and
// comes out as ErrAlreadyExists; the counter is never incremented for a
// duplicate.
func (r *PostgresVoteRepository) Cast(ctx context.Context, v *poll.Vote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(v).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return pollbox_errors.ErrAlreadyExists
			}
			return err
		}

		res := tx.Model(&poll.Choice{}).
			Where("id = ?", v.ChoiceID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pollbox_errors.ErrNotFound
		}
		return nil
	})
}

func (r *PostgresVoteRepository) FindByUserAndQuestion(ctx context.Context, userID, questionID uuid.UUID) (poll.Vote, error) {
	var v poll.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return poll.Vote{}, pollbox_errors.ErrNotFound
		}
		return poll.Vote{}, err
	}
	return v, nil
}

func (r *PostgresVoteRepository) CountForChoice(ctx context.Context, choiceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&poll.Vote{}).
		Where("choice_id = ?", choiceID).
		Count(&count).Error
	return count, err
}
