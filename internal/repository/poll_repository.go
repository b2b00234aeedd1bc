package repository

import (
	"context"
	"errors"
	"strings"

	"pollbox/internal/domain/poll"
	pollbox_errors "pollbox/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresPollRepository struct {
	db *gorm.DB
}

func NewPollRepository(db *gorm.DB) PollRepository {
	return &PostgresPollRepository{db: db}
}

// CreateQuestion persists the question together with any choices attached to
// it. gorm writes the associations in the same transaction as the parent row.
func (r *PostgresPollRepository) CreateQuestion(ctx context.Context, q *poll.Question) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *PostgresPollRepository) GetQuestion(ctx context.Context, id uuid.UUID) (poll.Question, error) {
	var q poll.Question
	err := r.db.WithContext(ctx).
		Preload("Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order("choices.created_at ASC")
		}).
		Where("id = ?", id).
		First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return poll.Question{}, pollbox_errors.ErrNotFound
		}
		return poll.Question{}, err
	}
	return q, nil
}

// ListQuestions returns a page of questions, newest published first. A
// non-empty search filters case-insensitively over question text and owned
// choice text; the DISTINCT keeps a question to one row however many of its
// choices match.
func (r *PostgresPollRepository) ListQuestions(ctx context.Context, search string, offset, limit int) ([]poll.Question, int64, error) {
	base := r.db.WithContext(ctx).Model(&poll.Question{})
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		base = base.
			Joins("LEFT JOIN choices ON choices.question_id = questions.id").
			Where("LOWER(questions.text) LIKE ? OR LOWER(choices.text) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Distinct("questions.id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var questions []poll.Question
	err := base.Session(&gorm.Session{}).
		Distinct("questions.*").
		Order("questions.published_at DESC").
		Offset(offset).
		Limit(limit).
		Preload("Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order("choices.created_at ASC")
		}).
		Find(&questions).Error
	if err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

// DeleteQuestion removes the question and cascades to its choices and votes
// inside one transaction.
func (r *PostgresPollRepository) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&poll.Question{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pollbox_errors.ErrNotFound
		}
		if err := tx.Delete(&poll.Vote{}, "question_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&poll.Choice{}, "question_id = ?", id).Error
	})
}

func (r *PostgresPollRepository) AddChoice(ctx context.Context, c *poll.Choice) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *PostgresPollRepository) GetChoice(ctx context.Context, id uuid.UUID) (poll.Choice, error) {
	var c poll.Choice
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return poll.Choice{}, pollbox_errors.ErrNotFound
		}
		return poll.Choice{}, err
	}
	return c, nil
}

// DeleteChoice removes the choice and any votes that reference it, so no vote
// row is left pointing at a missing choice.
func (r *PostgresPollRepository) DeleteChoice(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&poll.Choice{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pollbox_errors.ErrNotFound
		}
		return tx.Delete(&poll.Vote{}, "choice_id = ?", id).Error
	})
}
