package poll

import (
	"time"

	"github.com/google/uuid"
)

// MaxTextLen bounds question and choice text.
const MaxTextLen = 200

// Question represents the questions table
type Question struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Text        string    `gorm:"size:200;not null"`
	PublishedAt time.Time `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Choices []Choice `gorm:"foreignKey:QuestionID"`
}

// Choice represents the choices table. VoteCount is a denormalized tally kept
// equal to the number of Vote rows referencing the choice.
type Choice struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	QuestionID uuid.UUID `gorm:"type:uuid;index;not null"`
	Text       string    `gorm:"size:200;not null"`
	VoteCount  int64     `gorm:"not null;default:0"`
	CreatedAt  time.Time
}

// Vote represents the votes table. The composite unique index on
// (user_id, question_id) is the single-vote-per-question guarantee.
type Vote struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_question"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_question"`
	ChoiceID   uuid.UUID `gorm:"type:uuid;index;not null"`
	CastAt     time.Time `gorm:"not null"`
}

// PublishedRecently reports whether the question was published within the last
// day. Questions scheduled in the future are not recent.
func (q *Question) PublishedRecently() bool {
	now := time.Now()
	return !q.PublishedAt.After(now) && q.PublishedAt.After(now.Add(-24*time.Hour))
}

func (Question) TableName() string {
	return "questions"
}

func (Choice) TableName() string {
	return "choices"
}

func (Vote) TableName() string {
	return "votes"
}
