package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pollbox/internal/domain/poll"
	"pollbox/internal/redis"
	"pollbox/internal/repository"
	"pollbox/internal/services"
	"pollbox/internal/testutil"
	pollbox_errors "pollbox/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newVoteService(db *gorm.DB) *services.VoteService {
	return services.NewVoteService(
		repository.NewPollRepository(db),
		repository.NewVoteRepository(db),
		redis.NewResultsCache(nil),
		redis.NewPublisher(nil),
		nil,
	)
}

func choiceByText(t *testing.T, q poll.Question, text string) poll.Choice {
	t.Helper()
	for _, c := range q.Choices {
		if c.Text == text {
			return c
		}
	}
	t.Fatalf("choice %q not found", text)
	return poll.Choice{}
}

func TestCastVote(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newVoteService(db)
	ctx := context.Background()

	voter := testutil.CreateTestUser(t, db, "alice", "password123", false)
	question := testutil.CreateTestQuestion(t, db, "Best color?", time.Now(), "Red", "Blue")
	red := choiceByText(t, question, "Red")
	blue := choiceByText(t, question, "Blue")

	vote, err := svc.CastVote(ctx, voter.ID, question.ID, red.ID)
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if vote.UserID != voter.ID || vote.QuestionID != question.ID || vote.ChoiceID != red.ID {
		t.Errorf("vote record does not match input: %+v", vote)
	}

	var got poll.Choice
	if err := db.First(&got, "id = ?", red.ID).Error; err != nil {
		t.Fatalf("failed to reload choice: %v", err)
	}
	if got.VoteCount != 1 {
		t.Errorf("expected vote_count 1 on voted choice, got %d", got.VoteCount)
	}

	got = poll.Choice{}
	if err := db.First(&got, "id = ?", blue.ID).Error; err != nil {
		t.Fatalf("failed to reload choice: %v", err)
	}
	if got.VoteCount != 0 {
		t.Errorf("expected vote_count 0 on other choice, got %d", got.VoteCount)
	}
}

func TestCastVoteTwice(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newVoteService(db)
	ctx := context.Background()

	voter := testutil.CreateTestUser(t, db, "alice", "password123", false)
	question := testutil.CreateTestQuestion(t, db, "Best color?", time.Now(), "Red", "Blue")
	red := choiceByText(t, question, "Red")
	blue := choiceByText(t, question, "Blue")

	if _, err := svc.CastVote(ctx, voter.ID, question.ID, red.ID); err != nil {
		t.Fatalf("first CastVote failed: %v", err)
	}

	_, err := svc.CastVote(ctx, voter.ID, question.ID, blue.ID)
	if !errors.Is(err, pollbox_errors.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}

	var alreadyVoted *pollbox_errors.AlreadyVotedError
	if !errors.As(err, &alreadyVoted) {
		t.Fatalf("expected AlreadyVotedError, got %T", err)
	}
	if alreadyVoted.ChoiceText != "Red" {
		t.Errorf("expected existing choice text %q, got %q", "Red", alreadyVoted.ChoiceText)
	}

	var count int64
	if err := db.Model(&poll.Vote{}).Where("user_id = ? AND question_id = ?", voter.ID, question.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count votes: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly 1 vote, got %d", count)
	}

	var red2 poll.Choice
	if err := db.First(&red2, "id = ?", red.ID).Error; err != nil {
		t.Fatalf("failed to reload choice: %v", err)
	}
	if red2.VoteCount != 1 {
		t.Errorf("expected vote_count to stay 1, got %d", red2.VoteCount)
	}
}

func TestCastVoteNotFound(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newVoteService(db)
	ctx := context.Background()

	voter := testutil.CreateTestUser(t, db, "alice", "password123", false)
	question := testutil.CreateTestQuestion(t, db, "Best color?", time.Now(), "Red")
	other := testutil.CreateTestQuestion(t, db, "Best pet?", time.Now(), "Cat")
	red := choiceByText(t, question, "Red")

	tests := []struct {
		name       string
		questionID uuid.UUID
		choiceID   uuid.UUID
	}{
		{"unknown question", uuid.New(), red.ID},
		{"unknown choice", question.ID, uuid.New()},
		{"choice of another question", question.ID, other.Choices[0].ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CastVote(ctx, voter.ID, tt.questionID, tt.choiceID)
			if !errors.Is(err, pollbox_errors.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestCastVoteConcurrent(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newVoteService(db)

	voter := testutil.CreateTestUser(t, db, "alice", "password123", false)
	question := testutil.CreateTestQuestion(t, db, "Best color?", time.Now(), "Red", "Blue")
	red := choiceByText(t, question, "Red")

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CastVote(context.Background(), voter.ID, question.ID, red.ID)
		}(i)
	}
	wg.Wait()

	var succeeded, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, pollbox_errors.ErrAlreadyVoted):
			duplicates++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly 1 successful vote, got %d", succeeded)
	}
	if duplicates != attempts-1 {
		t.Errorf("expected %d duplicates, got %d", attempts-1, duplicates)
	}

	var got poll.Choice
	if err := db.First(&got, "id = ?", red.ID).Error; err != nil {
		t.Fatalf("failed to reload choice: %v", err)
	}
	if got.VoteCount != 1 {
		t.Errorf("expected vote_count 1 after concurrent attempts, got %d", got.VoteCount)
	}
}

func TestVoteForUser(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newVoteService(db)
	ctx := context.Background()

	voter := testutil.CreateTestUser(t, db, "alice", "password123", false)
	question := testutil.CreateTestQuestion(t, db, "Best color?", time.Now(), "Red")
	red := choiceByText(t, question, "Red")

	if _, err := svc.VoteForUser(ctx, voter.ID, question.ID); !errors.Is(err, pollbox_errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before voting, got %v", err)
	}

	if _, err := svc.CastVote(ctx, voter.ID, question.ID, red.ID); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	vote, err := svc.VoteForUser(ctx, voter.ID, question.ID)
	if err != nil {
		t.Fatalf("VoteForUser failed: %v", err)
	}
	if vote.ChoiceID != red.ID {
		t.Errorf("expected vote for %s, got %s", red.ID, vote.ChoiceID)
	}
}
