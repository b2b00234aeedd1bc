package services_test

import (
	"context"
	"errors"
	"strings"
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

func newPollService(db *gorm.DB) *services.PollService {
	return services.NewPollService(repository.NewPollRepository(db), redis.NewResultsCache(nil), nil)
}

func TestCreatePoll(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newPollService(db)
	ctx := context.Background()

	question, err := svc.CreatePoll(ctx, services.CreatePollInput{
		Text:         "  Favorite season?  ",
		Choices:      []string{"Summer", "  Winter  ", ""},
		ExtraChoices: []string{"", "Autumn"},
	})
	if err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}

	if question.Text != "Favorite season?" {
		t.Errorf("expected trimmed text, got %q", question.Text)
	}
	if question.PublishedAt.IsZero() {
		t.Error("expected published_at to default to now")
	}

	var texts []string
	for _, c := range question.Choices {
		texts = append(texts, c.Text)
		if c.VoteCount != 0 {
			t.Errorf("expected fresh choice %q to start at 0 votes, got %d", c.Text, c.VoteCount)
		}
	}
	want := []string{"Summer", "Winter", "Autumn"}
	if len(texts) != len(want) {
		t.Fatalf("expected choices %v, got %v", want, texts)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("choice %d: expected %q, got %q", i, want[i], texts[i])
		}
	}

	stored, err := svc.GetQuestion(ctx, question.ID)
	if err != nil {
		t.Fatalf("GetQuestion failed: %v", err)
	}
	if len(stored.Choices) != 3 {
		t.Errorf("expected 3 persisted choices, got %d", len(stored.Choices))
	}
}

func TestCreatePollValidation(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newPollService(db)
	ctx := context.Background()

	tests := []struct {
		name  string
		input services.CreatePollInput
	}{
		{"empty text", services.CreatePollInput{Text: "   "}},
		{"text too long", services.CreatePollInput{Text: strings.Repeat("x", poll.MaxTextLen+1)}},
		{"choice too long", services.CreatePollInput{
			Text:    "Valid question?",
			Choices: []string{strings.Repeat("y", poll.MaxTextLen+1)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreatePoll(ctx, tt.input); !errors.Is(err, pollbox_errors.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	var count int64
	if err := db.Model(&poll.Question{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count questions: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no questions persisted after failures, got %d", count)
	}
}

func TestCreatePollWithoutChoices(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newPollService(db)

	question, err := svc.CreatePoll(context.Background(), services.CreatePollInput{
		Text:    "Lonely question?",
		Choices: []string{"", "   "},
	})
	if err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}
	if len(question.Choices) != 0 {
		t.Errorf("expected zero choices, got %d", len(question.Choices))
	}
}

func TestListQuestions(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newPollService(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 7; i++ {
		testutil.CreateTestQuestion(t, db, questionText(i), base.Add(time.Duration(i)*time.Minute), "Yes", "No")
	}

	page1, total, err := svc.ListQuestions(ctx, "", 1)
	if err != nil {
		t.Fatalf("ListQuestions failed: %v", err)
	}
	if total != 7 {
		t.Errorf("expected total 7, got %d", total)
	}
	if len(page1) != services.PageSize {
		t.Fatalf("expected page of %d, got %d", services.PageSize, len(page1))
	}
	if page1[0].Text != questionText(6) {
		t.Errorf("expected newest question first, got %q", page1[0].Text)
	}
	for i := 1; i < len(page1); i++ {
		if page1[i].PublishedAt.After(page1[i-1].PublishedAt) {
			t.Errorf("expected newest-first order, item %d is newer than item %d", i, i-1)
		}
	}

	page2, total, err := svc.ListQuestions(ctx, "", 2)
	if err != nil {
		t.Fatalf("ListQuestions page 2 failed: %v", err)
	}
	if total != 7 {
		t.Errorf("expected total 7 on page 2, got %d", total)
	}
	if len(page2) != 2 {
		t.Errorf("expected 2 questions on page 2, got %d", len(page2))
	}

	page3, _, err := svc.ListQuestions(ctx, "", 3)
	if err != nil {
		t.Fatalf("ListQuestions page 3 failed: %v", err)
	}
	if len(page3) != 0 {
		t.Errorf("expected empty page past the end, got %d", len(page3))
	}
}

func questionText(i int) string {
	return "Question " + string(rune('A'+i)) + "?"
}

func TestListQuestionsSearch(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newPollService(db)
	ctx := context.Background()

	now := time.Now()
	testutil.CreateTestQuestion(t, db, "Best programming language?", now, "Go", "Python")
	testutil.CreateTestQuestion(t, db, "Best pet?", now.Add(time.Minute), "Dog", "Cat")
	// Matches on both question text and a choice; must not be duplicated.
	testutil.CreateTestQuestion(t, db, "Go or no go?", now.Add(2*time.Minute), "Go", "No go")

	tests := []struct {
		name   string
		search string
		want   int
	}{
		{"match question text", "pet", 1},
		{"match choice text", "python", 1},
		{"case insensitive", "GO", 2},
		{"no match", "zebra", 0},
		{"blank returns all", "  ", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions, total, err := svc.ListQuestions(ctx, tt.search, 1)
			if err != nil {
				t.Fatalf("ListQuestions failed: %v", err)
			}
			if total != int64(tt.want) {
				t.Errorf("expected total %d, got %d", tt.want, total)
			}
			if len(questions) != tt.want {
				t.Errorf("expected %d questions, got %d", tt.want, len(questions))
			}
			seen := map[uuid.UUID]bool{}
			for _, q := range questions {
				if seen[q.ID] {
					t.Errorf("question %s returned twice", q.ID)
				}
				seen[q.ID] = true
			}
		})
	}
}

func TestDeleteQuestionCascades(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newPollService(db)
	voteSvc := newVoteService(db)
	ctx := context.Background()

	voter := testutil.CreateTestUser(t, db, "alice", "password123", false)
	question := testutil.CreateTestQuestion(t, db, "Best color?", time.Now(), "Red", "Blue")
	keep := testutil.CreateTestQuestion(t, db, "Best pet?", time.Now(), "Cat")

	if _, err := voteSvc.CastVote(ctx, voter.ID, question.ID, question.Choices[0].ID); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	if err := svc.DeleteQuestion(ctx, question.ID); err != nil {
		t.Fatalf("DeleteQuestion failed: %v", err)
	}

	if _, err := svc.GetQuestion(ctx, question.ID); !errors.Is(err, pollbox_errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	var choices, votes int64
	if err := db.Model(&poll.Choice{}).Where("question_id = ?", question.ID).Count(&choices).Error; err != nil {
		t.Fatalf("failed to count choices: %v", err)
	}
	if err := db.Model(&poll.Vote{}).Where("question_id = ?", question.ID).Count(&votes).Error; err != nil {
		t.Fatalf("failed to count votes: %v", err)
	}
	if choices != 0 || votes != 0 {
		t.Errorf("expected cascade to remove choices and votes, got %d choices, %d votes", choices, votes)
	}

	if _, err := svc.GetQuestion(ctx, keep.ID); err != nil {
		t.Errorf("unrelated question should survive, got %v", err)
	}

	if err := svc.DeleteQuestion(ctx, uuid.New()); !errors.Is(err, pollbox_errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown question, got %v", err)
	}
}

func TestDeleteChoiceRemovesVotes(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newPollService(db)
	voteSvc := newVoteService(db)
	ctx := context.Background()

	voter := testutil.CreateTestUser(t, db, "alice", "password123", false)
	question := testutil.CreateTestQuestion(t, db, "Best color?", time.Now(), "Red", "Blue")
	red := choiceByText(t, question, "Red")
	blue := choiceByText(t, question, "Blue")

	if _, err := voteSvc.CastVote(ctx, voter.ID, question.ID, red.ID); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	if err := svc.DeleteChoice(ctx, red.ID); err != nil {
		t.Fatalf("DeleteChoice failed: %v", err)
	}

	var votes int64
	if err := db.Model(&poll.Vote{}).Where("choice_id = ?", red.ID).Count(&votes).Error; err != nil {
		t.Fatalf("failed to count votes: %v", err)
	}
	if votes != 0 {
		t.Errorf("expected votes for deleted choice to be removed, got %d", votes)
	}

	// The voter's earlier vote is gone, so voting again must succeed.
	if _, err := voteSvc.CastVote(ctx, voter.ID, question.ID, blue.ID); err != nil {
		t.Fatalf("expected revote after choice deletion to succeed, got %v", err)
	}

	if err := svc.DeleteChoice(ctx, uuid.New()); !errors.Is(err, pollbox_errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown choice, got %v", err)
	}
}

func TestAddChoice(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newPollService(db)
	ctx := context.Background()

	question := testutil.CreateTestQuestion(t, db, "Best color?", time.Now(), "Red")

	choice, err := svc.AddChoice(ctx, question.ID, "  Green ")
	if err != nil {
		t.Fatalf("AddChoice failed: %v", err)
	}
	if choice.Text != "Green" {
		t.Errorf("expected trimmed choice text, got %q", choice.Text)
	}
	if choice.VoteCount != 0 {
		t.Errorf("expected new choice at 0 votes, got %d", choice.VoteCount)
	}

	stored, err := svc.GetQuestion(ctx, question.ID)
	if err != nil {
		t.Fatalf("GetQuestion failed: %v", err)
	}
	if len(stored.Choices) != 2 {
		t.Errorf("expected 2 choices, got %d", len(stored.Choices))
	}

	if _, err := svc.AddChoice(ctx, question.ID, "   "); !errors.Is(err, pollbox_errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for blank choice, got %v", err)
	}
	if _, err := svc.AddChoice(ctx, uuid.New(), "Orphan"); !errors.Is(err, pollbox_errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown question, got %v", err)
	}
}

func TestResults(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newPollService(db)
	voteSvc := newVoteService(db)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, db, "alice", "password123", false)
	bob := testutil.CreateTestUser(t, db, "bob", "password123", false)
	question := testutil.CreateTestQuestion(t, db, "Best color?", time.Now(), "Red", "Blue")
	red := choiceByText(t, question, "Red")

	if _, err := voteSvc.CastVote(ctx, alice.ID, question.ID, red.ID); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if _, err := voteSvc.CastVote(ctx, bob.ID, question.ID, red.ID); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	results, err := svc.Results(ctx, question.ID)
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if results.QuestionText != "Best color?" {
		t.Errorf("expected question text in results, got %q", results.QuestionText)
	}
	if len(results.Tallies) != 2 {
		t.Fatalf("expected 2 tallies, got %d", len(results.Tallies))
	}

	byText := map[string]int64{}
	for _, tally := range results.Tallies {
		byText[tally.Text] = tally.VoteCount
	}
	if byText["Red"] != 2 || byText["Blue"] != 0 {
		t.Errorf("unexpected tallies: %v", byText)
	}

	if _, err := svc.Results(ctx, uuid.New()); !errors.Is(err, pollbox_errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown question, got %v", err)
	}
}
