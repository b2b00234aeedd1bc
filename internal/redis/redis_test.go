package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Every component in this package must degrade to a no-op when Redis is not
// configured; the service layer passes nil clients in that case.

func TestResultsCacheNilClient(t *testing.T) {
	cache := NewResultsCache(nil)
	ctx := context.Background()
	questionID := uuid.New()

	got, err := cache.Get(ctx, questionID)
	if err != nil || got != nil {
		t.Errorf("expected permanent miss, got %v, %v", got, err)
	}

	if err := cache.Set(ctx, Results{QuestionID: questionID}); err != nil {
		t.Errorf("expected no-op set, got %v", err)
	}
	if err := cache.Invalidate(ctx, questionID); err != nil {
		t.Errorf("expected no-op invalidate, got %v", err)
	}

	var nilCache *ResultsCache
	if _, err := nilCache.Get(ctx, questionID); err != nil {
		t.Errorf("nil receiver must be safe, got %v", err)
	}
}

func TestPublisherNilClient(t *testing.T) {
	p := NewPublisher(nil)
	if err := p.Publish(context.Background(), TallyChannel(uuid.New()), []byte("{}")); err != nil {
		t.Errorf("expected no-op publish, got %v", err)
	}
}

func TestSubscriberNilClientBlocksUntilCancel(t *testing.T) {
	sub := NewSubscriber(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- sub.Subscribe(ctx, []string{"tally:*"}, func(string, []byte) {
			t.Error("no messages expected without redis")
		})
	}()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("subscribe did not return after cancel")
	}
}

func TestRateLimiterNilClientAllows(t *testing.T) {
	limiter := NewRateLimiter(nil, DefaultRateLimitConfig())

	for i := 0; i < 100; i++ {
		res, err := limiter.AllowAuth(context.Background(), "203.0.113.7")
		if err != nil {
			t.Fatalf("AllowAuth failed: %v", err)
		}
		if !res.Allowed {
			t.Fatal("expected nil-client limiter to always allow")
		}
	}
}

func TestTallyChannel(t *testing.T) {
	questionID := uuid.New()
	want := "tally:" + questionID.String()
	if got := TallyChannel(questionID); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
