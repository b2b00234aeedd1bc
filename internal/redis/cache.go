package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - results:{question_id} - short TTL tally snapshot for the results endpoint

// ResultsTTL is deliberately short: the cache only has to absorb bursts of
// reads on a hot question, staleness beyond a few seconds is not acceptable.
const ResultsTTL = 10 * time.Second

// ChoiceTally is the cached per-choice result row.
type ChoiceTally struct {
	ChoiceID  uuid.UUID `json:"choice_id"`
	Text      string    `json:"text"`
	VoteCount int64     `json:"vote_count"`
}

// Results is the cached snapshot served by the results endpoint.
type Results struct {
	QuestionID   uuid.UUID     `json:"question_id"`
	QuestionText string        `json:"question_text"`
	Tallies      []ChoiceTally `json:"tallies"`
}

// ResultsCache caches question tallies in Redis. All methods are safe to call
// on a nil receiver or with a nil client; they behave as a permanent miss.
type ResultsCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewResultsCache(client *goredis.Client) *ResultsCache {
	return &ResultsCache{client: client, ttl: ResultsTTL}
}

func resultsKey(questionID uuid.UUID) string {
	return fmt.Sprintf("results:%s", questionID)
}

// Get returns the cached snapshot, or (nil, nil) on a miss.
func (c *ResultsCache) Get(ctx context.Context, questionID uuid.UUID) (*Results, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, resultsKey(questionID)).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var results Results
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		return nil, err
	}
	return &results, nil
}

func (c *ResultsCache) Set(ctx context.Context, results Results) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, resultsKey(results.QuestionID), data, c.ttl).Err()
}

func (c *ResultsCache) Invalidate(ctx context.Context, questionID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, resultsKey(questionID)).Err()
}
