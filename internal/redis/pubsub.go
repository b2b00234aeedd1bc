package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// TallyChannel is the pub/sub channel carrying live tally updates for one
// question.
func TallyChannel(questionID uuid.UUID) string {
	return fmt.Sprintf("tally:%s", questionID)
}

type Publisher struct {
	client *goredis.Client
}

func NewPublisher(client *goredis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, channel string, payload []byte) error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Publish(ctx, channel, payload).Err()
}

type Subscriber struct {
	client *goredis.Client
}

func NewSubscriber(client *goredis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe blocks delivering messages for the given pattern until ctx is
// cancelled or the connection fails.
func (s *Subscriber) Subscribe(ctx context.Context, patterns []string, handler func(channel string, payload []byte)) error {
	if s == nil || s.client == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	sub := s.client.PSubscribe(ctx, patterns...)
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		handler(msg.Channel, []byte(msg.Payload))
	}
}
