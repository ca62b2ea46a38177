package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// PubSubPublisher publishes events as JSON messages on one topic. The event
// name travels in the "event" attribute.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	log    *zap.SugaredLogger
}

type envelope struct {
	Event   string    `json:"event"`
	Payload any       `json:"payload"`
	SentAt  time.Time `json:"sentAt"`
}

func NewPubSubPublisher(ctx context.Context, projectID, topicName, credentialsFile string, log *zap.SugaredLogger) (*PubSubPublisher, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	topic := client.Topic(topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to check topic %s: %w", topicName, err)
	}
	if !exists {
		client.Close()
		return nil, fmt.Errorf("pubsub topic %s does not exist", topicName)
	}

	log = log.Named("pubsub")
	log.Infow("publisher ready", "project", projectID, "topic", topicName)
	return &PubSubPublisher{client: client, topic: topic, log: log}, nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, event string, payload any) error {
	data, err := json.Marshal(envelope{Event: event, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"event": event},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event, err)
	}
	p.log.Debugw("published", "event", event, "id", id)
	return nil
}

func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
