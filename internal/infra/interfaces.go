package infra

import "context"

// PublisherInterface sends a domain event under routingKey.
type PublisherInterface interface {
	Publish(ctx context.Context, routingKey string, data any) error
}

// Keyed events choose their own partition or correlation key.
type Keyed interface {
	PartitionKey() string
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

var _ PublisherInterface = NopPublisher{}
