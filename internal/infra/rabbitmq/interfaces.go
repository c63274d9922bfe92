package rabbitmq

import (
	"checkout-service/internal/infra"

	"github.com/streadway/amqp"
)

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

var (
	_ infra.PublisherInterface = (*Publisher)(nil)
	_ Channel                  = (*amqp.Channel)(nil)
)
