package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const ServiceName = "checkout-service"

const (
	StoreMemory = "memory"
	StoreMySQL  = "mysql"

	BrokerNone     = "none"
	BrokerRabbitMQ = "rabbitmq"
	BrokerKafka    = "kafka"

	GatewayApprove   = "approve"
	GatewaySimulated = "simulated"
)

type MySQL struct {
	User            string
	Password        string
	Host            string
	Port            string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Config struct {
	Port     string
	LogLevel string

	StoreBackend string
	MySQL        MySQL

	RedisHost       string
	RedisAddr       string
	ProductCacheTTL time.Duration
	IdempotencyTTL  time.Duration

	EventBroker      string
	RabbitMQURL      string
	RabbitMQExchange string
	KafkaBrokers     []string
	KafkaTopic       string

	PaymentTimeout      time.Duration
	PaymentGateway      string
	PaymentApprovalRate float64
	MaxOrderItems       int
	SeedCatalog         bool
}

func Load() (*Config, error) {
	c := &Config{
		Port:             env("PORT", "8080"),
		LogLevel:         strings.ToLower(env("LOG_LEVEL", "info")),
		StoreBackend:     strings.ToLower(env("STORE_BACKEND", StoreMemory)),
		RedisHost:        os.Getenv("REDIS_HOST"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		EventBroker:      strings.ToLower(env("EVENT_BROKER", BrokerNone)),
		RabbitMQURL:      os.Getenv("RABBITMQ_URL"),
		PaymentGateway:   strings.ToLower(os.Getenv("PAYMENT_GATEWAY")),
		RabbitMQExchange: env("RABBITMQ_EXCHANGE", "order.exchange"),
		KafkaBrokers:     splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:       env("KAFKA_TOPIC", "order.events"),
		MySQL: MySQL{
			User:     os.Getenv("MYSQL_USER"),
			Password: os.Getenv("MYSQL_PASSWORD"),
			Host:     os.Getenv("MYSQL_HOST"),
			Port:     env("MYSQL_PORT", "3306"),
			Database: os.Getenv("MYSQL_DATABASE"),
		},
	}

	var err error
	if c.ProductCacheTTL, err = durationEnv("PRODUCT_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if c.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if c.PaymentTimeout, err = durationEnv("PAYMENT_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if c.MySQL.ConnMaxLifetime, err = durationEnv("MYSQL_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, err
	}
	if c.MaxOrderItems, err = intEnv("MAX_ORDER_ITEMS", 50); err != nil {
		return nil, err
	}
	if c.MySQL.MaxOpenConns, err = intEnv("MYSQL_MAX_OPEN_CONNS", 100); err != nil {
		return nil, err
	}
	if c.MySQL.MaxIdleConns, err = intEnv("MYSQL_MAX_IDLE_CONNS", 20); err != nil {
		return nil, err
	}
	if c.SeedCatalog, err = boolEnv("SEED_CATALOG", true); err != nil {
		return nil, err
	}
	if c.PaymentApprovalRate, err = floatEnv("PAYMENT_APPROVAL_RATE", 0); err != nil {
		return nil, err
	}

	if c.PaymentGateway == "" {
		c.PaymentGateway = GatewayApprove
		if c.PaymentApprovalRate > 0 {
			c.PaymentGateway = GatewaySimulated
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StoreMySQL:
		if c.MySQL.Host == "" || c.MySQL.Database == "" || c.MySQL.User == "" {
			return fmt.Errorf("MYSQL_HOST, MYSQL_DATABASE and MYSQL_USER are required for STORE_BACKEND=mysql")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.EventBroker {
	case BrokerNone:
	case BrokerRabbitMQ:
		if c.RabbitMQURL == "" {
			return fmt.Errorf("RABBITMQ_URL is required for EVENT_BROKER=rabbitmq")
		}
	case BrokerKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required for EVENT_BROKER=kafka")
		}
	default:
		return fmt.Errorf("unknown EVENT_BROKER %q", c.EventBroker)
	}

	switch c.PaymentGateway {
	case GatewayApprove, GatewaySimulated:
	default:
		return fmt.Errorf("unknown PAYMENT_GATEWAY %q", c.PaymentGateway)
	}

	if c.MaxOrderItems <= 0 {
		return fmt.Errorf("MAX_ORDER_ITEMS must be positive, got %d", c.MaxOrderItems)
	}
	if c.PaymentTimeout <= 0 {
		return fmt.Errorf("PAYMENT_TIMEOUT must be positive, got %s", c.PaymentTimeout)
	}
	if c.PaymentApprovalRate < 0 || c.PaymentApprovalRate > 1 {
		return fmt.Errorf("PAYMENT_APPROVAL_RATE must be within [0, 1], got %v", c.PaymentApprovalRate)
	}
	return nil
}

func env(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func durationEnv(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}

func intEnv(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func floatEnv(k string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return f, nil
}

func boolEnv(k string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}

func splitCSV(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
