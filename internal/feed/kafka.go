package feed

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Writer is the slice of *kafka.Writer the publisher needs, split out
// for deterministic tests.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ Publisher = (*KafkaPublisher)(nil)

// KafkaPublisher keys each message by symbol so a partition sees every
// quote for a symbol in tick order.
type KafkaPublisher struct {
	writer Writer
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		// Batch to reduce network IO; the broadcast tick never
		// waits on the broker.
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// NewKafkaPublisherWithWriter injects a writer, for tests.
func NewKafkaPublisherWithWriter(writer Writer, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, symbol string, payload []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(symbol),
		Value: payload,
	})
}

// Close flushes the async writer buffer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// EnsureTopic creates the feed topic if it does not exist yet.
// Failures are logged and tolerated: the broker may auto-create, or
// the topic may already be there.
func EnsureTopic(logger *zap.Logger, brokers []string, topic string) {
	var conn *kafka.Conn
	var err error
	for _, addr := range brokers {
		conn, err = kafka.Dial("tcp", addr)
		if err == nil {
			break
		}
	}
	if err != nil {
		logger.Warn("Failed to dial brokers for topic creation", zap.Error(err))
		return
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		logger.Warn("Failed to connect to controller", zap.Error(err))
		return
	}

	controllerAddr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	controllerConn, err := kafka.Dial("tcp", controllerAddr)
	if err != nil {
		logger.Warn("Failed to dial controller", zap.Error(err))
		return
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     4,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Debug("Topic creation info", zap.Error(err))
	}
}
