package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"

	"github.com/weiawesome/yaycha/pkg/log"
)

// channelToTopicAndKey converts a user channel to a Kafka topic and message key.
//
//	"notis:user:42" → topic: "yaycha-notis", key: "42"
func channelToTopicAndKey(prefix, channel string) (topic, key string, err error) {
	stream, userID, err := ParseUserChannel(channel)
	if err != nil {
		return "", "", err
	}
	return topicFor(prefix, stream), fmt.Sprintf("%d", userID), nil
}

// patternToTopic converts a user pattern to the Kafka topic carrying it.
//
//	"notis:user:*" → "yaycha-notis"
func patternToTopic(prefix, pattern string) (string, error) {
	parts := strings.Split(pattern, ":")
	if len(parts) != 3 || parts[1] != "user" || parts[2] != "*" || parts[0] == "" {
		return "", fmt.Errorf("invalid pattern format: %s", pattern)
	}
	return topicFor(prefix, parts[0]), nil
}

func topicFor(prefix, stream string) string {
	if prefix == "" {
		prefix = "yaycha"
	}
	return prefix + "-" + stream
}

// KafkaPubSub implements PubSub on Kafka. Every instance consumes with its
// own group id so each API replica sees every event.
type KafkaPubSub struct {
	producer  *kafka.Producer
	consumers []*kafka.Consumer
	config    KafkaConfig
	groupID   string
	mu        sync.Mutex
	wg        sync.WaitGroup
	doneCh    chan struct{}
}

// NewKafkaPubSub creates a new Kafka-based PubSub instance.
func NewKafkaPubSub(cfg KafkaConfig) (*KafkaPubSub, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	groupID := cfg.GroupID
	if groupID == "" {
		groupID = "yaycha-api"
	}

	kps := &KafkaPubSub{
		producer: p,
		config:   cfg,
		groupID:  fmt.Sprintf("%s-%s", groupID, uuid.NewString()),
		doneCh:   make(chan struct{}),
	}

	go kps.deliveryReportHandler()

	if err := kps.ensureTopics(StreamNotifications); err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("failed to ensure kafka topics (may already exist)")
	}

	return kps, nil
}

func (k *KafkaPubSub) ensureTopics(streams ...string) error {
	admin, err := kafka.NewAdminClientFromProducer(k.producer)
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	partitions := k.config.Partitions
	if partitions <= 0 {
		partitions = 4
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	specs := make([]kafka.TopicSpecification, 0, len(streams))
	for _, s := range streams {
		specs = append(specs, kafka.TopicSpecification{
			Topic:             topicFor(k.config.TopicPrefix, s),
			NumPartitions:     partitions,
			ReplicationFactor: 1,
		})
	}

	results, err := admin.CreateTopics(ctx, specs)
	if err != nil {
		return fmt.Errorf("failed to create topics: %w", err)
	}

	for _, r := range results {
		if r.Error.Code() != kafka.ErrNoError && r.Error.Code() != kafka.ErrTopicAlreadyExists {
			l := log.L()
			l.Warn().Str("topic", r.Topic).Str("error", r.Error.String()).Msg("failed to create topic")
		}
	}

	return nil
}

func (k *KafkaPubSub) deliveryReportHandler() {
	for e := range k.producer.Events() {
		if ev, ok := e.(*kafka.Message); ok && ev.TopicPartition.Error != nil {
			l := log.L()
			l.Error().Err(ev.TopicPartition.Error).Msg("kafka pubsub delivery failed")
		}
	}
	close(k.doneCh)
}

// Publish publishes an event to the topic derived from channel, keyed by user.
func (k *KafkaPubSub) Publish(ctx context.Context, channel string, event *Event) error {
	topic, key, err := channelToTopicAndKey(k.config.TopicPrefix, channel)
	if err != nil {
		return fmt.Errorf("failed to parse channel: %w", err)
	}

	event.Channel = channel
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(key),
		Value: data,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	return nil
}

// SubscribePattern consumes every message on the topic behind pattern.
func (k *KafkaPubSub) SubscribePattern(ctx context.Context, pattern string) (<-chan *Event, error) {
	topic, err := patternToTopic(k.config.TopicPrefix, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pattern: %w", err)
	}

	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":       k.config.Brokers,
		"group.id":                k.groupID,
		"auto.offset.reset":       "latest",
		"enable.auto.commit":      true,
		"auto.commit.interval.ms": 5000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	if err := c.Subscribe(topic, nil); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	k.mu.Lock()
	k.consumers = append(k.consumers, c)
	k.mu.Unlock()

	eventCh := make(chan *Event, 100)
	k.wg.Add(1)
	go k.consumeMessages(ctx, c, eventCh)

	return eventCh, nil
}

func (k *KafkaPubSub) consumeMessages(ctx context.Context, c *kafka.Consumer, eventCh chan<- *Event) {
	defer k.wg.Done()
	defer close(eventCh)

	l := log.L()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ev := c.Poll(500)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			var event Event
			if err := json.Unmarshal(e.Value, &event); err != nil {
				l.Warn().Err(err).Msg("kafka pubsub: failed to unmarshal event")
				continue
			}

			select {
			case eventCh <- &event:
			case <-ctx.Done():
				return
			default:
				// Channel full, skip message
			}

		case kafka.Error:
			l.Error().Err(e).Int("code", int(e.Code())).Bool("fatal", e.IsFatal()).Msg("kafka pubsub error")
			if e.IsFatal() {
				return
			}
		}
	}
}

// Close stops consumers once their subscription contexts end, then flushes
// and closes the producer.
func (k *KafkaPubSub) Close() error {
	k.wg.Wait()

	k.mu.Lock()
	for _, c := range k.consumers {
		c.Close()
	}
	k.consumers = nil
	k.mu.Unlock()

	k.producer.Flush(5000)
	k.producer.Close()
	<-k.doneCh

	return nil
}
