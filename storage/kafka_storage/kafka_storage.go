package kafka_storage

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/q3xlabs/q3x/storage"
)

const (
	kafkaMinBytes    = 10
	kafkaMaxBytes    = 10e6
	kafkaMaxAttempts = 16

	// journal is a single-partition topic, offsets are global
	journalPartition = 0

	defaultReadWindow = time.Second * 10
)

var _ storage.Storage = (*KafkaStorage)(nil)

type KafkaStorage struct {
	writer                       *kafka.Writer
	tlsConfig                    *tls.Config
	producerCreds, consumerCreds *plain.Mechanism
	brokerEndpoint, topic        string
	timeout                      time.Duration
	readWindow                   time.Duration
}

func NewKafkaStorage(
	brokerEndpoint,
	topic string,
	tlsConfig *tls.Config,
	producerCreds,
	consumerCreds *plain.Mechanism,
	timeout time.Duration,
) (*KafkaStorage, error) {
	if brokerEndpoint == "" || topic == "" {
		return nil, errors.New("broker endpoint and topic are required")
	}

	ks := &KafkaStorage{
		brokerEndpoint: brokerEndpoint,
		topic:          topic,
		tlsConfig:      tlsConfig,
		producerCreds:  producerCreds,
		consumerCreds:  consumerCreds,
		timeout:        timeout,
		readWindow:     defaultReadWindow,
	}

	// writer is lazy and does not dial until the first write
	ks.writer = &kafka.Writer{
		Addr:         kafka.TCP(ks.brokerEndpoint),
		Topic:        ks.topic,
		Balancer:     &kafka.LeastBytes{},
		MaxAttempts:  kafkaMaxAttempts,
		BatchTimeout: ks.timeout,
		ReadTimeout:  ks.timeout,
		WriteTimeout: ks.timeout,
		RequiredAcks: kafka.RequireAll,
		Transport: &kafka.Transport{
			Dial: (&net.Dialer{
				Timeout: ks.timeout,
			}).DialContext,
			TLS:  ks.tlsConfig,
			SASL: saslMechanism(ks.producerCreds),
		},
	}

	return ks, nil
}

func (ks *KafkaStorage) Close() error {
	if ks.writer != nil {
		if err := ks.writer.Close(); err != nil {
			return fmt.Errorf("failed to Close writer: %w", err)
		}
	}

	return nil
}

func (ks *KafkaStorage) Send(messages ...storage.Message) error {
	kafkaMessages, err := storageToKafkaMessages(messages...)
	if err != nil {
		return fmt.Errorf("failed to storageToKafkaMessages: %w", err)
	}

	if err := ks.writer.WriteMessages(context.Background(), kafkaMessages...); err != nil {
		return fmt.Errorf("failed to WriteMessages: %w", err)
	}

	return nil
}

// GetMessages reads the journal from offset until no new messages arrive within the read window
func (ks *KafkaStorage) GetMessages(offset uint64) ([]storage.Message, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{ks.brokerEndpoint},
		Topic:       ks.topic,
		Partition:   journalPartition,
		MinBytes:    kafkaMinBytes,
		MaxBytes:    kafkaMaxBytes,
		MaxAttempts: kafkaMaxAttempts,
		Dialer: &kafka.Dialer{
			Timeout:       ks.timeout,
			DualStack:     true,
			TLS:           ks.tlsConfig,
			SASLMechanism: saslMechanism(ks.consumerCreds),
		},
	})
	defer reader.Close()

	if err := reader.SetOffset(int64(offset)); err != nil {
		return nil, fmt.Errorf("failed to SetOffset: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ks.readWindow)
	defer cancel()

	var messages []storage.Message
	for {
		kafkaMessage, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return nil, fmt.Errorf("failed to ReadMessage: %w", err)
		}

		message, err := kafkaToStorageMessage(kafkaMessage)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, nil
}

func storageToKafkaMessages(messages ...storage.Message) ([]kafka.Message, error) {
	kafkaMessages := make([]kafka.Message, len(messages))
	for i, m := range messages {
		data, err := json.Marshal(m)
		if err != nil {
			return kafkaMessages, fmt.Errorf("failed to marshal a message %v: %w", m, err)
		}
		kafkaMessages[i] = kafka.Message{Key: []byte(m.WalletID), Value: data}
	}

	return kafkaMessages, nil
}

func kafkaToStorageMessage(kafkaMessage kafka.Message) (storage.Message, error) {
	var message storage.Message
	if err := json.Unmarshal(kafkaMessage.Value, &message); err != nil {
		return message, fmt.Errorf("failed to unmarshal a message %s: %w",
			string(kafkaMessage.Value), err)
	}
	message.Offset = uint64(kafkaMessage.Offset)

	return message, nil
}

// saslMechanism keeps a nil *plain.Mechanism from becoming a non-nil interface
func saslMechanism(creds *plain.Mechanism) sasl.Mechanism {
	if creds == nil {
		return nil
	}
	return creds
}
