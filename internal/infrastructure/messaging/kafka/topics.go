package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SynthonScope/pkg/errors"
	"github.com/turtacn/SynthonScope/pkg/types/common"
)

// Topic Constants
const (
	TopicAnalysisRequested = "reaction.analysis.requested"
	TopicAnalysisCompleted = "reaction.analysis.completed"

	// DeadLetterSuffix is appended to a topic name to form its dead-letter topic.
	DeadLetterSuffix = ".dlq"

	EventAnalysisRequested = "AnalysisRequested"
	EventAnalysisCompleted = "AnalysisCompleted"
)

// Topics resolves topic names under an optional deployment prefix.
type Topics struct {
	Prefix string
}

func (t Topics) name(base string) string {
	if t.Prefix == "" {
		return base
	}
	return strings.TrimSuffix(t.Prefix, ".") + "." + base
}

func (t Topics) Requested() string { return t.name(TopicAnalysisRequested) }
func (t Topics) Completed() string { return t.name(TopicAnalysisCompleted) }

// DeadLetter returns the dead-letter topic of topic.
func DeadLetter(topic string) string { return topic + DeadLetterSuffix }

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// AnalysisRequestedPayload asks the worker to analyse a reaction.  Nil
// property lists select the worker's configured defaults.
type AnalysisRequestedPayload struct {
	RequestID      string   `json:"request_id"`
	ReactionSMILES string   `json:"reaction_smiles"`
	AtomProperties []string `json:"atom_properties,omitempty"`
	BondProperties []string `json:"bond_properties,omitempty"`
}

// AnalysisCompletedPayload announces a finished analysis.  Error is set, and
// AnalysisID empty, when the reaction was rejected.
type AnalysisCompletedPayload struct {
	RequestID       string              `json:"request_id,omitempty"`
	AnalysisID      string              `json:"analysis_id,omitempty"`
	ReactionSMILES  string              `json:"reaction_smiles"`
	ProductSynthons [][]int             `json:"product_synthons,omitempty"`
	Cached          bool                `json:"cached"`
	Error           *common.ErrorDetail `json:"error,omitempty"`
	CompletedAt     time.Time           `json:"completed_at"`
}

func NewEventEnvelope(eventType string, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the payload into target.  An absent payload is an
// error.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeValidation, "event has no payload").WithDetail(e.EventType)
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal payload")
	}
	return nil
}

// ToMessage renders the envelope as a record for topic, keyed by key.
func (e *EventEnvelope) ToMessage(topic, key string) (*common.ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	msg := &common.ProducerMessage{
		Topic: topic,
		Value: val,
		Headers: map[string]string{
			"event_type":     e.EventType,
			"source_service": e.Source,
			"schema_version": e.SchemaVersion,
		},
		Timestamp: e.Timestamp,
	}
	if key != "" {
		msg.Key = []byte(key)
	}
	return msg, nil
}

func MessageToEventEnvelope(msg *common.Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	return &env, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Topic management
// ─────────────────────────────────────────────────────────────────────────────

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager creates the analysis topics at startup.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessagingError, "failed to dial kafka")
	}
	return newTopicManager(conn, logger), nil
}

func newTopicManager(conn ConnInterface, logger logging.Logger) *TopicManager {
	return &TopicManager{conn: conn, logger: logging.OrNop(logger)}
}

func (m *TopicManager) CreateTopic(ctx context.Context, cfg common.TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.ErrCodeValidation, "topic name required")
	}
	if cfg.NumPartitions <= 0 || cfg.ReplicationFactor <= 0 {
		return errors.New(errors.ErrCodeValidation, "partitions and replication factor must be > 0").WithDetail(cfg.Name)
	}
	if exists, _ := m.TopicExists(ctx, cfg.Name); exists {
		return nil
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "retention.ms", ConfigValue: fmt.Sprintf("%d", cfg.RetentionMs)})
	}
	if err := m.conn.CreateTopics(kCfg); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessagingError, "failed to create topic").WithDetail(cfg.Name)
	}
	m.logger.Info("topic created", logging.String("topic", cfg.Name))
	return nil
}

func (m *TopicManager) TopicExists(_ context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

// EnsureTopics creates each missing topic in order and stops at the first
// failure.
func (m *TopicManager) EnsureTopics(ctx context.Context, topics []common.TopicConfig) error {
	for _, topic := range topics {
		if err := m.CreateTopic(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

func (m *TopicManager) Close() error {
	return m.conn.Close()
}

// AnalysisTopics lists the request, completion and dead-letter topics.
func AnalysisTopics(t Topics, partitions, replication int) []common.TopicConfig {
	week := int64(7 * 24 * time.Hour / time.Millisecond)
	month := int64(30 * 24 * time.Hour / time.Millisecond)
	return []common.TopicConfig{
		{Name: t.Requested(), NumPartitions: partitions, ReplicationFactor: replication, RetentionMs: week},
		{Name: t.Completed(), NumPartitions: partitions, ReplicationFactor: replication, RetentionMs: week},
		{Name: DeadLetter(t.Requested()), NumPartitions: 1, ReplicationFactor: replication, RetentionMs: month},
	}
}

//Personal.AI order the ending
