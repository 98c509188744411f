package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/SynthonScope/pkg/errors"
	"github.com/turtacn/SynthonScope/pkg/types/common"
)

func TestTopics_Names(t *testing.T) {
	assert.Equal(t, TopicAnalysisRequested, Topics{}.Requested())
	assert.Equal(t, "staging."+TopicAnalysisCompleted, Topics{Prefix: "staging"}.Completed())
	assert.Equal(t, "staging."+TopicAnalysisRequested, Topics{Prefix: "staging."}.Requested())
	assert.Equal(t, "x.dlq", DeadLetter("x"))
}

func TestEventEnvelope_RoundTrip(t *testing.T) {
	payload := AnalysisRequestedPayload{
		RequestID:      "req-1",
		ReactionSMILES: "[CH3:1][OH:2]>>[CH3:1][O-:2]",
		AtomProperties: []string{"atomic_number"},
	}
	env, err := NewEventEnvelope(EventAnalysisRequested, "synscope-apiserver", payload)
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "v1", env.SchemaVersion)

	pm, err := env.ToMessage(TopicAnalysisRequested, "req-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("req-1"), pm.Key)
	assert.Equal(t, EventAnalysisRequested, pm.Headers["event_type"])

	back, err := MessageToEventEnvelope(&common.Message{Topic: pm.Topic, Value: pm.Value})
	require.NoError(t, err)
	assert.Equal(t, env.EventID, back.EventID)

	var decoded AnalysisRequestedPayload
	require.NoError(t, back.DecodePayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestEventEnvelope_ToMessageWithoutKey(t *testing.T) {
	env, err := NewEventEnvelope(EventAnalysisCompleted, "synscope-worker", AnalysisCompletedPayload{ReactionSMILES: "C>>C"})
	require.NoError(t, err)
	pm, err := env.ToMessage("t", "")
	require.NoError(t, err)
	assert.Nil(t, pm.Key)
}

func TestEventEnvelope_Errors(t *testing.T) {
	_, err := NewEventEnvelope(EventAnalysisRequested, "s", func() {})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSerialization))

	_, err = MessageToEventEnvelope(&common.Message{})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	_, err = MessageToEventEnvelope(&common.Message{Value: []byte("{not json")})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSerialization))

	empty := &EventEnvelope{EventType: EventAnalysisRequested}
	assert.True(t, apperrors.IsCode(empty.DecodePayload(&AnalysisRequestedPayload{}), apperrors.ErrCodeValidation))

	bad := &EventEnvelope{Payload: json.RawMessage(`"text"`)}
	assert.True(t, apperrors.IsCode(bad.DecodePayload(&AnalysisRequestedPayload{}), apperrors.ErrCodeSerialization))
}

func TestTopicManager_EnsureTopics(t *testing.T) {
	conn := &fakeConn{existing: map[string]bool{TopicAnalysisCompleted: true}}
	m := newTopicManager(conn, nil)

	topics := AnalysisTopics(Topics{}, 6, 1)
	require.Len(t, topics, 3)
	require.NoError(t, m.EnsureTopics(context.Background(), topics))

	require.Len(t, conn.created, 2)
	assert.Equal(t, TopicAnalysisRequested, conn.created[0].Topic)
	assert.Equal(t, 6, conn.created[0].NumPartitions)
	assert.Equal(t, "retention.ms", conn.created[0].ConfigEntries[0].ConfigName)
	assert.Equal(t, TopicAnalysisRequested+DeadLetterSuffix, conn.created[1].Topic)
	assert.Equal(t, 1, conn.created[1].NumPartitions)

	require.NoError(t, m.Close())
	assert.Equal(t, 1, conn.closeCalls)
}

func TestTopicManager_CreateTopicValidation(t *testing.T) {
	m := newTopicManager(&fakeConn{}, nil)
	ctx := context.Background()
	assert.Error(t, m.CreateTopic(ctx, common.TopicConfig{}))
	assert.Error(t, m.CreateTopic(ctx, common.TopicConfig{Name: "t", NumPartitions: 0, ReplicationFactor: 1}))
}

func TestTopicManager_CreateFailureStopsEnsure(t *testing.T) {
	conn := &fakeConn{createErr: errors.New("not controller")}
	m := newTopicManager(conn, nil)
	err := m.EnsureTopics(context.Background(), AnalysisTopics(Topics{}, 1, 1))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMessagingError))
}

func TestTopicManager_TopicExists(t *testing.T) {
	m := newTopicManager(&fakeConn{existing: map[string]bool{"a": true}}, nil)
	ok, err := m.TopicExists(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = m.TopicExists(context.Background(), "b")
	assert.False(t, ok)
}

func TestNewTopicManager_RequiresBrokers(t *testing.T) {
	_, err := NewTopicManager(nil, nil)
	assert.Error(t, err)
}

//Personal.AI order the ending
