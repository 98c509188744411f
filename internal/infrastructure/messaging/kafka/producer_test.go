package kafka

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/SynthonScope/pkg/errors"
	"github.com/turtacn/SynthonScope/pkg/types/common"
)

func TestValidateProducerConfig(t *testing.T) {
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}, MaxAttempts: -1}))
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	p, err := NewProducer(ProducerConfig{}, nil)
	assert.Nil(t, p)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, ProducerConfig{}, nil)

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), &common.ProducerMessage{
		Topic:     "reaction.analysis.completed",
		Key:       []byte("req-1"),
		Value:     []byte(`{"ok":true}`),
		Headers:   map[string]string{"event_type": EventAnalysisCompleted},
		Timestamp: ts,
	})
	require.NoError(t, err)
	require.Len(t, w.written, 1)

	got := w.written[0]
	assert.Equal(t, "reaction.analysis.completed", got.Topic)
	assert.Equal(t, []byte("req-1"), got.Key)
	assert.Equal(t, ts, got.Time)
	require.Len(t, got.Headers, 1)
	assert.Equal(t, "event_type", got.Headers[0].Key)
	assert.Equal(t, int64(1), p.Sent())
}

func TestProducer_PublishDefaultsTimestamp(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, ProducerConfig{}, nil)
	require.NoError(t, p.Publish(context.Background(), &common.ProducerMessage{Topic: "t", Value: []byte("v")}))
	assert.False(t, w.written[0].Time.IsZero())
}

func TestProducer_PublishValidation(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{}, ProducerConfig{MaxMessageBytes: 8}, nil)
	ctx := context.Background()

	cases := map[string]*common.ProducerMessage{
		"nil":       nil,
		"no topic":  {Value: []byte("v")},
		"no value":  {Topic: "t"},
		"too large": {Topic: "t", Value: []byte(strings.Repeat("x", 9))},
	}
	for name, msg := range cases {
		err := p.Publish(ctx, msg)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation), name)
	}
	assert.Zero(t, p.Sent())
}

func TestProducer_PublishWriteError(t *testing.T) {
	w := &fakeWriter{writeErr: errors.New("leader not available")}
	p := NewProducerWithWriter(w, ProducerConfig{}, nil)

	err := p.Publish(context.Background(), &common.ProducerMessage{Topic: "t", Value: []byte("v")})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMessagingError))
	assert.Equal(t, int64(1), p.Failed())
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, ProducerConfig{}, nil)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)

	err := p.Publish(context.Background(), &common.ProducerMessage{Topic: "t", Value: []byte("v")})
	assert.ErrorIs(t, err, ErrProducerClosed)
}

//Personal.AI order the ending
