package kafka

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/SynthonScope/pkg/types/common"
)

type fakeWriter struct {
	mu       sync.Mutex
	written  []kafka.Message
	writeErr error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writeErr != nil {
		return w.writeErr
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}

// fakeReader serves queued messages, then blocks until ctx ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *fakeReader) commitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*common.ProducerMessage
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, msg *common.ProducerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *fakePublisher) published() []*common.ProducerMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*common.ProducerMessage(nil), p.msgs...)
}

type fakeConn struct {
	created    []kafka.TopicConfig
	existing   map[string]bool
	createErr  error
	closeCalls int
}

func (c *fakeConn) CreateTopics(topics ...kafka.TopicConfig) error {
	if c.createErr != nil {
		return c.createErr
	}
	c.created = append(c.created, topics...)
	return nil
}

func (c *fakeConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if len(topics) == 1 && c.existing[topics[0]] {
		return []kafka.Partition{{Topic: topics[0]}}, nil
	}
	return nil, kafka.UnknownTopicOrPartition
}

func (c *fakeConn) Close() error {
	c.closeCalls++
	return nil
}

//Personal.AI order the ending
