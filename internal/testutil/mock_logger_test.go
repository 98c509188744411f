package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
)

func TestMockLogger_RecordsEntries(t *testing.T) {
	m := NewMockLogger()
	m.Info("analysis stored", logging.String("id", "a-1"))
	m.Warn("cache miss")

	require.Len(t, m.Entries(), 2)
	assert.True(t, m.HasMessage("info", "analysis stored"))
	assert.False(t, m.HasMessage("error", "analysis stored"))

	e, ok := m.Find("info", "analysis stored")
	require.True(t, ok)
	v, ok := e.Field("id")
	assert.True(t, ok)
	assert.Equal(t, "a-1", v)
}

func TestMockLogger_ChildrenShareRecord(t *testing.T) {
	m := NewMockLogger()
	child := m.Named("reactivity").Named("service").With(logging.Int("workers", 4))
	child.Debug("started", logging.Bool("cached", false))

	e, ok := m.Find("debug", "started")
	require.True(t, ok)
	assert.Equal(t, "reactivity.service", e.Logger)
	assert.Len(t, e.Fields, 2)
	_, ok = e.Field("workers")
	assert.True(t, ok)

	m.Reset()
	assert.Empty(t, m.Entries())
}

//Personal.AI order the ending
