package common

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_Validate(t *testing.T) {
	assert.NoError(t, ID("550e8400-e29b-41d4-a716-446655440000").Validate())
	assert.ErrorContains(t, ID("").Validate(), "cannot be empty")
	assert.ErrorContains(t, ID("not-a-uuid").Validate(), "invalid ID format")
	assert.NoError(t, NewID().Validate())
}

func TestTimestamp_JSON(t *testing.T) {
	ts := Timestamp(time.Date(2023, 10, 27, 10, 0, 0, 0, time.UTC))
	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2023-10-27T10:00:00Z"`, string(data))

	var back Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ts.Time(), back.Time())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &back))
}

func TestAPIResponse(t *testing.T) {
	ok := NewSuccessResponse(map[string]int{"n": 1})
	assert.True(t, ok.Success)
	assert.Nil(t, ok.Error)

	bad := NewErrorResponse("CHEM_001", "parse failure")
	assert.False(t, bad.Success)
	require.NotNil(t, bad.Error)
	assert.Equal(t, "CHEM_001", bad.Error.Code)

	raw, err := json.Marshal(bad)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"data"`)
}

//Personal.AI order the ending
