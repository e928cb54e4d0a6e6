package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/krshsl/sensai/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeExchange(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))

	messages, err := encodeExchange("hi", "hello", at)
	require.NoError(t, err)

	assert.JSONEq(t, `{"user":"hi","assistant":"hello","timestamp":"2025-01-02T02:04:05Z"}`, string(messages))

	var exchange models.CareerExchange
	require.NoError(t, json.Unmarshal(messages, &exchange), "stored as a single object, not an array")
	assert.Equal(t, "hello", exchange.Assistant)
}
