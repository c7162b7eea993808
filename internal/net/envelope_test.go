package net

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeEnvelopeThenDecodeEnvelopeRoundTrips(t *testing.T) {
	env := Envelope{
		Type:         MsgPosition,
		PlayerID:     "alice",
		SessionToken: "tok-1",
		Timestamp:    1234,
		Payload:      map[string]any{"x": 1.0, "y": 2.0, "z": 3.0},
	}

	data, err := EncodeEnvelope(env)
	require.NoError(t, err)

	got, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, env.Type, got.Type)
	assert.Equal(t, env.PlayerID, got.PlayerID)
	assert.Equal(t, env.Payload["x"], got.Payload["x"])
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, err := DecodeEnvelope([]byte("not a gob stream"))
	assert.Error(t, err)
}

func TestIsForwardedDistinguishesCoreFromExternalTypes(t *testing.T) {
	assert.True(t, IsForwarded(MsgChat))
	assert.True(t, IsForwarded(MsgTrade))
	assert.False(t, IsForwarded(MsgPosition))
	assert.False(t, IsForwarded(MsgLogin))
}
