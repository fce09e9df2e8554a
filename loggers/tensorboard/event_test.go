package tensorboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventWireRoundTrip(t *testing.T) {
	original := Event{
		WallTime: 1700000000.25,
		Step:     11,
		Summary: []SummaryValue{
			{Tag: "foo", Value: 0.5},
			{Tag: "bar", Value: -3},
		},
	}

	decoded, err := parseEvent(original.marshal())
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestFileVersionEventRoundTrip(t *testing.T) {
	original := Event{WallTime: 1700000000, FileVersion: fileVersion}

	decoded, err := parseEvent(original.marshal())
	require.NoError(t, err)
	assert.Equal(t, fileVersion, decoded.FileVersion)
	assert.Empty(t, decoded.Summary)
	assert.Zero(t, decoded.Step)
}

func TestParseEventSkipsUnknownFields(t *testing.T) {
	// graph_def (field 4, bytes) is part of the real Event proto but not
	// modeled here; the parser must skip it.
	buf := Event{WallTime: 1, Step: 2}.marshal()
	buf = append(buf, 0x22, 0x03, 'a', 'b', 'c') // field 4, wire type 2, len 3

	decoded, err := parseEvent(buf)
	require.NoError(t, err)
	assert.Equal(t, int64(2), decoded.Step)
}

func TestParseEventRejectsGarbage(t *testing.T) {
	_, err := parseEvent([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}
