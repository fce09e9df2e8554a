package tensorboard

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	payloads := [][]byte{
		[]byte("first"),
		{},
		[]byte("third record with a longer payload"),
	}

	for _, payload := range payloads {
		require.NoError(t, writeRecord(&buf, payload))
	}

	for _, expected := range payloads {
		payload, err := readRecord(&buf)
		require.NoError(t, err)
		assert.Equal(t, expected, append([]byte{}, payload...))
	}

	_, err := readRecord(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadRecordDetectsCorruption(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(record []byte) []byte
	}{
		{
			name: "flipped length checksum",
			corrupt: func(record []byte) []byte {
				record[8] ^= 0xff
				return record
			},
		},
		{
			name: "flipped payload byte",
			corrupt: func(record []byte) []byte {
				record[12] ^= 0xff
				return record
			},
		},
		{
			name: "truncated footer",
			corrupt: func(record []byte) []byte {
				return record[:len(record)-2]
			},
		},
		{
			name: "truncated header",
			corrupt: func(record []byte) []byte {
				return record[:6]
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeRecord(&buf, []byte("payload")))

			_, err := readRecord(bytes.NewReader(tt.corrupt(buf.Bytes())))
			assert.ErrorIs(t, err, ErrCorruptRecord)
		})
	}
}

func TestMaskedCRCMatchesKnownValue(t *testing.T) {
	// CRC32-C of "123456789" is 0xe3069283; the TFRecord mask rotates it and
	// adds the mask delta.
	crc := uint32(0xe3069283)

	expected := ((crc >> 15) | (crc << 17)) + crcMaskDelta
	assert.Equal(t, expected, maskedCRC([]byte("123456789")))
}
