package tensorboard

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// TFRecord framing: every record is
//
//	uint64 length (little-endian)
//	uint32 masked CRC32-C of the 8 length bytes
//	payload
//	uint32 masked CRC32-C of the payload
var crcTable = crc32.MakeTable(crc32.Castagnoli)

const crcMaskDelta = 0xa282ead8

// ErrCorruptRecord is returned when a record fails checksum or length
// validation.
var ErrCorruptRecord = errors.New("corrupt tfevents record")

// maskedCRC computes the masked CRC32-C used by the TFRecord format. The
// rotation spreads the checksum so records containing embedded CRCs still
// validate.
func maskedCRC(data []byte) uint32 {
	crc := crc32.Checksum(data, crcTable)

	return ((crc >> 15) | (crc << 17)) + crcMaskDelta
}

// writeRecord frames one payload as a TFRecord.
func writeRecord(w io.Writer, payload []byte) error {
	var header [12]byte

	binary.LittleEndian.PutUint64(header[:8], uint64(len(payload)))
	binary.LittleEndian.PutUint32(header[8:], maskedCRC(header[:8]))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("failed to write record header: %w", err)
	}

	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write record payload: %w", err)
	}

	var footer [4]byte

	binary.LittleEndian.PutUint32(footer[:], maskedCRC(payload))

	if _, err := w.Write(footer[:]); err != nil {
		return fmt.Errorf("failed to write record footer: %w", err)
	}

	return nil
}

// readRecord reads and validates one TFRecord. It returns io.EOF at a clean
// record boundary and ErrCorruptRecord on checksum or truncation failures.
func readRecord(r io.Reader) ([]byte, error) {
	var header [12]byte

	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated header", ErrCorruptRecord)
		}

		return nil, err
	}

	if binary.LittleEndian.Uint32(header[8:]) != maskedCRC(header[:8]) {
		return nil, fmt.Errorf("%w: length checksum mismatch", ErrCorruptRecord)
	}

	payload := make([]byte, binary.LittleEndian.Uint64(header[:8]))
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: truncated payload", ErrCorruptRecord)
	}

	var footer [4]byte
	if _, err := io.ReadFull(r, footer[:]); err != nil {
		return nil, fmt.Errorf("%w: truncated footer", ErrCorruptRecord)
	}

	if binary.LittleEndian.Uint32(footer[:]) != maskedCRC(payload) {
		return nil, fmt.Errorf("%w: payload checksum mismatch", ErrCorruptRecord)
	}

	return payload, nil
}
