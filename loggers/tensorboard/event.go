package tensorboard

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// fileVersion is written as the first event of every tfevents file, matching
// what TensorFlow's summary writer emits.
const fileVersion = "brain.Event:2"

// Field numbers from the tensorflow.Event and tensorflow.Summary protos.
// Only the subset needed for scalar summaries is modeled.
const (
	eventFieldWallTime    = 1 // double
	eventFieldStep        = 2 // int64
	eventFieldFileVersion = 3 // string (oneof what)
	eventFieldSummary     = 5 // message (oneof what)

	summaryFieldValue = 1 // repeated message

	valueFieldTag         = 1 // string
	valueFieldSimpleValue = 2 // float
)

// Event mirrors the scalar-summary subset of the tensorflow.Event proto.
type Event struct {
	WallTime    float64
	Step        int64
	FileVersion string
	Summary     []SummaryValue
}

// SummaryValue is one tagged scalar inside an event's summary.
type SummaryValue struct {
	Tag   string
	Value float32
}

// marshal wire-encodes the event.
func (e Event) marshal() []byte {
	buf := protowire.AppendTag(nil, eventFieldWallTime, protowire.Fixed64Type)
	buf = protowire.AppendFixed64(buf, math.Float64bits(e.WallTime))

	if e.Step != 0 {
		buf = protowire.AppendTag(buf, eventFieldStep, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(e.Step))
	}

	if e.FileVersion != "" {
		buf = protowire.AppendTag(buf, eventFieldFileVersion, protowire.BytesType)
		buf = protowire.AppendString(buf, e.FileVersion)
	}

	if len(e.Summary) > 0 {
		buf = protowire.AppendTag(buf, eventFieldSummary, protowire.BytesType)
		buf = protowire.AppendBytes(buf, marshalSummary(e.Summary))
	}

	return buf
}

func marshalSummary(values []SummaryValue) []byte {
	var buf []byte

	for _, v := range values {
		buf = protowire.AppendTag(buf, summaryFieldValue, protowire.BytesType)
		buf = protowire.AppendBytes(buf, marshalSummaryValue(v))
	}

	return buf
}

func marshalSummaryValue(v SummaryValue) []byte {
	buf := protowire.AppendTag(nil, valueFieldTag, protowire.BytesType)
	buf = protowire.AppendString(buf, v.Tag)
	buf = protowire.AppendTag(buf, valueFieldSimpleValue, protowire.Fixed32Type)
	buf = protowire.AppendFixed32(buf, math.Float32bits(v.Value))

	return buf
}

// parseEvent decodes the scalar-summary subset of a wire-encoded event,
// skipping unknown fields so files written by other tools still load.
func parseEvent(buf []byte) (Event, error) {
	var event Event

	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return Event{}, fmt.Errorf("invalid event tag: %w", protowire.ParseError(n))
		}

		buf = buf[n:]

		switch {
		case num == eventFieldWallTime && typ == protowire.Fixed64Type:
			bits, n := protowire.ConsumeFixed64(buf)
			if n < 0 {
				return Event{}, fmt.Errorf("invalid wall_time: %w", protowire.ParseError(n))
			}

			event.WallTime = math.Float64frombits(bits)
			buf = buf[n:]
		case num == eventFieldStep && typ == protowire.VarintType:
			step, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return Event{}, fmt.Errorf("invalid step: %w", protowire.ParseError(n))
			}

			event.Step = int64(step)
			buf = buf[n:]
		case num == eventFieldFileVersion && typ == protowire.BytesType:
			version, n := protowire.ConsumeString(buf)
			if n < 0 {
				return Event{}, fmt.Errorf("invalid file_version: %w", protowire.ParseError(n))
			}

			event.FileVersion = version
			buf = buf[n:]
		case num == eventFieldSummary && typ == protowire.BytesType:
			body, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				return Event{}, fmt.Errorf("invalid summary: %w", protowire.ParseError(n))
			}

			values, err := parseSummary(body)
			if err != nil {
				return Event{}, err
			}

			event.Summary = append(event.Summary, values...)
			buf = buf[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return Event{}, fmt.Errorf("invalid field %d: %w", num, protowire.ParseError(n))
			}

			buf = buf[n:]
		}
	}

	return event, nil
}

func parseSummary(buf []byte) ([]SummaryValue, error) {
	var values []SummaryValue

	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, fmt.Errorf("invalid summary tag: %w", protowire.ParseError(n))
		}

		buf = buf[n:]

		if num == summaryFieldValue && typ == protowire.BytesType {
			body, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				return nil, fmt.Errorf("invalid summary value: %w", protowire.ParseError(n))
			}

			value, err := parseSummaryValue(body)
			if err != nil {
				return nil, err
			}

			values = append(values, value)
			buf = buf[n:]

			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, buf)
		if n < 0 {
			return nil, fmt.Errorf("invalid summary field %d: %w", num, protowire.ParseError(n))
		}

		buf = buf[n:]
	}

	return values, nil
}

func parseSummaryValue(buf []byte) (SummaryValue, error) {
	var value SummaryValue

	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return SummaryValue{}, fmt.Errorf("invalid value tag: %w", protowire.ParseError(n))
		}

		buf = buf[n:]

		switch {
		case num == valueFieldTag && typ == protowire.BytesType:
			tag, n := protowire.ConsumeString(buf)
			if n < 0 {
				return SummaryValue{}, fmt.Errorf("invalid tag: %w", protowire.ParseError(n))
			}

			value.Tag = tag
			buf = buf[n:]
		case num == valueFieldSimpleValue && typ == protowire.Fixed32Type:
			bits, n := protowire.ConsumeFixed32(buf)
			if n < 0 {
				return SummaryValue{}, fmt.Errorf("invalid simple_value: %w", protowire.ParseError(n))
			}

			value.Value = math.Float32frombits(bits)
			buf = buf[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return SummaryValue{}, fmt.Errorf("invalid value field %d: %w", num, protowire.ParseError(n))
			}

			buf = buf[n:]
		}
	}

	return value, nil
}
