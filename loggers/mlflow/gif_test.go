package mlflow

import (
	"bytes"
	"testing"

	"github.com/rayanht/rl/loggers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGIFRoundTripExact(t *testing.T) {
	// Half the frames are white, half are black: few distinct colors, so the
	// encoder uses an exact palette and the round trip is lossless.
	video, err := loggers.NewVideo(4, 3, 8, 8)
	require.NoError(t, err)

	video.FillFrame(0, 255)
	video.FillFrame(1, 255)

	var buf bytes.Buffer
	require.NoError(t, EncodeGIF(&buf, video, 6))

	decoded, fps, err := DecodeGIF(&buf)
	require.NoError(t, err)
	assert.Equal(t, 6, fps)

	require.Equal(t, video.Frames(), decoded.Frames())
	require.Equal(t, video.Height(), decoded.Height())
	require.Equal(t, video.Width(), decoded.Width())

	for frame := 0; frame < video.Frames(); frame++ {
		for c := 0; c < 3; c++ {
			for y := 0; y < video.Height(); y++ {
				for x := 0; x < video.Width(); x++ {
					assert.Equal(t, video.At(frame, c, y, x), decoded.At(frame, c, y, x))
				}
			}
		}
	}
}

func TestGIFRoundTripGrayscale(t *testing.T) {
	video, err := loggers.NewVideo(2, 1, 4, 4)
	require.NoError(t, err)
	video.FillFrame(0, 200)

	var buf bytes.Buffer
	require.NoError(t, EncodeGIF(&buf, video, 10))

	decoded, _, err := DecodeGIF(&buf)
	require.NoError(t, err)

	// Grayscale expands to replicated RGB channels.
	assert.Equal(t, 3, decoded.Channels())
	assert.Equal(t, uint8(200), decoded.At(0, 0, 0, 0))
	assert.Equal(t, uint8(200), decoded.At(0, 2, 3, 3))
	assert.Equal(t, uint8(0), decoded.At(1, 1, 0, 0))
}

func TestGIFQuantizedWithinTolerance(t *testing.T) {
	// A smooth gradient exceeds 256 distinct colors and forces the dithered
	// fallback; the result must stay close to the source on average.
	video, err := loggers.NewVideo(1, 3, 32, 32)
	require.NoError(t, err)

	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			video.Set(0, 0, y, x, uint8(x*8))
			video.Set(0, 1, y, x, uint8(y*8))
			video.Set(0, 2, y, x, uint8((x+y)*4))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeGIF(&buf, video, 6))

	decoded, _, err := DecodeGIF(&buf)
	require.NoError(t, err)

	var totalError float64

	for c := 0; c < 3; c++ {
		for y := 0; y < 32; y++ {
			for x := 0; x < 32; x++ {
				diff := int(video.At(0, c, y, x)) - int(decoded.At(0, c, y, x))
				if diff < 0 {
					diff = -diff
				}

				totalError += float64(diff)
			}
		}
	}

	meanError := totalError / float64(3*32*32)
	assert.Less(t, meanError, 16.0)
}

func TestEncodeGIFRejectsBadFPS(t *testing.T) {
	video, err := loggers.NewVideo(1, 3, 2, 2)
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.Error(t, EncodeGIF(&buf, video, 0))
	assert.Error(t, EncodeGIF(&buf, video, -6))
}

func TestDecodeGIFRejectsGarbage(t *testing.T) {
	_, _, err := DecodeGIF(bytes.NewReader([]byte("not a gif")))
	assert.Error(t, err)
}
