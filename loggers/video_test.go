package loggers

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVideoValidation(t *testing.T) {
	tests := []struct {
		name                          string
		frames, channels, height, width int
		expectError                   bool
	}{
		{name: "rgb video", frames: 3, channels: 3, height: 32, width: 32},
		{name: "grayscale video", frames: 1, channels: 1, height: 4, width: 4},
		{name: "zero frames", frames: 0, channels: 3, height: 4, width: 4, expectError: true},
		{name: "zero height", frames: 1, channels: 3, height: 0, width: 4, expectError: true},
		{name: "two channels", frames: 1, channels: 2, height: 4, width: 4, expectError: true},
		{name: "four channels", frames: 1, channels: 4, height: 4, width: 4, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			video, err := NewVideo(tt.frames, tt.channels, tt.height, tt.width)

			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.frames, video.Frames())
			assert.Equal(t, tt.channels, video.Channels())
			assert.Equal(t, tt.height, video.Height())
			assert.Equal(t, tt.width, video.Width())
		})
	}
}

func TestVideoSetAt(t *testing.T) {
	video, err := NewVideo(2, 3, 4, 4)
	require.NoError(t, err)

	assert.Equal(t, uint8(0), video.At(1, 2, 3, 3))

	video.Set(1, 2, 3, 3, 200)
	assert.Equal(t, uint8(200), video.At(1, 2, 3, 3))

	// Neighbouring samples stay untouched.
	assert.Equal(t, uint8(0), video.At(1, 2, 3, 2))
	assert.Equal(t, uint8(0), video.At(1, 1, 3, 3))
	assert.Equal(t, uint8(0), video.At(0, 2, 3, 3))
}

func TestVideoFill(t *testing.T) {
	video, err := NewVideo(2, 1, 2, 2)
	require.NoError(t, err)

	video.Fill(255)
	assert.Equal(t, uint8(255), video.At(0, 0, 0, 0))
	assert.Equal(t, uint8(255), video.At(1, 0, 1, 1))

	video.FillFrame(1, 0)
	assert.Equal(t, uint8(255), video.At(0, 0, 1, 1))
	assert.Equal(t, uint8(0), video.At(1, 0, 0, 0))
	assert.Equal(t, uint8(0), video.At(1, 0, 1, 1))
}

func TestFrameImageRGB(t *testing.T) {
	video, err := NewVideo(1, 3, 2, 2)
	require.NoError(t, err)

	video.Set(0, 0, 0, 1, 10)
	video.Set(0, 1, 0, 1, 20)
	video.Set(0, 2, 0, 1, 30)

	img := video.FrameImage(0)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, img.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(0, 0))
}

func TestFrameImageGrayscale(t *testing.T) {
	video, err := NewVideo(1, 1, 2, 2)
	require.NoError(t, err)

	video.Set(0, 0, 1, 0, 128)

	img := video.FrameImage(0)
	assert.Equal(t, color.RGBA{R: 128, G: 128, B: 128, A: 255}, img.RGBAAt(0, 1))
}
