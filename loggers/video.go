package loggers

import (
	"fmt"
	"image"
	"image/color"
)

// Video is a dense frame tensor of shape [time, channel, height, width] with
// uint8 samples. Channel count is 1 (grayscale) or 3 (RGB).
type Video struct {
	frames   int
	channels int
	height   int
	width    int
	data     []uint8
}

// NewVideo allocates a zeroed video tensor with the given dimensions.
func NewVideo(frames, channels, height, width int) (*Video, error) {
	if frames <= 0 || height <= 0 || width <= 0 {
		return nil, fmt.Errorf("video dimensions must be positive, got [%d, %d, %d, %d]",
			frames, channels, height, width)
	}

	if channels != 1 && channels != 3 {
		return nil, fmt.Errorf("video channel count must be 1 or 3, got %d", channels)
	}

	return &Video{
		frames:   frames,
		channels: channels,
		height:   height,
		width:    width,
		data:     make([]uint8, frames*channels*height*width),
	}, nil
}

// Frames returns the number of frames (the time dimension).
func (v *Video) Frames() int { return v.frames }

// Channels returns the channel count.
func (v *Video) Channels() int { return v.channels }

// Height returns the frame height in pixels.
func (v *Video) Height() int { return v.height }

// Width returns the frame width in pixels.
func (v *Video) Width() int { return v.width }

func (v *Video) index(t, c, y, x int) int {
	return ((t*v.channels+c)*v.height+y)*v.width + x
}

// At returns the sample at [t, c, y, x]. Indices out of range panic, matching
// slice semantics.
func (v *Video) At(t, c, y, x int) uint8 {
	return v.data[v.index(t, c, y, x)]
}

// Set writes the sample at [t, c, y, x].
func (v *Video) Set(t, c, y, x int, sample uint8) {
	v.data[v.index(t, c, y, x)] = sample
}

// Fill sets every sample in the tensor to the given value.
func (v *Video) Fill(sample uint8) {
	for i := range v.data {
		v.data[i] = sample
	}
}

// FillFrame sets every sample of one frame to the given value.
func (v *Video) FillFrame(t int, sample uint8) {
	frameLen := v.channels * v.height * v.width
	offset := t * frameLen

	for i := offset; i < offset+frameLen; i++ {
		v.data[i] = sample
	}
}

// FrameImage converts one frame to an RGBA image. Grayscale frames replicate
// the single channel across R, G, and B.
func (v *Video) FrameImage(t int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, v.width, v.height))

	for y := 0; y < v.height; y++ {
		for x := 0; x < v.width; x++ {
			var r, g, b uint8
			if v.channels == 3 {
				r = v.At(t, 0, y, x)
				g = v.At(t, 1, y, x)
				b = v.At(t, 2, y, x)
			} else {
				r = v.At(t, 0, y, x)
				g, b = r, r
			}

			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}

	return img
}
