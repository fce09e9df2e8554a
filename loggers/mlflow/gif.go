package mlflow

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"

	"github.com/rayanht/rl/loggers"
)

// gifTicksPerSecond is the GIF timebase: frame delays are hundredths of a second.
const gifTicksPerSecond = 100

// EncodeGIF writes the video as an animated GIF at the given frame rate.
//
// Frames with at most 256 distinct colors are encoded losslessly with an
// exact palette; richer frames fall back to Floyd-Steinberg dithering over
// the standard 256-color palette, which keeps pixel values within integer
// tolerance of the originals.
func EncodeGIF(w io.Writer, video *loggers.Video, fps int) error {
	if fps <= 0 {
		return fmt.Errorf("fps must be positive, got %d", fps)
	}

	delay := (gifTicksPerSecond + fps/2) / fps
	if delay < 1 {
		delay = 1
	}

	anim := &gif.GIF{
		Image: make([]*image.Paletted, 0, video.Frames()),
		Delay: make([]int, 0, video.Frames()),
	}

	for t := 0; t < video.Frames(); t++ {
		frame := video.FrameImage(t)
		anim.Image = append(anim.Image, palettedFrame(frame))
		anim.Delay = append(anim.Delay, delay)
	}

	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("failed to encode gif: %w", err)
	}

	return nil
}

// DecodeGIF reads an animated GIF back into an RGB video tensor, returning
// the tensor and the frame rate implied by the first frame delay.
func DecodeGIF(r io.Reader) (*loggers.Video, int, error) {
	anim, err := gif.DecodeAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode gif: %w", err)
	}

	if len(anim.Image) == 0 {
		return nil, 0, fmt.Errorf("gif has no frames")
	}

	bounds := anim.Image[0].Bounds()

	video, err := loggers.NewVideo(len(anim.Image), 3, bounds.Dy(), bounds.Dx())
	if err != nil {
		return nil, 0, err
	}

	for t, frame := range anim.Image {
		for y := 0; y < bounds.Dy(); y++ {
			for x := 0; x < bounds.Dx(); x++ {
				r, g, b, _ := frame.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				video.Set(t, 0, y, x, uint8(r>>8))
				video.Set(t, 1, y, x, uint8(g>>8))
				video.Set(t, 2, y, x, uint8(b>>8))
			}
		}
	}

	fps := 0
	if delay := anim.Delay[0]; delay > 0 {
		fps = (gifTicksPerSecond + delay/2) / delay
	}

	return video, fps, nil
}

// palettedFrame quantizes one frame. An exact palette is used whenever the
// frame has few enough distinct colors for one.
func palettedFrame(frame *image.RGBA) *image.Paletted {
	bounds := frame.Bounds()

	if pal, ok := exactPalette(frame); ok {
		pm := image.NewPaletted(bounds, pal)
		draw.Draw(pm, bounds, frame, bounds.Min, draw.Src)

		return pm
	}

	pm := image.NewPaletted(bounds, palette.Plan9)
	draw.FloydSteinberg.Draw(pm, bounds, frame, bounds.Min)

	return pm
}

func exactPalette(frame *image.RGBA) (color.Palette, bool) {
	bounds := frame.Bounds()
	seen := make(map[color.RGBA]struct{})

	var pal color.Palette

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := frame.RGBAAt(x, y)
			if _, ok := seen[c]; ok {
				continue
			}

			if len(pal) == 256 {
				return nil, false
			}

			seen[c] = struct{}{}
			pal = append(pal, c)
		}
	}

	return pal, true
}
