// Package compress shrinks images before upload.
//
// [Compress] re-encodes an image as JPEG, fitting it into a bounding box and
// lowering the resolution step by step until it is under a size target. It
// never blocks an upload: when anything goes wrong, or the result would not
// be smaller, the original bytes are returned unchanged.
package compress

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	// Register WebP decoding with image.Decode.
	_ "golang.org/x/image/webp"

	apperrors "github.com/matzehuels/adminpanel/pkg/errors"
)

const bytesPerMB = 1024 * 1024

// Options tunes compression. Zero fields take their default.
type Options struct {
	// MaxSizeMB is the target output size in megabytes.
	MaxSizeMB float64
	// MaxWidthOrHeight bounds the longer side in pixels.
	MaxWidthOrHeight int
	// Quality is the JPEG quality, 1 to 100.
	Quality int
	// ResizeStep scales both sides per iteration while over the size target.
	ResizeStep float64
	// MaxIterations bounds encode attempts.
	MaxIterations int
	// DisableResize keeps the fitted resolution and only re-encodes.
	DisableResize bool
	// Logger receives debug output; nil uses log.Default().
	Logger *log.Logger
}

// DefaultOptions returns the defaults: 0.5 MB, 1920px, quality 70, 0.9 step,
// 10 iterations.
func DefaultOptions() Options {
	return Options{
		MaxSizeMB:        0.5,
		MaxWidthOrHeight: 1920,
		Quality:          70,
		ResizeStep:       0.9,
		MaxIterations:    10,
	}
}

func (o *Options) withDefaults() Options {
	d := DefaultOptions()
	if o == nil {
		d.Logger = log.Default()
		return d
	}
	out := *o
	if out.MaxSizeMB <= 0 {
		out.MaxSizeMB = d.MaxSizeMB
	}
	if out.MaxWidthOrHeight <= 0 {
		out.MaxWidthOrHeight = d.MaxWidthOrHeight
	}
	if out.Quality <= 0 || out.Quality > 100 {
		out.Quality = d.Quality
	}
	if out.ResizeStep <= 0 || out.ResizeStep >= 1 {
		out.ResizeStep = d.ResizeStep
	}
	if out.MaxIterations <= 0 {
		out.MaxIterations = d.MaxIterations
	}
	if out.Logger == nil {
		out.Logger = log.Default()
	}
	return out
}

// Compress returns a compressed copy of data, or data itself if compression
// fails, ctx is cancelled first, or the result is not smaller. The work runs
// on its own goroutine and the result is delivered before Compress returns.
func Compress(ctx context.Context, data []byte, opts *Options) []byte {
	o := opts.withDefaults()

	done := make(chan []byte, 1)
	go func() {
		out, err := compress(ctx, data, o)
		if err != nil {
			o.Logger.Debug("compression failed, keeping original", "error", err)
			out = nil
		}
		done <- out
	}()

	select {
	case out := <-done:
		if out == nil || len(out) >= len(data) {
			return data
		}
		o.Logger.Debug("compressed image", "from", len(data), "to", len(out))
		return out
	case <-ctx.Done():
		return data
	}
}

// CompressFile reads path and compresses its contents. Only the read can
// fail; compression itself falls back to the file's bytes.
func CompressFile(ctx context.Context, path string, opts *Options) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return Compress(ctx, data, opts), nil
}

func compress(ctx context.Context, data []byte, o Options) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeCompressionFailed, err, "decode image")
	}
	img = fit(flatten(img), o.MaxWidthOrHeight)

	target := int(o.MaxSizeMB * bytesPerMB)
	var best []byte
	for i := 0; i < o.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(o.Quality)); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeCompressionFailed, err, "encode jpeg")
		}
		if best == nil || buf.Len() < len(best) {
			best = buf.Bytes()
		}
		if buf.Len() <= target || o.DisableResize {
			break
		}

		b := img.Bounds()
		w := int(float64(b.Dx()) * o.ResizeStep)
		h := int(float64(b.Dy()) * o.ResizeStep)
		if w < 1 || h < 1 {
			break
		}
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}
	return best, nil
}

// flatten draws img onto an opaque white canvas. JPEG has no alpha, and
// transparent pixels would otherwise turn black.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// fit shrinks img so its longer side is at most limit. Smaller images are
// left alone.
func fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	if b.Dx() <= limit && b.Dy() <= limit {
		return img
	}
	return imaging.Fit(img, limit, limit, imaging.Lanczos)
}
