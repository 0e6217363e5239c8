// Package derivative turns one uploaded image into the artifacts that are
// stored for it: an upright full-size image and a bounded thumbnail, both PNG.
package derivative

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/corona10/goimagehash"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"docingest/internal/model"
)

// ThumbnailSize is the default bounding box of a thumbnail.
const ThumbnailSize = 200

// Extension of every generated artifact.
const Extension = "png"

// ErrDecode reports a buffer that is not a decodable image.
var ErrDecode = errors.New("image decode failed")

// DecodeError wraps ErrDecode with the decoder's message.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("%s: %v", ErrDecode, e.Err) }

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// Generator produces derivative sets. It holds no per-call state beyond its
// Clock and is safe for concurrent use.
type Generator struct {
	clock     *Clock
	thumbSize int
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces the timestamp source.
func WithClock(c *Clock) Option { return func(g *Generator) { g.clock = c } }

// WithThumbnailSize changes the thumbnail bounding box.
func WithThumbnailSize(px int) Option {
	return func(g *Generator) {
		if px > 0 {
			g.thumbSize = px
		}
	}
}

// New returns a Generator with a 200x200 thumbnail box.
func New(opts ...Option) *Generator {
	g := &Generator{clock: NewClock(), thumbSize: ThumbnailSize}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate decodes input and returns its normalized image and thumbnail.
// Nothing is written anywhere.
func (g *Generator) Generate(input model.ImageInput, ownerID int64) (*model.DerivativeSet, error) {
	img, err := decode(input.Data)
	if err != nil {
		return nil, err
	}

	normalized, err := g.artifact(img, input.OriginalName, model.RoleNormalized, ownerID)
	if err != nil {
		return nil, err
	}
	thumb, err := g.artifact(fit(img, g.thumbSize), input.OriginalName, model.RoleThumbnail, ownerID)
	if err != nil {
		return nil, err
	}

	set := &model.DerivativeSet{Normalized: normalized, Thumbnail: thumb}
	if h, err := goimagehash.DifferenceHash(img); err == nil {
		set.Fingerprint = h.ToString()
	}
	return set, nil
}

// Normalize returns only the upright full-size image, as used for profile pictures.
func (g *Generator) Normalize(input model.ImageInput, ownerID int64) (*model.Derivative, error) {
	img, err := decode(input.Data)
	if err != nil {
		return nil, err
	}
	d, err := g.artifact(img, input.OriginalName, model.RoleNormalized, ownerID)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (g *Generator) artifact(img image.Image, original, role string, ownerID int64) (model.Derivative, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return model.Derivative{}, fmt.Errorf("encode %s: %w", role, err)
	}
	b := img.Bounds()
	return model.Derivative{
		Role:     role,
		Filename: Filename(original, role, ownerID, g.clock.Next(), Extension),
		Data:     buf.Bytes(),
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

func decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: errors.New("empty buffer")}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &DecodeError{Err: errors.New("empty image")}
	}
	return applyOrientation(img, orientation(data, format)), nil
}

// fit scales img to lie inside a box x box square, keeping its aspect ratio.
// Images already inside the box are returned as is.
func fit(img image.Image, box int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= box && h <= box {
		return img
	}
	nw, nh := box, box
	if w >= h {
		nh = max(1, h*box/w)
	} else {
		nw = max(1, w*box/h)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
