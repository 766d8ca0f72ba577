package scraper

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"lesnouvelles-feed/internal/resilience/circuitbreaker"
	"lesnouvelles-feed/internal/resilience/retry"
)

const (
	// BannerWidth is the width of rendered banners in pixels.
	BannerWidth = 800
	// captionBand is the height of the black band holding the caption.
	captionBand  = 50
	captionScale = 2
	captionLeft  = 10
	jpegQuality  = 85
)

// BannerRenderer turns an og:image into the article banner: the image
// resized to BannerWidth with a captioned black band underneath, encoded
// as a JPEG data URL.
type BannerRenderer struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	DenyPrivateIPs bool
}

// NewBannerRenderer returns a BannerRenderer that refuses private addresses.
func NewBannerRenderer(client *http.Client) *BannerRenderer {
	return &BannerRenderer{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.PageFetchConfig()),
		retryConfig:    retry.PageFetchConfig(),
		DenyPrivateIPs: true,
	}
}

// Render downloads imageURL and returns the captioned banner as a data URL.
func (r *BannerRenderer) Render(ctx context.Context, imageURL, caption string) (string, error) {
	data, err := retry.Do(ctx, r.retryConfig, func() ([]byte, error) {
		return circuitbreaker.Run(r.circuitBreaker, func() ([]byte, error) {
			return get(ctx, r.client, imageURL, r.DenyPrivateIPs)
		})
	})
	if err != nil {
		return "", err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	banner := Compose(src, caption)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, banner, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode JPEG: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Compose scales src to BannerWidth, keeping its aspect ratio, and draws
// caption in white on a black band below it.
func Compose(src image.Image, caption string) *image.RGBA {
	b := src.Bounds()
	height := 1
	if b.Dx() > 0 {
		height = max(1, b.Dy()*BannerWidth/b.Dx())
	}

	dst := image.NewRGBA(image.Rect(0, 0, BannerWidth, height+captionBand))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, image.Rect(0, 0, BannerWidth, height), src, b, draw.Over, nil)

	text := renderCaption(caption)
	tb := text.Bounds()
	w, h := tb.Dx()*captionScale, tb.Dy()*captionScale
	top := height + (captionBand-h)/2
	draw.NearestNeighbor.Scale(dst, image.Rect(captionLeft, top, captionLeft+w, top+h), text, tb, draw.Over, nil)
	return dst
}

// renderCaption draws s at the native size of the bitmap face on a
// transparent canvas.
func renderCaption(s string) *image.RGBA {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face, Src: image.NewUniform(color.White)}
	width := d.MeasureString(s).Ceil()
	canvas := image.NewRGBA(image.Rect(0, 0, max(width, 1), face.Height))
	d.Dst = canvas
	d.Dot = fixed.P(0, face.Ascent)
	d.DrawString(s)
	return canvas
}
