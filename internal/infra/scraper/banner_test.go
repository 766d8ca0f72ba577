package scraper_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesnouvelles-feed/internal/infra/scraper"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCompose(t *testing.T) {
	red := color.RGBA{R: 200, A: 255}
	banner := scraper.Compose(solid(400, 300, red), "© ledevoir 2025")

	assert.Equal(t, image.Rect(0, 0, scraper.BannerWidth, 600+50), banner.Bounds())

	r, g, b, _ := banner.At(400, 300).RGBA()
	assert.Greater(t, r, g+b, "image area keeps the source colour")

	var white int
	for y := 600; y < 650; y++ {
		for x := 0; x < 300; x++ {
			if r, g, b, _ := banner.At(x, y).RGBA(); r > 0xf000 && g > 0xf000 && b > 0xf000 {
				white++
			}
		}
	}
	assert.Positive(t, white, "caption drawn in the band")

	r, g, b, _ = banner.At(scraper.BannerWidth-1, 649).RGBA()
	assert.Zero(t, r+g+b, "band background is black")
}

func TestBannerRenderer_Render(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(160, 90, color.RGBA{B: 255, A: 255})))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/og.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(buf.Bytes())
		default:
			_, _ = w.Write([]byte("not an image"))
		}
	}))
	defer server.Close()

	r := scraper.NewBannerRenderer(&http.Client{Timeout: 5 * time.Second})
	r.DenyPrivateIPs = false

	dataURL, err := r.Render(context.Background(), server.URL+"/og.png", "© lapresse 2025")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dataURL, "data:image/jpeg;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 800, 450+50), img.Bounds())

	_, err = r.Render(context.Background(), server.URL+"/page.html", "x")
	assert.ErrorContains(t, err, "decode image")
}
