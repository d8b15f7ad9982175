package deck

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h, color.RGBA{R: 200, A: 255})))
	return buf.Bytes()
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h, color.RGBA{B: 200, A: 255}), nil))
	return buf.Bytes()
}

func testGIF(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, testImage(2, 2, color.Black), nil))
	return buf.Bytes()
}

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func TestURLLoaderDataURI(t *testing.T) {
	l := NewURLLoader(0)

	a, err := l.Load(context.Background(), dataURI("image/png", testPNG(t, 4, 3)))
	require.NoError(t, err)
	assert.Equal(t, ImageFormatPNG, a.Format)
	assert.Equal(t, Size{Width: 4, Height: 3}, a.Size())

	j, err := l.Load(context.Background(), dataURI("image/jpeg", testJPEG(t, 8, 8)))
	require.NoError(t, err)
	assert.Equal(t, ImageFormatJPEG, j.Format)
	assert.Equal(t, "image/jpeg", j.Format.MIME())
}

func TestURLLoaderRejectsUnsupported(t *testing.T) {
	l := NewURLLoader(0)

	_, err := l.Load(context.Background(), dataURI("image/gif", testGIF(t)))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	// Sniffed when the declared type is missing.
	_, err = l.Load(context.Background(), "data:;base64,"+base64.StdEncoding.EncodeToString(testGIF(t)))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = l.Load(context.Background(), "data:image/svg+xml,%3Csvg%3E%3C/svg%3E")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestURLLoaderCorruptImage(t *testing.T) {
	_, err := NewURLLoader(0).Load(context.Background(), dataURI("image/png", []byte("not a png")))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedImage)

	_, err = NewURLLoader(0).Load(context.Background(), "data:image/png;base64")
	assert.Error(t, err)
}

func TestURLLoaderHTTP(t *testing.T) {
	img := testJPEG(t, 5, 5)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(img)
		case "/slow":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewURLLoader(50 * time.Millisecond)
	a, err := l.Load(context.Background(), srv.URL+"/photo")
	require.NoError(t, err)
	assert.Equal(t, ImageFormatJPEG, a.Format)
	assert.Equal(t, img, a.Data, "jpeg bytes are embedded as-is")

	_, err = l.Load(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)

	_, err = l.Load(context.Background(), srv.URL+"/slow")
	assert.Error(t, err)
}

func TestURLLoaderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic.png")
	require.NoError(t, os.WriteFile(path, testPNG(t, 2, 2), 0o644))

	for _, src := range []string{path, "file://" + path} {
		_, err := NewURLLoader(0).Load(context.Background(), src)
		assert.ErrorIs(t, err, ErrSourceNotAllowed, src)
	}

	l := NewURLLoader(0)
	l.AllowFiles = true
	a, err := l.Load(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, ImageFormatPNG, a.Format)

	_, err = l.Load(context.Background(), filepath.Join(t.TempDir(), "none.png"))
	assert.Error(t, err)
}

// withPNGSize rewrites the IHDR dimensions of a PNG without touching its
// pixel data.
func withPNGSize(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := bytes.Clone(data)
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestDecodeAssetRejectsOversizedImage(t *testing.T) {
	huge := withPNGSize(t, testPNG(t, 1, 1), 50000, 50000)

	_, err := DecodeAsset(huge, "image/png")
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = NewURLLoader(0).Load(context.Background(), dataURI("image/png", huge))
	assert.ErrorIs(t, err, ErrImageTooLarge)

	a, err := DecodeAsset(testPNG(t, 4096, 2), "image/png")
	require.NoError(t, err)
	assert.Equal(t, 4096, a.Width)
}

func TestDecodeAssetNormalizes16BitPNG(t *testing.T) {
	src := image.NewNRGBA64(image.Rect(0, 0, 3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			src.Set(x, y, color.NRGBA64{R: 0xFFFF, G: 0x8000, A: 0xFFFF})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	a, err := DecodeAsset(buf.Bytes(), "image/png")
	require.NoError(t, err)

	out, err := png.Decode(bytes.NewReader(a.Data))
	require.NoError(t, err)
	switch out.(type) {
	case *image.NRGBA64, *image.RGBA64, *image.Gray16:
		t.Fatalf("expected 8-bit png, got %T", out)
	}
	assert.Equal(t, 3, a.Width)
}
