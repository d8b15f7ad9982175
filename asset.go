package deck

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ImageFormat is a raster image encoding. It names both the formats accepted
// for embedded images and the formats previews can be written in.
type ImageFormat int

const (
	ImageFormatPNG ImageFormat = iota
	ImageFormatJPEG
)

func (f ImageFormat) String() string {
	if f == ImageFormatJPEG {
		return "JPEG"
	}
	return "PNG"
}

// MIME returns the media type of the format.
func (f ImageFormat) MIME() string {
	if f == ImageFormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// ErrUnsupportedImage is returned for image sources that are neither PNG nor
// JPEG. Such sources are never retried.
var ErrUnsupportedImage = errors.New("unsupported image format")

// ErrSourceNotAllowed is returned for local file sources when the loader
// does not allow them.
var ErrSourceNotAllowed = errors.New("image source not allowed")

// ErrImageTooLarge is returned for images whose declared dimensions exceed
// maxImagePixels.
var ErrImageTooLarge = errors.New("image too large")

// DefaultFetchTimeout bounds each remote asset request.
const DefaultFetchTimeout = 10 * time.Second

// maxAssetSize limits how much of a single image source is read.
const maxAssetSize = 32 << 20 // 32 MB

// maxImagePixels limits the decoded size of a single image.
const maxImagePixels = 64 << 20 // 64 MP

// Asset is a decoded, verified image ready for embedding.
type Asset struct {
	Source string
	Format ImageFormat
	// Data holds the bytes to embed. PNGs are re-encoded as 8-bit,
	// non-interlaced images; JPEGs are kept as-is.
	Data   []byte
	Image  image.Image
	Width  int
	Height int
}

// Size returns the natural image size in pixels.
func (a *Asset) Size() Size {
	return Size{Width: float64(a.Width), Height: float64(a.Height)}
}

// AssetLoader fetches and decodes the image behind an element content or
// background URL.
type AssetLoader interface {
	Load(ctx context.Context, src string) (*Asset, error)
}

// URLLoader loads "data:" URIs and http(s) URLs. Local paths and "file://"
// URLs are read only when AllowFiles is set.
type URLLoader struct {
	Client     *http.Client
	Timeout    time.Duration
	AllowFiles bool
}

// NewURLLoader creates a loader whose remote requests time out after timeout.
// A non-positive timeout uses DefaultFetchTimeout.
func NewURLLoader(timeout time.Duration) *URLLoader {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &URLLoader{Client: http.DefaultClient, Timeout: timeout}
}

// Load implements AssetLoader.
func (l *URLLoader) Load(ctx context.Context, src string) (*Asset, error) {
	raw, mediaType, err := l.read(ctx, src)
	if err != nil {
		return nil, err
	}
	a, err := DecodeAsset(raw, mediaType)
	if err != nil {
		return nil, err
	}
	a.Source = src
	return a, nil
}

func (l *URLLoader) read(ctx context.Context, src string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		return parseDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return l.fetch(ctx, src)
	case src == "":
		return nil, "", errors.New("empty image source")
	case !l.AllowFiles:
		return nil, "", fmt.Errorf("%w: %q", ErrSourceNotAllowed, src)
	default:
		path := strings.TrimPrefix(src, "file://")
		f, err := os.Open(path)
		if err != nil {
			return nil, "", fmt.Errorf("open image: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxAssetSize))
		if err != nil {
			return nil, "", fmt.Errorf("read image: %w", err)
		}
		return data, "", nil
	}
}

func (l *URLLoader) fetch(ctx context.Context, src string) ([]byte, string, error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch image: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// parseDataURI splits "data:<mime>[;base64],<payload>".
func parseDataURI(src string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, "", errors.New("malformed data URI")
	}
	mediaType, params, _ := strings.Cut(header, ";")
	if strings.Contains(params, "base64") {
		data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(payload), ""))
		if err != nil {
			return nil, "", fmt.Errorf("data URI: %w", err)
		}
		return data, mediaType, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("data URI: %w", err)
	}
	return []byte(text), mediaType, nil
}

// DecodeAsset verifies raw image bytes and normalizes them for embedding.
// mediaType may be empty, in which case the format is sniffed from the data.
func DecodeAsset(raw []byte, mediaType string) (*Asset, error) {
	format, err := detectFormat(raw, mediaType)
	if err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode %s header: %w", strings.ToLower(format.String()), err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	a := &Asset{Format: format, Data: raw}
	switch format {
	case ImageFormatJPEG:
		a.Image, err = jpeg.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("decode jpeg: %w", err)
		}
	default:
		a.Image, err = png.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("decode png: %w", err)
		}
		a.Data, err = normalizePNG(a.Image)
		if err != nil {
			return nil, err
		}
	}
	b := a.Image.Bounds()
	a.Width, a.Height = b.Dx(), b.Dy()
	return a, nil
}

func detectFormat(raw []byte, mediaType string) (ImageFormat, error) {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = http.DetectContentType(raw)
	}
	switch mediaType {
	case "image/png":
		return ImageFormatPNG, nil
	case "image/jpeg", "image/jpg":
		return ImageFormatJPEG, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedImage, mediaType)
}

// normalizePNG re-encodes img as an 8-bit, non-interlaced PNG.
func normalizePNG(img image.Image) ([]byte, error) {
	switch img.(type) {
	case *image.NRGBA64, *image.RGBA64, *image.Gray16:
		b := img.Bounds()
		dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		img = dst
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
