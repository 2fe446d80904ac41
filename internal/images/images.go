// Package images renders recipe thumbnails and memoizes them for the life of
// the process.
package images

import (
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"strconv"
	"sync"

	"github.com/nfnt/resize"
)

var (
	cardColor   = color.RGBA{R: 0x23, G: 0x23, B: 0x23, A: 0xff}
	accentColor = color.RGBA{R: 0x4c, G: 0xaf, B: 0x50, A: 0xff}
)

// Service loads and scales images. Entries are never evicted.
type Service struct {
	defaultPath string

	mu    sync.Mutex
	cache map[string]image.Image
}

// NewService creates a Service that uses defaultPath for recipes without an
// image. defaultPath may be empty.
func NewService(defaultPath string) *Service {
	return &Service{defaultPath: defaultPath, cache: make(map[string]image.Image)}
}

// Load returns the image at path scaled to cover width x height. A blank,
// missing or undecodable path yields a placeholder.
func (s *Service) Load(path string, width, height int) image.Image {
	key := cacheKey(path, width, height)

	s.mu.Lock()
	defer s.mu.Unlock()
	if img, ok := s.cache[key]; ok {
		return img
	}

	src := path
	if src == "" {
		src = s.defaultPath
	}
	img, err := decode(src)
	if err != nil {
		img = Placeholder(width, height)
	} else {
		img = cover(img, width, height)
	}
	s.cache[key] = img
	return img
}

// Len reports how many renderings are cached.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

func cacheKey(path string, width, height int) string {
	if path == "" {
		path = "default"
	}
	return path + "::" + strconv.Itoa(width) + "x" + strconv.Itoa(height)
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// cover scales img, keeping its aspect ratio, so both sides reach the box.
func cover(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || width <= 0 || height <= 0 {
		return img
	}
	scale := math.Max(float64(width)/float64(b.Dx()), float64(height)/float64(b.Dy()))
	w := uint(math.Ceil(float64(b.Dx()) * scale))
	h := uint(math.Ceil(float64(b.Dy()) * scale))
	return resize.Resize(w, h, img, resize.Lanczos3)
}

// Placeholder draws an accent tile on the card background.
func Placeholder(width, height int) image.Image {
	w, h := max(width, 1), max(height, 1)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: cardColor}, image.Point{}, draw.Src)
	inner := image.Rect(int(float64(w)*0.15), int(float64(h)*0.15), int(float64(w)*0.85), int(float64(h)*0.85))
	draw.Draw(img, inner, &image.Uniform{C: accentColor}, image.Point{}, draw.Src)
	return img
}
