package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageCache keeps decoded screenshots keyed by file.
//
// Capture tools commonly overwrite the same file for every shot, so an entry
// is only reused while the file's size and modification time are unchanged.
// Paths are cleaned and made absolute before lookup.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/tmp/shot.png")
type ImageCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	img     image.Image
	format  string
	size    int64
	modTime time.Time
}

func (e *cacheEntry) current(fi os.FileInfo) bool {
	return e.size == fi.Size() && e.modTime.Equal(fi.ModTime())
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		entries: make(map[string]*cacheEntry),
	}
}

// Load returns the decoded image at path, decoding it again when the file
// changed since it was cached. PNG, JPEG, GIF and WebP are supported.
func (c *ImageCache) Load(path string) (image.Image, error) {
	e, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return e.img, nil
}

func (c *ImageCache) load(path string) (*cacheEntry, error) {
	key := cacheKey(path)

	fi, err := os.Stat(key)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && e.current(fi) {
		return e, nil
	}

	data, err := os.ReadFile(key)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	e = &cacheEntry{
		img:     img,
		format:  format,
		size:    fi.Size(),
		modTime: fi.ModTime(),
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()

	return e, nil
}

// Evict drops the entry for path, if any.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, cacheKey(path))
	c.mu.Unlock()
}

// Len reports the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Decode decodes an in-memory image in any registered format.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// ImageInfo describes a loaded screenshot.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the decoder that read the file: "png", "jpeg", "gif" or
	// "webp". It does not depend on the file extension.
	Format string `json:"format"`

	// HasAlpha reports whether any pixel is not fully opaque.
	HasAlpha bool `json:"has_alpha"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads path through cache and returns its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	e, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	hasAlpha := false
	if o, ok := e.img.(interface{ Opaque() bool }); ok {
		hasAlpha = !o.Opaque()
	}

	bounds := e.img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        e.format,
		HasAlpha:      hasAlpha,
		FileSizeBytes: e.size,
	}, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the size of the image at path.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
