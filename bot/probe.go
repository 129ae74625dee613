package bot

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"net/http"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/coocood/freecache"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/time/rate"

	"portfolio-be/gallery"
)

// Prober resolves the pixel size of a remote image.
type Prober interface {
	Probe(ctx context.Context, link string) (gallery.Dims, error)
}

// DimsCache remembers probed sizes by URL.
type DimsCache interface {
	Get(link string) (gallery.Dims, bool)
	Set(link string, dims gallery.Dims)
}

// HTTPProber downloads just enough of an image to decode its header.
type HTTPProber struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	cache     DimsCache
}

// NewHTTPProber returns a prober. A nil limiter or cache disables that feature.
func NewHTTPProber(client *http.Client, userAgent string, limiter *rate.Limiter, cache DimsCache) *HTTPProber {
	if client == nil {
		client = http.DefaultClient
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if cache == nil {
		cache = noopDimsCache{}
	}
	return &HTTPProber{
		client:    client,
		userAgent: userAgent,
		limiter:   limiter,
		cache:     cache,
	}
}

func (p *HTTPProber) Probe(ctx context.Context, link string) (gallery.Dims, error) {
	if dims, ok := p.cache.Get(link); ok {
		return dims, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return gallery.Dims{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, http.NoBody)
	if err != nil {
		return gallery.Dims{}, fmt.Errorf("create request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return gallery.Dims{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return gallery.Dims{}, fmt.Errorf("failed to probe image: %s", resp.Status)
	}

	cfg, format, err := image.DecodeConfig(resp.Body)
	if err != nil {
		return gallery.Dims{}, fmt.Errorf("decode image header: %w", err)
	}

	dims := gallery.Dims{cfg.Width, cfg.Height}
	if !dims.Valid() {
		return gallery.Dims{}, fmt.Errorf("invalid %s dimensions %dx%d", format, cfg.Width, cfg.Height)
	}

	p.cache.Set(link, dims)
	return dims, nil
}

type freeDimsCache struct {
	cache *freecache.Cache
}

// NewDimsCache returns a cache of sizeMB megabytes, or a no-op cache when
// sizeMB is not positive.
func NewDimsCache(sizeMB int) DimsCache {
	if sizeMB <= 0 {
		return noopDimsCache{}
	}
	return &freeDimsCache{cache: freecache.NewCache(sizeMB * 1024 * 1024)}
}

func (c *freeDimsCache) Get(link string) (gallery.Dims, bool) {
	val, err := c.cache.Get([]byte(link))
	if err != nil || len(val) != 8 {
		return gallery.Dims{}, false
	}
	return gallery.Dims{
		int(binary.BigEndian.Uint32(val[:4])),
		int(binary.BigEndian.Uint32(val[4:])),
	}, true
}

func (c *freeDimsCache) Set(link string, dims gallery.Dims) {
	val := make([]byte, 8)
	binary.BigEndian.PutUint32(val[:4], uint32(dims.Width()))
	binary.BigEndian.PutUint32(val[4:], uint32(dims.Height()))
	_ = c.cache.Set([]byte(link), val, 0)
}

type noopDimsCache struct{}

func (noopDimsCache) Get(string) (gallery.Dims, bool) { return gallery.Dims{}, false }
func (noopDimsCache) Set(string, gallery.Dims)        {}
