package noaa

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

const cacheExt = ".txt.zst"

var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}
		return decoder
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
		}
		return encoder
	},
}

// Cache stores downloaded trend files in a directory as zstd compressed bodies keyed
// by the xxhash of their URL. Entries older than MaxAge are treated as missing, a zero
// MaxAge never expires entries.
type Cache struct {
	dir     string
	maxAge  time.Duration
	nowFunc func() time.Time
}

// NewCache creates the cache directory if it does not exist
func NewCache(dir string, maxAge time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create cache directory, %w", err)
	}
	return &Cache{
		dir:     dir,
		maxAge:  maxAge,
		nowFunc: time.Now,
	}, nil
}

func (c *Cache) path(url string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%016x%s", xxhash.Sum64String(url), cacheExt))
}

// Get returns the cached body for url and whether a fresh entry was found
func (c *Cache) Get(url string) ([]byte, bool, error) {
	path := c.path(url)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if c.maxAge > 0 && c.nowFunc().Sub(info.ModTime()) > c.maxAge {
		return nil, false, nil
	}

	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}

	decoder := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)

	body, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("zstd decompression of %s failed, %w", path, err)
	}
	return body, true, nil
}

// Put compresses and stores body for url, replacing any existing entry
func (c *Cache) Put(url string, body []byte) error {
	encoder := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(encoder)
	compressed := encoder.EncodeAll(body, nil)

	tmp, err := os.CreateTemp(c.dir, "entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path(url))
}
