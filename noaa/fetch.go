package noaa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrUnexpectedStatus = errors.New("unexpected http status")

const defaultTimeout = 30 * time.Second

// Client downloads trend files over HTTP. A nil HTTP client uses one with a 30s timeout
// and a nil Cache always downloads.
type Client struct {
	HTTP  *http.Client
	Cache *Cache
}

// NewClient returns a client with a bounded request timeout. cache may be nil.
func NewClient(cache *Cache) *Client {
	return &Client{
		HTTP:  &http.Client{Timeout: defaultTimeout},
		Cache: cache,
	}
}

// Fetch downloads and parses the dataset
func (c *Client) Fetch(ctx context.Context, ds Dataset) (*Table, error) {
	body, err := c.get(ctx, ds.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch %s, %w", ds.Name, err)
	}
	t, err := Parse(bytes.NewReader(body), ds.Columns)
	if err != nil {
		return nil, fmt.Errorf("unable to parse %s, %w", ds.Name, err)
	}
	log.Info().Str("dataset", ds.Name).Int("rows", t.Len()).Msg("fetched dataset")
	return t, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if c.Cache != nil {
		body, ok, err := c.Cache.Get(url)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("url", url).Msg("unable to read cache entry")
		case ok:
			log.Debug().Str("url", url).Int("bytes", len(body)).Msg("cache hit")
			return body, nil
		}
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d, %w", url, resp.StatusCode, ErrUnexpectedStatus)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read response body, %w", err)
	}
	log.Debug().Str("url", url).Int("bytes", len(body)).Msg("downloaded")

	if c.Cache != nil {
		if err := c.Cache.Put(url, body); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("unable to write cache entry")
		}
	}
	return body, nil
}

// Load parses a local copy of the dataset file
func Load(path string, ds Dataset) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	t, err := Parse(file, ds.Columns)
	if err != nil {
		return nil, fmt.Errorf("unable to parse %s, %w", path, err)
	}
	log.Info().Str("dataset", ds.Name).Str("path", path).Int("rows", t.Len()).Msg("loaded dataset")
	return t, nil
}
