// Package cache keys cached previews by configuration version and
// normalized URL, so equivalent URL spellings share one entry and a
// version bump invalidates everything at once.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/preview-pipeline/internal/model"
	"github.com/sells-group/preview-pipeline/internal/store"
)

// Cache wraps the store's preview table with versioned key derivation.
type Cache struct {
	store   store.Store
	version string
	ttl     time.Duration
}

// New creates a Cache. version prefixes every key; ttl bounds entry
// lifetime.
func New(s store.Store, version string, ttl time.Duration) *Cache {
	return &Cache{store: s, version: version, ttl: ttl}
}

// Key derives the cache key for a URL: sha256 over the config version
// and the normalized URL, hex encoded.
func (c *Cache) Key(rawURL string) string {
	sum := sha256.Sum256([]byte(c.version + "|" + NormalizeURL(rawURL)))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached record for the URL, or nil on miss. Store
// errors are returned so callers can distinguish a miss from an outage.
func (c *Cache) Get(ctx context.Context, rawURL string) (*model.PreviewRecord, error) {
	record, err := c.store.GetPreview(ctx, c.Key(rawURL))
	if err != nil {
		return nil, eris.Wrap(err, "cache: get")
	}
	if record != nil {
		zap.L().Debug("cache hit", zap.String("url", rawURL))
	}
	return record, nil
}

// Set stores the record under the URL's derived key.
func (c *Cache) Set(ctx context.Context, rawURL string, record *model.PreviewRecord) error {
	return eris.Wrap(c.store.SetPreview(ctx, c.Key(rawURL), record, c.ttl), "cache: set")
}

// NormalizeURL canonicalizes a URL so trivially different spellings map
// to the same cache entry: lowercased scheme and host, default port and
// trailing slash stripped, fragment dropped, query sorted by key.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host

	u.Path = strings.TrimSuffix(u.Path, "/")
	u.Fragment = ""

	if u.RawQuery != "" {
		values, err := url.ParseQuery(u.RawQuery)
		if err == nil {
			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			var b strings.Builder
			for _, k := range keys {
				vals := values[k]
				sort.Strings(vals)
				for _, v := range vals {
					if b.Len() > 0 {
						b.WriteByte('&')
					}
					b.WriteString(url.QueryEscape(k))
					b.WriteByte('=')
					b.WriteString(url.QueryEscape(v))
				}
			}
			u.RawQuery = b.String()
		}
	}

	return u.String()
}
