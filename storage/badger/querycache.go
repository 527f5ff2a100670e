package badger

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-crypt/x/blake2b"
)

// QueryCache stores upstream search responses for a short TTL so that
// repeated identical searches serve the cached body instead of hitting the
// catalogue again. Expiry is handled by badger itself via entry TTLs.
type QueryCache struct {
	backend *Backend
	ttl     time.Duration
	logger  *slog.Logger
}

// NewQueryCache creates a query cache on top of an open backend.
// A non-positive ttl disables caching entirely.
func NewQueryCache(backend *Backend, ttl time.Duration) (*QueryCache, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &QueryCache{
		backend: backend,
		ttl:     ttl,
		logger:  slog.Default().With("component", "query-cache"),
	}, nil
}

// fingerprint derives a fixed-size cache key from the search parameters
// using BLAKE2b, so arbitrarily long queries stay bounded in the keyspace.
func fingerprint(query string, page, limit int) string {
	h, _ := blake2b.New(16, nil)
	fmt.Fprintf(h, "%s|%d|%d", query, page, limit)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached response body for the search parameters, if any.
func (c *QueryCache) Get(ctx context.Context, query string, page, limit int) ([]byte, bool) {
	if c.ttl <= 0 || c.backend.IsClosed() {
		return nil, false
	}

	var body []byte
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeQueryCacheKey(fingerprint(query, page, limit)))
		if err != nil {
			return err
		}
		body, err = item.ValueCopy(nil)
		return err
	}, false)
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn("error reading cached response", "query", query, "err", err)
		}
		return nil, false
	}

	return body, true
}

// Put stores the response body for the search parameters.
// Cache failures are logged and ignored; the caller already has the body.
func (c *QueryCache) Put(ctx context.Context, query string, page, limit int, body []byte) {
	if c.ttl <= 0 || c.backend.IsClosed() || len(body) == 0 {
		return
	}

	err := c.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry(makeQueryCacheKey(fingerprint(query, page, limit)), body).
			WithTTL(c.ttl)
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		c.logger.Warn("error caching response", "query", query, "err", err)
	}
}
