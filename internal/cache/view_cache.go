// Package cache keeps rendered read views in an in-memory badger store and
// drops them by path after mutations.
package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/anonto42/picgram/backend/internal/logging"
	"github.com/anonto42/picgram/backend/internal/metrics"
)

// Key identifies a cached view. Path groups views invalidated together.
type Key struct {
	Path   string // "/" or "/profile/<id>"
	View   string // "feed", "recommended", "followers", ...
	Params string // viewer and query parameters
}

func (k Key) String() string {
	return k.Path + "|" + k.View + "|" + k.Params
}

func pathPrefix(path string) []byte {
	return []byte(path + "|")
}

// generationKey counts the revalidations of a path. The leading zero byte
// keeps it outside every path prefix.
func generationKey(path string) []byte {
	return []byte("\x00gen|" + path)
}

// maxRevalidateAttempts bounds retries of a revalidation that lost a
// transaction conflict to a concurrent write.
const maxRevalidateAttempts = 10

// errStaleView reports a view computed before its path was revalidated.
var errStaleView = errors.New("view computed before revalidation")

// ViewCache stores JSON-encoded views with a TTL. A nil *ViewCache is a
// valid, always-missing cache.
type ViewCache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open creates an in-memory view cache.
func Open(ttl time.Duration) (*ViewCache, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open view cache: %w", err)
	}
	return &ViewCache{db: db, ttl: ttl}, nil
}

// Close releases the underlying store.
func (c *ViewCache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// Get decodes the view stored under key into dest.
func (c *ViewCache) Get(key Key, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key.String()))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cached view: %w", err)
	}
	return true, nil
}

// Set stores value under key until the TTL expires or its path is revalidated.
func (c *ViewCache) Set(key Key, value any) error {
	if c == nil {
		return nil
	}
	gen, err := c.Generation(key.Path)
	if err != nil {
		return err
	}
	return c.setIfCurrent(key, value, gen)
}

// Generation returns how many times path has been revalidated.
func (c *ViewCache) Generation(path string) (uint64, error) {
	if c == nil {
		return 0, nil
	}
	var gen uint64
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		gen, err = readGeneration(txn, path)
		return err
	})
	return gen, err
}

func readGeneration(txn *badger.Txn, path string) (uint64, error) {
	item, err := txn.Get(generationKey(path))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var gen uint64
	err = item.Value(func(v []byte) error {
		if len(v) != 8 {
			return fmt.Errorf("corrupt generation for %q", path)
		}
		gen = binary.BigEndian.Uint64(v)
		return nil
	})
	return gen, err
}

func writeGeneration(txn *badger.Txn, path string, gen uint64) error {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, gen)
	return txn.Set(generationKey(path), v)
}

// setIfCurrent stores value only while the path is still at generation
// gen. The generation is rewritten unchanged so that a revalidation
// committing concurrently conflicts with this write and retries.
func (c *ViewCache) setIfCurrent(key Key, value any, gen uint64) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode view: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		current, err := readGeneration(txn, key.Path)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleView
		}
		if err := writeGeneration(txn, key.Path, gen); err != nil {
			return err
		}
		e := badger.NewEntry([]byte(key.String()), raw)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Revalidate drops every cached view under each path and bumps the path
// generation, so views computed before the call are never stored.
func (c *ViewCache) Revalidate(paths ...string) error {
	if c == nil {
		return nil
	}
	var err error
	for attempt := 0; attempt < maxRevalidateAttempts; attempt++ {
		err = c.db.Update(func(txn *badger.Txn) error {
			for _, path := range paths {
				if err := revalidatePath(txn, path); err != nil {
					return err
				}
			}
			return nil
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return err
	}
	metrics.ViewCacheRevalidations.Add(float64(len(paths)))
	return nil
}

func revalidatePath(txn *badger.Txn, path string) error {
	prefix := pathPrefix(path)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	var keys [][]byte
	it := txn.NewIterator(opts)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}

	gen, err := readGeneration(txn, path)
	if err != nil {
		return err
	}
	return writeGeneration(txn, path, gen+1)
}

// Load returns the cached view for key or computes, stores and returns it.
// Cache failures are logged and fall through to load.
func Load[T any](ctx context.Context, c *ViewCache, key Key, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	var cached T
	hit, err := c.Get(key, &cached)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key.String()).Msg("view cache read failed")
	}
	if hit {
		metrics.ViewCacheHits.Inc()
		return cached, nil
	}
	metrics.ViewCacheMisses.Inc()

	gen, genErr := c.Generation(key.Path)
	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if genErr != nil {
		logging.Ctx(ctx).Warn().Err(genErr).Str("key", key.String()).Msg("view cache read failed")
		return value, nil
	}

	// A revalidation during load makes value stale for later readers.
	err = c.setIfCurrent(key, value, gen)
	switch {
	case err == nil:
	case errors.Is(err, errStaleView), errors.Is(err, badger.ErrConflict):
		logging.Ctx(ctx).Debug().Str("key", key.String()).Msg("view revalidated during load, not cached")
	default:
		logging.Ctx(ctx).Warn().Err(err).Str("key", key.String()).Msg("view cache write failed")
	}
	return value, nil
}

// ProfilePath is the path of a user's profile views.
func ProfilePath(userID uint) string {
	return fmt.Sprintf("/profile/%d", userID)
}

// Params joins name=value pairs into a stable key fragment.
func Params(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(pairs[i])
		b.WriteByte('=')
		b.WriteString(pairs[i+1])
	}
	return b.String()
}
