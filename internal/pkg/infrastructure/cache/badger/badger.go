// Package badger stores hydrated documents in an embedded BadgerDB so that a
// cache survives restarts of a single instance.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/diwise/jsonapi-entities/pkg/jsonapi/cache"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/vmihailenco/msgpack/v5"
)

const keyPrefix string = "jsonapi:"

type Options struct {
	// Dir holds the data files and is required unless InMemory is set
	Dir      string
	InMemory bool
	// TTL is the lifetime of each cached document, zero means no expiry
	TTL time.Duration
}

type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

func New(ctx context.Context, opts Options) (*Cache, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("badger cache: a data directory is required for on-disk mode")
	}

	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{log: logging.GetFromContext(ctx).With(slog.String("component", "badger"))})

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache: %w", err)
	}

	return &Cache{db: db, ttl: opts.TTL}, nil
}

func (c *Cache) Get(_ context.Context, endpoint string) (map[string]any, error) {
	var val []byte

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + endpoint))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return decode(val)
}

func (c *Cache) Set(_ context.Context, endpoint string, document map[string]any) error {
	b, err := msgpack.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to encode document for %s: %w", endpoint, err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(keyPrefix+endpoint), b)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (c *Cache) Snapshot(_ context.Context) (map[string]map[string]any, error) {
	snapshot := map[string]map[string]any{}
	prefix := []byte(keyPrefix)

	err := c.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}

			doc, err := decode(val)
			if err != nil {
				return err
			}

			snapshot[strings.TrimPrefix(string(item.Key()), keyPrefix)] = doc
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func decode(b []byte) (map[string]any, error) {
	doc := map[string]any{}

	err := msgpack.Unmarshal(b, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cached document: %w", err)
	}

	normalized, _ := normalize(doc).(map[string]any)
	return normalized, nil
}

// normalize turns the integer types produced by msgpack back into the float64
// numbers a json decoder would have produced
func normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for k := range v {
			v[k] = normalize(v[k])
		}
		return v
	case []any:
		for i := range v {
			v[i] = normalize(v[i])
		}
		return v
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	default:
		return v
	}
}

type badgerLogger struct {
	log *slog.Logger
}

func (l badgerLogger) Errorf(f string, v ...any)   { l.log.Error(strings.TrimSpace(fmt.Sprintf(f, v...))) }
func (l badgerLogger) Warningf(f string, v ...any) { l.log.Warn(strings.TrimSpace(fmt.Sprintf(f, v...))) }
func (l badgerLogger) Infof(string, ...any)        {}
func (l badgerLogger) Debugf(string, ...any)       {}
