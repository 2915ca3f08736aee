// Package clientcache keeps the client-picker list of known client names,
// persisted with a fetch timestamp and refreshed from the income ledger.
package clientcache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dvloznov/finance-docs/internal/logger"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxAge is how long a fetched list stays fresh.
const DefaultMaxAge = 24 * time.Hour

// State describes where the names of a Snapshot came from.
type State string

const (
	StateFresh       State = "fresh"
	StateStale       State = "stale"
	StatePlaceholder State = "placeholder"
)

// Notices shown next to the picker when the list could not be refreshed.
const (
	StaleNotice       = "שגיאה בטעינת רשימת לקוחות עדכנית. משתמש ברשימה מהזיכרון."
	placeholderPrefix = "שגיאה בטעינת רשימת לקוחות: "
)

// PlaceholderNames is served when nothing was ever cached and the ledger is
// unreachable, so the form stays usable.
var PlaceholderNames = []string{
	"לקוח א",
	"לקוח ב",
	"לקוח ג",
	"פלוני אלמוני",
	"חברה בע״מ",
	"עסק קטן",
}

// Entry is the persisted cache slot.
type Entry struct {
	Names     []string  `json:"names"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Store persists the cache slot. Load returns nil, nil when nothing is stored.
type Store interface {
	Load(ctx context.Context) (*Entry, error)
	Save(ctx context.Context, entry Entry) error
}

// Source fetches the current client names, already deduplicated and sorted.
type Source interface {
	ClientNames(ctx context.Context) ([]string, error)
}

// Snapshot is the answer to one read.
type Snapshot struct {
	Names     []string  `json:"names"`
	FetchedAt time.Time `json:"fetched_at"`
	State     State     `json:"state"`
	Notice    string    `json:"notice,omitempty"`
}

// Cache serves client names with a staleness policy: fresh lists are returned
// at once and refreshed in the background, stale or missing lists are fetched
// before returning, and fetch failures fall back to the last list or to
// PlaceholderNames.
type Cache struct {
	source Source
	store  Store
	now    func() time.Time
	maxAge time.Duration

	group      singleflight.Group
	refreshing atomic.Bool
	wg         sync.WaitGroup
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMaxAge overrides DefaultMaxAge.
func WithMaxAge(d time.Duration) Option {
	return func(c *Cache) { c.maxAge = d }
}

// New creates a Cache reading from source and persisting into store.
func New(source Source, store Store, opts ...Option) *Cache {
	c := &Cache{
		source: source,
		store:  store,
		now:    time.Now,
		maxAge: DefaultMaxAge,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Names returns the client list. It never fails.
func (c *Cache) Names(ctx context.Context) Snapshot {
	log := logger.FromContext(ctx)

	cached, err := c.store.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load client cache, treating as empty")
		cached = nil
	}

	if cached != nil && c.now().Sub(cached.FetchedAt) < c.maxAge {
		c.refreshInBackground(ctx)
		return Snapshot{Names: cached.Names, FetchedAt: cached.FetchedAt, State: StateFresh}
	}

	entry, err := c.fetch(ctx)
	if err == nil {
		return Snapshot{Names: entry.Names, FetchedAt: entry.FetchedAt, State: StateFresh}
	}

	log.Error().Err(err).Msg("Failed to fetch client names")

	if cached != nil {
		return Snapshot{
			Names:     cached.Names,
			FetchedAt: cached.FetchedAt,
			State:     StateStale,
			Notice:    StaleNotice,
		}
	}

	names := make([]string, len(PlaceholderNames))
	copy(names, PlaceholderNames)
	return Snapshot{
		Names:  names,
		State:  StatePlaceholder,
		Notice: placeholderPrefix + err.Error(),
	}
}

// Wait blocks until any background refresh has finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// fetch pulls the names from the source and overwrites the stored slot.
// Concurrent callers share one source call.
func (c *Cache) fetch(ctx context.Context) (Entry, error) {
	v, err, _ := c.group.Do("names", func() (interface{}, error) {
		names, err := c.source.ClientNames(ctx)
		if err != nil {
			return Entry{}, err
		}

		entry := Entry{Names: names, FetchedAt: c.now()}
		if err := c.store.Save(ctx, entry); err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Msg("Failed to persist client cache")
		}
		return entry, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return v.(Entry), nil
}

// refreshInBackground starts at most one detached refresh. Its outcome is
// seen only by later reads.
func (c *Cache) refreshInBackground(ctx context.Context) {
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}

	bg := logger.Detach(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.refreshing.Store(false)

		log := logger.FromContext(bg)
		entry, err := c.fetch(bg)
		if err != nil {
			log.Warn().Err(err).Msg("Background client refresh failed")
			return
		}
		log.Debug().Int("client_count", len(entry.Names)).Msg("Refreshed client names in background")
	}()
}
