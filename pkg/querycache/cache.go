// Package querycache keeps client-side copies of paginated pin feeds.
//
// Each key holds the pages loaded so far. Reads for a key can be cancelled,
// after which any response still in flight is discarded instead of
// overwriting newer local state.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/anonto42/pins/backend/pkg/api"
)

// ErrCanceled is returned by reads that were cancelled with Cancel before
// their response arrived.
var ErrCanceled = errors.New("querycache: read canceled")

// Key identifies one cached feed.
type Key string

// FetchFunc loads the page of key that starts at cursor. An empty cursor
// means the first page.
type FetchFunc func(ctx context.Context, key Key, cursor string) (*api.PinPage, error)

// Pager is implemented by the RPC client.
type Pager interface {
	InfinitePins(ctx context.Context, in api.InfiniteInput) (*api.PinPage, error)
}

// FeedKey returns the key of the feed described by in. The cursor is not part
// of the key.
func FeedKey(in api.InfiniteInput) Key {
	in.Cursor = ""
	raw, _ := json.Marshal(in)
	return Key("pin.infinite:" + string(raw))
}

// FeedFetcher adapts a Pager to a FetchFunc for keys built with FeedKey.
func FeedFetcher(p Pager) FetchFunc {
	return func(ctx context.Context, key Key, cursor string) (*api.PinPage, error) {
		var in api.InfiniteInput
		raw := string(key)
		const prefix = "pin.infinite:"
		if len(raw) < len(prefix) || raw[:len(prefix)] != prefix {
			return nil, fmt.Errorf("querycache: %q is not a feed key", key)
		}
		if err := json.Unmarshal([]byte(raw[len(prefix):]), &in); err != nil {
			return nil, fmt.Errorf("querycache: decode key: %w", err)
		}
		in.Cursor = cursor
		return p.InfinitePins(ctx, in)
	}
}

// Data is the cached state of one feed.
type Data struct {
	Pages []api.PinPage
}

// Pins returns every pin of every loaded page in order.
func (d *Data) Pins() []api.Pin {
	var out []api.Pin
	for _, p := range d.Pages {
		out = append(out, p.Pins...)
	}
	return out
}

// NextCursor returns the cursor of the page after the last loaded one.
func (d *Data) NextCursor() (string, bool) {
	if len(d.Pages) == 0 {
		return "", false
	}
	last := d.Pages[len(d.Pages)-1]
	if last.NextCursor == nil {
		return "", false
	}
	return *last.NextCursor, true
}

type entry struct {
	data    *Data
	gen     uint64
	nextID  uint64
	cancels map[uint64]context.CancelFunc
}

// Cache is safe for concurrent use.
type Cache struct {
	fetch FetchFunc
	group singleflight.Group

	mu      sync.Mutex
	entries map[Key]*entry
}

func New(fetch FetchFunc) *Cache {
	return &Cache{fetch: fetch, entries: make(map[Key]*entry)}
}

func (c *Cache) entry(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{cancels: make(map[uint64]context.CancelFunc)}
		c.entries[key] = e
	}
	return e
}

// Fetch loads the first page of key, replacing whatever was cached.
func (c *Cache) Fetch(ctx context.Context, key Key) (*Data, error) {
	c.mu.Lock()
	gen := c.entry(key).gen
	c.mu.Unlock()

	page, err := c.load(ctx, key, "", gen)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(key)
	if e.gen != gen {
		return nil, ErrCanceled
	}
	e.data = &Data{Pages: []api.PinPage{*page}}
	return e.data.clone(), nil
}

// FetchNextPage appends the page after the last loaded one. It reports false
// when there is nothing more to load.
func (c *Cache) FetchNextPage(ctx context.Context, key Key) (*Data, bool, error) {
	c.mu.Lock()
	e := c.entry(key)
	gen := e.gen
	if e.data == nil {
		c.mu.Unlock()
		data, err := c.Fetch(ctx, key)
		return data, err == nil, err
	}
	cursor, more := e.data.NextCursor()
	if !more {
		data := e.data.clone()
		c.mu.Unlock()
		return data, false, nil
	}
	c.mu.Unlock()

	page, err := c.load(ctx, key, cursor, gen)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e.gen != gen || e.data == nil {
		return nil, false, ErrCanceled
	}
	// Another caller may have appended the same page already.
	if current, ok := e.data.NextCursor(); !ok || current != cursor {
		return e.data.clone(), true, nil
	}
	e.data.Pages = append(e.data.Pages, *page)
	return e.data.clone(), true, nil
}

// Invalidate refetches as many pages as are currently loaded, starting from
// the first one, and replaces the cached data with the result.
func (c *Cache) Invalidate(ctx context.Context, key Key) (*Data, error) {
	c.mu.Lock()
	e := c.entry(key)
	gen := e.gen
	want := 1
	if e.data != nil && len(e.data.Pages) > 0 {
		want = len(e.data.Pages)
	}
	c.mu.Unlock()

	fresh := &Data{}
	cursor := ""
	for i := 0; i < want; i++ {
		page, err := c.load(ctx, key, cursor, gen)
		if err != nil {
			return nil, err
		}
		fresh.Pages = append(fresh.Pages, *page)
		next, more := fresh.NextCursor()
		if !more {
			break
		}
		cursor = next
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e.gen != gen {
		return nil, ErrCanceled
	}
	e.data = fresh
	return fresh.clone(), nil
}

// Cancel aborts every read of key that is in flight. Their results are
// dropped and the callers receive ErrCanceled.
func (c *Cache) Cancel(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(key)
	e.gen++
	for id, cancel := range e.cancels {
		cancel()
		delete(e.cancels, id)
	}
}

// Keys returns every key that has data.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]Key, 0, len(c.entries))
	for k, e := range c.entries {
		if e.data != nil {
			keys = append(keys, k)
		}
	}
	return keys
}

// GetData returns a copy of the cached data, or nil.
func (c *Cache) GetData(key Key) *Data {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.data == nil {
		return nil
	}
	return e.data.clone()
}

// SetData replaces the cached data with a copy of data. A nil data clears
// the key.
func (c *Cache) SetData(key Key, data *Data) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry(key).data = data.clone()
}

// UpdateData applies fn to the cached data of key. It is a no-op when the key
// has no data.
func (c *Cache) UpdateData(key Key, fn func(*Data)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.data == nil {
		return
	}
	fn(e.data)
}

// load runs one fetch, shared with any identical fetch already in flight.
// The fetch itself is detached from ctx so one caller giving up does not
// fail the others; only Cancel stops it.
func (c *Cache) load(ctx context.Context, key Key, cursor string, gen uint64) (*api.PinPage, error) {
	c.mu.Lock()
	e := c.entry(key)
	if e.gen != gen {
		c.mu.Unlock()
		return nil, ErrCanceled
	}
	flightKey := fmt.Sprintf("%s|%d|%s", key, gen, cursor)
	c.mu.Unlock()

	ch := c.group.DoChan(flightKey, func() (any, error) {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c.mu.Lock()
		if e.gen != gen {
			c.mu.Unlock()
			cancel()
			return nil, ErrCanceled
		}
		id := e.nextID
		e.nextID++
		e.cancels[id] = cancel
		c.mu.Unlock()

		defer func() {
			c.mu.Lock()
			delete(e.cancels, id)
			c.mu.Unlock()
			cancel()
		}()

		page, err := c.fetch(fctx, key, cursor)
		if fctx.Err() != nil {
			return nil, ErrCanceled
		}
		return page, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*api.PinPage), nil
	}
}

func (d *Data) clone() *Data {
	if d == nil {
		return nil
	}
	out := &Data{Pages: make([]api.PinPage, len(d.Pages))}
	for i, p := range d.Pages {
		out.Pages[i] = clonePage(p)
	}
	return out
}

func clonePage(p api.PinPage) api.PinPage {
	out := api.PinPage{Pins: make([]api.Pin, len(p.Pins))}
	if p.NextCursor != nil {
		next := *p.NextCursor
		out.NextCursor = &next
	}
	for i, pin := range p.Pins {
		out.Pins[i] = ClonePin(pin)
	}
	return out
}

// ClonePin returns a copy of pin that shares no memory with it.
func ClonePin(pin api.Pin) api.Pin {
	out := pin
	out.Latitude = cloneFloat(pin.Latitude)
	out.Longitude = cloneFloat(pin.Longitude)
	out.Image = cloneImage(pin.Image)
	if pin.User != nil {
		u := *pin.User
		u.Image = cloneImage(pin.User.Image)
		out.User = &u
	}
	if pin.Community != nil {
		cm := *pin.Community
		out.Community = &cm
	}
	if pin.LikedBy != nil {
		out.LikedBy = append(make([]api.UserRef, 0, len(pin.LikedBy)), pin.LikedBy...)
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneImage(img *api.Image) *api.Image {
	if img == nil {
		return nil
	}
	v := *img
	return &v
}
