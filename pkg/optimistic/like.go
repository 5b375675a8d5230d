package optimistic

import (
	"context"
	"errors"
	"log/slog"

	"github.com/anonto42/pins/backend/pkg/api"
	"github.com/anonto42/pins/backend/pkg/querycache"
)

// Liker performs the server side of pin.like.
type Liker interface {
	LikePin(ctx context.Context, pinID string) (*api.LikeResult, error)
}

// LikeToggle runs pin.like against a cache of feeds.
type LikeToggle struct {
	cache *querycache.Cache
	liker Liker
	log   *slog.Logger
}

func NewLikeToggle(cache *querycache.Cache, liker Liker, log *slog.Logger) *LikeToggle {
	if log == nil {
		log = slog.Default()
	}
	return &LikeToggle{cache: cache, liker: liker, log: log}
}

// Toggle likes or unlikes pinID on behalf of userID. Every cached feed
// reflects the expected outcome while the request is in flight. On failure
// the feeds are restored to exactly what they held before; either way they
// are refetched once the request settles. The returned State is Committed or
// RolledBack.
func (t *LikeToggle) Toggle(ctx context.Context, pinID, userID string) (State, error) {
	keys := t.cache.Keys()

	// In-flight reads would overwrite the speculative edit with older data.
	for _, key := range keys {
		t.cache.Cancel(key)
	}

	snapshot := make(Snapshot, len(keys))
	for _, key := range keys {
		snapshot[key] = t.cache.GetData(key)
	}

	state, err := Reconcile(State{}, Begin{Snapshot: snapshot})
	if err != nil {
		return state, err
	}
	for _, key := range keys {
		t.cache.UpdateData(key, func(d *querycache.Data) {
			ApplyToggle(d, pinID, userID)
		})
	}

	res, callErr := t.liker.LikePin(ctx, pinID)
	if callErr != nil {
		state, err = Reconcile(state, Fail{Err: callErr})
	} else {
		state, err = Reconcile(state, Succeed{Result: res})
	}
	if err != nil {
		return state, err
	}
	t.apply(state)
	t.settle(ctx, keys)

	if state.Phase == RolledBack {
		return state, state.Err
	}
	return state, nil
}

// apply writes a settled state into the cache.
func (t *LikeToggle) apply(s State) {
	switch s.Phase {
	case RolledBack:
		for key, data := range s.Snapshot {
			t.cache.SetData(key, data)
		}
	case Committed:
		for _, key := range t.cache.Keys() {
			t.cache.UpdateData(key, func(d *querycache.Data) {
				ApplyResult(d, s.Result)
			})
		}
	}
}

func (t *LikeToggle) settle(ctx context.Context, keys []querycache.Key) {
	for _, key := range keys {
		if _, err := t.cache.Invalidate(ctx, key); err != nil && !errors.Is(err, querycache.ErrCanceled) {
			t.log.WarnContext(ctx, "refetch after like failed", "key", string(key), "error", err)
		}
	}
}

// ApplyToggle flips userID's membership in the likedBy list of every copy of
// pinID in d. The membership test is api.Pin.LikedByUser, the one the server
// toggles on.
func ApplyToggle(d *querycache.Data, pinID, userID string) {
	forEachPin(d, pinID, func(p *api.Pin) {
		if p.LikedByUser(userID) {
			kept := p.LikedBy[:0:0]
			for _, u := range p.LikedBy {
				if u.ID != userID {
					kept = append(kept, u)
				}
			}
			p.LikedBy = kept
		} else {
			p.LikedBy = append(p.LikedBy, api.UserRef{ID: userID})
		}
		p.Count.LikedBy = len(p.LikedBy)
	})
}

// ApplyResult replaces the likedBy list of every copy of the pin with the
// server's answer.
func ApplyResult(d *querycache.Data, res *api.LikeResult) {
	if res == nil {
		return
	}
	forEachPin(d, res.PinID, func(p *api.Pin) {
		p.LikedBy = append([]api.UserRef(nil), res.LikedBy...)
		p.Count.LikedBy = len(p.LikedBy)
	})
}

func forEachPin(d *querycache.Data, pinID string, fn func(*api.Pin)) {
	if d == nil {
		return
	}
	for i := range d.Pages {
		for j := range d.Pages[i].Pins {
			if d.Pages[i].Pins[j].ID == pinID {
				fn(&d.Pages[i].Pins[j])
			}
		}
	}
}
