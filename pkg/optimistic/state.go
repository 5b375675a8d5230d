// Package optimistic applies pin.like to cached feeds before the server
// answers and reconciles the cache with the outcome.
package optimistic

import (
	"errors"
	"fmt"

	"github.com/anonto42/pins/backend/pkg/api"
	"github.com/anonto42/pins/backend/pkg/querycache"
)

// Phase is the tag of a State.
type Phase int

const (
	Idle Phase = iota
	Pending
	Committed
	RolledBack
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled-back"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Snapshot is the cached data of every affected feed as it was before the
// speculative edit. A nil entry means the feed had no data.
type Snapshot map[querycache.Key]*querycache.Data

// State of one optimistic mutation. Snapshot is set in Pending and
// RolledBack, Result in Committed and Err in RolledBack.
type State struct {
	Phase    Phase
	Snapshot Snapshot
	Result   *api.LikeResult
	Err      error
}

// Event drives a State forward.
type Event interface{ event() }

// Begin starts a mutation with the state captured before the speculative
// edit.
type Begin struct{ Snapshot Snapshot }

// Succeed settles a pending mutation with the server's answer.
type Succeed struct{ Result *api.LikeResult }

// Fail settles a pending mutation with the server's error.
type Fail struct{ Err error }

func (Begin) event()   {}
func (Succeed) event() {}
func (Fail) event()    {}

var ErrInvalidTransition = errors.New("optimistic: invalid transition")

// Reconcile is the only way a State changes. Idle accepts Begin, Pending
// accepts Succeed or Fail, and the settled phases accept nothing.
func Reconcile(s State, ev Event) (State, error) {
	switch s.Phase {
	case Idle:
		if b, ok := ev.(Begin); ok {
			return State{Phase: Pending, Snapshot: b.Snapshot}, nil
		}
	case Pending:
		switch e := ev.(type) {
		case Succeed:
			return State{Phase: Committed, Result: e.Result}, nil
		case Fail:
			return State{Phase: RolledBack, Snapshot: s.Snapshot, Err: e.Err}, nil
		}
	}
	return s, fmt.Errorf("%w: %T in %s", ErrInvalidTransition, ev, s.Phase)
}
