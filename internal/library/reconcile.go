package library

import (
	"fmt"
	"sort"
)

// Reconciler replays a possibly out-of-order, possibly duplicated stream
// of committed changes into a local library copy in strict revision
// order. Changes at or below the local revision are discarded as stale;
// changes beyond the next expected revision wait in the buffer until the
// gap fills. The caller re-requests the change list when a gap persists.
//
// Feed it logged changes only (ChangesSince output). ArtistAddOrGet
// dedup records reuse the revision of an unrelated logged change, so a
// buffered dedup record could shadow the real change at that revision.
type Reconciler struct {
	lib     *Library
	pending []CommittedChange
}

func NewReconciler(lib *Library) *Reconciler {
	return &Reconciler{lib: lib}
}

// Library returns the local copy the reconciler maintains.
func (r *Reconciler) Library() *Library { return r.lib }

// Pending returns the number of buffered changes not yet applicable.
func (r *Reconciler) Pending() int { return len(r.pending) }

// Enqueue merges incoming changes into the buffer and applies every
// change that has become applicable. It returns the number of changes
// applied. An InvariantError means the local copy has diverged from the
// server history and must be rebuilt from a fresh snapshot.
func (r *Reconciler) Enqueue(changes ...CommittedChange) (int, error) {
	r.pending = append(r.pending, changes...)
	sort.SliceStable(r.pending, func(i, j int) bool {
		return r.pending[i].CommittedRevision < r.pending[j].CommittedRevision
	})

	applied := 0
	for len(r.pending) > 0 {
		next := r.pending[0]
		switch {
		case next.CommittedRevision <= r.lib.revision:
			// Already applied, or a duplicate of a buffered change
			// that just landed.
			r.pending = r.pending[1:]
		case next.CommittedRevision == r.lib.revision+1:
			if err := r.apply(next); err != nil {
				return applied, err
			}
			r.pending = r.pending[1:]
			applied++
		default:
			return applied, nil
		}
	}
	return applied, nil
}

func (r *Reconciler) apply(change CommittedChange) error {
	got, err := r.lib.Commit(change.Request)
	if err != nil {
		return &InvariantError{Reason: fmt.Sprintf("replay of revision %d failed: %v", change.CommittedRevision, err)}
	}
	if got.CommittedRevision != change.CommittedRevision {
		return &InvariantError{Reason: fmt.Sprintf("replay landed on revision %d, expected %d", got.CommittedRevision, change.CommittedRevision)}
	}
	if got.CreatedID != change.CreatedID {
		return &InvariantError{Reason: fmt.Sprintf("replay of revision %d created ID %d, expected %d", change.CommittedRevision, got.CreatedID, change.CreatedID)}
	}
	return nil
}
