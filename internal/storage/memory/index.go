package memory

import (
	"time"

	"github.com/google/btree"
)

// expiration is one unit of reaper work: the deadline at which key should
// be evicted. Ordering is by deadline first, then key, so that concurrent
// equal deadlines still have a total order.
type expiration struct {
	at  time.Time
	key string
}

func lessExpiration(a, b expiration) bool {
	if a.at.Equal(b.at) {
		return a.key < b.key
	}
	return a.at.Before(b.at)
}

// expirationIndex is an ordered set of (deadline, key) pairs. Its minimum
// element is always the next key due to expire. The index carries exactly
// one pair per entry in the store that has a deadline; both structures are
// only ever mutated together under the store lock.
type expirationIndex struct {
	tree *btree.BTreeG[expiration]
}

func newExpirationIndex() *expirationIndex {
	return &expirationIndex{tree: btree.NewG(8, lessExpiration)}
}

func (x *expirationIndex) insert(at time.Time, key string) {
	x.tree.ReplaceOrInsert(expiration{at: at, key: key})
}

func (x *expirationIndex) remove(at time.Time, key string) bool {
	_, ok := x.tree.Delete(expiration{at: at, key: key})
	return ok
}

// min returns the earliest pair without removing it.
func (x *expirationIndex) min() (expiration, bool) {
	return x.tree.Min()
}

func (x *expirationIndex) deleteMin() (expiration, bool) {
	return x.tree.DeleteMin()
}

func (x *expirationIndex) len() int {
	return x.tree.Len()
}
