package store

import "sync"

// lockTable provides per-player mutual exclusion in front of the database
// transaction. SQLite has no row locks to lean on, so this is the mechanism
// that makes concurrent lockers of the same world block each other while
// different worlds never serialize.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*playerLock
}

type playerLock struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: map[string]*playerLock{}}
}

// acquire blocks until the player's lock is held and returns the release
// function. Entries are reference counted so the table does not grow with
// every player ever seen.
func (t *lockTable) acquire(playerID string) func() {
	t.mu.Lock()
	pl, ok := t.locks[playerID]
	if !ok {
		pl = &playerLock{}
		t.locks[playerID] = pl
	}
	pl.refs++
	t.mu.Unlock()

	pl.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			pl.mu.Unlock()

			t.mu.Lock()
			pl.refs--
			if pl.refs == 0 {
				delete(t.locks, playerID)
			}
			t.mu.Unlock()
		})
	}
}
