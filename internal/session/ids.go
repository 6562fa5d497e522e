package session

import (
	"sync"
	"time"
)

var (
	idMu   sync.Mutex
	lastID int64
)

// newID issues a millisecond-timestamp id, bumped past the previous one so
// two ids minted in the same millisecond stay distinct.
func newID() int64 {
	idMu.Lock()
	defer idMu.Unlock()

	id := time.Now().UnixMilli()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return id
}
