package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	readerMu sync.Mutex
	reader   = ulid.Monotonic(rand.Reader, 0)
)

// New returns a lexicographically sortable identifier for storage keys.
func New() string {
	readerMu.Lock()
	defer readerMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), reader).String()
}
