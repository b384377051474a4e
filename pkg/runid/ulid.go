package runid

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ulidState serializes ULID generation so successive calls within the
// same process are monotonic even at the same millisecond, per
// oklog/ulid's documented MonotonicEntropy pattern.
var ulidState = struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}{}

// ULID returns a 26-character Crockford-base32 ULID, monotonic within
// this process (§4.2).
func ULID() string {
	ulidState.mu.Lock()
	defer ulidState.mu.Unlock()
	if ulidState.entropy == nil {
		ulidState.entropy = ulid.Monotonic(rand.Reader, 0)
	}
	id := ulid.MustNew(ulid.Timestamp(time.Now()), ulidState.entropy)
	return id.String()
}
