package arena

import (
	crand "crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Tokens double as reconnect credentials, so the entropy source is
// crypto/rand rather than a seeded PRNG.
var (
	tokenEntropy   = ulid.Monotonic(crand.Reader, 0)
	tokenEntropyMu sync.Mutex
)

func newToken() string {
	tokenEntropyMu.Lock()
	defer tokenEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), tokenEntropy).String()
}

func newSessionID() string {
	return "sess_" + newToken()
}
