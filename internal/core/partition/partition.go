package partition

import (
	"hash/fnv"

	"github.com/beanmart/salesmart/internal/core/mart"
)

// Count is the fixed number of lock stripes mart keys hash into.
// Two keys in the same stripe serialize against each other; that is safe, only slower.
const Count = 256

// lockNamespace keeps salesmart advisory lock ids away from other users of the same database.
const lockNamespace int64 = 0x5a1e5 << 16

// For returns the stripe for a mart key.
// Stable and deterministic: the same key always maps to the same stripe.
func For(key mart.Key) int {
	h := fnv.New32a()
	h.Write([]byte(key.String()))
	return int(h.Sum32() % Count)
}

// LockID returns the Postgres advisory lock id guarding a mart key's stripe.
func LockID(key mart.Key) int64 {
	return lockNamespace + int64(For(key))
}
