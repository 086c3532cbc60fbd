package operators

import "github.com/google/uuid"

// cacheTag stamps a workspace with a generation id at the moment
// CacheOperator allocates it. Operators that cache workspace embed
// one so a stale-shape fault can report which generation
// the caller's arguments were cached against, rather than just "call
// CacheOperator again".
type cacheTag struct {
	id uuid.UUID
}

func newCacheTag() cacheTag { return cacheTag{id: uuid.New()} }

func (c cacheTag) String() string {
	if c.id == uuid.Nil {
		return "<uncached>"
	}
	return c.id.String()
}
